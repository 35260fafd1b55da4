package grpc

// proto.go defines the gRPC server interface for agririsk/risk/v1/risk.proto.
// Messages travel with the JSON codec registered in json_codec.go.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "agririsk.risk.v1.RiskService"

// Full method names, as seen by interceptors.
const (
	MethodScoreFarm      = "/" + ServiceName + "/ScoreFarm"
	MethodScoreBatch     = "/" + ServiceName + "/ScoreBatch"
	MethodGetModelInfo   = "/" + ServiceName + "/GetModelInfo"
	MethodActivateBundle = "/" + ServiceName + "/ActivateBundle"
)

// RiskServiceServer is the server API for RiskService.
type RiskServiceServer interface {
	ScoreFarm(context.Context, *ScoreFarmRequest) (*ScoreFarmResponse, error)
	ScoreBatch(context.Context, *ScoreBatchRequest) (*ScoreBatchResponse, error)
	GetModelInfo(context.Context, *GetModelInfoRequest) (*GetModelInfoResponse, error)
	ActivateBundle(context.Context, *ActivateBundleRequest) (*ActivateBundleResponse, error)
	mustEmbedUnimplementedRiskServiceServer()
}

// UnimplementedRiskServiceServer provides forward-compatible default implementations.
type UnimplementedRiskServiceServer struct{}

func (UnimplementedRiskServiceServer) ScoreFarm(context.Context, *ScoreFarmRequest) (*ScoreFarmResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ScoreFarm not implemented")
}
func (UnimplementedRiskServiceServer) ScoreBatch(context.Context, *ScoreBatchRequest) (*ScoreBatchResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ScoreBatch not implemented")
}
func (UnimplementedRiskServiceServer) GetModelInfo(context.Context, *GetModelInfoRequest) (*GetModelInfoResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetModelInfo not implemented")
}
func (UnimplementedRiskServiceServer) ActivateBundle(context.Context, *ActivateBundleRequest) (*ActivateBundleResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ActivateBundle not implemented")
}
func (UnimplementedRiskServiceServer) mustEmbedUnimplementedRiskServiceServer() {}

// RegisterRiskServiceServer registers the RiskServiceServer with the gRPC server.
func RegisterRiskServiceServer(s grpclib.ServiceRegistrar, srv RiskServiceServer) {
	s.RegisterService(&_RiskService_serviceDesc, srv)
}

var _RiskService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RiskServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "ScoreFarm", Handler: _RiskService_ScoreFarm_Handler},
		{MethodName: "ScoreBatch", Handler: _RiskService_ScoreBatch_Handler},
		{MethodName: "GetModelInfo", Handler: _RiskService_GetModelInfo_Handler},
		{MethodName: "ActivateBundle", Handler: _RiskService_ActivateBundle_Handler},
	},
	Streams: []grpclib.StreamDesc{},
}

func _RiskService_ScoreFarm_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(ScoreFarmRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).ScoreFarm(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodScoreFarm}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RiskServiceServer).ScoreFarm(ctx, req.(*ScoreFarmRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _RiskService_ScoreBatch_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(ScoreBatchRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).ScoreBatch(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodScoreBatch}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RiskServiceServer).ScoreBatch(ctx, req.(*ScoreBatchRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _RiskService_GetModelInfo_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(GetModelInfoRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).GetModelInfo(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodGetModelInfo}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RiskServiceServer).GetModelInfo(ctx, req.(*GetModelInfoRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _RiskService_ActivateBundle_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(ActivateBundleRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).ActivateBundle(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodActivateBundle}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RiskServiceServer).ActivateBundle(ctx, req.(*ActivateBundleRequest))
	}
	return interceptor(ctx, req, info, handler)
}
