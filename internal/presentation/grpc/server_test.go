package grpc

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"

	"github.com/mkdev28/Cropp/pkg/auth"
	"github.com/mkdev28/Cropp/pkg/testutil"
	"github.com/mkdev28/Cropp/pkg/tlsutil"
)

func startServer(t *testing.T, jwt *auth.JWTService) (*Server, *grpclib.ClientConn) {
	t.Helper()
	return serve(t, ServerConfig{ServiceName: "risk-service", JWT: jwt}, insecure.NewCredentials())
}

func serve(t *testing.T, cfg ServerConfig, creds credentials.TransportCredentials) (*Server, *grpclib.ClientConn) {
	t.Helper()
	h := buildHandler(t, testutil.TrainedBundle(t), nil)
	srv, err := NewServer(h, cfg, testLogger())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpclib.WithTransportCredentials(creds),
		grpclib.WithDefaultCallOptions(grpclib.CallContentSubtype(CodecName)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return srv, conn
}

func TestServer_ScoreOverJSONCodec(t *testing.T) {
	_, conn := startServer(t, nil)

	rec := testutil.RainfedDroughtFarm()
	var resp ScoreFarmResponse
	err := conn.Invoke(context.Background(), MethodScoreFarm, &ScoreFarmRequest{Record: &rec}, &resp)
	require.NoError(t, err)
	require.NotNil(t, resp.Report)
	assert.Equal(t, "F-DROUGHT", resp.Report.FarmerID)
}

func TestServer_Health(t *testing.T) {
	srv, conn := startServer(t, nil)
	client := healthpb.NewHealthClient(conn)

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "risk-service"},
		grpclib.CallContentSubtype("proto"))
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	srv.SetServing(true)
	resp, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "risk-service"},
		grpclib.CallContentSubtype("proto"))
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestServer_Auth(t *testing.T) {
	jwt, err := auth.NewJWTService(auth.JWTConfig{Secret: "grpc-test-secret", Issuer: "agririsk"})
	require.NoError(t, err)
	_, conn := startServer(t, jwt)

	withToken := func(roles ...string) context.Context {
		token, err := jwt.GenerateToken("caller", roles)
		require.NoError(t, err)
		return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
	}
	rec := testutil.FarmRecord()

	var resp ScoreFarmResponse
	err = conn.Invoke(context.Background(), MethodScoreFarm, &ScoreFarmRequest{Record: &rec}, &resp)
	requireGRPCCode(t, err, codes.Unauthenticated)

	err = conn.Invoke(withToken(auth.RoleAPIClient), MethodScoreFarm, &ScoreFarmRequest{Record: &rec}, &resp)
	require.NoError(t, err)

	var act ActivateBundleResponse
	err = conn.Invoke(withToken(auth.RoleUnderwriter), MethodActivateBundle,
		&ActivateBundleRequest{BundleID: testutil.TestBundleID.String()}, &act)
	requireGRPCCode(t, err, codes.PermissionDenied)

	var info GetModelInfoResponse
	err = conn.Invoke(withToken(), MethodGetModelInfo, &GetModelInfoRequest{}, &info)
	require.NoError(t, err)
	assert.NotNil(t, info.Info)

	_, err = healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{},
		grpclib.CallContentSubtype("proto"))
	require.NoError(t, err)
}

func TestServer_TLS(t *testing.T) {
	dir := t.TempDir()
	files, err := tlsutil.GenerateSelfSignedCert([]string{"bufnet"}, dir)
	require.NoError(t, err)
	creds, err := tlsutil.ClientCredentials(filepath.Join(dir, "ca.pem"), false)
	require.NoError(t, err)

	_, conn := serve(t, ServerConfig{ServiceName: "risk-service", TLS: files}, creds)

	var info GetModelInfoResponse
	require.NoError(t, conn.Invoke(context.Background(), MethodGetModelInfo, &GetModelInfoRequest{}, &info))
	assert.NotNil(t, info.Info)
}
