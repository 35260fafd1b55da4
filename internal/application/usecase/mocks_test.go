package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mkdev28/Cropp/internal/domain/bundle"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/domain/port"
	"github.com/mkdev28/Cropp/pkg/events"
)

// --- Mock implementations ---

type mockBundleRepository struct {
	mu       sync.Mutex
	bundles  map[uuid.UUID]*bundle.Bundle
	activeID uuid.UUID
	saveErr  error
}

func newMockBundleRepository(bs ...*bundle.Bundle) *mockBundleRepository {
	r := &mockBundleRepository{bundles: map[uuid.UUID]*bundle.Bundle{}}
	for _, b := range bs {
		r.bundles[b.ID()] = b
	}
	return r
}

func (m *mockBundleRepository) Save(_ context.Context, b *bundle.Bundle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.bundles[b.ID()] = b
	return nil
}

func (m *mockBundleRepository) FindByID(_ context.Context, id uuid.UUID) (*bundle.Bundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bundles[id]
	if !ok {
		return nil, model.ErrBundleNotFound
	}
	return b, nil
}

func (m *mockBundleRepository) Activate(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bundles[id]; !ok {
		return model.ErrBundleNotFound
	}
	m.activeID = id
	return nil
}

func (m *mockBundleRepository) FindActive(ctx context.Context) (*bundle.Bundle, error) {
	m.mu.Lock()
	id := m.activeID
	m.mu.Unlock()
	if id == uuid.Nil {
		return nil, model.ErrBundleNotFound
	}
	return m.FindByID(ctx, id)
}

func (m *mockBundleRepository) List(_ context.Context, _, _ int) ([]port.BundleInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]port.BundleInfo, 0, len(m.bundles))
	for id, b := range m.bundles {
		out = append(out, port.BundleInfo{ID: id, CreatedAt: b.CreatedAt(), Active: id == m.activeID})
	}
	return out, nil
}

type mockAssessmentRepository struct {
	saved    []*model.Assessment
	saveFunc func(ctx context.Context, a *model.Assessment) error
}

func (m *mockAssessmentRepository) Save(ctx context.Context, a *model.Assessment) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, a)
	}
	m.saved = append(m.saved, a)
	return nil
}

func (m *mockAssessmentRepository) FindByID(_ context.Context, id uuid.UUID) (*model.Assessment, error) {
	for _, a := range m.saved {
		if a.ID() == id {
			return a, nil
		}
	}
	return nil, model.ErrAssessmentNotFound
}

func (m *mockAssessmentRepository) FindByFarmerID(_ context.Context, farmerID string, _, _ int) ([]*model.Assessment, error) {
	var out []*model.Assessment
	for _, a := range m.saved {
		if a.FarmerID() == farmerID {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockEventPublisher struct {
	mu          sync.Mutex
	published   []events.DomainEvent
	publishFunc func(ctx context.Context, evts ...events.DomainEvent) error
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, evts...)
	return nil
}

func (m *mockEventPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.published))
	for _, e := range m.published {
		out = append(out, e.EventType())
	}
	return out
}

type mockExporter struct {
	exported []uuid.UUID
}

func (m *mockExporter) Export(_ context.Context, b *bundle.Bundle) (string, error) {
	m.exported = append(m.exported, b.ID())
	return "/tmp/bundles/" + b.ID().String() + ".bundle", nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
