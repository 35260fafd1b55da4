package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mkdev28/Cropp/internal/domain/event"
	"github.com/mkdev28/Cropp/pkg/events"
	pkgkafka "github.com/mkdev28/Cropp/pkg/kafka"
)

// Reloader is satisfied by *usecase.ActivateBundle.
type Reloader interface {
	Reload(ctx context.Context, id uuid.UUID) error
}

// ActivationListener swaps in bundles activated by other replicas.
type ActivationListener struct {
	reloader Reloader
	logger   *slog.Logger
}

// NewActivationListener creates a listener for BundleActivated events.
func NewActivationListener(reloader Reloader, logger *slog.Logger) *ActivationListener {
	return &ActivationListener{reloader: reloader, logger: logger}
}

// Handle is a pkgkafka.Handler. Other event types are skipped.
func (l *ActivationListener) Handle(ctx context.Context, msg pkgkafka.Message) error {
	if t, ok := msg.Headers[HeaderEventType]; ok && t != event.EventTypeBundleActivated {
		return nil
	}

	var env events.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return fmt.Errorf("failed to decode envelope at offset %d: %w", msg.Offset, err)
	}
	if env.Type != event.EventTypeBundleActivated {
		return nil
	}

	var activated event.BundleActivated
	if err := env.Decode(&activated); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "bundle activation received",
		slog.String("bundle_id", activated.BundleID.String()),
		slog.Int64("offset", msg.Offset),
	)
	if err := l.reloader.Reload(ctx, activated.BundleID); err != nil {
		return fmt.Errorf("failed to reload bundle %s: %w", activated.BundleID, err)
	}
	return nil
}
