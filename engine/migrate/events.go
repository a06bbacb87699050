package migrate

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/CryptiqueAI/cryptique-mvp/pkg/natsutil"
)

// NATS subjects for migration telemetry and control.
const (
	SubjectProgress = "cryptique.migration.progress"
	SubjectControl  = "cryptique.migration.control"
)

// ControlCommand is a remote pause/resume instruction.
type ControlCommand struct {
	Command string `json:"command"` // "pause" or "resume"
}

// Events broadcasts migration progress over NATS and applies remote
// control commands. All publishing is best-effort: a down broker never
// blocks or fails a migration.
type Events struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewEvents wraps a NATS connection.
func NewEvents(nc *nats.Conn, logger *slog.Logger) *Events {
	if logger == nil {
		logger = slog.Default()
	}
	return &Events{nc: nc, logger: logger}
}

// PublishProgress broadcasts a progress snapshot.
func (e *Events) PublishProgress(ctx context.Context, s Snapshot) {
	if err := natsutil.Publish(ctx, e.nc, SubjectProgress, s); err != nil {
		e.logger.Warn("progress publish failed", "error", err)
	}
}

// listenControl subscribes to pause/resume commands for m.
func (e *Events) listenControl(m *Migrator) {
	_, err := natsutil.Subscribe(e.nc, SubjectControl, func(_ context.Context, cmd ControlCommand) {
		switch cmd.Command {
		case "pause":
			m.Pause()
		case "resume":
			m.Resume()
		default:
			e.logger.Warn("unknown control command", "command", cmd.Command)
		}
	})
	if err != nil {
		e.logger.Warn("control subscription failed", "error", err)
	}
}
