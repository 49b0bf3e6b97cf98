package gate

import (
	"context"
	"log/slog"
	"sync"

	"mitaict-site/internal/domain"
)

// RecordingActivator keeps the set of started features in memory. The admin
// CLI uses it to preview what a visitor's browser would load.
type RecordingActivator struct {
	mu      sync.Mutex
	running map[Feature]domain.TrackingPlatform
	logger  *slog.Logger
}

// NewRecordingActivator creates an empty RecordingActivator.
func NewRecordingActivator(logger *slog.Logger) *RecordingActivator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordingActivator{
		running: make(map[Feature]domain.TrackingPlatform),
		logger:  logger,
	}
}

func (a *RecordingActivator) Activate(ctx context.Context, f Feature, platform domain.TrackingPlatform) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running[f] = platform
	a.logger.Debug("feature started", slog.String("feature", string(f)), slog.String("pixel_id", platform.PixelID))
	return nil
}

func (a *RecordingActivator) Deactivate(f Feature) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.running, f)
}

// Running returns the started features and their platform settings.
func (a *RecordingActivator) Running() map[Feature]domain.TrackingPlatform {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[Feature]domain.TrackingPlatform, len(a.running))
	for f, p := range a.running {
		out[f] = p
	}
	return out
}
