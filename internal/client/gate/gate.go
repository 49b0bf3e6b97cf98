// Package gate decides which third-party site features may run, from the
// visitor's consent and the admin's tracking configuration, and keeps the
// running set in step as either input changes.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"mitaict-site/internal/client/consent"
	"mitaict-site/internal/domain"
)

// DefaultActivationTimeout bounds how long one feature may take to start.
const DefaultActivationTimeout = 10 * time.Second

// Feature is an optional site feature.
type Feature string

const (
	FeatureAnalytics       Feature = "analytics"
	FeatureChatWidget      Feature = "chat_widget"
	FeatureFacebookPixel   Feature = "facebook_pixel"
	FeatureInstagramPixel  Feature = "instagram_pixel"
	FeatureTikTokPixel     Feature = "tiktok_pixel"
	FeatureLinkedInInsight Feature = "linkedin_insight"
	FeatureYouTubeTracking Feature = "youtube_tracking"
)

// Requirement is what a feature needs before it may run. An empty Platform
// means the feature is not admin-gated.
type Requirement struct {
	Consent  consent.Category
	Platform string
}

// Requirements maps every feature to its activation rule.
var Requirements = map[Feature]Requirement{
	FeatureChatWidget:      {Consent: consent.CategoryNecessary},
	FeatureAnalytics:       {Consent: consent.CategoryAnalytics},
	FeatureFacebookPixel:   {Consent: consent.CategoryMarketing, Platform: domain.PlatformFacebook},
	FeatureInstagramPixel:  {Consent: consent.CategoryMarketing, Platform: domain.PlatformInstagram},
	FeatureTikTokPixel:     {Consent: consent.CategoryMarketing, Platform: domain.PlatformTikTok},
	FeatureLinkedInInsight: {Consent: consent.CategoryMarketing, Platform: domain.PlatformLinkedIn},
	FeatureYouTubeTracking: {Consent: consent.CategoryMarketing, Platform: domain.PlatformYouTube},
}

// Features returns every known feature in a stable order.
func Features() []Feature {
	out := make([]Feature, 0, len(Requirements))
	for f := range Requirements {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Activation is the set of features allowed to run.
type Activation map[Feature]bool

// Evaluate computes which features may run. It has no side effects.
func Evaluate(rec consent.Record, cfg domain.TrackingConfig) Activation {
	out := make(Activation, len(Requirements))
	for f, req := range Requirements {
		allowed := rec.Allows(req.Consent)
		if req.Platform != "" {
			allowed = allowed && cfg.Platform(req.Platform).Enabled
		}
		out[f] = allowed
	}
	return out
}

// Activator starts and stops features (script loaders, pixel clients).
type Activator interface {
	Activate(ctx context.Context, f Feature, platform domain.TrackingPlatform) error
	Deactivate(f Feature)
}

// Gate applies Evaluate's result to an Activator whenever consent or the
// tracking configuration changes.
type Gate struct {
	mu       sync.RWMutex
	consent  consent.Record
	tracking domain.TrackingConfig
	active   Activation

	applyMu   sync.Mutex
	activator Activator
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithTimeout overrides DefaultActivationTimeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) {
		g.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = l
	}
}

// New creates a Gate with no consent and no enabled platforms.
func New(activator Activator, opts ...Option) *Gate {
	g := &Gate{
		consent:   consent.Record{Necessary: true},
		active:    make(Activation),
		activator: activator,
		timeout:   DefaultActivationTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Watch feeds the store's current and future records into the gate.
func (g *Gate) Watch(ctx context.Context, store *consent.Store) func() {
	unsubscribe := store.Subscribe(func(rec consent.Record) {
		g.SetConsent(ctx, rec)
	})
	g.SetConsent(ctx, store.Current())
	return unsubscribe
}

// SetConsent re-evaluates with a new consent record.
func (g *Gate) SetConsent(ctx context.Context, rec consent.Record) {
	g.mu.Lock()
	g.consent = rec
	g.mu.Unlock()
	g.reconcile(ctx)
}

// SetAdminSettings re-evaluates with a new tracking configuration.
func (g *Gate) SetAdminSettings(ctx context.Context, cfg domain.TrackingConfig) {
	g.mu.Lock()
	g.tracking = cfg
	g.mu.Unlock()
	g.reconcile(ctx)
}

// Active returns a copy of the running set.
func (g *Gate) Active() Activation {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(Activation, len(g.active))
	for f, on := range g.active {
		if on {
			out[f] = true
		}
	}
	return out
}

// IsActive reports whether f is running.
func (g *Gate) IsActive(f Feature) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active[f]
}

func (g *Gate) reconcile(ctx context.Context) {
	g.applyMu.Lock()
	defer g.applyMu.Unlock()

	g.mu.RLock()
	desired := Evaluate(g.consent, g.tracking)
	tracking := g.tracking
	current := make(Activation, len(g.active))
	for f, on := range g.active {
		current[f] = on
	}
	g.mu.RUnlock()

	for _, f := range Features() {
		want, have := desired[f], current[f]
		switch {
		case want && !have:
			platform := tracking.Platform(Requirements[f].Platform)
			if err := g.activate(ctx, f, platform); err != nil {
				g.logger.Warn("feature activation failed, continuing without it",
					slog.String("feature", string(f)),
					slog.String("error", err.Error()))
				continue
			}
			g.set(f, true)
			g.logger.Info("feature activated", slog.String("feature", string(f)))
		case !want && have:
			g.activator.Deactivate(f)
			g.set(f, false)
			g.logger.Info("feature deactivated", slog.String("feature", string(f)))
		}
	}
}

func (g *Gate) set(f Feature, on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if on {
		g.active[f] = true
	} else {
		delete(g.active, f)
	}
}

var ErrActivationTimeout = errors.New("feature activation timed out")

// activate runs the activator with a deadline. A late success is undone so a
// feature reported inactive never keeps running, unless a newer activation of
// the same feature has succeeded in the meantime.
func (g *Gate) activate(ctx context.Context, f Feature, platform domain.TrackingPlatform) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.activator.Activate(ctx, f, platform)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		go func() {
			if err := <-done; err != nil {
				return
			}
			g.applyMu.Lock()
			defer g.applyMu.Unlock()
			if g.IsActive(f) {
				return
			}
			g.activator.Deactivate(f)
		}()
		return fmt.Errorf("%w: %s", ErrActivationTimeout, f)
	}
}
