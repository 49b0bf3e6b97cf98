package cli

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"mitaict-site/internal/client/chatwidget"
	"mitaict-site/internal/client/consent"
	"mitaict-site/internal/client/gate"
	"mitaict-site/internal/domain"
)

func (a *App) consentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consent",
		Short: "Record the cookie-consent decision of this client",
		Long: `Record the cookie-consent decision kept in the state store. The
features command shows what the decision lets the site load.`,
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the current decision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := consent.Open(cmd.Context(), a.store, consent.WithLogger(a.logger))
			if err != nil {
				return err
			}
			return a.printConsent(store)
		},
	}

	decide := func(use, short string, apply func(*cobra.Command, *consent.Store) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := consent.Open(cmd.Context(), a.store, consent.WithLogger(a.logger))
				if err != nil {
					return err
				}
				if err := apply(cmd, store); err != nil {
					return err
				}
				return a.printConsent(store)
			},
		}
	}

	acceptAll := decide("accept-all", "Allow analytics and marketing cookies", func(cmd *cobra.Command, s *consent.Store) error {
		return s.AcceptAll(cmd.Context())
	})
	necessary := decide("necessary", "Allow necessary cookies only", func(cmd *cobra.Command, s *consent.Store) error {
		return s.AcceptNecessary(cmd.Context())
	})
	withdraw := decide("withdraw", "Forget the decision", func(cmd *cobra.Command, s *consent.Store) error {
		return s.Withdraw(cmd.Context())
	})

	var prefs consent.Preferences
	set := decide("set", "Choose categories individually", func(cmd *cobra.Command, s *consent.Store) error {
		return s.SavePreferences(cmd.Context(), prefs)
	})
	set.Flags().BoolVar(&prefs.Analytics, "analytics", false, "allow analytics cookies")
	set.Flags().BoolVar(&prefs.Marketing, "marketing", false, "allow marketing cookies")

	cmd.AddCommand(show, acceptAll, necessary, set, withdraw)
	return cmd
}

func (a *App) printConsent(store *consent.Store) error {
	rec := store.Current()
	if a.jsonOut() {
		return a.printJSON(rec)
	}
	if store.ShouldPrompt() {
		fmt.Fprintln(a.out, "No decision recorded; the banner would be shown.")
		return nil
	}
	fmt.Fprintf(a.out, "Decision: %s (%s)\n", rec.Choice, formatTime(rec.Timestamp))
	fmt.Fprintf(a.out, "  necessary: yes\n  analytics: %s\n  marketing: %s\n", yesNo(rec.Analytics), yesNo(rec.Marketing))
	return nil
}

// featureStatus is one row of the features listing.
type featureStatus struct {
	Feature  gate.Feature     `json:"feature"`
	Consent  consent.Category `json:"consent"`
	Platform string           `json:"platform,omitempty"`
	Active   bool             `json:"active"`
	PixelID  string           `json:"pixel_id,omitempty"`
}

func (a *App) featuresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "Show which site features this client's consent would load",
		Long: `Combine the stored consent decision with the site's public tracking
configuration and show the features a visitor's browser would start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := consent.Open(ctx, a.store, consent.WithLogger(a.logger))
			if err != nil {
				return err
			}

			activator := gate.NewRecordingActivator(a.logger)
			g := gate.New(activator, gate.WithLogger(a.logger))
			stop := g.Watch(ctx, store)
			defer stop()

			cfg, err := a.client.TrackingConfig(ctx)
			if err != nil {
				a.logger.Warn("tracking config unavailable, admin-gated features stay off", slog.String("error", err.Error()))
			} else {
				g.SetAdminSettings(ctx, cfg)
			}

			running := activator.Running()
			rows := make([]featureStatus, 0, len(gate.Requirements))
			for _, f := range gate.Features() {
				req := gate.Requirements[f]
				rows = append(rows, featureStatus{
					Feature:  f,
					Consent:  req.Consent,
					Platform: req.Platform,
					Active:   g.IsActive(f),
					PixelID:  running[f].PixelID,
				})
			}
			if a.jsonOut() {
				return a.printJSON(rows)
			}

			w := a.newTable("FEATURE", "NEEDS", "PLATFORM", "ACTIVE", "PIXEL")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Feature, r.Consent, dash(r.Platform), yesNo(r.Active), dash(r.PixelID))
			}
			return w.Flush()
		},
	}
}

func (a *App) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the site assistant as a visitor",
		Long: `Talk to the site assistant as a visitor. With a message argument one
exchange is made; otherwise lines are read from standard input until EOF
or /quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			widget := chatwidget.New(a.client, chatwidget.WithLogger(a.logger))
			widget.Open()

			if len(args) > 0 {
				return a.say(cmd, widget, strings.Join(args, " "))
			}

			a.printMessage(widget.Messages()[0])
			scanner := bufio.NewScanner(a.in)
			for {
				fmt.Fprint(a.errOut, "> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "/quit" {
					break
				}
				if line == "" {
					continue
				}
				if err := a.say(cmd, widget, line); err != nil {
					return err
				}
			}
			if id := widget.SessionID(); id != "" {
				fmt.Fprintf(a.errOut, "Session %s\n", id)
			}
			return scanner.Err()
		},
	}
}

func (a *App) say(cmd *cobra.Command, widget *chatwidget.Widget, text string) error {
	reply, err := widget.Send(cmd.Context(), text)
	if errors.Is(err, chatwidget.ErrEmptyMessage) {
		return nil
	}
	if err != nil {
		return err
	}
	if a.jsonOut() {
		return a.printJSON(struct {
			SessionID string             `json:"session_id"`
			Reply     domain.ChatMessage `json:"reply"`
		}{widget.SessionID(), reply})
	}
	a.printMessage(reply)
	return nil
}

func (a *App) printMessage(m domain.ChatMessage) {
	fmt.Fprintf(a.out, "%s: %s\n", m.Role, m.Content)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
