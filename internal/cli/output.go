package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"mitaict-site/internal/client/apierr"
	"mitaict-site/internal/client/session"
)

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) newTable(headers ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	return w
}

func (a *App) printError(err error) {
	var apiErr *apierr.Error
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		fmt.Fprintf(a.errOut, "Error: %v\n", err)
	case errors.As(err, &apiErr) && apiErr.Kind == apierr.KindUnauthorized:
		fmt.Fprintln(a.errOut, "Error: not logged in. Run 'mitactl login' first.")
	case errors.As(err, &apiErr):
		fmt.Fprintf(a.errOut, "Error (%s): %s\n", apiErr.Kind, apiErr.Message)
	default:
		fmt.Fprintf(a.errOut, "Error: %v\n", err)
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
