// Package cli implements mitactl, the admin command line for the site API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mitaict-site/internal/client/api"
	"mitaict-site/internal/client/session"
	"mitaict-site/internal/client/storage"
	"mitaict-site/internal/observability"
)

const (
	envPrefix = "MITACTL"

	keyAPIURL   = "api-url"
	keyStore    = "store"
	keyJSON     = "json"
	keyLogLevel = "log-level"
)

// App holds what every command needs. The store, session manager and API
// client are opened once per invocation in PersistentPreRunE.
type App struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
	in     io.Reader
	logger *slog.Logger

	store    storage.Store
	sessions *session.Manager
	client   *api.Client
}

// Execute runs mitactl against the process arguments and exits.
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Run executes one mitactl invocation and returns the exit code.
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	app := &App{v: viper.New(), in: in, out: out, errOut: errOut, logger: slog.Default()}
	defer app.close()

	cmd := app.rootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		app.printError(err)
		return 1
	}
	return 0
}

func (a *App) rootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:   "mitactl",
		Short: "Administer the MITA ICT site",
		Long: `mitactl manages the MITA ICT website through its API.

Examples:
  mitactl login --username admin
  mitactl services list
  mitactl contacts list --json
  mitactl export contacts --format csv -o contacts.csv
  mitactl consent accept-all && mitactl features`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(cfgFile); err != nil {
				return err
			}
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $HOME/.mitactl.yaml)")
	flags.String(keyAPIURL, api.DefaultBaseURL, "site API root")
	flags.String(keyStore, defaultStoreURL(), "state store: file path, file://, memory:// or redis://host:port/db")
	flags.Bool(keyJSON, false, "print JSON instead of tables")
	flags.String(keyLogLevel, "warn", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.passwordCmd(),
		a.servicesCmd(),
		a.productsCmd(),
		a.contactsCmd(),
		a.chatsCmd(),
		a.meetingsCmd(),
		a.aboutCmd(),
		a.integrationsCmd(),
		a.exportCmd(),
		a.consentCmd(),
		a.featuresCmd(),
		a.chatCmd(),
	)
	return root
}

func defaultStoreURL() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "memory://"
	}
	return filepath.Join(home, ".mitactl", "state.json")
}

func (a *App) loadConfig(cfgFile string) error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(home)
		a.v.SetConfigName(".mitactl")
		a.v.SetConfigType("yaml")
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	a.logger = observability.NewLogger(a.errOut, a.v.GetString(keyLogLevel), "text")
	return nil
}

// open connects the store and wires the session manager into the API
// client, so a 401 from any command drops the stored token.
func (a *App) open(ctx context.Context) error {
	store, err := storage.Open(ctx, expandHome(a.v.GetString(keyStore)))
	if err != nil {
		return err
	}
	a.store = store

	a.client = api.New(a.v.GetString(keyAPIURL))
	a.sessions, err = session.NewManager(ctx, store, a.client.Auth, session.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.client.SetAuthorizer(a.sessions)
	a.sessions.OnUnauthorized(func() {
		fmt.Fprintln(a.errOut, "Session expired or revoked. Run 'mitactl login' to sign in again.")
	})
	return nil
}

func (a *App) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		if p, isFile := strings.CutPrefix(path, "file://~/"); isFile {
			rest, ok = p, true
		}
	}
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

func (a *App) jsonOut() bool {
	return a.v.GetBool(keyJSON)
}
