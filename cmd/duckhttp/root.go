package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/oraichain/duckdb-http/config"
	"github.com/oraichain/duckdb-http/logger"
	"github.com/oraichain/duckdb-http/pkg/client"
	"github.com/oraichain/duckdb-http/version"
)

// rootOptions holds the connection flags shared by every subcommand.
type rootOptions struct {
	endpoint   string
	apiKey     string
	database   string
	timeout    time.Duration
	configPath string
	logPath    string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "duckhttp",
		Short: "duckhttp talks to a remote DuckDB instance over its HTTP extension",
		Long: `duckhttp is a thin client for DuckDB instances that expose the httpserver
extension. Every statement travels as one HTTP POST carrying raw SQL; the
JSON answer is decoded into rows.

The endpoint can be given as a plain URL (http://host:port) or as a
connection string (duckhttp://:secret@host:port/database). Flags override
DUCKHTTP_* environment variables, which override the config file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env files are a convenient place for the API key.
			_ = godotenv.Load()

			if opts.logPath != "" {
				logger.SetLogPath(opts.logPath)
			}
			logger.SetVerbose(opts.verbose)
			logger.InitLogger()
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.endpoint, "endpoint", "e", "", "Endpoint URL or connection string")
	flags.StringVarP(&opts.apiKey, "api-key", "k", "", "API key sent with every request")
	flags.StringVarP(&opts.database, "database", "d", "", "Database to scope introspection to")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Request timeout (default 30s)")
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&opts.logPath, "log-file", "", "Path of the structured log file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the duckhttp version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("duckhttp %s (built %s)\n", version.GetVersion(), version.GetBuildDate())
		},
	})

	rootCmd.AddCommand(newQueryCommand(opts))
	rootCmd.AddCommand(newPingCommand(opts))
	rootCmd.AddCommand(newSchemasCommand(opts))
	rootCmd.AddCommand(newTablesCommand(opts))
	rootCmd.AddCommand(newDescribeCommand(opts))
	rootCmd.AddCommand(newVerifyCommand(opts))
	rootCmd.AddCommand(newDoctorCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}

// resolve merges the config file, DUCKHTTP_* environment variables and
// flags into one configuration. Flags win, then environment, then file.
func (o *rootOptions) resolve() (*config.Config, error) {
	cfg := &config.Config{}
	if o.configPath != "" {
		loaded, err := config.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	env := viper.New()
	env.SetEnvPrefix("DUCKHTTP")
	env.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	env.AutomaticEnv()

	if s := env.GetString("endpoint"); s != "" {
		cfg.Endpoint.URL = s
	}
	if s := env.GetString("api_key"); s != "" {
		cfg.Endpoint.APIKey = s
	}
	if s := env.GetString("database"); s != "" {
		cfg.Endpoint.Database = s
	}
	if d := env.GetDuration("timeout"); d > 0 {
		cfg.Endpoint.Timeout = d
	}

	if o.endpoint != "" {
		cfg.Endpoint.URL = o.endpoint
	}
	if o.apiKey != "" {
		cfg.Endpoint.APIKey = o.apiKey
	}
	if o.database != "" {
		cfg.Endpoint.Database = o.database
	}
	if o.timeout > 0 {
		cfg.Endpoint.Timeout = o.timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newClient opens a transport handle from the resolved configuration.
// Options derived from a connection string apply first, so explicit
// settings override what the string carries.
func newClient(cfg *config.Config, extra ...client.Option) (*client.Client, error) {
	opts := []client.Option{client.WithLogger(logger.GetLogger())}
	if cfg.Endpoint.APIKey != "" {
		opts = append(opts, client.WithAPIKey(cfg.Endpoint.APIKey))
	}
	if cfg.Endpoint.Database != "" {
		opts = append(opts, client.WithDatabase(cfg.Endpoint.Database))
	}
	if cfg.Endpoint.Timeout > 0 {
		opts = append(opts, client.WithTimeout(cfg.Endpoint.Timeout))
	}
	opts = append(opts, extra...)

	return client.Open(cfg.Endpoint.URL, opts...)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sig)
	}()

	return ctx, cancel
}

// startSpinner shows a progress spinner on stderr while a statement runs.
// It stays silent when stderr is not a terminal, so piped output and tests
// see nothing. The returned stop function is safe to call unconditionally.
func startSpinner(suffix string) func() {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}
