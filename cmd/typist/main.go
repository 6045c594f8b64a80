// Package main provides the CLI entrypoint for typist.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/typist/internal/config"
)

const jwtSecretEnv = "TYPIST_JWT_SECRET"

var (
	configPath string
	dictDir    string
	dbDriver   string
	dbDSN      string
	serveAddr  string
	logLevel   string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := config.Default()
	rootCmd := &cobra.Command{
		Use:           "typist",
		Short:         "Adaptive typing practice server",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServeCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	flags.StringVar(&dictDir, "dict-dir", defaults.Dictionary.Dir, "dictionary directory")
	flags.StringVar(&dbDriver, "db-driver", defaults.Database.Driver, "database driver (sqlite or postgres)")
	flags.StringVar(&dbDSN, "dsn", defaults.Database.DSN, "database file path or connection string")
	flags.StringVar(&serveAddr, "addr", defaults.Server.Addr, "listen address")
	flags.StringVar(&logLevel, "log-level", defaults.Log.Level, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLangsCmd())
	rootCmd.AddCommand(newDictCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

// loadSettings resolves defaults, then the config file, then explicit flags.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	settings := config.Default()
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := fileCfg.Apply(&settings); err != nil {
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringFlag(cmd, "dict-dir", &settings.Dictionary.Dir, dictDir)
	applyStringFlag(cmd, "db-driver", &settings.Database.Driver, dbDriver)
	applyStringFlag(cmd, "dsn", &settings.Database.DSN, dbDSN)
	applyStringFlag(cmd, "addr", &settings.Server.Addr, serveAddr)
	applyStringFlag(cmd, "log-level", &settings.Log.Level, logLevel)
	if secret := os.Getenv(jwtSecretEnv); secret != "" {
		settings.Auth.JWTSecret = secret
	}
	return settings, nil
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create config file and print its path",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o600); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		logErrf("Created %s\n", path)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	d := config.Default()
	return fmt.Sprintf(`# typist configuration
# Uncomment a value to enable it. CLI flags override config values.
# The JWT secret can also be set with %s.

[server]
# addr = %q
# read-timeout = %q
# write-timeout = %q
# shutdown-timeout = %q
# cors-origins = ["http://localhost:5173"]
# rate-limit = %d             # Submissions per window and user, 0 disables
# rate-window = %q
# trusted-proxies = ["127.0.0.1"]  # Proxies allowed to set X-Forwarded-For, none by default

[database]
# driver = %q             # sqlite or postgres
# dsn = %q

[dictionary]
# dir = %q
# cache = %q              # memory, redis or none
# cache-size = %d
# cache-ttl = %q

[redis]
# addr = %q
# password = ""
# db = 0

[auth]
# jwt-secret = ""

[text]
# adaptive-length = %d       # Minimum characters of adaptive text
# plain-words = %d            # Words returned by /api/text
# retention = %d               # Sessions kept per user

[log]
# level = %q
# file = %q
# max-size = %d              # Megabytes
# max-backups = %d
# max-age = %d                # Days
# compress = %t
`,
		jwtSecretEnv,
		d.Server.Addr,
		d.Server.ReadTimeout.String(),
		d.Server.WriteTimeout.String(),
		d.Server.ShutdownTimeout.String(),
		d.Server.RateLimit,
		d.Server.RateWindow.String(),
		d.Database.Driver,
		d.Database.DSN,
		d.Dictionary.Dir,
		d.Dictionary.Cache,
		d.Dictionary.CacheSize,
		d.Dictionary.CacheTTL.String(),
		d.Redis.Addr,
		d.Text.AdaptiveLength,
		d.Text.PlainWords,
		d.Text.Retention,
		d.Log.Level,
		d.Log.File,
		d.Log.MaxSize,
		d.Log.MaxBackups,
		d.Log.MaxAge,
		d.Log.Compress,
	)
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

// logErrf writes to stderr; a failed write has nowhere to be reported.
func logErrf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
}
