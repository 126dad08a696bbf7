package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

// RootCmd is the base command; it opens no registry itself, leaving that
// to each subcommand's RunE (via openRegistry).
var RootCmd = &cobra.Command{
	Use:     "jsonreg",
	Short:   "content-addressed registry for JSON values",
	Version: version,
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	flags := RootCmd.PersistentFlags()
	flags.String("conn-string", "", "database connection string (JSONREG_CONN_STRING)")
	flags.String("table", "objects", "registry table name")
	flags.String("id-column", "id", "integer id column name")
	flags.String("json-column", "payload", "jsonb payload column name")
	flags.Int32("pool-size", 4, "maximum simultaneous database connections")
	flags.Int("cache-size", 10_000, "in-memory LRU cache capacity (0 disables caching)")
	flags.Int("acquire-timeout", 5, "seconds to wait for a free connection")
	flags.Int("idle-timeout", 600, "seconds before an idle connection is closed")
	flags.Int("max-lifetime", 1800, "seconds before a connection is retired regardless of use")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlags(flags)

	RootCmd.AddCommand(registerCmd)
	RootCmd.AddCommand(registerBatchCmd)
	RootCmd.AddCommand(statsCmd)
}

// initConfig wires viper to JSONREG_-prefixed environment variables,
// loading .env / .env.local first the way ValentinKolb-dKV's client
// commands do.
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("jsonreg")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func initLogger() {
	var level slog.Level
	switch viper.GetString("log-level") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		TimeFormat: "15:04:05",
	})
	slog.SetDefault(slog.New(handler))
}
