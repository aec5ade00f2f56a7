package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/abhisek/mathdrill/internal/config"
	"github.com/abhisek/mathdrill/internal/store"
)

// settings is resolved once per invocation in PersistentPreRunE.
var settings *config.Settings

// configFileUsed is the config file settings were read from, if any.
var configFileUsed string

var rootCmd = &cobra.Command{
	Use:   "mathdrill",
	Short: "Arithmetic practice in the terminal",
	Long: "mathdrill generates arithmetic questions, grades typed or handwritten answers " +
		"and keeps a history of every practice session.",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
	RunE:              runPlay,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides MATHDRILL_DB)")
	pf.String("config", "", "Path to a TOML config file (default: ./mathdrill.toml or "+config.DefaultConfigPath()+")")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-format", "", "Log format (text, json)")
	pf.String("env-file", ".env", "Load environment variables from this file if it exists")

	// Bare `mathdrill` behaves like `mathdrill play`.
	addPlayFlags(rootCmd.Flags())

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(recognizeCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// flagKeys maps setting keys to the flag names that override them.
var flagKeys = map[string]string{
	"db":                       "db",
	"log_level":                "log-level",
	"log_format":               "log-format",
	"practice.username":        "user",
	"practice.operations":      "ops",
	"practice.difficulty":      "difficulty",
	"practice.min":             "min",
	"practice.max":             "max",
	"practice.count":           "count",
	"practice.mixed_operators": "mixed-ops",
	"practice.parentheses":     "parens",
	"practice.max_paren_pairs": "pairs",
	"recognizer.backend":       "recognizer",
	"llm.provider":             "llm-provider",
}

func loadSettings(cmd *cobra.Command, _ []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	var envSet []string
	if envFile != "" {
		var err error
		if envSet, err = config.LoadDotEnv(envFile); err != nil {
			return err
		}
	}

	// Other commands reuse --user as a history filter.
	playing := cmd.Flags().Lookup("plain") != nil
	flags := make(map[string]*pflag.Flag)
	for key, name := range flagKeys {
		if strings.HasPrefix(key, "practice.") && !playing {
			continue
		}
		if f := cmd.Flags().Lookup(name); f != nil {
			flags[key] = f
		}
	}
	configFile, _ := cmd.Flags().GetString("config")

	s, v, err := config.Load(config.LoadOptions{ConfigFile: configFile, Flags: flags})
	if err != nil {
		return err
	}
	settings = s
	configFileUsed = v.ConfigFileUsed()

	setupLogging(s.LogLevel, s.LogFormat)
	if len(envSet) > 0 {
		slog.Debug("loaded environment file", "path", envFile, "variables", len(envSet))
	}
	if configFileUsed != "" {
		slog.Debug("using config file", "path", configFileUsed)
	}
	return nil
}

func setupLogging(level, format string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelWarn
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// openStore opens the configured database.
func openStore() (*store.Store, error) {
	dbPath, err := settings.DBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}
