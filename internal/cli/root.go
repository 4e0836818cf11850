// Package cli implements the ragctl command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gopherai-rag/internal/bootstrap"
	"gopherai-rag/internal/config"
	"gopherai-rag/internal/logger"
	"gopherai-rag/internal/ragerr"
)

var (
	configPath string
	logLevel   string
	logJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Ask questions about a PDF with retrieval-augmented generation",
	Long: `ragctl chunks a document, builds a vector index over the chunks and answers
questions by sending the most similar chunks to an LLM.

Typical flow:
  ragctl chunk data/document.pdf
  ragctl index
  ragctl ask "What is this document about?"
  ragctl chat`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_FILE or configs/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error, disabled")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+ragerr.Describe(err))
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func newLogger(cmd *cobra.Command, cfg *config.Config) logger.Logger {
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	return logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(level),
		Output: cmd.ErrOrStderr(),
		JSON:   logJSON || cfg.Log.JSON,
	})
}

// loadEnv loads the configuration and installs the command logger. prepare may
// adjust the configuration before the logger is built.
func loadEnv(cmd *cobra.Command, prepare func(*config.Config) error) (*config.Config, logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config failed: %w", err)
	}
	if prepare != nil {
		if err := prepare(cfg); err != nil {
			return nil, nil, err
		}
	}
	log := newLogger(cmd, cfg)
	cmd.SetContext(logger.ContextWithLogger(commandContext(cmd), log))
	return cfg, log, nil
}

// loadApp wires the application for one command. prepare may adjust the
// configuration before anything is connected.
func loadApp(cmd *cobra.Command, prepare func(*config.Config) error) (*bootstrap.App, error) {
	cfg, log, err := loadEnv(cmd, prepare)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(commandContext(cmd), cfg, log)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
