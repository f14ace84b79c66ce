// Package cli wires the crawl, research, query, and export commands.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clearcrawl/internal/config"
	"clearcrawl/internal/logging"
)

var (
	configPath string
	logLevel   string
	logJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "clearcrawl",
	Short: "A politeness-aware research crawler",
	Long:  `Clearcrawl - a depth-bounded BFS crawler with a vector knowledge base and LLM-generated research reports`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit structured JSON logs")

	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(exportCmd)
}

// loadConfig resolves the effective configuration: file (if given) over
// defaults, with persistent logging flags layered on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		defaults := config.Default()
		cfg = &defaults
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("log-json") {
		cfg.Logging.Structured = logJSON
	}
	return cfg, nil
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Logging.Level, cfg.Logging.Structured)
}
