// Package cli provides the command-line interface for folio.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-folio/internal/config"
	"github.com/teslashibe/go-folio/internal/log"
	"github.com/teslashibe/go-folio/pkg/assistant"
	"github.com/teslashibe/go-folio/pkg/knowledge"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configFile string

	// Global config, loaded before every command
	cfg config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Portfolio assistant and chat widget tools",
	Long: `Folio talks to the portfolio assistant from the terminal.

Chat locally against the configured assistant backends, or connect to a
running folio-server and drive a widget session over its WebSocket.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.LoadFile(configFile)
		if err != nil {
			return err
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		log.Init(level, cfg.Server.LogFile)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := log.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(contactCmd)
	rootCmd.AddCommand(versionCmd)
}

// newChain builds the assistant backends from the loaded config.
func newChain() (*assistant.Chain, error) {
	kb := knowledge.Default()
	if cfg.Assistant.KnowledgePath != "" {
		var err error
		kb, err = knowledge.Load(cfg.Assistant.KnowledgePath)
		if err != nil {
			return nil, err
		}
	}
	return assistant.NewBackendChain(cfg.Assistant, kb, log.Component("assistant"))
}
