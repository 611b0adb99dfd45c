package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jgirmay/vocab-practice/internal/app"
	"github.com/jgirmay/vocab-practice/pkg/config"
	"github.com/jgirmay/vocab-practice/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "practicectl",
	Short:         "Operate the vocabulary practice service",
	Long:          "practicectl serves the practice API and answers leaderboard, percentile and report queries against the configured database.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("output", "o", "json", "Output format for query commands: json or yaml")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log to stderr while running query commands")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(percentileCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statsCmd)
}

// openApp builds the service for one-shot commands. Query commands stay quiet
// unless --verbose is set so their stdout can be piped.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := zap.NewNop()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		if err := logger.Init(cfg.Server.Env); err != nil {
			return nil, err
		}
		log = logger.L()
	}

	return app.New(cfg, log, nil)
}

// render writes v in the format chosen by --output.
func render(w io.Writer, format string, v any) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func output(cmd *cobra.Command, v any) error {
	format, _ := cmd.Flags().GetString("output")
	return render(cmd.OutOrStdout(), format, v)
}
