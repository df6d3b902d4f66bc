package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curator",
		Short: "AI-assisted image gallery with LLM-powered metadata and grouping",
		Long: `Curator describes and organizes image collections using vision LLMs.

Each image gets structured metadata (description, categories, dominant colors,
people detection), and whole collections can be sorted into named groups along
a chosen dimension such as content, color, or mood. It ships a browser UI, a
batch CLI, and an evaluation harness for measuring metadata accuracy against
reference datasets.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	cobra.OnInitialize(initConfig)

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDescribeCmd())
	cmd.AddCommand(newOrganizeCmd())
	cmd.AddCommand(newEvalCmd())

	return cmd
}

func initConfig() {
	viper.SetConfigName("curator")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "curator"))
	}

	viper.SetEnvPrefix("curator")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("provider.name", "")
	viper.SetDefault("provider.model", "")
	viper.SetDefault("provider.prefer", "cloud")
	viper.SetDefault("provider.temperature", 0.2)
	viper.SetDefault("extract.concurrency", 4)
	viper.SetDefault("storage.uploads_dir", "uploads")
	viper.SetDefault("preview.height", 480)
	viper.SetDefault("preview.quality", 85)
	viper.SetDefault("server.port", "8888")

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("Using config file", "path", viper.ConfigFileUsed())
	}
}
