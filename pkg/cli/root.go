package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bstardust/piclabel/internal/config"
	"github.com/bstardust/piclabel/internal/logger"
	"github.com/spf13/cobra"
)

// globalBindings maps config keys to the root command's persistent flags
var globalBindings = map[string]string{
	"log_level": "log-level",
}

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interruption signals
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		logger.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		logger.Error("Error executing command: %v", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// NewRootCommand builds the piclabel command tree
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "piclabel",
		Short: "Stamp photos with the date and place they were taken",
		Long: `piclabel reads the capture date and GPS position from a photo's EXIF metadata,
falls back to the current time and device location when they are missing,
turns the position into an address and draws both on a band across the top
of the image. The labeled copy is saved as a JPEG that keeps the original
metadata, and can optionally be shared through an S3-compatible bucket.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	loader := func(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
		return loadConfig(cmd, configPath, bindings)
	}

	rootCmd.AddCommand(
		newInfoCommand(loader),
		newLabelCommand(loader),
		newWatchCommand(loader),
		newLocationCommand(loader),
	)
	return rootCmd
}

type configLoader func(cmd *cobra.Command, bindings map[string]string) (*config.Config, error)

func loadConfig(cmd *cobra.Command, path string, bindings map[string]string) (*config.Config, error) {
	all := make(map[string]string, len(bindings)+len(globalBindings))
	for k, v := range globalBindings {
		all[k] = v
	}
	for k, v := range bindings {
		all[k] = v
	}

	cfg, err := config.LoadWithFlags(path, cmd.Flags(), all)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
