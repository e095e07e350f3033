package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/config"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/logging"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/service"
	"github.com/lunaryorn/gnome-search-providers-jetbrains/internal/store"
)

var (
	configPath string
	transport  string
)

// NewRootCommand creates the root command, which runs the service
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   config.AppName,
		Short: "GNOME Shell search provider for recent IDE projects",
		Long: `Searches the recent projects of JetBrains IDEs and Visual Studio Code
from the GNOME Shell overview. Every installed IDE gets its own search
provider on the session bus.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runService,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default $XDG_CONFIG_HOME/"+config.AppName+"/"+config.ConfigFileName+")")
	rootCmd.Flags().StringVar(&transport, "transport", string(service.TransportDBus), "Endpoint to serve on: dbus or mcp")
	rootCmd.AddCommand(NewProvidersCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// NewProvidersCommand lists the known search providers
func NewProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List all known search providers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, label := range config.Labels() {
				fmt.Fprintln(cmd.OutOrStdout(), label)
			}
		},
	}
}

// NewVersionCommand prints version and build information
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", config.AppName)
			fmt.Fprintf(out, "Version: %s\n", version)
			fmt.Fprintf(out, "Build Time: %s\n", buildTime)
			fmt.Fprintf(out, "Build Mode: %s\n", store.BuildMode)
			fmt.Fprintf(out, "SQLite Driver: %s\n", store.DriverName)
		},
	}
}

func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
		path = p
	}
	return config.Load(path)
}

func runService(cmd *cobra.Command, args []string) error {
	t, err := service.ParseTransport(transport)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logging.Init(cfg.Logging())
	defer logging.Shutdown()

	// Log startup info to stderr (stdout is reserved for MCP)
	log := logging.ForComponent(logging.CompService)
	log.Info("service_starting",
		slog.String("version", version),
		slog.String("transport", string(t)),
		slog.String("build_mode", store.BuildMode),
		slog.String("driver", store.DriverName))

	svc, err := service.New(cfg, service.Options{})
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- svc.Run(ctx, t, version)
	}()

	select {
	case sig := <-sigChan:
		log.Info("service_stopping", slog.String("signal", sig.String()))
		cancel()
		err = <-errChan
	case err = <-errChan:
	}
	if err != nil {
		return err
	}

	log.Info("service_stopped")
	return nil
}
