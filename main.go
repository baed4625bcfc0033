package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"comfyui-data-manager/internal/app"
	"comfyui-data-manager/internal/config"
	"comfyui-data-manager/internal/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

var configPath string

var rootCmd = &cobra.Command{
	Use:           "data-manager",
	Short:         "Browse and preview local and SSH files",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logging.Sync()
		return runDesktop(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: <user config dir>/data-manager/data-manager.yaml)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and initializes logging.
func setup() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cfg, nil
}

func runDesktop(cfg *config.Config) error {
	// Extract the embedded filesystem to serve from the correct subdirectory
	distFS, err := fs.Sub(assets, "frontend/dist")
	if err != nil {
		return fmt.Errorf("failed to get sub filesystem: %w", err)
	}

	a, err := app.NewApp(cfg, app.Options{})
	if err != nil {
		return err
	}

	return wails.Run(&options.App{
		Title:     "Data Manager",
		Width:     1400,
		Height:    900,
		MinWidth:  800,
		MinHeight: 600,
		AssetServer: &assetserver.Options{
			Assets: distFS,
		},
		Menu:             a.Menu,
		BackgroundColour: &options.RGBA{R: 32, G: 32, B: 32, A: 1},
		OnStartup:        a.Startup,
		OnDomReady:       a.DomReady,
		OnShutdown:       func(ctx context.Context) { a.Shutdown(ctx) },
		// Bind the app methods to the frontend
		Bind: []interface{}{
			a,
		},
	})
}
