package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"quadview/internal/app"
	"quadview/internal/config"
	"quadview/internal/infrastructure/sqlite"
	"quadview/internal/log"
	"quadview/internal/tracing"
	"quadview/internal/viewer"
	"quadview/internal/watcher"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "quadview [data-dir]",
	Short:   "A terminal multi-viewport medical image viewer",
	Long:    `A terminal viewer for DICOM-organized file sets: up to four viewports in a grid, one focused, sharing a single set of window/zoom/ROI controls.`,
	Args:    cobra.MaximumNArgs(1),
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/quadview/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug logging to quadview.log")
	rootCmd.Flags().StringP("data-dir", "d", "",
		"file-set root directory")
	rootCmd.Flags().Bool("no-auto-refresh", false,
		"disable automatic reload when files change")

	// Bind flags to viper
	_ = viper.BindPFlag("data_dir", rootCmd.Flags().Lookup("data-dir"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("layout", defaults.Layout)
	viper.SetDefault("auto_refresh", defaults.AutoRefresh)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("ui.show_metadata", defaults.UI.ShowMetadata)
	viper.SetDefault("ui.show_series_list", defaults.UI.ShowSeriesList)
	viper.SetDefault("fusion.cache_ttl_minutes", defaults.Fusion.CacheTTLMinutes)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .quadview/config.yaml (current directory)
		// 2. ~/.config/quadview/config.yaml (user config)
		if _, err := os.Stat(".quadview/config.yaml"); err == nil {
			viper.SetConfigFile(".quadview/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "quadview"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .quadview/config.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".quadview/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func runApp(cmd *cobra.Command, args []string) error {
	if err := config.ValidateLayout(cfg.Layout); err != nil {
		return fmt.Errorf("invalid layout configuration: %w", err)
	}

	if debug || os.Getenv("QUADVIEW_DEBUG") != "" {
		cleanup, err := log.InitWithTeaLog("quadview.log", "quadview")
		if err != nil {
			return fmt.Errorf("initializing debug log: %w", err)
		}
		defer cleanup()
	}

	dataDir := cfg.DataDir
	if len(args) > 0 {
		dataDir = args[0]
	}

	tracer, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
		ServiceName:  cfg.Tracing.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = tracer.Shutdown(ctx)
	}()

	db, err := sqlite.NewDB(cfg.AnnotationDBPath())
	if err != nil {
		return fmt.Errorf("opening annotation store: %w", err)
	}
	defer func() { _ = db.Close() }()

	// Store the config file path for saving layout changes
	configFilePath := viper.ConfigFileUsed()
	if configFilePath == "" {
		configFilePath = ".quadview/config.yaml"
	}

	v, err := viewer.New(viewer.Options{
		RendererFactory: app.NewRendererFactory(),
		FusionCacheTTL:  time.Duration(cfg.Fusion.CacheTTLMinutes) * time.Minute,
		Annotations:     sqlite.NewAnnotationRepository(db),
		Tracer:          tracer.Tracer(),
		SaveLayout: func(shape viewer.Shape) {
			if err := config.SaveLayout(configFilePath, string(shape)); err != nil {
				log.ErrorErr(log.CatConfig, "save layout failed", err)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("initializing viewer: %w", err)
	}

	if shape, err := viewer.ParseShape(cfg.Layout); err == nil {
		if err := v.ApplyLayout(context.Background(), shape); err != nil {
			return fmt.Errorf("restoring layout: %w", err)
		}
		v.Scheduler().Drain()
	}

	var w *watcher.Watcher
	if dataDir != "" {
		if err := v.LoadFileSet(context.Background(), dataDir); err != nil {
			return fmt.Errorf("loading file set: %w", err)
		}

		noAutoRefresh, _ := cmd.Flags().GetBool("no-auto-refresh")
		if cfg.AutoRefresh && !noAutoRefresh {
			w, err = watcher.New(watcher.DefaultConfig(dataDir))
			if err != nil {
				return fmt.Errorf("initializing watcher: %w", err)
			}
			if err := w.Start(); err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer func() { _ = w.Stop() }()
		}
	}

	model := app.New(app.Config{
		Viewer:  v,
		Watcher: w,
		UI:      cfg.UI,
		Debug:   debug,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
