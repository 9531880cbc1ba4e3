// Command recite is a terminal host for the synchronized recitation
// playback engine: it lists reciters and chapters and plays a chapter with
// live verse/word highlighting.
package main

import (
	"fmt"
	"os"
	"time"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/murattal/recite/internal/adapter/i18n"
	"github.com/murattal/recite/internal/adapter/mpv"
	"github.com/murattal/recite/internal/adapter/quranapi"
	redisadapter "github.com/murattal/recite/internal/adapter/redis"
	"github.com/murattal/recite/internal/application"
	"github.com/murattal/recite/internal/config"
	"github.com/murattal/recite/internal/domain"
)

type app struct {
	cfg        *config.Config
	controller *application.Controller
	closers    []func() error
}

var engine *app

var rootCmd = &cobra.Command{
	Use:           "recite",
	Short:         "Synchronized Quran recitation playback from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		engine = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if engine == nil {
			return
		}
		for _, c := range engine.closers {
			if err := c(); err != nil {
				logrus.WithError(err).Warn("close failed")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(recitersCmd, chaptersCmd, playCmd)
}

func buildApp() (*app, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if lvl, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logrus.SetLevel(lvl)
	}

	i18nService, err := i18n.NewI18n(cfg.App.LocalesDir)
	if err != nil {
		return nil, err
	}

	var closers []func() error
	var catalog domain.RecitationCatalogPort = quranapi.NewClient(cfg.QuranAPI.BaseURL, cfg.QuranAPI.APIKey)
	if cfg.Redis.URI != "" {
		cached, err := redisadapter.NewCachedCatalog(cfg.Redis.URI, catalog, cfg.Cache.RecitersTTL, cfg.Cache.ChapterAudioTTL)
		if err != nil {
			return nil, err
		}
		catalog = cached
		closers = append(closers, cached.Close)
	}

	tuning := application.Tuning{
		HighlightDelayMs:   cfg.Playback.HighlightDelayMs,
		RangeStartBufferMs: cfg.Playback.RangeStartBufferMs,
		RangeEndBufferMs:   cfg.Playback.RangeEndBufferMs,
		RestartGuardMs:     cfg.Playback.RestartGuardMs,
		PollInterval:       time.Duration(cfg.Playback.PollIntervalMs) * time.Millisecond,
		PreferredReciter:   cfg.App.PreferredReciter,
	}

	controller := application.NewController(
		catalog,
		mpv.NewSource(),
		i18nService,
		domain.Language(cfg.App.DefaultLanguage),
		tuning,
	)

	return &app{cfg: cfg, controller: controller, closers: closers}, nil
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	cc.Init(&cc.Config{
		RootCmd:  rootCmd,
		Headings: cc.HiGreen + cc.Bold,
		Commands: cc.HiYellow + cc.Bold,
		ExecName: cc.Bold,
		Flags:    cc.Bold,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
