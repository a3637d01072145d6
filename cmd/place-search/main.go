// place-search: интерактивный TUI поиска мест Хошимина.
// Подсказки появляются по мере ввода, Enter выполняет полный поиск.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/ilkoid/saigon-traffic/internal/ui"
	"github.com/ilkoid/saigon-traffic/pkg/app"
	"github.com/ilkoid/saigon-traffic/pkg/utils"
)

func main() {
	a := &cli.App{
		Name:  "place-search",
		Usage: "Interactive place search for Ho Chi Minh City",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (default: TRAFFIC_CONFIG or ./config.yaml)",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Override geocoding.provider (google, nominatim, none)",
			},
			&cli.StringFlag{
				Name:  "theme",
				Usage: "Color scheme: default, dark, light",
				Value: "default",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Pause after the last keystroke before suggestions are requested",
				Value: ui.DefaultDebounce,
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Max results for a full search (Enter)",
				Value:   ui.DefaultLimit,
			},
		},
		Action: run,
	}

	if err := a.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	// 0. Конфигурация
	cfg, cfgPath, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: c.String("config")})
	if err != nil {
		return err
	}
	if p := c.String("provider"); p != "" {
		cfg.Geocoding.Provider = p
	}

	// 1. Логгер пишет в файл, чтобы не ломать экран TUI
	if err := utils.InitLogger("", cfg.App.LogPrefix); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logger: %v\n", err)
	}
	utils.SetDebug(cfg.App.Debug)
	utils.Info("place-search started", "config", cfgPath)

	ctx, shutdown := utils.SetupGracefulShutdownWithContext()
	defer shutdown()

	// 2. Компоненты
	comps, err := app.Initialize(ctx, cfg)
	if err != nil {
		utils.Error("Initialization failed", "error", err)
		return err
	}
	defer comps.Close()

	geocoder := ""
	if comps.Geocoder != nil {
		geocoder = comps.Geocoder.ProviderName()
	}

	// 3. TUI
	model := ui.InitialModel(ctx, comps.Search, comps.Store, ui.Options{
		Debounce: c.Duration("debounce"),
		Limit:    c.Int("limit"),
		Theme:    c.String("theme"),
		Geocoder: geocoder,
	})

	started := time.Now()
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		utils.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	utils.Info("place-search exited normally", "duration", time.Since(started).String())
	return nil
}
