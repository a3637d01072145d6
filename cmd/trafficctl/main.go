// trafficctl: HTTP API сервер и CLI для поиска мест Хошимина.
//
// Использование:
//
//	trafficctl serve --addr :3000
//	trafficctl search "ben thanh" --limit 5
//	trafficctl suggest "land"
//	trafficctl place "ben thanh market"
//	trafficctl reverse 10.7725 106.6980
//	trafficctl ping
//	trafficctl history
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ilkoid/saigon-traffic/internal/server"
	"github.com/ilkoid/saigon-traffic/pkg/app"
	"github.com/ilkoid/saigon-traffic/pkg/config"
	"github.com/ilkoid/saigon-traffic/pkg/utils"
)

// Version задаётся при сборке через -ldflags.
var Version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "trafficctl",
		Usage:   "Ho Chi Minh City place search and traffic reports",
		Version: Version,
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
				Name:  "mode",
				Usage: "Override search.mode (local-first, remote-priority, local-only)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Write DEBUG lines to the log file",
			},
			&cli.StringFlag{
				Name:  "log-dir",
				Usage: "Directory for log files",
			},
		},
		After: func(*cli.Context) error {
			utils.Close()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
				},
			},
			{
				Name:      "search",
				Aliases:   []string{"s"},
				Usage:     "Search places by name",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Max results (0 = search.default_limit)",
					},
					jsonFlag(),
				},
			},
			{
				Name:      "suggest",
				Usage:     "Autocomplete a partial place name",
				ArgsUsage: "<partial>",
				Action:    suggestCommand,
				Flags:     []cli.Flag{jsonFlag()},
			},
			{
				Name:      "place",
				Usage:     "Show gazetteer record by key",
				ArgsUsage: "<key>",
				Action:    placeCommand,
				Flags:     []cli.Flag{jsonFlag()},
			},
			{
				Name:      "reverse",
				Usage:     "Reverse geocode coordinates",
				ArgsUsage: "<lat> <lng>",
				Action:    reverseCommand,
				Flags:     []cli.Flag{jsonFlag()},
			},
			{
				Name:   "ping",
				Usage:  "Check the geocoding provider",
				Action: pingCommand,
			},
			{
				Name:   "history",
				Usage:  "Show recent searches",
				Action: historyCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Max entries",
						Value:   10,
					},
					jsonFlag(),
				},
			},
		},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "json",
		Aliases: []string{"j"},
		Usage:   "Output as JSON",
	}
}

// loadConfig находит конфиг, применяет флаги и запускает логгер.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	cfg, cfgPath, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: c.String("config")})
	if err != nil {
		return nil, err
	}

	if p := c.String("provider"); p != "" {
		cfg.Geocoding.Provider = p
	}
	if mode := c.String("mode"); mode != "" {
		cfg.Search.Mode = mode
	}

	if err := utils.InitLogger(c.String("log-dir"), cfg.App.LogPrefix); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logger: %v\n", err)
	}
	utils.SetDebug(cfg.App.Debug || c.Bool("debug"))
	utils.Info("Config loaded", "path", cfgPath, "provider", cfg.Geocoding.Provider, "mode", cfg.Search.Mode)

	return cfg, nil
}

// setup загружает конфиг и собирает компоненты.
func setup(c *cli.Context) (*app.Components, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return app.Initialize(c.Context, cfg)
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, shutdown := utils.SetupGracefulShutdownWithContext()
	defer shutdown()

	comps, err := app.Initialize(ctx, cfg)
	if err != nil {
		return err
	}
	defer comps.Close()

	fmt.Fprintf(c.App.Writer, "Listening on %s (mode %s, %d places)\n",
		cfg.Server.Addr, comps.Search.Mode(), comps.Gazetteer.Len())
	return server.New(comps, cfg.Server).Run(ctx)
}
