// Package cli provides the command-line interface for the trading
// application.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"krx-trader/internal/broker"
	"krx-trader/internal/config"
	"krx-trader/internal/engine"
	"krx-trader/internal/models"
	"krx-trader/internal/store"
	"krx-trader/internal/stream"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies. Services are explicitly
// constructed here and passed by reference; nothing is looked up
// through ambient globals.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Broker  broker.Broker
	Store   *store.Store
	Journal *store.Journal
	Hub     *stream.Hub
	Session *stream.Session
	Engine  *engine.Engine
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
		Store:  store.New(),
	}

	switch cfg.Mode {
	case "live":
		app.Broker = broker.NewRESTBroker(broker.RESTConfig{
			BaseURL:   cfg.Broker.BaseURL,
			AppKey:    cfg.Broker.AppKey,
			AppSecret: cfg.Broker.AppSecret,
			AccountNo: cfg.Broker.AccountNo,
			Timeout:   cfg.Broker.Timeout,
		}, logger)
	default:
		app.Broker = broker.NewPaperBroker()
	}

	journalPath := filepath.Join(config.DefaultConfigDir(), "trades.db")
	journal, err := store.NewJournal(journalPath)
	if err != nil {
		logger.Warn().Err(err).Msg("trade journal unavailable")
	} else {
		app.Journal = journal
	}

	app.Hub = stream.NewHub(logger)
	app.Session = stream.NewSession(stream.SessionConfig{
		MaxReconnectAttempts: cfg.Stream.MaxReconnectAttempts,
		ReconnectDelay:       cfg.Stream.ReconnectDelay,
	}, app.Hub, logger)

	app.Engine = engine.New(engine.Config{
		Market:                  models.Market(cfg.Engine.Market),
		AllocationPerInstrument: cfg.Engine.AllocationPerInstrument,
		MaxConcurrentPositions:  cfg.Engine.MaxConcurrentPositions,
		BuyInterval:             cfg.Engine.BuyInterval,
		SellInterval:            cfg.Engine.SellInterval,
	}, app.Broker, app.Store, app.Journal, app.Session, logger)

	rootCmd := &cobra.Command{
		Use:   "krx-trader",
		Short: "Automated equity trading engine",
		Long:  "krx-trader scans the market, evaluates buy/sell strategies and executes orders against the brokerage API.",
	}

	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("krx-trader " + Version)
		},
	}
}
