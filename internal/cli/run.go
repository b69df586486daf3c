package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"krx-trader/internal/engine"
	"krx-trader/internal/store"
	"krx-trader/internal/strategy"
)

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the trading engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(app)
		},
	}
	return cmd
}

func runEngine(app *App) error {
	ctx := context.Background()

	if err := app.Broker.Authenticate(ctx); err != nil {
		return fmt.Errorf("broker authentication: %w", err)
	}

	// Streaming feeds held-position prices between sell checks.
	unsubscribe := app.Hub.Subscribe(app.Engine.HandleTick)
	defer unsubscribe()

	if app.Config.Mode == "live" {
		token := ""
		if rb, ok := app.Broker.(interface{ AccessToken() string }); ok {
			token = rb.AccessToken()
		}
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := app.Session.Connect(connectCtx, app.Config.Stream.Endpoint, token)
		cancel()
		if err != nil {
			// The engine can run on polled quotes alone; streaming is
			// a refresh path, not a prerequisite.
			app.Logger.Warn().Err(err).Msg("streaming session unavailable")
		}
		app.Session.OnSessionLost(func(err error) {
			app.Logger.Error().Err(err).Msg("streaming session lost")
		})
	}

	strategyCfg := func() *strategy.Config {
		cfg := app.Config.Strategy
		return &cfg
	}

	var scheduler *engine.Scheduler
	if app.Config.Scheduler.Enabled {
		scheduler = engine.NewScheduler(app.Engine, app.Logger)
		if err := scheduler.Schedule(app.Config.Scheduler.StartSpec, app.Config.Scheduler.StopSpec, strategyCfg); err != nil {
			return err
		}
		scheduler.Start()
		app.Logger.Info().
			Str("start", app.Config.Scheduler.StartSpec).
			Str("stop", app.Config.Scheduler.StopSpec).
			Msg("market-hours scheduler armed")
	} else {
		app.Engine.Start(strategyCfg())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	app.Logger.Info().Msg("shutting down")
	if scheduler != nil {
		scheduler.Stop()
	}
	app.Engine.Stop()
	app.Session.Close()
	app.Engine.Wait()

	if app.Journal != nil {
		app.Journal.Close()
	}

	status := app.Engine.Status()
	fmt.Printf("trades: %d total, %d filled, %d failed, cumulative profit %.0f\n",
		status.Counters.TotalTrades, status.Counters.SuccessfulTrades,
		status.Counters.FailedTrades, status.Counters.CumulativeProfit)
	return nil
}

func newTradesCmd(app *App) *cobra.Command {
	var code string
	var days int
	var limit int

	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Show completed trades from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Journal == nil {
				return fmt.Errorf("trade journal unavailable")
			}

			filter := store.TradeFilter{Code: code, Limit: limit}
			if days > 0 {
				filter.Since = time.Now().AddDate(0, 0, -days)
			}

			trades, err := app.Journal.Trades(context.Background(), filter)
			if err != nil {
				return err
			}

			for _, t := range trades {
				fmt.Printf("%s  %s(%s)  x%d  %.0f -> %.0f  %+.2f%%  [%s]\n",
					t.ClosedAt.Format("2006-01-02 15:04"), t.Name, t.Code,
					t.Quantity, t.BuyPrice, t.SellPrice, t.ProfitPercent, t.Strategy)
			}
			if len(trades) == 0 {
				fmt.Println("no trades recorded")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "filter by instrument code")
	cmd.Flags().IntVar(&days, "days", 0, "only trades closed within the last N days")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of trades to show")
	return cmd
}
