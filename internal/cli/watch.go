package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"tradeassist/internal/models"
	"tradeassist/internal/monitor"
	"tradeassist/internal/session"
	"tradeassist/pkg/utils"
)

// addWatchCommands adds live streaming commands.
func addWatchCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newWatchCmd(app))
	rootCmd.AddCommand(newMonitorCmd(app))
}

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <symbol> [symbol...]",
		Short: "Stream live prices for symbols",
		Long: `Stream live prices for one or more symbols.

All symbols share the single feed connection. After a reconnect the quotes
resume automatically; while disconnected they are flagged stale rather
than shown as current. Press Ctrl-C to stop.`,
		Example: `  assistant watch RELIANCE
  assistant watch NIFTY BANKNIFTY TCS`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := signalContext()
			defer cancel()

			sess, err := session.New(app.Config, app.Logger, session.Options{WithoutStore: true})
			if err != nil {
				return err
			}
			defer sess.Close()

			keys := make([]string, 0, len(args))
			for _, arg := range args {
				inst, err := sess.Refdata.ResolveSymbol(strings.ToUpper(arg))
				if err != nil {
					output.Error("Unknown symbol: %s", arg)
					return err
				}
				keys = append(keys, inst.InstrumentKey)
			}

			if err := sess.Start(ctx); err != nil {
				output.Error("Feed unavailable: %v", err)
				return err
			}

			for _, key := range keys {
				ch := sess.Hub.Subscribe(key)
				go func(ch <-chan models.LivePrice) {
					for price := range ch {
						printTick(output, price)
					}
				}(ch)
			}

			output.Info("Watching %d instruments (Ctrl-C to stop)", len(keys))
			<-ctx.Done()
			return nil
		},
	}
}

func printTick(output *Output, p models.LivePrice) {
	output.Printf("%s  %-24s last %s  bid %s  ask %s\n",
		output.DimText(p.ReceivedAt.In(utils.IndiaLocation).Format("15:04:05")),
		p.InstrumentKey,
		utils.FormatIndianCurrency(p.LastPrice),
		utils.FormatIndianCurrency(p.BidPrice),
		utils.FormatIndianCurrency(p.AskPrice),
	)
}

func newMonitorCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Monitor open positions with live unrealised PnL",
		Long: `Monitor your active trades and tracked ideas.

The trade list refreshes on the configured poll interval; between
refreshes every tick recomputes unrealised PnL locally. Backend status
flips (an idea going active, a target hitting) surface as they happen.
Press Ctrl-C to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := signalContext()
			defer cancel()

			sess, err := session.New(app.Config, app.Logger, session.Options{})
			if err != nil {
				return err
			}
			defer sess.Close()

			sess.Live.OnPnL(func(u monitor.PnLUpdate) {
				id := u.TradeID
				if id == "" {
					id = u.AiTradeID
				}
				output.Printf("%s  %-12s %-24s %s %s\n",
					output.DimText(u.Price.ReceivedAt.In(utils.IndiaLocation).Format("15:04:05")),
					id,
					u.InstrumentKey,
					output.FormatPnL(u.Unrealised),
					output.FormatPercent(u.PercentPnL),
				)
			})
			sess.Poller.OnError(func(err error) {
				output.Warning("Refresh failed: %v", err)
			})

			if err := sess.Start(ctx); err != nil {
				output.Error("Start failed: %v", err)
				return err
			}

			status := utils.GetMarketStatus()
			output.Info("Market %s  polling every %s (Ctrl-C to stop)",
				status, app.Config.Poll.Interval)

			<-ctx.Done()
			return nil
		},
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
			// Give teardown a moment, then force-exit on a second signal.
			<-sigCh
			os.Exit(1)
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
