package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"tradeassist/internal/models"
	"tradeassist/internal/session"
	"tradeassist/pkg/utils"
)

// addTradeCommands adds trade listing commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newTradesCmd(app))
	rootCmd.AddCommand(newJournalCmd(app))
}

func newTradesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "List your trades",
		Long: `List your trades with their lifecycle status and PnL.

Realised figures come from the backend; open trades show no PnL here (use
'assistant watch' for live unrealised PnL). When the backend is
unreachable the last cached list is shown instead.`,
		Example: `  assistant trades
  assistant trades --status active
  assistant trades --open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			status, _ := cmd.Flags().GetString("status")
			openOnly, _ := cmd.Flags().GetBool("open")

			sess, err := session.New(app.Config, app.Logger, session.Options{WithoutFeed: true})
			if err != nil {
				return err
			}
			defer sess.Close()

			fromCache := false
			trades, err := sess.Trades.GetTrades(ctx, app.Config.User.ID)
			if err != nil {
				if sess.Store == nil {
					output.Error("Fetching trades failed: %v", err)
					return err
				}
				cached, cacheErr := sess.Store.GetCachedTrades(ctx, app.Config.User.ID)
				if cacheErr != nil || len(cached) == 0 {
					output.Error("Fetching trades failed: %v", err)
					return err
				}
				trades = cached
				fromCache = true
			}

			filtered := trades[:0:0]
			for _, t := range trades {
				if status != "" && t.Status != models.TradeStatus(status) {
					continue
				}
				if openOnly && t.Closed() {
					continue
				}
				filtered = append(filtered, t)
			}

			if output.IsJSON() {
				return output.JSON(filtered)
			}

			if fromCache {
				lastSync := sess.Store.GetLastSync("trades")
				output.Warning("Backend unreachable; showing cached trades from %s",
					lastSync.In(utils.IndiaLocation).Format("02 Jan 15:04"))
			}

			if len(filtered) == 0 {
				output.Dim("No trades")
				return nil
			}

			table := NewTable(output, "ID", "SYMBOL", "SIDE", "QTY", "ENTRY", "STATUS", "PNL")
			for _, t := range filtered {
				table.AddRow(
					t.TradeID,
					t.Symbol,
					output.Side(string(t.Side)),
					utils.FormatQuantity(int64(t.Quantity)),
					utils.FormatIndianCurrency(t.EntryPrice),
					statusCell(output, t.Status),
					pnlCell(output, t),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("status", "", "Filter by status (suggested, active, target_hit, stoploss_hit, expired, cancelled)")
	cmd.Flags().Bool("open", false, "Show only non-terminal trades")

	return cmd
}

func statusCell(output *Output, status models.TradeStatus) string {
	switch status {
	case models.StatusActive:
		return output.Green(string(status))
	case models.StatusTargetHit:
		return output.Green(string(status))
	case models.StatusStoplossHit:
		return output.Red(string(status))
	case models.StatusCancelled, models.StatusExpired:
		return output.DimText(string(status))
	default:
		return string(status)
	}
}

func pnlCell(output *Output, t models.Trade) string {
	if t.PnL == nil {
		return output.DimText("-")
	}
	cell := output.FormatPnL(*t.PnL)
	if t.PercentPnL != nil {
		cell += " " + output.FormatPercent(*t.PercentPnL)
	}
	return cell
}

func newJournalCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show locally journaled order submissions",
		Long: `Show the local journal of submitted orders.

Every accepted submission is recorded locally with the trade ID the
backend returned, so the order history survives backend resets.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			limit, _ := cmd.Flags().GetInt("limit")

			sess, err := session.New(app.Config, app.Logger, session.Options{WithoutFeed: true})
			if err != nil {
				return err
			}
			defer sess.Close()

			entries, err := sess.Store.GetJournal(ctx, limit)
			if err != nil {
				output.Error("Reading journal failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(entries)
			}

			if len(entries) == 0 {
				output.Dim("No journaled orders")
				return nil
			}

			table := NewTable(output, "WHEN", "TRADE", "SYMBOL", "SIDE", "QTY", "ENTRY", "STATUS")
			for _, e := range entries {
				table.AddRow(
					e.SubmittedAt.In(utils.IndiaLocation).Format("02 Jan 15:04"),
					e.TradeID,
					e.Symbol,
					output.Side(string(e.Side)),
					utils.FormatQuantity(int64(e.Quantity)),
					utils.FormatIndianCurrency(e.EntryPrice),
					string(e.Status),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().Int("limit", 50, "Maximum entries to show")

	return cmd
}
