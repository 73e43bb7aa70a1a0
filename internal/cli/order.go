package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tradeassist/internal/errors"
	"tradeassist/internal/feed"
	"tradeassist/internal/models"
	"tradeassist/internal/notify"
	"tradeassist/internal/order"
	"tradeassist/internal/session"
	"tradeassist/pkg/utils"
)

// addOrderCommands adds order placement and mutation commands.
func addOrderCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newBuyCmd(app))
	rootCmd.AddCommand(newSellCmd(app))
	rootCmd.AddCommand(newCloseCmd(app))
	rootCmd.AddCommand(newModifyCmd(app))
}

func newBuyCmd(app *App) *cobra.Command {
	return newPlaceCmd(app, models.OrderSideBuy)
}

func newSellCmd(app *App) *cobra.Command {
	return newPlaceCmd(app, models.OrderSideSell)
}

func newPlaceCmd(app *App, side models.OrderSide) *cobra.Command {
	use := "buy <symbol> <lots>"
	short := "Place a buy order"
	example := `  assistant buy RELIANCE 1
  assistant buy NIFTY24DECFUT 2 --sl 24100 --target 24600
  assistant buy INFY 1 --price 1500 --validity TOMORROW`
	if side == models.OrderSideSell {
		use = "sell <symbol> <lots>"
		short = "Place a sell order"
		example = `  assistant sell RELIANCE 1
  assistant sell NIFTY24DECFUT 1 --sl 24600 --target 24100`
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + ` for a symbol.

The entry price is seeded from the live quote for the chosen side (ask for
a buy, bid for a sell) unless --price overrides it. For instruments with a
lot size, quantity is given in lots and multiplied before submission.
Stoploss and target are validated against the entry price per side.`,
		Example: example,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			lots, err := parseLots(args[1])
			if err != nil {
				output.Error("Invalid quantity: %s", args[1])
				return err
			}

			price, _ := cmd.Flags().GetFloat64("price")
			sl, _ := cmd.Flags().GetFloat64("sl")
			target, _ := cmd.Flags().GetFloat64("target")
			validity, _ := cmd.Flags().GetString("validity")
			description, _ := cmd.Flags().GetString("note")

			sess, err := session.New(app.Config, app.Logger, session.Options{})
			if err != nil {
				return err
			}
			defer sess.Close()

			inst, err := sess.Refdata.ResolveSymbol(symbol)
			if err != nil {
				output.Error("Unknown symbol: %s", symbol)
				return err
			}

			if err := sess.Start(ctx); err != nil {
				output.Error("Feed unavailable: %v", err)
				return err
			}

			snapshot, err := waitForQuote(ctx, sess, inst.InstrumentKey)
			if err != nil {
				output.Error("No live quote for %s: %v", symbol, err)
				return err
			}

			intent := sess.Builder.BuildIntent(app.Config.User.ID, inst, side, snapshot)
			intent = order.WithQuantity(intent, lots)
			if price > 0 {
				intent = order.WithEntryPrice(intent, price)
			}
			if sl > 0 {
				intent = order.WithStoploss(intent, &sl)
			}
			if target > 0 {
				intent = order.WithTarget(intent, &target)
			}
			if validity != "" {
				intent = sess.Builder.WithValidity(intent, models.Validity(strings.ToUpper(validity)))
			}
			if description != "" {
				intent = order.WithDescription(intent, description)
			}

			valid, err := sess.Builder.Validate(intent, snapshot)
			if err != nil {
				printOrderError(output, err)
				return err
			}

			printOrderPreview(output, inst, valid)

			tradeID, err := sess.Trades.CreateTrade(ctx, valid)
			if err != nil {
				output.Error("Order failed: %v", err)
				return err
			}

			if sess.Store != nil {
				if err := sess.Store.JournalOrder(ctx, valid, tradeID); err != nil {
					app.Logger.Warn().Err(err).Msg("Journal write failed")
				}
			}

			if err := sess.Notify.Send(ctx, notify.ForOrderFill(valid, tradeID)); err != nil {
				app.Logger.Warn().Err(err).Msg("Notification failed")
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"tradeId": tradeID, "status": string(valid.Status)})
			}

			output.Success("✓ Order submitted")
			output.Printf("  Trade ID: %s\n", tradeID)
			output.Printf("  Status:   %s\n", valid.Status)
			output.Println()
			output.Dim("Use 'assistant trades' to track it")
			return nil
		},
	}

	cmd.Flags().Float64P("price", "p", 0, "Entry price override (limit-like order)")
	cmd.Flags().Float64("sl", 0, "Stoploss price")
	cmd.Flags().Float64("target", 0, "Target price")
	cmd.Flags().String("validity", "", "Validity window (INTRADAY, TOMORROW, 1_WEEK, 1_MONTH)")
	cmd.Flags().String("note", "", "Free-text description")

	return cmd
}

// parseLots parses the lots argument of buy/sell. Lots count instruments
// for equities and lots for derivatives; either way at least one.
func parseLots(arg string) (int, error) {
	lots, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", arg, err)
	}
	if lots <= 0 {
		return 0, fmt.Errorf("quantity must be at least 1, got %d", lots)
	}
	return lots, nil
}

// waitForQuote blocks until the price book holds a quote for the key or
// the context expires. The first tick usually lands well under a second
// after subscribing.
func waitForQuote(ctx context.Context, sess *session.Session, instrumentKey string) (models.LivePrice, error) {
	ch := sess.Hub.Subscribe(instrumentKey)
	defer sess.Hub.Unsubscribe(instrumentKey, ch)

	if price, quality := sess.Feed.Book().Get(instrumentKey); quality == feed.QuoteLive {
		return price, nil
	}

	select {
	case <-ctx.Done():
		return models.LivePrice{}, waitErr(sess, instrumentKey)
	case price, ok := <-ch:
		if !ok {
			return models.LivePrice{}, errors.ErrNoQuote
		}
		return price, nil
	case <-time.After(10 * time.Second):
		return models.LivePrice{}, waitErr(sess, instrumentKey)
	}
}

// waitErr distinguishes a quote we never had from one that went stale with
// the connection.
func waitErr(sess *session.Session, instrumentKey string) error {
	if _, quality := sess.Feed.Book().Get(instrumentKey); quality == feed.QuoteStale {
		return errors.ErrStaleFeed
	}
	return errors.ErrNoQuote
}

func printOrderPreview(output *Output, inst models.Instrument, valid models.ValidOrder) {
	if output.IsJSON() {
		return
	}
	output.Bold("Order Preview")
	output.Printf("  Symbol:    %s\n", valid.Symbol)
	output.Printf("  Side:      %s\n", output.Side(string(valid.Side)))
	if inst.HasLotSize() {
		output.Printf("  Quantity:  %s (%d lots x %d)\n",
			utils.FormatQuantity(int64(valid.Quantity)), valid.Quantity/inst.LotSize, inst.LotSize)
	} else {
		output.Printf("  Quantity:  %s\n", utils.FormatQuantity(int64(valid.Quantity)))
	}
	output.Printf("  Entry:     %s\n", utils.FormatIndianCurrency(valid.EntryPrice))
	if valid.Stoploss != nil {
		output.Printf("  Stoploss:  %s\n", utils.FormatIndianCurrency(*valid.Stoploss))
	}
	if valid.Target != nil {
		output.Printf("  Target:    %s\n", utils.FormatIndianCurrency(*valid.Target))
	}
	output.Printf("  Valid To:  %s\n", valid.ValidityTime.In(utils.IndiaLocation).Format("02 Jan 15:04"))
	output.Println()
}

func printOrderError(output *Output, err error) {
	if stderrors.Is(err, errors.ErrMarketClosed) {
		output.Error("Market is closed; orders can only be placed 09:15-15:30 IST on trading days")
		return
	}

	var verrs errors.ValidationErrors
	if stderrors.As(err, &verrs) {
		output.Error("Order rejected:")
		for _, ve := range verrs {
			output.Printf("  %s %s: %s\n", output.Red("✗"), ve.Field, ve.Message)
		}
		return
	}

	output.Error("Order rejected: %v", err)
}

func newCloseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "close <trade-id>",
		Short: "Request closure of an open trade",
		Long: `Request closure of an open trade.

The backend owns the lifecycle; this submits the close request and reports
the outcome. Closing an already-closed trade fails server-side.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			sess, err := session.New(app.Config, app.Logger, session.Options{WithoutFeed: true})
			if err != nil {
				return err
			}
			defer sess.Close()

			tradeID := args[0]
			if err := sess.Trades.CloseTrade(ctx, app.Config.User.ID, tradeID); err != nil {
				output.Error("Close failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"tradeId": tradeID, "closed": "requested"})
			}
			output.Success("✓ Close requested for trade %s", tradeID)
			return nil
		},
	}
}

func newModifyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modify <trade-id>",
		Short: "Modify target and stoploss of an open trade",
		Long: `Modify the target and/or stoploss of an open trade.

New levels are validated against the trade's entry price with the same
side rules as order placement.`,
		Example: `  assistant modify t-123 --sl 2400
  assistant modify t-123 --sl 2400 --target 2600`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			tradeID := args[0]
			var target, stoploss *float64
			if v, _ := cmd.Flags().GetFloat64("target"); v > 0 {
				target = &v
			}
			if v, _ := cmd.Flags().GetFloat64("sl"); v > 0 {
				stoploss = &v
			}
			if target == nil && stoploss == nil {
				output.Error("Nothing to modify; pass --sl and/or --target")
				return fmt.Errorf("no modification given")
			}

			sess, err := session.New(app.Config, app.Logger, session.Options{WithoutFeed: true})
			if err != nil {
				return err
			}
			defer sess.Close()

			trades, err := sess.Trades.GetTrades(ctx, app.Config.User.ID)
			if err != nil {
				output.Error("Fetching trades failed: %v", err)
				return err
			}

			var trade *models.Trade
			for i := range trades {
				if trades[i].TradeID == tradeID {
					trade = &trades[i]
					break
				}
			}
			if trade == nil {
				output.Error("Trade %s not found", tradeID)
				return fmt.Errorf("trade not found")
			}
			if trade.Closed() {
				output.Error("Trade %s is already %s", tradeID, trade.Status)
				return fmt.Errorf("trade closed")
			}

			if err := order.ValidateModify(*trade, target, stoploss); err != nil {
				printOrderError(output, err)
				return err
			}

			if err := sess.Trades.ModifyTargetStoploss(ctx, app.Config.User.ID, tradeID, target, stoploss); err != nil {
				output.Error("Modify failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"tradeId": tradeID, "modified": "ok"})
			}
			output.Success("✓ Trade %s updated", tradeID)
			return nil
		},
	}

	cmd.Flags().Float64("sl", 0, "New stoploss price")
	cmd.Flags().Float64("target", 0, "New target price")

	return cmd
}
