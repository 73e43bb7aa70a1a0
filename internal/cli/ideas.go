package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tradeassist/internal/collection"
	"tradeassist/internal/models"
	"tradeassist/internal/session"
	"tradeassist/pkg/utils"
)

// addIdeaCommands adds AI trade idea commands.
func addIdeaCommands(rootCmd *cobra.Command, app *App) {
	ideasCmd := &cobra.Command{
		Use:   "ideas",
		Short: "Browse AI-generated trade ideas",
	}
	ideasCmd.AddCommand(newIdeasListCmd(app))
	ideasCmd.AddCommand(newIdeasStatsCmd(app))
	rootCmd.AddCommand(ideasCmd)
}

func newIdeasListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trade ideas with filters and sorting",
		Long: `List AI-generated trade ideas.

Filters compose as a conjunction; sorting is a strict total order, so the
same data always renders in the same sequence. Ideas still open show no
PnL rather than zero.`,
		Example: `  assistant ideas list
  assistant ideas list --status active --sentiment BULLISH
  assistant ideas list --sort pnl --desc
  assistant ideas list --search "nifty breakout"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			status, _ := cmd.Flags().GetString("status")
			sentiment, _ := cmd.Flags().GetString("sentiment")
			risk, _ := cmd.Flags().GetString("risk")
			search, _ := cmd.Flags().GetString("search")
			sortKey, _ := cmd.Flags().GetString("sort")
			desc, _ := cmd.Flags().GetBool("desc")

			sess, err := session.New(app.Config, app.Logger, session.Options{WithoutFeed: true})
			if err != nil {
				return err
			}
			defer sess.Close()

			fromCache := false
			// Status filtering happens server-side when it is the only
			// filter; everything else composes locally.
			ideas, err := sess.Ideas.GetAiTrades(ctx, models.TradeStatus(status))
			if err != nil {
				if sess.Store == nil {
					output.Error("Fetching ideas failed: %v", err)
					return err
				}
				cached, cacheErr := sess.Store.GetCachedIdeas(ctx)
				if cacheErr != nil || len(cached) == 0 {
					output.Error("Fetching ideas failed: %v", err)
					return err
				}
				ideas = cached
				fromCache = true
			}

			ideas = collection.Filter(ideas, collection.Predicate{
				Status:    models.TradeStatus(status),
				Sentiment: models.Sentiment(strings.ToUpper(sentiment)),
				RiskLevel: models.RiskLevel(strings.ToUpper(risk)),
				Search:    search,
			})

			dir := collection.Ascending
			if desc {
				dir = collection.Descending
			}
			ideas = collection.Sort(ideas, collection.SortKey(sortKey), dir)

			if output.IsJSON() {
				return output.JSON(ideas)
			}

			if fromCache {
				output.Warning("Backend unreachable; showing cached ideas")
			}
			if len(ideas) == 0 {
				output.Dim("No ideas match")
				return nil
			}

			table := NewTable(output, "ID", "TITLE", "SYMBOL", "VIEW", "RISK", "CONF", "STATUS", "PNL")
			for _, idea := range ideas {
				table.AddRow(
					idea.AiTradeID,
					truncate(idea.Title, 32),
					idea.Setup.Symbol,
					sentimentCell(output, idea.Sentiment),
					string(idea.RiskLevel),
					utils.FormatPercent(idea.Confidence),
					statusCell(output, idea.Status),
					ideaPnLCell(output, idea),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("status", "", "Filter by status")
	cmd.Flags().String("sentiment", "", "Filter by sentiment (BULLISH, BEARISH, NEUTRAL)")
	cmd.Flags().String("risk", "", "Filter by risk level (LOW, MEDIUM, HIGH)")
	cmd.Flags().String("search", "", "Free-text search over title, symbol and strategy")
	cmd.Flags().String("sort", "createdAt", "Sort key (createdAt, confidence, pnl, title)")
	cmd.Flags().Bool("desc", false, "Sort descending")

	return cmd
}

func sentimentCell(output *Output, s models.Sentiment) string {
	switch s {
	case models.SentimentBullish:
		return output.Green(string(s))
	case models.SentimentBearish:
		return output.Red(string(s))
	default:
		return output.Yellow(string(s))
	}
}

func ideaPnLCell(output *Output, idea models.AiTrade) string {
	if idea.PnL == nil {
		return output.DimText("-")
	}
	cell := output.FormatPnL(*idea.PnL)
	if idea.PercentPnL != nil {
		cell += " " + output.FormatPercent(*idea.PercentPnL)
	}
	return cell
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func newIdeasStatsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate statistics over trade ideas",
		Long: `Show aggregate statistics over AI trade ideas.

Open ideas are excluded from total PnL and from the win-rate denominator;
an undefined outcome is not a zero outcome. Preferred source is the
backend's stats endpoint; with --local the figures are computed from the
fetched list instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			local, _ := cmd.Flags().GetBool("local")

			sess, err := session.New(app.Config, app.Logger, session.Options{WithoutFeed: true, WithoutStore: true})
			if err != nil {
				return err
			}
			defer sess.Close()

			var stats collection.Stats
			if local {
				ideas, err := sess.Ideas.GetAiTrades(ctx, "")
				if err != nil {
					output.Error("Fetching ideas failed: %v", err)
					return err
				}
				stats = collection.Aggregate(ideas)
			} else {
				stats, err = sess.Ideas.GetStats(ctx)
				if err != nil {
					output.Error("Fetching stats failed: %v", err)
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(stats)
			}

			output.Bold("Trade Idea Statistics")
			output.Printf("  Total Ideas:     %d\n", stats.TotalTrades)
			output.Printf("  Total PnL:       %s\n", output.FormatPnL(stats.TotalPnL))
			output.Printf("  Win Rate:        %.1f%%\n", stats.WinRate*100)
			output.Printf("  Avg Confidence:  %.1f%%\n", stats.AvgConfidence)
			output.Println()

			if len(stats.PerStatusCounts) > 0 {
				output.Bold("By Status")
				for _, status := range models.AllStatuses() {
					if n, ok := stats.PerStatusCounts[status]; ok {
						output.Printf("  %-13s %d\n", status, n)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("local", false, "Aggregate locally from the fetched idea list")

	return cmd
}
