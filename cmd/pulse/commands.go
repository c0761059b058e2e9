package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"MarketPulse/internal/collector"
	"MarketPulse/internal/display"
	"MarketPulse/internal/model"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/scheduler"

	"github.com/spf13/cobra"
)

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:   "pulse",
		Short: "MarketPulse - price and social interest trend analysis",
		Long: `MarketPulse collects daily closing prices and social media mention counts
for a watch list of stocks and summarizes how price trend and public interest relate.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "Configuration file path")

	rootCmd.AddCommand(newServeCmd(&cfgPath))
	rootCmd.AddCommand(newETLCmd(&cfgPath))
	rootCmd.AddCommand(newAnalyzeCmd(&cfgPath))
	rootCmd.AddCommand(newResultsCmd(&cfgPath))
	rootCmd.AddCommand(newHistoryCmd(&cfgPath))
	return rootCmd
}

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled ETL and reports, and answer Telegram commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*cfgPath)
		},
	}
}

func runServe(cfgPath string) error {
	log.Println("[INFO] MarketPulse starting...")
	a, err := openApp(cfgPath, true)
	if err != nil {
		return err
	}
	defer a.Close()

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var tn *notifier.TelegramNotifier
	var n scheduler.Notifier
	if a.cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier("", a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)
		n = tn
	} else {
		log.Println("[WARN] telegram not configured, reports will only be logged")
	}

	sched := scheduler.NewScheduler(ctx, a.collector, a.analyzer, a.store, n)
	s := a.cfg.Schedule
	if err := sched.RegisterAll(s.PriceCron, s.MentionCron, s.ReportCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, running ETL and report now")
		go func() {
			sched.RunETLNow()
			sched.RunReportNow()
		}()
	}

	log.Println("[INFO] MarketPulse is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
	return nil
}

func newETLCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "etl [prices|mentions|all]",
		Short:     "Fetch prices and/or mentions once and store them",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"prices", "mentions", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "all"
			if len(args) == 1 {
				target = args[0]
			}
			a, err := openApp(*cfgPath, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			var results []*collector.Result
			var runErr error
			switch target {
			case "prices":
				res, err := a.collector.CollectPrices(ctx)
				if res != nil {
					results = append(results, res)
				}
				runErr = err
			case "mentions":
				res, err := a.collector.CollectMentions(ctx)
				if res != nil {
					results = append(results, res)
				}
				runErr = err
			default:
				results, runErr = a.collector.CollectAll(ctx)
			}
			printResults(cmd, results)
			return runErr
		},
	}
}

func printResults(cmd *cobra.Command, results []*collector.Result) {
	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintf(out, "%s: %d new records\n", r.Source, r.Total())
		syms := make([]string, 0, len(r.Inserted))
		for sym := range r.Inserted {
			syms = append(syms, sym)
		}
		sort.Strings(syms)
		for _, sym := range syms {
			fmt.Fprintf(out, "  %-6s %d\n", sym, r.Inserted[sym])
		}
		if len(r.Missing) > 0 {
			fmt.Fprintf(out, "  no data: %s\n", strings.Join(r.Missing, ", "))
		}
		for sym, err := range r.Failed {
			fmt.Fprintf(out, "  failed %s: %v\n", sym, err)
		}
	}
}

func newAnalyzeCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Analyze price trend, social interest and their correlation",
		Long: `Analyze the most recent stored prices and mention counts of a symbol.
Example: pulse analyze AAPL --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			a, err := openApp(*cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.analyzer.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.store.SaveReport(cmd.Context(), rep); err != nil {
				log.Printf("[WARN] save report: %v", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			fmt.Fprintln(cmd.OutOrStdout(), display.RenderReport(rep))
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the report as JSON")
	return cmd
}

func newResultsCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results SYMBOL",
		Short: "Show the most recent stored records of a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			limit, _ := cmd.Flags().GetInt("limit")
			rk := model.RecordKind(kind)
			if rk != model.KindPrice && rk != model.KindMention {
				return fmt.Errorf("unknown kind %q, want price or mention", kind)
			}

			a, err := openApp(*cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			symbol := strings.ToUpper(args[0])
			recs, err := a.store.Latest(cmd.Context(), rk, symbol, limit)
			if err != nil {
				return fmt.Errorf("load records: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), display.RenderRecords(rk, symbol, recs))
			return nil
		},
	}
	cmd.Flags().String("kind", string(model.KindPrice), "Record kind: price or mention")
	cmd.Flags().Int("limit", 10, "Maximum number of records")
	return cmd
}

func newHistoryCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent ETL runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			a, err := openApp(*cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			events, err := a.store.ETLHistory(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("load etl history: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), display.RenderHistory(events))
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of events")
	return cmd
}
