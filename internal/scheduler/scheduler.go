package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"MarketPulse/internal/analyzer"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/store"

	"github.com/robfig/cron/v3"
)

// HistoryLimit is the number of ETL events shown by /history.
const HistoryLimit = 10

// Notifier pushes messages to the operator chat.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Analyzer  *analyzer.Analyzer
	Store     store.Store
	Notifier  Notifier // nil disables push messages
	Ctx       context.Context
	now       func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, an *analyzer.Analyzer, st store.Store, n Notifier) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Analyzer:  an,
		Store:     st,
		Notifier:  n,
		Ctx:       ctx,
		now:       time.Now,
	}
}

// RegisterAll registers the price ETL, mention ETL and report tasks.
func (s *Scheduler) RegisterAll(priceCron, mentionCron, reportCron string) error {
	if _, err := s.Cron.AddFunc(priceCron, s.priceTask); err != nil {
		return fmt.Errorf("register price task: %w", err)
	}
	if _, err := s.Cron.AddFunc(mentionCron, s.mentionTask); err != nil {
		return fmt.Errorf("register mention task: %w", err)
	}
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunETLNow runs both collectors immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunETLNow() []*collector.Result {
	results, err := s.Collector.CollectAll(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] etl: %v", err)
	}
	return results
}

// RunReportNow executes the report task immediately.
func (s *Scheduler) RunReportNow() {
	s.reportTask()
}

func (s *Scheduler) priceTask() {
	log.Println("[INFO] running price ETL")
	res, err := s.Collector.CollectPrices(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] price ETL: %v", err)
		s.trySend(fmt.Sprintf("❌ Price ETL failed: %v", err))
		return
	}
	if len(res.Failed) > 0 {
		s.trySend(notifier.FormatETLResult([]*collector.Result{res}))
	}
}

func (s *Scheduler) mentionTask() {
	log.Println("[INFO] running mention ETL")
	res, err := s.Collector.CollectMentions(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] mention ETL: %v", err)
		s.trySend(fmt.Sprintf("❌ Mention ETL failed: %v", err))
		return
	}
	if len(res.Failed) > 0 {
		s.trySend(notifier.FormatETLResult([]*collector.Result{res}))
	}
}

func (s *Scheduler) reportTask() {
	log.Println("[INFO] running report task")
	s.trySend(s.buildDigest(s.Ctx))
}

// buildDigest analyzes every symbol, persists the reports and formats the digest.
func (s *Scheduler) buildDigest(ctx context.Context) string {
	reps := s.Analyzer.AnalyzeAll(ctx)
	for _, rep := range reps {
		if err := s.Store.SaveReport(ctx, rep); err != nil {
			log.Printf("[ERROR] save report %s: %v", rep.Symbol, err)
		}
	}
	return notifier.FormatDigest(reps, s.now())
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Strip a "@botname" suffix from group chat commands.
	cmd := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])

	switch cmd {
	case "/analyze":
		if len(fields) < 2 {
			return "Usage: /analyze SYMBOL"
		}
		return s.analyzeOne(ctx, fields[1])
	case "/report":
		return s.buildDigest(ctx)
	case "/etl":
		results, err := s.Collector.CollectAll(ctx)
		reply := notifier.FormatETLResult(results)
		if err != nil {
			reply += fmt.Sprintf("\n❌ %v", err)
		}
		return reply
	case "/history":
		events, err := s.Store.ETLHistory(ctx, HistoryLimit)
		if err != nil {
			log.Printf("[ERROR] etl history: %v", err)
			return "❌ Could not load ETL history"
		}
		return notifier.FormatHistory(events)
	case "/symbols":
		return notifier.FormatSymbols(s.Analyzer.Symbols())
	default:
		return helpText
	}
}

const helpText = "Available commands:\n" +
	"• /analyze SYMBOL\n" +
	"• /report\n" +
	"• /etl\n" +
	"• /history\n" +
	"• /symbols"

func (s *Scheduler) analyzeOne(ctx context.Context, symbol string) string {
	rep, err := s.Analyzer.Analyze(ctx, symbol)
	if errors.Is(err, analyzer.ErrUnknownSymbol) {
		return fmt.Sprintf("Unknown symbol %s. Use /symbols to list the watched ones.", strings.ToUpper(symbol))
	}
	if err != nil {
		log.Printf("[ERROR] analyze %s: %v", symbol, err)
		return fmt.Sprintf("❌ Analysis failed for %s", strings.ToUpper(symbol))
	}
	if err := s.Store.SaveReport(ctx, rep); err != nil {
		log.Printf("[ERROR] save report %s: %v", rep.Symbol, err)
	}
	return notifier.FormatReport(rep)
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		log.Printf("[INFO] notification (telegram disabled):\n%s", text)
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
