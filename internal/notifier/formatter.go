package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"MarketPulse/internal/collector"
	"MarketPulse/internal/model"
)

var trendIcon = map[model.Trend]string{
	model.TrendUp:   "📈",
	model.TrendDown: "📉",
	model.TrendFlat: "➖",
}

// FormatReport formats a single analysis report into a Telegram message.
func FormatReport(rep *model.AnalysisReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", html.EscapeString(rep.Symbol), rep.GeneratedAt.Format("2006-01-02 15:04 UTC")))
	b.WriteString(fmt.Sprintf("Last close: %s (%d bars)\n", optFloat(rep.LastPrice, "%.2f"), rep.PriceCount))
	b.WriteString(fmt.Sprintf("Last mentions: %s (%d snapshots)\n", optFloat(rep.LastMentions, "%.0f"), rep.MentionCount))

	trend := "n/a"
	if rep.PriceTrend != nil {
		trend = fmt.Sprintf("%s %s", trendIcon[*rep.PriceTrend], *rep.PriceTrend)
		if rep.PriceChangePct != nil {
			trend += fmt.Sprintf(" (%+.2f%%)", *rep.PriceChangePct)
		}
	}
	b.WriteString(fmt.Sprintf("Trend: %s\n", trend))

	interest := "n/a"
	if rep.SocialInterest != nil {
		interest = string(*rep.SocialInterest)
	}
	b.WriteString(fmt.Sprintf("Social interest: %s\n", interest))
	b.WriteString(fmt.Sprintf("Correlation: %s\n\n", optFloat(rep.Correlation, "%.3f")))

	b.WriteString(fmt.Sprintf("💬 %s\n", html.EscapeString(rep.Summary)))
	return b.String()
}

// FormatDigest formats the scheduled multi-symbol report.
func FormatDigest(reps []*model.AnalysisReport, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗞 <b>MarketPulse digest</b> | %s\n\n", at.Format("2006-01-02")))
	if len(reps) == 0 {
		b.WriteString("No reports available.\n")
		return b.String()
	}
	for _, rep := range reps {
		icon := "❔"
		if rep.PriceTrend != nil {
			icon = trendIcon[*rep.PriceTrend]
		}
		change := ""
		if rep.PriceChangePct != nil {
			change = fmt.Sprintf(" %+.2f%%", *rep.PriceChangePct)
		}
		interest := "n/a"
		if rep.SocialInterest != nil {
			interest = string(*rep.SocialInterest)
		}
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %s%s | interest %s | r=%s\n",
			icon, html.EscapeString(rep.Symbol), optFloat(rep.LastPrice, "%.2f"), change, interest, optFloat(rep.Correlation, "%.3f")))
		b.WriteString(fmt.Sprintf("   %s\n", html.EscapeString(rep.Summary)))
	}
	return b.String()
}

// FormatHistory formats recent ETL events, newest first.
func FormatHistory(events []model.ETLEvent) string {
	var b strings.Builder
	b.WriteString("🗂 <b>ETL history</b>\n\n")
	if len(events) == 0 {
		b.WriteString("No ETL runs recorded.\n")
		return b.String()
	}
	for _, e := range events {
		sym := e.Symbol
		if sym == "" {
			sym = "-"
		}
		b.WriteString(fmt.Sprintf("%s %s %s: %s\n",
			e.Timestamp.Format("01-02 15:04"), e.Source, sym, html.EscapeString(e.Message)))
	}
	return b.String()
}

// FormatETLResult summarizes one or more collector runs.
func FormatETLResult(results []*collector.Result) string {
	var b strings.Builder
	b.WriteString("⚙️ <b>ETL finished</b>\n\n")
	for _, r := range results {
		b.WriteString(fmt.Sprintf("<b>%s</b>: %d new records\n", r.Source, r.Total()))
		if len(r.Missing) > 0 {
			b.WriteString(fmt.Sprintf("   no data: %s\n", strings.Join(r.Missing, ", ")))
		}
		if len(r.Failed) > 0 {
			failed := make([]string, 0, len(r.Failed))
			for sym := range r.Failed {
				failed = append(failed, sym)
			}
			sort.Strings(failed)
			b.WriteString(fmt.Sprintf("   ⚠️ failed: %s\n", strings.Join(failed, ", ")))
		}
	}
	return b.String()
}

// FormatSymbols lists the watched symbols.
func FormatSymbols(symbols []string) string {
	return fmt.Sprintf("👀 Watching %d symbols: %s", len(symbols), strings.Join(symbols, ", "))
}

func optFloat(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}
