// Package display renders reports and stored records for the terminal.
package display

import (
	"encoding/json"
	"fmt"
	"strings"

	"MarketPulse/internal/model"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(1, 2).
		Width(80)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280")).
		Width(18)

	upStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	downStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	flatStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B"))

	summaryStyle = lipgloss.NewStyle().
		Italic(true).
		Foreground(lipgloss.Color("#3B82F6"))
)

// RenderReport renders one analysis report as a bordered panel.
func RenderReport(rep *model.AnalysisReport) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("📊 %s", rep.Symbol)))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("Last close", fmt.Sprintf("%s (%d bars)", opt(rep.LastPrice, "%.2f"), rep.PriceCount))
	row("Last mentions", fmt.Sprintf("%s (%d snapshots)", opt(rep.LastMentions, "%.0f"), rep.MentionCount))
	row("Price trend", renderTrend(rep))
	interest := "n/a"
	if rep.SocialInterest != nil {
		interest = string(*rep.SocialInterest)
	}
	row("Social interest", interest)
	row("Correlation", opt(rep.Correlation, "%.3f"))
	row("Generated", rep.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	b.WriteString("\n")
	b.WriteString(summaryStyle.Render(rep.Summary))

	return panelStyle.Render(b.String())
}

func renderTrend(rep *model.AnalysisReport) string {
	if rep.PriceTrend == nil {
		return "n/a"
	}
	text := string(*rep.PriceTrend)
	if rep.PriceChangePct != nil {
		text += fmt.Sprintf(" (%+.2f%%)", *rep.PriceChangePct)
	}
	switch *rep.PriceTrend {
	case model.TrendUp:
		return upStyle.Render(text)
	case model.TrendDown:
		return downStyle.Render(text)
	default:
		return flatStyle.Render(text)
	}
}

// RenderRecords lists stored records newest first, one JSON document per line.
func RenderRecords(kind model.RecordKind, symbol string, recs []model.Record) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s records for %s (%d)", kind, symbol, len(recs))))
	b.WriteString("\n")
	if len(recs) == 0 {
		b.WriteString("no records\n")
		return b.String()
	}
	for _, r := range recs {
		data, err := json.Marshal(r)
		if err != nil {
			data = []byte(fmt.Sprintf("%v", r))
		}
		b.WriteString(string(data))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderHistory lists ETL events newest first.
func RenderHistory(events []model.ETLEvent) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("ETL history (%d)", len(events))))
	b.WriteString("\n")
	for _, e := range events {
		sym := e.Symbol
		if sym == "" {
			sym = "-"
		}
		b.WriteString(fmt.Sprintf("%s  %-10s %-6s %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Source, sym, e.Message))
	}
	return b.String()
}

func opt(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}
