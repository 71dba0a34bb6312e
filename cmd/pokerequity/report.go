package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/pokerequity/internal/equity"
	"github.com/lox/pokerequity/poker"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))
)

const (
	histogramRows  = 16
	histogramWidth = 40
)

func cardList(cards []poker.Card) string {
	if len(cards) == 0 {
		return "-"
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// renderReport formats an estimate the way the console summary shows it.
func renderReport(spot equity.Spot, rep *equity.Report) string {
	a, b := spot.Hole[0], spot.Hole[1]
	var sb strings.Builder

	sb.WriteString(headerStyle.Render("Showdown equity"))
	sb.WriteString("\n")
	sb.WriteString(row("Hand", fmt.Sprintf("%s  %s (%s)",
		handStyle.Render(cardList(spot.Hole[:])), poker.Shorthand(a, b), poker.Categorize(a, b))))
	sb.WriteString("\n")
	sb.WriteString(row("Board", cardList(spot.Board)))
	sb.WriteString("\n")
	sb.WriteString(row("Opponents", fmt.Sprintf("%d", spot.Opponents)))
	sb.WriteString("\n\n")

	sb.WriteString(row("Win rate", valueStyle.Render(pct(rep.Mean))+fmt.Sprintf("  sd %.3f", rep.StdDev)))
	sb.WriteString("\n")
	sb.WriteString(row("Breakeven", valueStyle.Render(pct(rep.Breakeven))+"  pot odds "+pct(rep.PotOddsThreshold)))
	sb.WriteString("\n")
	sb.WriteString(row("Raise", valueStyle.Render(fmt.Sprintf("%.1f%%", rep.StakeFraction*100))+" of stack"))
	sb.WriteString("\n")
	sb.WriteString(row("Batches", fmt.Sprintf("%d x %d trials  seed %d  %s",
		rep.Batches, rep.TrialsPerBatch, rep.Seed, rep.Elapsed.Round(time.Millisecond))))
	sb.WriteString("\n")
	if rep.Partial {
		sb.WriteString(warnStyle.Render(fmt.Sprintf("Stopped early: %d of %d batches completed", rep.Batches, rep.Requested)))
		sb.WriteString("\n")
	}
	if rep.Retries > 0 {
		sb.WriteString(warnStyle.Render(fmt.Sprintf("%d batch(es) retried after a worker failure", rep.Retries)))
		sb.WriteString("\n")
	}
	return sb.String()
}

type histogramRow struct {
	lo, hi int
	count  int
}

// groupBuckets merges adjacent buckets so at most rows remain.
func groupBuckets(buckets []equity.Bucket, rows int) []histogramRow {
	if len(buckets) == 0 {
		return nil
	}
	size := (len(buckets) + rows - 1) / rows
	out := make([]histogramRow, 0, rows)
	for i := 0; i < len(buckets); i += size {
		end := min(i+size, len(buckets))
		r := histogramRow{lo: buckets[i].Wins, hi: buckets[end-1].Wins}
		for _, b := range buckets[i:end] {
			r.count += b.Count
		}
		out = append(out, r)
	}
	return out
}

// renderHistogram draws wins per batch as horizontal bars.
func renderHistogram(wins []int, trials int) string {
	rows := groupBuckets(equity.Histogram(wins), histogramRows)
	if len(rows) == 0 {
		return ""
	}
	peak := 0
	for _, r := range rows {
		peak = max(peak, r.count)
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("Wins per batch of %d", trials)))
	sb.WriteString("\n")
	for _, r := range rows {
		label := fmt.Sprintf("%d", r.lo)
		if r.hi != r.lo {
			label = fmt.Sprintf("%d-%d", r.lo, r.hi)
		}
		bar := strings.Repeat("█", r.count*histogramWidth/peak)
		sb.WriteString(fmt.Sprintf("%9s │%s %d\n", label, barStyle.Render(bar), r.count))
	}
	return sb.String()
}
