package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dyike/EquityGo/internal/models"
	"github.com/dyike/EquityGo/internal/research"
	"github.com/dyike/EquityGo/pkg/utils"
)

// UI styles
var (
	bannerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))

	statusStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3B82F6"))

	activityStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	successStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	reportStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#10B981")).
		Padding(1, 2).
		Width(100)

	quoteStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#9CA3AF")).
		Width(14)
)

// printBanner shows the welcome banner
func printBanner() {
	banner := `
 ███████╗ ██████╗ ██╗   ██╗██╗████████╗██╗   ██╗ ██████╗  ██████╗
 ██╔════╝██╔═══██╗██║   ██║██║╚══██╔══╝╚██╗ ██╔╝██╔════╝ ██╔═══██╗
 █████╗  ██║   ██║██║   ██║██║   ██║    ╚████╔╝ ██║  ███╗██║   ██║
 ██╔══╝  ██║▄▄ ██║██║   ██║██║   ██║     ╚██╔╝  ██║   ██║██║   ██║
 ███████╗╚██████╔╝╚██████╔╝██║   ██║      ██║   ╚██████╔╝╚██████╔╝
 ╚══════╝ ╚══▀▀═╝  ╚═════╝ ╚═╝   ╚═╝      ╚═╝    ╚═════╝  ╚═════╝`
	fmt.Println(bannerStyle.Render(banner))
	fmt.Println(statusStyle.Render("  AI-Powered Equity Research — " + version))
	fmt.Println()
}

func printStatus(msg string) {
	fmt.Println(statusStyle.Render("▸ " + msg))
}

func printActivity(line string) {
	fmt.Println(activityStyle.Render("  " + line))
}

func printError(msg string) {
	fmt.Println(errorStyle.Render("✗ " + msg))
}

// printReport renders the synthesized report in a bordered panel.
func printReport(ticker, report string) {
	fmt.Println()
	fmt.Println(successStyle.Render(fmt.Sprintf("═══ Report: %s ═══", ticker)))
	fmt.Println(reportStyle.Render(report))
}

func printSummary(result *research.Result) {
	fmt.Println()
	fmt.Println(activityStyle.Render(fmt.Sprintf("  run %s finished in %s after %d reasoning turn(s)",
		result.RunID, result.Duration.Round(10*time.Millisecond), result.Iterations)))
	if result.BudgetExhausted {
		fmt.Println(errorStyle.Render("  reasoning budget was exhausted; the report covers partial data"))
	}
	fmt.Println(activityStyle.Render("  trace: " + result.TraceMD))
	fmt.Println(activityStyle.Render("  data:  " + result.TraceJSON))
}

// printQuote renders one quote with humanized figures.
func printQuote(q *models.StockQuote) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", successStyle.Render(q.Symbol), q.Name)
	fmt.Fprintf(&b, "%s%s  (%s)\n", labelStyle.Render("Price"),
		utils.FormatPrice(q.Price), utils.FormatChangePercent(q.ChangePercentage))
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Market Cap"), utils.FormatMarketCap(q.MarketCap))
	fmt.Fprintf(&b, "%s%d", labelStyle.Render("Volume"), q.Volume)
	fmt.Println(quoteStyle.Render(b.String()))
}

func printSessionList(sessions []models.SessionRecord) {
	fmt.Println(statusStyle.Render("Recent sessions:"))
	for _, s := range sessions {
		status := s.Status
		if status == "done" {
			status = successStyle.Render(status)
		} else if status == "error" {
			status = errorStyle.Render(status)
		}
		fmt.Printf("  #%-4d %-6s %-9s %s  %s\n",
			s.ID, s.Ticker, s.Pipeline, status, s.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func printSessionDetail(s *models.SessionRecord, messageCount int) {
	fmt.Println(statusStyle.Render(fmt.Sprintf("Session #%d — %s (%s)", s.ID, s.Ticker, s.Pipeline)))
	fmt.Println(activityStyle.Render(fmt.Sprintf("  run %s | status %s | %d message(s) | %s",
		s.RunID, s.Status, messageCount, s.CreatedAt.Format("2006-01-02 15:04:05"))))
}
