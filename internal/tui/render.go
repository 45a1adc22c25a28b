package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/jask/moneyvault/internal/models"
	"github.com/jask/moneyvault/internal/service"
)

// styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(colorAccent)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	incomeStyle  = lipgloss.NewStyle().Foreground(colorSuccess)
	expenseStyle = lipgloss.NewStyle().Foreground(colorError)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorOverlay1).Padding(0, 1)
)

// Formatter renders an amount in the account currency.
type Formatter func(amount decimal.Decimal, showSymbol bool) string

// Source is what the summary reads from an unlocked account.
type Source interface {
	Metadata() models.AccountMetadata
	Groups() []*models.Group
	Transactions() []models.Transaction
	Income() decimal.Decimal
	Expense() decimal.Decimal
	Total() decimal.Decimal
	GroupIncome(gid int, ids []uint) decimal.Decimal
	GroupExpense(gid int, ids []uint) decimal.Decimal
	GroupTotal(gid int, ids []uint) decimal.Decimal
	FormatAmount(amount decimal.Decimal, showSymbol bool) string
}

func signed(f Formatter, d decimal.Decimal) string {
	s := f(d, true)
	if d.IsNegative() {
		return expenseStyle.Render(s)
	}
	return incomeStyle.Render(s)
}

// RenderSummary lists every group with its income, expense and total, then
// the account totals.
func RenderSummary(src Source) string {
	meta := src.Metadata()
	f := Formatter(src.FormatAmount)
	title := titleStyle.Render(fmt.Sprintf("%s (%s)", meta.Name, meta.Type))

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%d transactions\n\n", title, len(src.Transactions()))
	fmt.Fprintf(&b, "%-24s %14s %14s %14s\n", "Group", "Income", "Expense", "Total")
	for _, g := range src.Groups() {
		name := lipgloss.NewStyle().Foreground(groupColor(g)).Render(fmt.Sprintf("%-24s", truncate(g.Name, 24)))
		fmt.Fprintf(&b, "%s %14s %14s %14s\n", name,
			f(src.GroupIncome(g.ID, nil), true),
			f(src.GroupExpense(g.ID, nil), true),
			f(src.GroupTotal(g.ID, nil), true))
	}
	totals := fmt.Sprintf("Income  %s\nExpense %s\nTotal   %s",
		incomeStyle.Render(f(src.Income(), true)),
		expenseStyle.Render(f(src.Expense(), true)),
		signed(f, src.Total()))
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(totals))
	return b.String()
}

// RenderReminders lists upcoming transactions, nearest first.
func RenderReminders(rs []models.Reminder, f Formatter) string {
	title := titleStyle.Render("Upcoming")
	if len(rs) == 0 {
		return title + "\n" + mutedStyle.Render("Nothing due.")
	}
	var b strings.Builder
	b.WriteString(title)
	for _, r := range rs {
		amount := r.Amount
		if r.Type == models.Expense {
			amount = amount.Neg()
		}
		fmt.Fprintf(&b, "\n%-20s %s  %-32s %s", r.When, shortDate(r.Due), truncate(r.Description, 32), signed(f, amount))
	}
	return b.String()
}

// RenderImport describes what an import added.
func RenderImport(res *models.ImportResult) string {
	out := titleStyle.Render("Import "+res.BatchID) + fmt.Sprintf("\n%d transactions, %d groups, %d tags added, %d skipped",
		len(res.NewTransactionIDs()), len(res.NewGroupIDs()), len(res.NewTags()), res.Skipped)
	if len(res.Errors) > 0 {
		out += "\nFirst error: " + res.Errors[0].Error()
		if len(res.Errors) > 1 {
			out += fmt.Sprintf(" (+%d more)", len(res.Errors)-1)
		}
	}
	return out
}

// RenderDuplicates lists candidate pairs with their similarity.
func RenderDuplicates(cs []service.Candidate, f Formatter) string {
	title := titleStyle.Render("Possible duplicates")
	if len(cs) == 0 {
		return title + "\n" + mutedStyle.Render("No duplicates found.")
	}
	var b strings.Builder
	b.WriteString(title)
	for i, c := range cs {
		kind := "fuzzy"
		if c.Exact {
			kind = "exact"
		}
		fmt.Fprintf(&b, "\nMatch %d of %d  %s  Similarity: %.2f", i+1, len(cs), kind, c.Similarity)
		for _, t := range []models.Transaction{c.A, c.B} {
			fmt.Fprintf(&b, "\n  #%-6d %s  %-32s %s", t.ID, shortDate(t.Date), truncate(t.Description, 32), f(t.Signed(), true))
		}
	}
	return b.String()
}

func shortDate(d models.Date) string { return d.Time().Format("2006-01-02") }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
