// Package present renders the bot's Markdown replies and keyboards. Renderers are
// stateless: every figure they show is passed in by the caller.
package present

import (
	"fmt"
	"strings"

	"github.com/m3rciful/budgetbot/core/telegram/format"
	"github.com/m3rciful/budgetbot/internal/ledger"
)

// DefaultCurrency is used when no currency symbol is configured.
const DefaultCurrency = "$"

// dashboardCategories is how many categories the dashboard lists.
const dashboardCategories = 5

// Renderer formats replies for one currency and web app.
type Renderer struct {
	currency  string
	webAppURL string
}

// New returns a Renderer. An empty currency falls back to DefaultCurrency.
func New(currency, webAppURL string) *Renderer {
	if strings.TrimSpace(currency) == "" {
		currency = DefaultCurrency
	}
	return &Renderer{currency: currency, webAppURL: strings.TrimSpace(webAppURL)}
}

// WebAppURL returns the configured web app link, possibly empty.
func (r *Renderer) WebAppURL() string { return r.webAppURL }

// Money formats an amount with two decimals, e.g. "$12.50" or "-$3.00".
func (r *Renderer) Money(a ledger.Amount) string {
	if a.IsNegative() {
		return "-" + r.currency + a.Neg().StringFixed(2)
	}
	return r.currency + a.StringFixed(2)
}

// Whole formats an amount rounded to a whole number, as used on buttons.
func (r *Renderer) Whole(a ledger.Amount) string {
	s := a.StringFixed(0)
	if strings.HasPrefix(s, "-") {
		return "-" + r.currency + s[1:]
	}
	return r.currency + s
}

func (r *Renderer) appLink(label string) string {
	if r.webAppURL == "" {
		return ""
	}
	return fmt.Sprintf("\n\n[%s](%s)", label, r.webAppURL)
}

func status(a ledger.Amount) string {
	if a.IsNegative() {
		return "⚠️"
	}
	return "✅"
}

// Welcome greets the user and shows the chat id the web app needs.
func (r *Renderer) Welcome(chatID int64) string {
	return fmt.Sprintf("👋 *Welcome to Budget Tracker Pro!*\n\n"+
		"📱 Your Chat ID: `%d`\n"+
		"_(Use this in web app settings)_\n\n"+
		"*Features:*\n"+
		"💸 Add expenses\n"+
		"💰 Add income\n"+
		"📊 Set category budgets\n"+
		"💵 Check unallocated funds\n"+
		"📈 View dashboard\n\n"+
		"Choose an option below:", chatID)
}

// Help lists the commands.
func (r *Renderer) Help() string {
	var b strings.Builder
	b.WriteString("🤖 *Budget Tracker Pro Bot Commands*\n\n")
	b.WriteString("*Transactions:*\n")
	b.WriteString("/expense - Add expense (interactive)\n")
	b.WriteString("/income - Add income (interactive)\n")
	b.WriteString("/budget - Set a category budget\n")
	b.WriteString("/cancel - Abandon the current step\n\n")
	b.WriteString("*Analytics:*\n")
	b.WriteString("/unallocated - Money left to budget\n")
	b.WriteString("/dashboard - Totals and top categories\n")
	b.WriteString("/analytics - Financial summary\n")
	b.WriteString("/categories - List all categories\n\n")
	b.WriteString("*Data:*\n")
	b.WriteString("/sync - Force sync from cloud\n")
	if r.webAppURL != "" {
		b.WriteString("/app - Open the web app\n")
	}
	b.WriteString("\n*Other:*\n")
	b.WriteString("/help - Show this help message")
	b.WriteString(r.appLink("Open Full App"))
	return b.String()
}

// Unallocated summarizes the money that is not yet assigned to a category.
func (r *Renderer) Unallocated(t ledger.Totals) string {
	var b strings.Builder
	b.WriteString("*Budget Summary*\n\n")
	fmt.Fprintf(&b, "💰 Income: %s\n", r.Money(t.Income))
	fmt.Fprintf(&b, "📊 Budgeted: %s\n", r.Money(t.Budgeted))
	b.WriteString("━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "%s Unallocated: *%s*\n\n", status(t.Unallocated), r.Money(t.Unallocated))
	switch {
	case t.Unallocated.IsPositive():
		b.WriteString("💡 Use 📊 Set Budget to allocate")
	case t.Unallocated.IsNegative():
		b.WriteString("⚠️ Over-budgeted!")
	default:
		b.WriteString("✅ Perfectly allocated!")
	}
	return b.String()
}

// Dashboard shows the totals and the first categories of the document with their
// available and budgeted amounts.
func (r *Renderer) Dashboard(t ledger.Totals, categories []ledger.Category) string {
	var b strings.Builder
	b.WriteString("📈 *Dashboard*\n\n")
	fmt.Fprintf(&b, "💰 Income: %s\n", r.Money(t.Income))
	fmt.Fprintf(&b, "📊 Budgeted: %s\n", r.Money(t.Budgeted))
	fmt.Fprintf(&b, "💸 Spent: %s\n", r.Money(t.Spent))
	fmt.Fprintf(&b, "💵 Unallocated: %s\n", r.Money(t.Unallocated))
	if len(categories) == 0 {
		return b.String()
	}
	b.WriteString("\n*Top Categories:*\n")
	for i, c := range categories {
		if i == dashboardCategories {
			break
		}
		available := c.Available()
		fmt.Fprintf(&b, "%s %s: %s/%s\n", status(available), format.Markdown(c.Name),
			r.Whole(available), r.Whole(c.Budgeted))
	}
	return b.String()
}

// Analytics is the financial summary.
func (r *Renderer) Analytics(t ledger.Totals) string {
	var b strings.Builder
	b.WriteString("📊 *Financial Summary*\n\n")
	fmt.Fprintf(&b, "💰 Total Income: %s\n", r.Money(t.Income))
	fmt.Fprintf(&b, "💸 Total Spent: %s\n", r.Money(t.Spent))
	fmt.Fprintf(&b, "📅 This Month: %s\n", r.Money(t.SpentThisMonth))
	fmt.Fprintf(&b, "🎯 Total Budgeted: %s\n", r.Money(t.Budgeted))
	fmt.Fprintf(&b, "💎 To Be Budgeted: *%s*\n", r.Money(t.Unallocated))
	fmt.Fprintf(&b, "📈 Activities: %d", t.Activities)
	b.WriteString(r.appLink("View Dashboard"))
	return b.String()
}

// Categories lists the groups with their categories.
func (r *Renderer) Categories(groups []ledger.Group) string {
	if len(groups) == 0 {
		return r.NoCategories()
	}
	var b strings.Builder
	b.WriteString("📁 *Your Budget Categories*\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "\n%s\n", format.Markdown(g.Master.Label()))
		for _, c := range g.Categories {
			fmt.Fprintf(&b, "  • %s (%s)\n", format.Markdown(c.Name), r.Money(c.Available()))
		}
	}
	return b.String()
}

// Syncing is sent before a forced sync.
func (r *Renderer) Syncing() string { return "🔄 Syncing data from cloud..." }

// Synced reports the counts after a forced sync.
func (r *Renderer) Synced(t ledger.Totals) string {
	return fmt.Sprintf("✅ *Synced!*\n\n"+
		"💵 Unallocated: %s\n"+
		"📊 Categories: %d\n"+
		"💸 Transactions: %d\n"+
		"📈 Activities: %d", r.Money(t.Unallocated), t.Categories, t.Transactions, t.Activities)
}

// SyncFailed is shown when a forced sync cannot read the document.
func (r *Renderer) SyncFailed() string { return "❌ Sync failed. Check configuration." }

// App links the web app.
func (r *Renderer) App() string {
	if r.webAppURL == "" {
		return "📱 The web app link is not configured."
	}
	return fmt.Sprintf("🌐 [Open Budget Tracker Pro](%s)", r.webAppURL)
}
