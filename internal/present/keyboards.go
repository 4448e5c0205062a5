package present

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/budgetbot/core/telegram/keyboard"
	"github.com/m3rciful/budgetbot/internal/ledger"
)

// Reply keyboard labels. They double as command aliases.
const (
	ButtonExpense     = "💸 Add Expense"
	ButtonIncome      = "💰 Add Income"
	ButtonBudget      = "📊 Set Budget"
	ButtonUnallocated = "💵 Unallocated"
	ButtonDashboard   = "📈 Dashboard"
	ButtonSync        = "🔄 Sync"
	ButtonAnalytics   = "📉 Analytics"
	ButtonApp         = "📱 Open App"
)

// Inline keyboard labels.
const (
	ButtonBack   = "⬅️ Back"
	ButtonCancel = "❌ Cancel"
)

// MainKeyboard is the persistent reply keyboard. The web app button is only shown when
// a link is configured.
func (r *Renderer) MainKeyboard() *tele.ReplyMarkup {
	last := []string{ButtonAnalytics}
	if r.webAppURL != "" {
		last = append(last, ButtonApp)
	}
	return keyboard.ReplyButtons(
		[]string{ButtonExpense, ButtonIncome},
		[]string{ButtonBudget, ButtonUnallocated},
		[]string{ButtonDashboard, ButtonSync},
		last,
	)
}

// GroupButton labels a master category.
func (r *Renderer) GroupButton(g ledger.Group) string {
	return g.Master.Label()
}

// CategoryButton labels a category with its available amount.
func (r *Renderer) CategoryButton(c ledger.Category) string {
	return c.Name + " (" + r.Whole(c.Available()) + ")"
}

// BudgetButton labels a category with its budgeted amount.
func (r *Renderer) BudgetButton(c ledger.Category) string {
	return c.Name + " (" + r.Whole(c.Budgeted) + ")"
}
