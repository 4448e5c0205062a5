package present

import (
	"fmt"

	"github.com/m3rciful/budgetbot/core/telegram/format"
	"github.com/m3rciful/budgetbot/internal/ledger"
)

// ExpenseGroups asks for the master category of a new expense.
func (r *Renderer) ExpenseGroups() string {
	return "💸 *Add Expense*\n\nSelect master category:"
}

// ExpenseCategories asks for the category of a new expense.
func (r *Renderer) ExpenseCategories() string {
	return "💸 *Add Expense*\n\nSelect category:"
}

// ExpenseGroupCategories asks for a category inside the chosen group.
func (r *Renderer) ExpenseGroupCategories(g ledger.Group) string {
	return fmt.Sprintf("✅ %s\n\nSelect subcategory:", format.Markdown(g.Master.Label()))
}

// ExpenseAmount asks how much was spent in the chosen category.
func (r *Renderer) ExpenseAmount(c ledger.Category) string {
	return fmt.Sprintf("✅ Category: *%s*\n💵 Available: %s\n\n💰 Enter amount (e.g., 25.50):",
		format.Markdown(c.Name), r.Money(c.Available()))
}

// ExpenseDescription asks for the payee once the amount is known.
func (r *Renderer) ExpenseDescription(amount ledger.Amount) string {
	return fmt.Sprintf("💰 Amount: %s\n\n📝 Enter description (e.g., 'Starbucks coffee'):", r.Money(amount))
}

// ExpenseRecorded confirms a saved expense. The category is the updated one.
func (r *Renderer) ExpenseRecorded(c ledger.Category, amount ledger.Amount, payee, date string) string {
	return fmt.Sprintf("✅ *Expense Added!*\n\n"+
		"💰 Amount: %s\n"+
		"📁 Category: %s\n"+
		"📝 Description: %s\n"+
		"📅 Date: %s\n"+
		"💵 Left: %s\n\n"+
		"🔄 Synced to cloud (Activity Log updated)%s",
		r.Money(amount), format.Markdown(c.Name), format.Markdown(payee), date,
		r.Money(c.Available()), r.appLink("Open App"))
}

// IncomeAmount asks for the amount of a new income entry.
func (r *Renderer) IncomeAmount() string {
	return "💰 *Add Income*\n\n💵 Enter amount:"
}

// IncomeDescription asks for the description once the amount is known.
func (r *Renderer) IncomeDescription(amount ledger.Amount) string {
	return fmt.Sprintf("💰 Amount: %s\n\n📝 Enter description (e.g., 'Monthly salary'):", r.Money(amount))
}

// IncomeRecorded confirms a saved income entry.
func (r *Renderer) IncomeRecorded(amount ledger.Amount, description, date string, unallocated ledger.Amount) string {
	return fmt.Sprintf("✅ *Income Added!*\n\n"+
		"💰 Amount: %s\n"+
		"📝 Description: %s\n"+
		"📅 Date: %s\n"+
		"💵 To Be Budgeted: *%s*\n\n"+
		"💡 Use 📊 Set Budget to allocate\n"+
		"🔄 Synced to cloud (Activity Log updated)%s",
		r.Money(amount), format.Markdown(description), date, r.Money(unallocated), r.appLink("Open App"))
}

// BudgetCategories asks which category to budget.
func (r *Renderer) BudgetCategories(unallocated ledger.Amount) string {
	return fmt.Sprintf("📊 *Set Category Budgets*\n\n💵 Unallocated: *%s*\n\nSelect category:", r.Money(unallocated))
}

// BudgetAmount asks for the new budget of the chosen category.
func (r *Renderer) BudgetAmount(c ledger.Category, unallocated ledger.Amount) string {
	return fmt.Sprintf("📊 *%s*\n\nCurrent: %s\n💵 Unallocated: %s\n\n💰 Enter new budget:",
		format.Markdown(c.Name), r.Money(c.Budgeted), r.Money(unallocated))
}

// BudgetSet confirms a saved budget.
func (r *Renderer) BudgetSet(name string, amount, unallocated ledger.Amount) string {
	return fmt.Sprintf("✅ *Budget Updated!*\n\n📁 %s\n💰 %s\n💵 Unallocated: %s\n\n🔄 Synced to web app!",
		format.Markdown(name), r.Money(amount), r.Money(unallocated))
}

// InvalidAmount re-prompts after unparsable input. Budgets accept any number.
func (r *Renderer) InvalidAmount(allowNonPositive bool) string {
	if allowNonPositive {
		return "❌ Please enter a valid number (e.g., 250 or -50)"
	}
	return "❌ Please enter a valid amount greater than zero (e.g., 25.50)"
}

// PickFromMenu answers text sent while the wizard waits for a menu choice.
func (r *Renderer) PickFromMenu() string { return "👆 Please pick an option from the menu above." }

// EmptyDescription re-prompts when the description is blank.
func (r *Renderer) EmptyDescription() string { return "❌ Please enter a description" }

// CategoryNotFound is shown when the chosen category no longer exists.
func (r *Renderer) CategoryNotFound() string { return "❌ Category not found. Please try again." }

// SaveFailed is shown when the document could not be written.
func (r *Renderer) SaveFailed() string { return "❌ Failed to sync. Please try again." }

// NoCategories is shown when the document has no categories yet.
func (r *Renderer) NoCategories() string {
	return "⚠️ No categories found. Please set up categories in the web app first."
}

// EmptyGroup answers a tap on a group without categories.
func (r *Renderer) EmptyGroup() string { return "⚠️ No categories in this group" }

// MenuExpired answers a tap on a keyboard that no longer matches the conversation.
func (r *Renderer) MenuExpired() string { return "This menu has expired" }

// Cancelled confirms an abandoned wizard.
func (r *Renderer) Cancelled() string { return "❌ Cancelled." }

// NothingToCancel answers /cancel outside of a wizard.
func (r *Renderer) NothingToCancel() string { return "Nothing to cancel." }

// Fallback answers text that is neither a command nor part of a wizard.
func (r *Renderer) Fallback() string {
	return "🤔 I didn't get that. Use the keyboard below or /help."
}

// Rejected answers users outside of the allow list.
func (r *Renderer) Rejected() string { return "⛔ This bot is private." }

// RateLimited answers users sending updates too quickly.
func (r *Renderer) RateLimited() string { return "⏳ Too many requests, slow down a little." }
