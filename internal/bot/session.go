package bot

import "github.com/m3rciful/budgetbot/internal/ledger"

// Action is the wizard a chat is in.
type Action string

const (
	ActionExpense   Action = "expense"
	ActionIncome    Action = "income"
	ActionSetBudget Action = "set_budget"
)

// Step is the input the wizard waits for. A chat without a session is idle.
type Step string

const (
	StepCategory    Step = "awaiting_category"
	StepSubcategory Step = "awaiting_subcategory"
	StepAmount      Step = "awaiting_amount"
	StepDescription Step = "awaiting_description"
)

// Session is the wizard state of one chat.
type Session struct {
	Action Action
	Step   Step
	// Group is the chosen master category id of an expense.
	Group        string
	CategoryID   string
	CategoryName string
	Amount       ledger.Amount
	// MessageID is the inline menu the wizard edits; taps on other menus are stale.
	MessageID int
}

// expects reports whether the session waits for input of the given kind.
func (s Session) expects(action Action, steps ...Step) bool {
	if s.Action != action {
		return false
	}
	for _, step := range steps {
		if s.Step == step {
			return true
		}
	}
	return false
}
