package bot

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/budgetbot/core/logger"
	"github.com/m3rciful/budgetbot/core/telegram/callbacks"
	"github.com/m3rciful/budgetbot/core/telegram/keyboard"
	"github.com/m3rciful/budgetbot/internal/ledger"
	"github.com/m3rciful/budgetbot/internal/present"
)

// Callback kinds. Each is registered as its own callback key.
const (
	KindGroup          = "group"
	KindCategory       = "category"
	KindBudgetCategory = "budget_category"
	KindBack           = "back"
	KindCancel         = "cancel"
)

const buttonsPerRow = 2

var (
	cancelButton = callbacks.New(KindCancel, "").Button(present.ButtonCancel)
	backButton   = callbacks.New(KindBack, "").Button(present.ButtonBack)
)

// menu lays buttons out two per row and appends footer as the last row.
func menu(buttons []keyboard.InlineBtn, footer ...keyboard.InlineBtn) *tele.ReplyMarkup {
	return keyboard.Grid(buttons, buttonsPerRow, footer...)
}

// addButton appends a button for id. Telegram rejects a whole keyboard when one button
// carries more than callbacks.MaxDataLen bytes, so such ids are left out of the menu.
func addButton(buttons []keyboard.InlineBtn, kind string, id ledger.ID, label string) []keyboard.InlineBtn {
	p := callbacks.New(kind, id.String())
	if !p.Fits() {
		logger.TG.Warn("menu button skipped",
			slog.String("event", "menu.button.skip"),
			slog.String("cb_key", kind),
			slog.String("id", logger.SanitizeLimit(id.String(), 32)),
			slog.Int("bytes", len(p.Data())),
		)
		return buttons
	}
	return append(buttons, p.Button(label))
}

func (d *Dispatcher) groupMenu(groups []ledger.Group) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(groups))
	for _, g := range groups {
		buttons = addButton(buttons, KindGroup, g.Master.ID, d.view.GroupButton(g))
	}
	return menu(buttons, cancelButton)
}

func (d *Dispatcher) categoryMenu(categories []ledger.Category, back bool) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(categories))
	for _, c := range categories {
		buttons = addButton(buttons, KindCategory, c.ID, d.view.CategoryButton(c))
	}
	if back {
		return menu(buttons, backButton, cancelButton)
	}
	return menu(buttons, cancelButton)
}

func (d *Dispatcher) budgetMenu(categories []ledger.Category) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(categories))
	for _, c := range categories {
		buttons = addButton(buttons, KindBudgetCategory, c.ID, d.view.BudgetButton(c))
	}
	return menu(buttons, cancelButton)
}

func cancelMenu() *tele.ReplyMarkup {
	return menu(nil, cancelButton)
}
