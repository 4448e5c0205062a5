package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/budgetbot/core/logger"
	"github.com/m3rciful/budgetbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/budgetbot/core/telegram/helpers"
	"github.com/m3rciful/budgetbot/internal/docstore"
	"github.com/m3rciful/budgetbot/internal/events"
	"github.com/m3rciful/budgetbot/internal/ledger"
)

// startExpense shows the master categories, or the categories directly when the
// document has no master categories.
func (d *Dispatcher) startExpense(c tele.Context) error {
	id := chatID(c)
	doc := d.docs.Fetch(tghelpers.BuildContext(c)).Doc
	if len(doc.Categories) == 0 {
		d.sessions.Clear(id)
		return tghelpers.SendMD(c, d.view.NoCategories())
	}

	s := Session{Action: ActionExpense, Step: StepCategory}
	if len(doc.MasterCategories) > 0 {
		return d.begin(c, s, d.view.ExpenseGroups(), d.groupMenu(doc.Groups()))
	}
	return d.begin(c, s, d.view.ExpenseCategories(), d.categoryMenu(doc.Categories, false))
}

func (d *Dispatcher) startIncome(c tele.Context) error {
	return d.begin(c, Session{Action: ActionIncome, Step: StepAmount}, d.view.IncomeAmount(), cancelMenu())
}

func (d *Dispatcher) startBudget(c tele.Context) error {
	id := chatID(c)
	doc := d.docs.Fetch(tghelpers.BuildContext(c)).Doc
	if len(doc.Categories) == 0 {
		d.sessions.Clear(id)
		return tghelpers.SendMD(c, d.view.NoCategories())
	}

	s := Session{Action: ActionSetBudget, Step: StepCategory}
	return d.begin(c, s, d.view.BudgetCategories(ledger.Unallocated(doc)), d.budgetMenu(doc.Categories))
}

// begin sends the first menu of a wizard and starts the session bound to that message.
// Taps on menus of an earlier run are stale from here on.
func (d *Dispatcher) begin(c tele.Context, s Session, text string, markup *tele.ReplyMarkup) error {
	msg, err := tghelpers.SendMenuMD(c, text, markup)
	if err != nil {
		d.sessions.Clear(chatID(c))
		return err
	}
	if msg != nil {
		s.MessageID = msg.ID
	}
	d.sessions.Begin(chatID(c), s)
	d.logSession(c, "session.begin", s)
	return nil
}

// advance shows the next step on the tapped menu and moves the session along only once
// the menu was edited, so the session always matches what the user sees. The callback is
// answered either way.
func (d *Dispatcher) advance(c tele.Context, text string, markup *tele.ReplyMarkup, step func(*Session)) error {
	if err := tghelpers.EditMD(c, text, markup); err != nil {
		_ = tghelpers.Toast(c, "")
		return err
	}
	d.sessions.Update(chatID(c), func(s *Session) {
		step(s)
		s.MessageID = messageID(c)
	})
	return tghelpers.Toast(c, "")
}

// menuSession returns the session a callback may act on. The tap must come from the menu
// the wizard currently shows and the session must wait for one of the steps.
func (d *Dispatcher) menuSession(c tele.Context, action Action, steps ...Step) (Session, bool) {
	s, ok := d.sessions.Get(chatID(c))
	if !ok || !s.expects(action, steps...) {
		return Session{}, false
	}
	if s.MessageID != 0 && messageID(c) != s.MessageID {
		return Session{}, false
	}
	sessionContext(c, s)
	return s, true
}

// sessionContext tags every later log line of the update, store writes included, with
// the wizard state.
func sessionContext(c tele.Context, s Session) context.Context {
	ctx := logger.WithSession(tghelpers.BuildContext(c), string(s.Action), string(s.Step))
	tghelpers.StoreContext(c, ctx)
	return ctx
}

func messageID(c tele.Context) int {
	if m := c.Message(); m != nil {
		return m.ID
	}
	return 0
}

func payloadValue(c tele.Context) string {
	p, _ := callbacks.FromContext(c)
	return p.Value
}

func (d *Dispatcher) onGroup(c tele.Context) error {
	if _, ok := d.menuSession(c, ActionExpense, StepCategory); !ok {
		return d.expired(c)
	}
	groupID := payloadValue(c)
	doc := d.docs.Fetch(tghelpers.BuildContext(c)).Doc
	g, ok := doc.FindGroup(ledger.ParseID(groupID))
	if !ok {
		return tghelpers.Toast(c, d.view.EmptyGroup())
	}

	return d.advance(c, d.view.ExpenseGroupCategories(g), d.categoryMenu(g.Categories, true), func(s *Session) {
		s.Step = StepSubcategory
		s.Group = groupID
	})
}

func (d *Dispatcher) onCategory(c tele.Context) error {
	if _, ok := d.menuSession(c, ActionExpense, StepCategory, StepSubcategory); !ok {
		return d.expired(c)
	}
	categoryID := payloadValue(c)
	doc := d.docs.Fetch(tghelpers.BuildContext(c)).Doc
	cat, ok := doc.FindCategory(ledger.ParseID(categoryID))
	if !ok {
		return tghelpers.Toast(c, d.view.CategoryNotFound())
	}

	return d.advance(c, d.view.ExpenseAmount(*cat), cancelMenu(), func(s *Session) {
		s.Step = StepAmount
		s.CategoryID = cat.ID.String()
		s.CategoryName = cat.Name
	})
}

func (d *Dispatcher) onBudgetCategory(c tele.Context) error {
	if _, ok := d.menuSession(c, ActionSetBudget, StepCategory); !ok {
		return d.expired(c)
	}
	categoryID := payloadValue(c)
	doc := d.docs.Fetch(tghelpers.BuildContext(c)).Doc
	cat, ok := doc.FindCategory(ledger.ParseID(categoryID))
	if !ok {
		return tghelpers.Toast(c, d.view.CategoryNotFound())
	}

	return d.advance(c, d.view.BudgetAmount(*cat, ledger.Unallocated(doc)), cancelMenu(), func(s *Session) {
		s.Step = StepAmount
		s.CategoryID = cat.ID.String()
		s.CategoryName = cat.Name
	})
}

// onBack returns from the categories of a group to the master categories.
func (d *Dispatcher) onBack(c tele.Context) error {
	if _, ok := d.menuSession(c, ActionExpense, StepSubcategory); !ok {
		return d.expired(c)
	}
	doc := d.docs.Fetch(tghelpers.BuildContext(c)).Doc
	return d.advance(c, d.view.ExpenseGroups(), d.groupMenu(doc.Groups()), func(s *Session) {
		s.Step = StepCategory
		s.Group = ""
	})
}

func (d *Dispatcher) onCancel(c tele.Context) error {
	id := chatID(c)
	if !d.Active(id) {
		return d.expired(c)
	}
	d.sessions.Clear(id)
	d.logSession(c, "session.cancel", Session{})
	if err := tghelpers.EditMD(c, d.view.Cancelled()); err != nil {
		_ = tghelpers.Toast(c, "")
		return err
	}
	return tghelpers.Toast(c, "")
}

// Handle consumes text sent while a wizard is active.
func (d *Dispatcher) Handle(c tele.Context) error {
	id := chatID(c)
	s, ok := d.sessions.Get(id)
	if !ok {
		return d.fallback(c)
	}
	sessionContext(c, s)
	text := strings.TrimSpace(c.Text())

	switch s.Step {
	case StepAmount:
		return d.handleAmount(c, s, text)
	case StepDescription:
		if text == "" {
			return tghelpers.SendMD(c, d.view.EmptyDescription())
		}
		if s.Action == ActionIncome {
			return d.commitIncome(c, s, text)
		}
		return d.commitExpense(c, s, text)
	default:
		return tghelpers.SendMD(c, d.view.PickFromMenu())
	}
}

// handleAmount re-prompts on invalid input and leaves the session as it was. Budgets
// accept zero and negative numbers; expenses and income do not.
func (d *Dispatcher) handleAmount(c tele.Context, s Session, text string) error {
	allowNonPositive := s.Action == ActionSetBudget
	amount, err := ledger.ParseAmount(text, allowNonPositive)
	if err != nil {
		return tghelpers.SendMD(c, d.view.InvalidAmount(allowNonPositive))
	}

	if s.Action == ActionSetBudget {
		return d.commitBudget(c, s, amount)
	}

	d.sessions.Update(chatID(c), func(s *Session) {
		s.Amount = amount
		s.Step = StepDescription
	})
	if s.Action == ActionIncome {
		return tghelpers.SendMD(c, d.view.IncomeDescription(amount), cancelMenu())
	}
	return tghelpers.SendMD(c, d.view.ExpenseDescription(amount), cancelMenu())
}

func (d *Dispatcher) commitExpense(c tele.Context, s Session, payee string) error {
	ctx := tghelpers.BuildContext(c)
	chat := chatID(c)
	defer d.sessions.Clear(chat)

	id := d.ids.Next()
	date := ledger.FormatDate(d.now())
	categoryID := ledger.ParseID(s.CategoryID)

	var updated ledger.Category
	doc, err := d.docs.Update(ctx, func(doc *ledger.Document) error {
		cat, err := doc.RecordExpense(id, categoryID, s.Amount, payee, date)
		if err != nil {
			return err
		}
		updated = *cat
		return nil
	})
	if err != nil {
		return d.commitFailed(ctx, c, s, err)
	}

	d.logCommit(ctx, s, id)
	events.Emit(ctx, d.publisher, events.Event{
		Type:        events.ExpenseRecorded,
		ChatID:      chat,
		ID:          &id,
		CategoryID:  &updated.ID,
		Category:    updated.Name,
		Amount:      s.Amount,
		Description: payee,
		Date:        date,
		Unallocated: doc.Unallocated,
	})
	return tghelpers.SendMD(c, d.view.ExpenseRecorded(updated, s.Amount, payee, date))
}

func (d *Dispatcher) commitIncome(c tele.Context, s Session, description string) error {
	ctx := tghelpers.BuildContext(c)
	chat := chatID(c)
	defer d.sessions.Clear(chat)

	id := d.ids.Next()
	date := ledger.FormatDate(d.now())

	doc, err := d.docs.Update(ctx, func(doc *ledger.Document) error {
		doc.RecordIncome(id, s.Amount, description, date)
		return nil
	})
	if err != nil {
		return d.commitFailed(ctx, c, s, err)
	}

	d.logCommit(ctx, s, id)
	events.Emit(ctx, d.publisher, events.Event{
		Type:        events.IncomeRecorded,
		ChatID:      chat,
		ID:          &id,
		Amount:      s.Amount,
		Description: description,
		Date:        date,
		Unallocated: doc.Unallocated,
	})
	return tghelpers.SendMD(c, d.view.IncomeRecorded(s.Amount, description, date, doc.Unallocated))
}

// commitBudget overwrites the budget of the chosen category. A category that vanished in
// the meantime is a silent no-op: nothing is written and the confirmation is still sent.
func (d *Dispatcher) commitBudget(c tele.Context, s Session, amount ledger.Amount) error {
	ctx := tghelpers.BuildContext(c)
	chat := chatID(c)
	defer d.sessions.Clear(chat)

	s.Amount = amount
	categoryID := ledger.ParseID(s.CategoryID)
	found := false
	doc, err := d.docs.Update(ctx, func(doc *ledger.Document) error {
		found = doc.SetBudget(categoryID, amount)
		if !found {
			return docstore.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return d.commitFailed(ctx, c, s, err)
	}

	if found {
		d.logCommit(ctx, s, categoryID)
		events.Emit(ctx, d.publisher, events.Event{
			Type:        events.BudgetSet,
			ChatID:      chat,
			CategoryID:  &categoryID,
			Category:    s.CategoryName,
			Amount:      amount,
			Unallocated: doc.Unallocated,
		})
	} else {
		logger.Ledger.WarnContext(ctx, "budget target missing",
			slog.String("event", "ledger.commit"),
			slog.String("action", string(s.Action)),
			slog.String("status", "skip"),
			slog.String("category_id", s.CategoryID),
		)
	}
	return tghelpers.SendMD(c, d.view.BudgetSet(s.CategoryName, amount, ledger.Unallocated(doc)))
}

func (d *Dispatcher) commitFailed(ctx context.Context, c tele.Context, s Session, err error) error {
	logger.Ledger.ErrorContext(ctx, "commit failed",
		slog.String("event", "ledger.commit"),
		slog.String("action", string(s.Action)),
		slog.String("status", "fail"),
		slog.String("category_id", s.CategoryID),
		slog.String("err", err.Error()),
	)
	if errors.Is(err, ledger.ErrCategoryNotFound) {
		return tghelpers.SendMD(c, d.view.CategoryNotFound())
	}
	return tghelpers.SendMD(c, d.view.SaveFailed())
}

func (d *Dispatcher) logCommit(ctx context.Context, s Session, id ledger.ID) {
	logger.Ledger.InfoContext(ctx, "committed",
		slog.String("event", "ledger.commit"),
		slog.String("action", string(s.Action)),
		slog.String("status", "ok"),
		slog.String("id", id.String()),
		slog.String("category_id", s.CategoryID),
		slog.String("amount", s.Amount.String()),
	)
}
