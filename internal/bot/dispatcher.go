// Package bot drives the budgeting conversation: slash commands, reply keyboard buttons,
// inline menus and the multi-step wizards that record expenses, income and budgets.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/budgetbot/core/logger"
	tg "github.com/m3rciful/budgetbot/core/telegram"
	"github.com/m3rciful/budgetbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/budgetbot/core/telegram/helpers"
	"github.com/m3rciful/budgetbot/core/telegram/state"
	"github.com/m3rciful/budgetbot/internal/docstore"
	"github.com/m3rciful/budgetbot/internal/events"
	"github.com/m3rciful/budgetbot/internal/ledger"
	"github.com/m3rciful/budgetbot/internal/present"
)

// Documents is the access to the shared budget document. *docstore.Gateway implements it.
type Documents interface {
	Fetch(ctx context.Context) docstore.Snapshot
	Load(ctx context.Context) (docstore.Snapshot, error)
	Update(ctx context.Context, mutate func(*ledger.Document) error) (*ledger.Document, error)
}

// Options carries the dispatcher's collaborators. Documents and View are required.
type Options struct {
	Documents Documents
	Sessions  *state.Store[Session]
	Publisher events.Publisher
	IDs       *ledger.IDSource
	Clock     func() time.Time
	View      *present.Renderer
}

// Dispatcher routes updates to the wizard steps and the read-only commands.
type Dispatcher struct {
	docs      Documents
	sessions  *state.Store[Session]
	publisher events.Publisher
	ids       *ledger.IDSource
	now       func() time.Time
	view      *present.Renderer
}

// New validates opts and fills in defaults for the optional parts.
func New(opts Options) (*Dispatcher, error) {
	if opts.Documents == nil {
		return nil, errors.New("bot: documents are required")
	}
	if opts.View == nil {
		return nil, errors.New("bot: renderer is required")
	}
	d := &Dispatcher{
		docs:      opts.Documents,
		sessions:  opts.Sessions,
		publisher: opts.Publisher,
		ids:       opts.IDs,
		now:       opts.Clock,
		view:      opts.View,
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.sessions == nil {
		d.sessions = state.NewStore[Session](state.WithClock(d.now))
	}
	if d.publisher == nil {
		d.publisher = events.Nop{}
	}
	if d.ids == nil {
		d.ids = ledger.NewIDSource(d.now)
	}
	return d, nil
}

// Sessions exposes the session store, for the sweeper.
func (d *Dispatcher) Sessions() *state.Store[Session] { return d.sessions }

// Register adds the commands, their keyboard aliases and the callback handlers.
func (d *Dispatcher) Register(reg *tg.Registry) error {
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: d.start, Description: "Show the welcome message and keyboard"}},
		{"/help", commands.Command{Handler: d.help, Description: "List the commands"}},
		{"/expense", commands.Command{Handler: d.startExpense, Description: "Add an expense",
			Aliases: []string{present.ButtonExpense}}},
		{"/income", commands.Command{Handler: d.startIncome, Description: "Add income",
			Aliases: []string{present.ButtonIncome}}},
		{"/budget", commands.Command{Handler: d.startBudget, Description: "Set a category budget",
			Aliases: []string{present.ButtonBudget}}},
		{"/unallocated", commands.Command{Handler: d.unallocated, Description: "Money left to budget",
			Aliases: []string{present.ButtonUnallocated}}},
		{"/dashboard", commands.Command{Handler: d.dashboard, Description: "Totals and top categories",
			Aliases: []string{present.ButtonDashboard}}},
		{"/analytics", commands.Command{Handler: d.analytics, Description: "Financial summary",
			Aliases: []string{"/summary", present.ButtonAnalytics}}},
		{"/categories", commands.Command{Handler: d.categories, Description: "List all categories"}},
		{"/sync", commands.Command{Handler: d.sync, Description: "Force sync from cloud",
			Aliases: []string{present.ButtonSync}}},
		{"/app", commands.Command{Handler: d.app, Description: "Open the web app", Hidden: d.view.WebAppURL() == "",
			Aliases: []string{present.ButtonApp}}},
		{"/cancel", commands.Command{Handler: d.cancel, Description: "Abandon the current step"}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return fmt.Errorf("bot: register command: %w", err)
		}
	}

	cbs := map[string]tele.HandlerFunc{
		KindGroup:          d.onGroup,
		KindCategory:       d.onCategory,
		KindBudgetCategory: d.onBudgetCategory,
		KindBack:           d.onBack,
		KindCancel:         d.onCancel,
	}
	for key, h := range cbs {
		if err := reg.RegisterCallback(key, h); err != nil {
			return fmt.Errorf("bot: register callback %q: %w", key, err)
		}
	}
	reg.SetCallbackNotFound(d.expired)
	reg.SetTextFallback(d.fallback)
	return nil
}

// Active reports whether the chat is inside a wizard.
func (d *Dispatcher) Active(chatID int64) bool {
	_, ok := d.sessions.Get(chatID)
	return ok
}

// Rejected answers users outside of the allow list.
func (d *Dispatcher) Rejected(c tele.Context) error {
	return tghelpers.SendText(c, d.view.Rejected())
}

// Limited answers users that send updates too quickly.
func (d *Dispatcher) Limited(c tele.Context) error {
	if c.Callback() != nil {
		return tghelpers.Toast(c, d.view.RateLimited())
	}
	return tghelpers.SendText(c, d.view.RateLimited())
}

func chatID(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	return 0
}

func (d *Dispatcher) start(c tele.Context) error {
	d.sessions.Clear(chatID(c))
	return tghelpers.SendMD(c, d.view.Welcome(chatID(c)), d.view.MainKeyboard())
}

func (d *Dispatcher) help(c tele.Context) error {
	return tghelpers.SendMD(c, d.view.Help())
}

func (d *Dispatcher) unallocated(c tele.Context) error {
	doc := d.docs.Fetch(tghelpers.BuildContext(c)).Doc
	return tghelpers.SendMD(c, d.view.Unallocated(doc.Totals(d.now())))
}

func (d *Dispatcher) dashboard(c tele.Context) error {
	doc := d.docs.Fetch(tghelpers.BuildContext(c)).Doc
	return tghelpers.SendMD(c, d.view.Dashboard(doc.Totals(d.now()), doc.Categories))
}

func (d *Dispatcher) analytics(c tele.Context) error {
	doc := d.docs.Fetch(tghelpers.BuildContext(c)).Doc
	return tghelpers.SendMD(c, d.view.Analytics(doc.Totals(d.now())))
}

func (d *Dispatcher) categories(c tele.Context) error {
	doc := d.docs.Fetch(tghelpers.BuildContext(c)).Doc
	return tghelpers.SendMD(c, d.view.Categories(doc.Groups()))
}

// sync reads the document without the empty fallback so that a broken store is reported.
func (d *Dispatcher) sync(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if err := tghelpers.SendText(c, d.view.Syncing()); err != nil {
		return err
	}
	snap, err := d.docs.Load(ctx)
	if err != nil {
		logger.Store.WarnContext(ctx, "forced sync failed",
			slog.String("event", "store.sync"),
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, d.view.SyncFailed())
	}
	return tghelpers.SendMD(c, d.view.Synced(snap.Doc.Totals(d.now())))
}

func (d *Dispatcher) app(c tele.Context) error {
	return tghelpers.SendMD(c, d.view.App())
}

func (d *Dispatcher) cancel(c tele.Context) error {
	id := chatID(c)
	if !d.Active(id) {
		return tghelpers.SendText(c, d.view.NothingToCancel(), &tele.SendOptions{ReplyMarkup: d.view.MainKeyboard()})
	}
	d.sessions.Clear(id)
	d.logSession(c, "session.cancel", Session{})
	return tghelpers.SendText(c, d.view.Cancelled(), &tele.SendOptions{ReplyMarkup: d.view.MainKeyboard()})
}

func (d *Dispatcher) fallback(c tele.Context) error {
	return tghelpers.SendText(c, d.view.Fallback(), &tele.SendOptions{ReplyMarkup: d.view.MainKeyboard()})
}

// expired acknowledges a tap that no longer matches the conversation without side effects.
func (d *Dispatcher) expired(c tele.Context) error {
	return tghelpers.Toast(c, d.view.MenuExpired())
}

func (d *Dispatcher) logSession(c tele.Context, event string, s Session) {
	ctx := tghelpers.BuildContext(c)
	attrs := []slog.Attr{slog.String("event", event)}
	if s.Action != "" {
		attrs = append(attrs, slog.String("action", string(s.Action)))
	}
	if s.Step != "" {
		attrs = append(attrs, slog.String("step", string(s.Step)))
	}
	logger.Session.LogAttrs(ctx, slog.LevelDebug, "session", attrs...)
}
