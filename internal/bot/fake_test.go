package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/budgetbot/core/telegram"
	"github.com/m3rciful/budgetbot/core/telegram/callbacks"
	"github.com/m3rciful/budgetbot/core/telegram/router"
	"github.com/m3rciful/budgetbot/core/telegram/state"
	"github.com/m3rciful/budgetbot/internal/docstore"
	"github.com/m3rciful/budgetbot/internal/events"
	"github.com/m3rciful/budgetbot/internal/ledger"
	"github.com/m3rciful/budgetbot/internal/present"
)

type reply struct {
	id     int
	text   string
	markup *tele.ReplyMarkup
}

// fakeContext implements the parts of tele.Context the handlers use.
type fakeContext struct {
	tele.Context
	update tele.Update
	chat   *tele.Chat
	sender *tele.User
	text   string
	msg    *tele.Message
	store  map[string]any
	nextID func() int

	editErr error

	sent   []reply
	edits  []reply
	toasts []string
}

func (f *fakeContext) Update() tele.Update { return f.update }
func (f *fakeContext) Chat() *tele.Chat { return f.chat }
func (f *fakeContext) Sender() *tele.User { return f.sender }
func (f *fakeContext) Text() string { return f.text }
func (f *fakeContext) Message() *tele.Message { return f.msg }
func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }
func (f *fakeContext) Get(key string) any { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }
func (f *fakeContext) Recipient() tele.Recipient { return f.chat }
func (f *fakeContext) Bot() tele.API { return fakeBot{f: f} }

func (f *fakeContext) Send(what any, opts ...any) error {
	f.send(what, opts)
	return nil
}

func (f *fakeContext) send(what any, opts []any) *tele.Message {
	r := toReply(what, opts)
	r.id = f.nextID()
	f.sent = append(f.sent, r)
	return &tele.Message{ID: r.id, Chat: f.chat, Text: r.text}
}

func (f *fakeContext) Edit(what any, opts ...any) error {
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, toReply(what, opts))
	return nil
}

// fakeBot answers the Bot API calls made outside of the context helpers.
type fakeBot struct {
	tele.API
	f *fakeContext
}

func (b fakeBot) Send(_ tele.Recipient, what any, opts ...any) (*tele.Message, error) {
	return b.f.send(what, opts), nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	text := ""
	if len(resp) > 0 && resp[0] != nil {
		text = resp[0].Text
	}
	f.toasts = append(f.toasts, text)
	return nil
}

func toReply(what any, opts []any) reply {
	r := reply{}
	r.text, _ = what.(string)
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil {
				r.markup = v.ReplyMarkup
			}
		case *tele.ReplyMarkup:
			r.markup = v
		}
	}
	return r
}

func (f *fakeContext) lastSent(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent, "nothing sent")
	return f.sent[len(f.sent)-1].text
}

// menu returns the id of the last message sent, i.e. the menu a later tap targets.
func (f *fakeContext) menu(t *testing.T) int {
	t.Helper()
	require.NotEmpty(t, f.sent, "nothing sent")
	return f.sent[len(f.sent)-1].id
}

func (f *fakeContext) lastEdit(t *testing.T) reply {
	t.Helper()
	require.NotEmpty(t, f.edits, "nothing edited")
	return f.edits[len(f.edits)-1]
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Close() error { return nil }

// brokenPuts fails every write.
type brokenPuts struct {
	*docstore.MemoryStore
}

func (brokenPuts) Put(context.Context, []byte, docstore.Version) (docstore.Version, error) {
	return "", errors.New("gist: 502 bad gateway")
}

type harness struct {
	t        *testing.T
	d        *Dispatcher
	store    docstore.Store
	pub      *recorder
	now      time.Time
	reg      *tg.Registry
	text     tele.HandlerFunc
	callback tele.HandlerFunc
	updates  int
	messages int
	editErr  error
}

const chat = int64(42)

func newHarness(t *testing.T, seed string) *harness {
	return newHarnessWithStore(t, docstore.NewMemoryStore([]byte(seed)))
}

func newHarnessWithStore(t *testing.T, store docstore.Store) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		store: store,
		pub:   &recorder{},
		now:   time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
		reg:   tg.NewRegistry(),
	}
	clock := func() time.Time { return h.now }
	d, err := New(Options{
		Documents: docstore.NewGateway(store),
		Sessions:  state.NewStore[Session](state.WithClock(clock)),
		Publisher: h.pub,
		Clock:     clock,
		View:      present.New("$", ""),
	})
	require.NoError(t, err)
	require.NoError(t, d.Register(h.reg))
	h.d = d
	h.text = router.TextRoutes(d, h.reg, router.TextOptions{})[0].Handler
	h.callback = router.CallbackRoute(h.reg).Handler
	return h
}

func (h *harness) context() *fakeContext {
	h.updates++
	return &fakeContext{
		update: tele.Update{ID: h.updates},
		chat:   &tele.Chat{ID: chat, Type: tele.ChatPrivate},
		sender: &tele.User{ID: 7},
		store:  map[string]any{},
		nextID: func() int {
			h.messages++
			return 500 + h.messages
		},
		editErr: h.editErr,
	}
}

// say sends text through the same routing the bot uses.
func (h *harness) say(text string) *fakeContext {
	h.t.Helper()
	c := h.context()
	c.text = text
	c.msg = &tele.Message{ID: 1000 + h.updates, Text: text}
	c.update.Message = c.msg
	require.NoError(h.t, h.text(c))
	return c
}

// tap presses an inline button on the menu message messageID.
func (h *harness) tap(p callbacks.Payload, messageID int) *fakeContext {
	h.t.Helper()
	c, err := h.press(p, messageID)
	require.NoError(h.t, err)
	return c
}

// press is tap for handlers expected to fail.
func (h *harness) press(p callbacks.Payload, messageID int) (*fakeContext, error) {
	c := h.context()
	c.msg = &tele.Message{ID: messageID}
	c.update.Callback = &tele.Callback{ID: "cb", Data: p.Data(), Message: c.msg}
	return c, h.callback(c)
}

func (h *harness) session() (Session, bool) {
	return h.d.sessions.Get(chat)
}

func (h *harness) doc() *ledger.Document {
	h.t.Helper()
	content, _, err := h.store.Get(context.Background())
	require.NoError(h.t, err)
	doc, err := ledger.Decode(content)
	require.NoError(h.t, err)
	return doc
}

func (h *harness) raw() string {
	h.t.Helper()
	content, _, err := h.store.Get(context.Background())
	require.NoError(h.t, err)
	return string(content)
}

func (h *harness) version() docstore.Version {
	_, v, err := h.store.Get(context.Background())
	require.NoError(h.t, err)
	return v
}
