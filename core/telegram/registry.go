package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/budgetbot/core/logger"
	"github.com/m3rciful/budgetbot/core/telegram/commands"
)

// Registration errors. RegisterCommand and RegisterCallback wrap one of these.
var (
	ErrInvalidRegistration = errors.New("telegram: invalid registration")
	ErrDuplicate           = errors.New("telegram: already registered")
)

// Registry maps slash commands, their aliases and callback keys to handlers.
type Registry struct {
	mu        sync.RWMutex
	commands  map[string]commands.Command
	aliases   map[string]string
	callbacks map[string]tele.HandlerFunc

	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry returns an empty Registry whose unknown callbacks answer "Unsupported action".
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			_ = c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
			return nil
		},
	}
}

// RegisterCommand adds a slash command with its aliases. A command without a handler or
// description, or a name or alias already taken, is skipped with a warning.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	err := r.addCommand(name, cmd)
	if err != nil {
		skipped("command", name, err)
	}
	return err
}

func (r *Registry) addCommand(name string, cmd commands.Command) error {
	switch {
	case !strings.HasPrefix(name, "/"):
		return fmt.Errorf("%w: command %q has no slash prefix", ErrInvalidRegistration, name)
	case cmd.Handler == nil, strings.TrimSpace(cmd.Description) == "":
		return fmt.Errorf("%w: command %q needs a handler and a description", ErrInvalidRegistration, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(name) {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	for _, alias := range cmd.Aliases {
		if r.taken(alias) {
			return fmt.Errorf("%w: alias %q of %s", ErrDuplicate, alias, name)
		}
	}
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = name
	}
	return nil
}

func (r *Registry) taken(text string) bool {
	_, cmd := r.commands[text]
	_, alias := r.aliases[text]
	return cmd || alias
}

// ListCommands returns the commands sorted by name; visibleOnly leaves out Hidden ones.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tele.Command, 0, len(r.commands))
	for _, name := range slices.Sorted(maps.Keys(r.commands)) {
		meta := r.commands[name]
		if visibleOnly && meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: name, Description: meta.Description})
	}
	return list
}

// LookupCommand resolves text to a registered command. Slash commands match by name,
// ignoring a "@botname" suffix and arguments; aliases (keyboard labels, alternative slash
// names) must match the whole text. It returns the canonical key with metadata if found.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", commands.Command{}, false
	}
	candidates := []string{text}
	if strings.HasPrefix(text, "/") {
		name, _, _ := strings.Cut(text, " ")
		name, _, _ = strings.Cut(name, "@")
		candidates = append(candidates, name)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range candidates {
		if cmd, ok := r.commands[c]; ok {
			return c, cmd, true
		}
		if key, ok := r.aliases[c]; ok {
			return key, r.commands[key], true
		}
	}
	return "", commands.Command{}, false
}

// Commands returns a copy of the registered commands keyed by name.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.commands)
}

// RegisterCallback binds a callback unique key to its handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	err := r.addCallback(key, handler)
	if err != nil {
		skipped("callback", key, err)
	}
	return err
}

func (r *Registry) addCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		return fmt.Errorf("%w: callback %q needs a key and a handler", ErrInvalidRegistration, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.callbacks[key]; ok {
		return fmt.Errorf("%w: callback %s", ErrDuplicate, key)
	}
	r.callbacks[key] = handler
	return nil
}

func skipped(kind, name string, err error) {
	logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "registration skipped",
		slog.String("event", "register."+kind+".skip"),
		slog.String("name", name),
		slog.Bool("duplicate", errors.Is(err, ErrDuplicate)),
		slog.String("err", err.Error()),
	)
}

// GetCallback returns the handler bound to key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered callback keys, sorted.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.callbacks))
}

// SetCallbackNotFound replaces the handler for callbacks with an unknown key. nil is ignored.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.callbackNotFound = h
	r.mu.Unlock()
}

func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text that matches no command or alias.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.mu.Lock()
	r.textFallback = h
	r.mu.Unlock()
}

func (r *Registry) TextFallback() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textFallback
}

// InitBotCommands publishes the visible commands to the Telegram command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "set commands failed",
			slog.String("event", "register.commands"),
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.TWire.LogAttrs(context.Background(), slog.LevelInfo, "bot commands set",
		slog.String("event", "register.commands"),
		slog.Int("count", len(list)),
	)
}
