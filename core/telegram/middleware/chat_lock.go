package middleware

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// ChatLocker hands out one mutex per chat and forgets it once nobody holds or waits on it.
type ChatLocker struct {
	mu    sync.Mutex
	locks map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// NewChatLocker returns an empty locker.
func NewChatLocker() *ChatLocker {
	return &ChatLocker{locks: make(map[int64]*chatLock)}
}

// Lock blocks until chatID is free and returns the matching unlock function.
func (l *ChatLocker) Lock(chatID int64) func() {
	l.mu.Lock()
	lk, ok := l.locks[chatID]
	if !ok {
		lk = &chatLock{}
		l.locks[chatID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()
		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, chatID)
		}
		l.mu.Unlock()
	}
}

// Len reports how many chats currently hold or wait for a lock.
func (l *ChatLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// ChatLockMiddleware runs the updates of one chat one at a time. Telebot handles every
// update in its own goroutine, so without it two taps in the same chat race on the session.
func ChatLockMiddleware(l *ChatLocker) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil {
				return next(c)
			}
			unlock := l.Lock(chat.ID)
			defer unlock()
			return next(c)
		}
	}
}
