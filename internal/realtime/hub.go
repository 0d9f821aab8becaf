// Package realtime owns the live connection registry and the push side of
// order notifications. The Hub maps each user id to at most one channel;
// delivery is best-effort and clients recover missed events through the
// polling fallback.
//
// The Hub is an injected, explicitly-owned object: it is constructed once in
// main and passed to the services and the session guard. Callers only see
// Register/Unregister/Send/ForceLogout.
package realtime

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Event types pushed to clients.
const (
	EventOrderStatusUpdated = "ORDER_STATUS_UPDATED"
	EventForceLogout        = "FORCE_LOGOUT"
	EventNotificationsRead  = "NOTIFICATIONS_READ"
)

// Forced-logout reasons.
const (
	ReasonAccountDeleted = "account_deleted"
	ReasonAccountBlocked = "account_blocked"
)

// Conn is the transport half of a realtime channel. *websocket.Conn from
// gorilla/websocket satisfies it; tests substitute a recording fake.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Event is the wire envelope for every pushed message.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// ForceLogoutPayload is the data of a FORCE_LOGOUT event.
type ForceLogoutPayload struct {
	Reason    string    `json:"reason"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// logoutEntry tracks one user's pending forced logout: the TTL marker the
// session guard consults, plus the cancellable timers behind it.
type logoutEntry struct {
	reason     string
	expireTime *time.Timer
	closeTime  *time.Timer
}

// Hub is the process-local registry of live connections. All methods are safe
// for concurrent use.
type Hub struct {
	mu           sync.Mutex
	conns        map[uint]Conn
	forcedOut    map[uint]*logoutEntry
	graceClose   time.Duration
	forcedOutTTL time.Duration
	now          func() time.Time
}

// Option customizes Hub construction (used by tests to shrink timers).
type Option func(*Hub)

// WithGraceClose overrides the delay between a FORCE_LOGOUT event and the
// transport teardown.
func WithGraceClose(d time.Duration) Option {
	return func(h *Hub) { h.graceClose = d }
}

// WithForcedOutTTL overrides how long a forced-logout marker is retained.
func WithForcedOutTTL(d time.Duration) Option {
	return func(h *Hub) { h.forcedOutTTL = d }
}

// NewHub constructs an empty Hub. Defaults: 3 s grace before closing the
// channel after a forced logout, 5 min retention of the forced-out marker.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		conns:        make(map[uint]Conn),
		forcedOut:    make(map[uint]*logoutEntry),
		graceClose:   3 * time.Second,
		forcedOutTTL: 5 * time.Minute,
		now:          time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Register associates a channel with a user id, replacing any prior entry.
// The replaced channel is left to its own lifecycle; its eventual Unregister
// is a no-op.
func (h *Hub) Register(userID uint, c Conn) {
	h.mu.Lock()
	h.conns[userID] = c
	h.mu.Unlock()
	log.Debug().Uint("user_id", userID).Msg("realtime channel registered")
}

// Unregister removes the channel's entry, but only while it is still the
// currently registered one for its user. Stale removal is a no-op.
func (h *Hub) Unregister(c Conn) {
	h.mu.Lock()
	for id, cur := range h.conns {
		if cur == c {
			delete(h.conns, id)
			log.Debug().Uint("user_id", id).Msg("realtime channel unregistered")
			break
		}
	}
	h.mu.Unlock()
}

// Send pushes a typed event to the user's live channel. Delivery is
// best-effort: with no channel registered, or a write failure, the event is
// dropped and false is returned; the client catches up via polling.
func (h *Hub) Send(userID uint, eventType string, data any) bool {
	h.mu.Lock()
	c, ok := h.conns[userID]
	h.mu.Unlock()
	if !ok {
		return false
	}
	ev := Event{Type: eventType, Data: data, Timestamp: h.now().UTC()}
	if err := c.WriteJSON(ev); err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Str("event", eventType).
			Msg("realtime push failed")
		return false
	}
	return true
}

// ForceLogout marks the user as recently forced out (consulted by the
// session guard to skip repeated DB lookups), pushes a FORCE_LOGOUT event,
// and schedules the channel teardown after a grace period so the client can
// react first. Both timers are cancellable via CancelForcedLogout. Returns
// whether the event reached a live channel.
func (h *Hub) ForceLogout(userID uint, reason string) bool {
	msg := "Ваш аккаунт был заблокирован администратором системы."
	if reason == ReasonAccountDeleted {
		msg = "Ваш аккаунт был удален администратором системы."
	}

	h.mu.Lock()
	if prior, ok := h.forcedOut[userID]; ok {
		prior.stop()
	}
	entry := &logoutEntry{reason: reason}
	entry.expireTime = time.AfterFunc(h.forcedOutTTL, func() {
		h.mu.Lock()
		if h.forcedOut[userID] == entry {
			delete(h.forcedOut, userID)
		}
		h.mu.Unlock()
	})
	c, live := h.conns[userID]
	if live {
		entry.closeTime = time.AfterFunc(h.graceClose, func() {
			h.mu.Lock()
			if h.conns[userID] == c {
				delete(h.conns, userID)
			}
			h.mu.Unlock()
			c.Close()
		})
	}
	h.forcedOut[userID] = entry
	h.mu.Unlock()

	log.Info().Uint("user_id", userID).Str("reason", reason).Bool("live", live).
		Msg("forced logout")

	if !live {
		return false
	}
	ev := Event{
		Type:      EventForceLogout,
		Data:      ForceLogoutPayload{Reason: reason, Message: msg, Timestamp: h.now().UTC()},
		Timestamp: h.now().UTC(),
	}
	if err := c.WriteJSON(ev); err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("force logout push failed")
		return false
	}
	return true
}

// RecentlyForcedOut reports whether a forced-logout marker is still active
// for the user, along with its reason.
func (h *Hub) RecentlyForcedOut(userID uint) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.forcedOut[userID]
	if !ok {
		return "", false
	}
	return e.reason, true
}

// CancelForcedLogout retracts a pending forced logout: the marker is removed
// and the scheduled channel teardown is stopped. Unblocking a user within the
// grace window goes through here.
func (h *Hub) CancelForcedLogout(userID uint) {
	h.mu.Lock()
	if e, ok := h.forcedOut[userID]; ok {
		e.stop()
		delete(h.forcedOut, userID)
	}
	h.mu.Unlock()
}

// Close stops every pending timer. The registry itself needs no teardown;
// connection shutdown belongs to the HTTP server.
func (h *Hub) Close() {
	h.mu.Lock()
	for id, e := range h.forcedOut {
		e.stop()
		delete(h.forcedOut, id)
	}
	h.mu.Unlock()
}

func (e *logoutEntry) stop() {
	if e.expireTime != nil {
		e.expireTime.Stop()
	}
	if e.closeTime != nil {
		e.closeTime.Stop()
	}
}
