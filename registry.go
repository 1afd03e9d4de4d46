package main

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"
)

// Room codes are short enough to type on a phone and drawn from an
// alphabet with the easily-confused glyphs (I, O, 0, 1) removed.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 4
)

// scheduleFunc arms a deferred call and returns its cancel. Injected so
// tests can drive deferred destruction without real timers.
type scheduleFunc func(d time.Duration, fn func()) (cancel func())

func realSchedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// RoomRegistry owns the process-wide mapping from code to Room. Rooms
// are only ever reached through Lookup; nothing else holds the table.
type RoomRegistry struct {
	mu        sync.Mutex
	rooms     map[string]*Room
	pending   map[string]func()
	schedule  scheduleFunc
	onDestroy func(code string)
}

func newRoomRegistry(idleTimeout time.Duration, schedule scheduleFunc) *RoomRegistry {
	if schedule == nil {
		schedule = realSchedule
	}

	r := &RoomRegistry{
		rooms:    make(map[string]*Room),
		pending:  make(map[string]func()),
		schedule: schedule,
	}

	if idleTimeout > 0 {
		go r.reaperLoop(idleTimeout)
	}

	return r
}

// OnDestroy registers a callback invoked, outside the registry lock,
// after the registry destroys a room on its own (reap or deferred
// expiry). Used to shed the room's remaining connections.
func (r *RoomRegistry) OnDestroy(fn func(code string)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.onDestroy = fn
}

func (r *RoomRegistry) notifyDestroy(codes ...string) {
	r.mu.Lock()
	fn := r.onDestroy
	r.mu.Unlock()

	if fn == nil {
		return
	}
	for _, code := range codes {
		fn(code)
	}
}

func canonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func randomCode() string {
	const maxByte = byte(255 - (256 % len(codeAlphabet)))

	out := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength*2)

	for {
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}

		for _, b := range buf {
			if b <= maxByte {
				out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
				if len(out) == codeLength {
					return string(out)
				}
			}
		}
	}
}

// Create generates a code absent from the table and stores a fresh room
// under it. Collisions retry iteratively; once a room is destroyed its
// code becomes eligible for reuse.
func (r *RoomRegistry) Create(hostConnID, hostName string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		code := randomCode()
		if _, exists := r.rooms[code]; exists {
			continue
		}

		room := newRoom(code, hostConnID, hostName)
		r.rooms[code] = room
		return room
	}
}

// Lookup is case-insensitive and ignores surrounding whitespace.
func (r *RoomRegistry) Lookup(code string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rooms[canonicalCode(code)]
}

func (r *RoomRegistry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code = canonicalCode(code)
	if cancel, ok := r.pending[code]; ok {
		cancel()
		delete(r.pending, code)
	}
	delete(r.rooms, code)
}

func (r *RoomRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rooms)
}

// ScheduleDestroy arms a deferred removal of the room. The reachable
// predicate is re-evaluated when the timer fires, so a reconnection
// before expiry keeps the room alive without any explicit cancel signal.
// Re-arming replaces any previously armed destroy for the same code.
func (r *RoomRegistry) ScheduleDestroy(code string, after time.Duration, reachable func() bool) {
	code = canonicalCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[code]; !ok {
		return
	}

	if cancel, ok := r.pending[code]; ok {
		cancel()
	}

	r.pending[code] = r.schedule(after, func() {
		// The reachability check runs outside the registry lock; it may
		// need to look the room up through other locks.
		if reachable != nil && reachable() {
			r.mu.Lock()
			delete(r.pending, code)
			r.mu.Unlock()
			return
		}

		r.mu.Lock()
		delete(r.pending, code)
		_, present := r.rooms[code]
		delete(r.rooms, code)
		r.mu.Unlock()

		if present {
			r.notifyDestroy(code)
		}
	})
}

// CancelDestroy disarms a pending deferred removal, if any.
func (r *RoomRegistry) CancelDestroy(code string) {
	code = canonicalCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	if cancel, ok := r.pending[code]; ok {
		cancel()
		delete(r.pending, code)
	}
}

// reaperLoop periodically removes rooms that have seen no actions for
// longer than idleTimeout.
func (r *RoomRegistry) reaperLoop(idleTimeout time.Duration) {
	ticker := time.NewTicker(idleTimeout / 2)
	for range ticker.C {
		r.reapIdle(time.Now().Add(-idleTimeout))
	}
}

// reapIdle destroys every room whose last action predates cutoff, then
// notifies the destroy callback so lingering connections get dropped.
func (r *RoomRegistry) reapIdle(cutoff time.Time) {
	var reaped []string

	r.mu.Lock()
	for code, room := range r.rooms {
		if room.idleSince().Before(cutoff) {
			if cancel, ok := r.pending[code]; ok {
				cancel()
				delete(r.pending, code)
			}
			delete(r.rooms, code)
			reaped = append(reaped, code)
		}
	}
	r.mu.Unlock()

	r.notifyDestroy(reaped...)
}
