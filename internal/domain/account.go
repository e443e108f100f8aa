package domain

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MessageSource identifies which side of the chat produced a message.
type MessageSource string

const (
	SourceBot  MessageSource = "bot"
	SourceUser MessageSource = "user"
)

const (
	maxTrackedMessages = 30
	maxSteps           = 40
	recentPoppedWindow = 10
)

var (
	// ErrInvalidSource is returned for a source tag other than "bot" or "user".
	ErrInvalidSource = errors.New("message source must be \"bot\" or \"user\"")
	// ErrEmptyStepStack is returned when there is no saved step to perform.
	ErrEmptyStepStack = errors.New("step stack is empty")
	// ErrStepStackFull is returned when the step stack capacity is exhausted.
	ErrStepStackFull = errors.New("step stack is full")
)

// Step is a pending continuation of an interactive dialog. Handlers register
// a step when they expect the user's next message and perform it when that
// message arrives.
type Step func(input any) (any, error)

// Profile is the personal data of a user mirrored from the remote backend.
// Unset fields stay nil.
type Profile struct {
	FirstName   *string
	LastName    *string
	Nickname    *string
	PhoneNumber *string
	HomeAddress *string
}

// Account holds the bot-relevant state of one Telegram user: the profile
// mirrored from the remote backend, recently exchanged message ids, the stack
// of pending dialog steps and the dirty-state bookkeeping used to decide
// whether the profile must be synced back to the backend.
//
// Handlers and the pool sweep touch the same account from different
// goroutines, so the profile is only reachable through the locked accessors.
type Account struct {
	TgID int64

	RegisteredOnServer bool

	// Handler view state, never persisted.
	ProductIndex  int
	OrderIndex    int
	CategoryIndex int
	Count         int
	Back          bool

	mu                sync.Mutex
	profile           Profile
	lastSession       time.Time
	botMessages       []int
	userMessages      []int
	recentlyPopped    []int
	steps             []Step
	personalDataCache uint64
}

// NewAccount creates a blank account for the given chat id. A fresh account
// is not registered on the server and reports IsChanged() == false.
func NewAccount(tgID int64) *Account {
	a := &Account{TgID: tgID, Count: 1}
	a.personalDataCache = hashProfile(Profile{})
	return a
}

// Profile returns a copy of the personal data.
func (a *Account) Profile() Profile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profile
}

// SetProfile replaces the personal data wholesale.
func (a *Account) SetProfile(p Profile) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.profile = p
}

// UpdateProfile applies fn to the personal data under the account lock.
func (a *Account) UpdateProfile(fn func(*Profile)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(&a.profile)
}

// FillMissingProfile copies remote values into fields that are still unset.
// Set local fields always win.
func (a *Account) FillMissingProfile(remote Profile) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, field := range []struct {
		local  **string
		remote *string
	}{
		{&a.profile.FirstName, remote.FirstName},
		{&a.profile.LastName, remote.LastName},
		{&a.profile.Nickname, remote.Nickname},
		{&a.profile.PhoneNumber, remote.PhoneNumber},
		{&a.profile.HomeAddress, remote.HomeAddress},
	} {
		if *field.local == nil {
			*field.local = field.remote
		}
	}
}

func (a *Account) queue(source MessageSource) (*[]int, error) {
	switch source {
	case SourceBot:
		return &a.botMessages, nil
	case SourceUser:
		return &a.userMessages, nil
	}
	return nil, fmt.Errorf("%w, got %q", ErrInvalidSource, source)
}

// AppendMessage records a message id in the queue of the given source. When
// the queue is at capacity the oldest id is dropped to make room.
func (a *Account) AppendMessage(messageID int, source MessageSource) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	q, err := a.queue(source)
	if err != nil {
		return err
	}
	if len(*q) >= maxTrackedMessages {
		*q = (*q)[1:]
	}
	*q = append(*q, messageID)
	return nil
}

// PopOverflow drains the oldest message ids of the given source until the
// queue holds at most limit entries and returns them. The caller is expected
// to delete the returned messages from the chat.
func (a *Account) PopOverflow(source MessageSource, limit int) ([]int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	q, err := a.queue(source)
	if err != nil {
		return nil, err
	}

	var popped []int
	for len(*q) > limit {
		popped = append(popped, (*q)[0])
		*q = (*q)[1:]
	}

	a.recentlyPopped = append(a.recentlyPopped, popped...)
	if n := len(a.recentlyPopped); n > recentPoppedWindow {
		a.recentlyPopped = a.recentlyPopped[n-recentPoppedWindow:]
	}
	return popped, nil
}

// RecentlyPopped returns the last few ids drained by PopOverflow.
func (a *Account) RecentlyPopped() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]int, len(a.recentlyPopped))
	copy(out, a.recentlyPopped)
	return out
}

// MessageIDs returns the queue of the given source comma-joined for local
// persistence.
func (a *Account) MessageIDs(source MessageSource) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	q, err := a.queue(source)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(*q))
	for _, id := range *q {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ","), nil
}

// RestoreMessageIDs refills a queue from its comma-joined form. Malformed
// elements are skipped.
func (a *Account) RestoreMessageIDs(source MessageSource, joined string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	q, err := a.queue(source)
	if err != nil {
		return err
	}
	for _, part := range strings.Split(joined, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if len(*q) < maxTrackedMessages {
			*q = append(*q, id)
		}
	}
	return nil
}

// UpdateActivityTime marks the account as just accessed. Idle time measured
// from this moment drives pool eviction.
func (a *Account) UpdateActivityTime() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastSession = time.Now()
}

// LastSession returns the time of the last pool access.
func (a *Account) LastSession() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSession
}

// SetLastSession restores the activity timestamp from the local store.
func (a *Account) SetLastSession(t time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastSession = t
}

// RegisterStep pushes a dialog continuation onto the step stack.
func (a *Account) RegisterStep(step Step) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.steps) >= maxSteps {
		return ErrStepStackFull
	}
	a.steps = append(a.steps, step)
	return nil
}

// PerformSavedStep pops the most recently registered step and invokes it with
// the given input.
func (a *Account) PerformSavedStep(input any) (any, error) {
	a.mu.Lock()
	if len(a.steps) == 0 {
		a.mu.Unlock()
		return nil, ErrEmptyStepStack
	}
	step := a.steps[len(a.steps)-1]
	a.steps = a.steps[:len(a.steps)-1]
	a.mu.Unlock()

	return step(input)
}

// HasSavedStep reports whether a dialog continuation is pending.
func (a *Account) HasSavedStep() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.steps) > 0
}

// DropSteps discards every pending dialog continuation. Used when a session
// is closed so a stale form cannot be submitted later.
func (a *Account) DropSteps() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.steps = nil
}

// hashProfile hashes the non-nil profile fields in a fixed order. The order
// is part of the change-detection contract: re-hashing unchanged data must
// yield the same sum.
func hashProfile(p Profile) uint64 {
	h := fnv.New64a()
	for _, field := range []struct {
		name  string
		value *string
	}{
		{"firstName", p.FirstName},
		{"lastName", p.LastName},
		{"nickname", p.Nickname},
		{"phoneNumber", p.PhoneNumber},
		{"homeAddress", p.HomeAddress},
	} {
		if field.value == nil {
			continue
		}
		h.Write([]byte(field.name))
		h.Write([]byte{'='})
		h.Write([]byte(*field.value))
		h.Write([]byte{';'})
	}
	return h.Sum64()
}

// PersonalDataHash returns the hash of the current profile.
func (a *Account) PersonalDataHash() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return hashProfile(a.profile)
}

// IsChanged reports whether the profile differs from the last synced state.
func (a *Account) IsChanged() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return hashProfile(a.profile) != a.personalDataCache
}

// MarkSynced records the current profile as the last synced state.
func (a *Account) MarkSynced() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.personalDataCache = hashProfile(a.profile)
}
