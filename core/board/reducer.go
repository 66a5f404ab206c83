package board

import (
	"sync"
	"time"
)

const (
	// maxVisibleActions bounds the stored sequence; pushing past it
	// evicts the oldest action.
	maxVisibleActions = 10

	defaultDwell = 2 * time.Second
)

// Reducer holds the visible action sequence and the reveal cursor.
// The cursor never exceeds the sequence length and never skips an
// index: action i+1 starts revealing only after action i finished,
// either because its text rendered out or because its dwell elapsed.
// All methods are safe for concurrent use.
type Reducer struct {
	mu        sync.Mutex
	actions   []Action
	cursor    int
	revealing bool

	dwell     time.Duration
	guard     func() bool
	onReveal  func(index int, action Action)
	dwellStop *time.Timer
}

type ReducerOption func(*Reducer)

// WithDwell sets how long non-text actions stay "being revealed"
// before the next action may start.
func WithDwell(dwell time.Duration) ReducerOption {
	return func(r *Reducer) {
		if dwell > 0 {
			r.dwell = dwell
		}
	}
}

// WithRevealGuard installs a predicate consulted before each reveal;
// while it returns true the cursor does not advance.
func WithRevealGuard(guard func() bool) ReducerOption {
	return func(r *Reducer) { r.guard = guard }
}

// WithRevealCallback is invoked as each action starts its reveal.
func WithRevealCallback(callback func(index int, action Action)) ReducerOption {
	return func(r *Reducer) { r.onReveal = callback }
}

func NewReducer(opts ...ReducerOption) *Reducer {
	reducer := &Reducer{
		dwell:    defaultDwell,
		guard:    func() bool { return false },
		onReveal: func(int, Action) {},
	}
	for _, opt := range opts {
		opt(reducer)
	}
	return reducer
}

// Push routes one action. Gating and reward kinds never touch the
// visible sequence; CLEAR resets it. Stored actions begin revealing
// as soon as the cursor reaches them.
func (r *Reducer) Push(action Action) Disposition {
	switch action.Kind {
	case KindClear:
		r.Clear()
		return DispositionCleared
	case KindShowQuiz, KindShowFlashcards:
		return DispositionGating
	case KindShowReward:
		return DispositionReward
	}

	r.mu.Lock()
	r.actions = append(r.actions, action)
	if len(r.actions) > maxVisibleActions {
		evicted := len(r.actions) - maxVisibleActions
		r.actions = r.actions[evicted:]
		if r.cursor -= evicted; r.cursor < 0 {
			r.cursor = 0
		}
	}
	r.mu.Unlock()

	r.Advance()
	return DispositionStored
}

// Clear wipes the sequence and resets the cursor.
func (r *Reducer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = nil
	r.cursor = 0
	r.revealing = false
	r.stopDwellLocked()
}

// Advance starts the next reveal if nothing is mid-reveal, nothing
// suppresses reveals, and an unrevealed action exists. Returns
// whether a reveal started.
func (r *Reducer) Advance() bool {
	r.mu.Lock()

	if r.revealing || r.guard() || r.cursor >= len(r.actions) {
		r.mu.Unlock()
		return false
	}

	index := r.cursor
	action := r.actions[index]
	r.cursor++
	r.revealing = true

	if !action.textual() {
		r.stopDwellLocked()
		r.dwellStop = time.AfterFunc(r.dwell, r.FinishReveal)
	}
	r.mu.Unlock()

	r.onReveal(index, action)
	return true
}

// FinishReveal marks the in-progress reveal complete and chains into
// the next one. Text actions report completion through this call
// when their rendering ends; non-text actions arrive here from the
// dwell timer.
func (r *Reducer) FinishReveal() {
	r.mu.Lock()
	r.revealing = false
	r.stopDwellLocked()
	r.mu.Unlock()

	r.Advance()
}

func (r *Reducer) stopDwellLocked() {
	if r.dwellStop != nil {
		r.dwellStop.Stop()
		r.dwellStop = nil
	}
}

// Actions returns a copy of the visible sequence.
func (r *Reducer) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]Action, len(r.actions))
	copy(actions, r.actions)
	return actions
}

// Cursor returns how many actions have started revealing.
func (r *Reducer) Cursor() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}
