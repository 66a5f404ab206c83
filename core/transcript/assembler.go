package transcript

import (
	"sync"
	"unicode/utf8"
)

// defaultFallbackThreshold is the accumulated-fragment length (in
// runes) under which a sealed turn is assumed to have lost its
// fragment stream. Tunable through WithFallbackThreshold.
const defaultFallbackThreshold = 5

// Assembler folds streamed teacher text fragments into a growing
// in-flight entry and seals it with the authoritative closing text.
// All methods are safe for concurrent use.
type Assembler struct {
	mu sync.Mutex

	entries       []Entry
	inFlight      int // index into entries, -1 when none
	streamedRunes int

	fallbackThreshold int
}

type AssemblerOption func(*Assembler)

// WithFallbackThreshold overrides the accumulated-fragment length
// under which fragment delivery is treated as failed.
func WithFallbackThreshold(runes int) AssemblerOption {
	return func(a *Assembler) {
		if runes > 0 {
			a.fallbackThreshold = runes
		}
	}
}

func NewAssembler(opts ...AssemblerOption) *Assembler {
	assembler := &Assembler{
		inFlight:          -1,
		fallbackThreshold: defaultFallbackThreshold,
	}
	for _, opt := range opts {
		opt(assembler)
	}
	return assembler
}

// AddUser appends a final user turn.
func (a *Assembler) AddUser(text string) Entry {
	return a.append(newEntry(RoleUser, text, true))
}

// AddSystem appends a final system notice.
func (a *Assembler) AddSystem(text string) Entry {
	return a.append(newEntry(RoleSystem, text, true))
}

func (a *Assembler) append(entry Entry) Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return entry
}

// OnDelta grows the in-flight teacher entry, opening one if none is
// open. A fragment never lands in a sealed entry.
func (a *Assembler) OnDelta(delta string) Entry {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.inFlight < 0 {
		a.entries = append(a.entries, newEntry(RoleTeacher, "", false))
		a.inFlight = len(a.entries) - 1
		a.streamedRunes = 0
	}

	a.entries[a.inFlight].Text += delta
	a.streamedRunes += utf8.RuneCountInString(delta)
	return a.entries[a.inFlight]
}

// OnFinal seals the in-flight entry with the authoritative text,
// opening and immediately sealing one if no entry was in flight. The
// closing payload's text always wins over the accumulated fragments,
// since the fragment stream can be starved by network loss while the
// closing payload is complete by construction.
//
// The second return reports fragment starvation: the accumulated
// stream stayed under the fallback threshold while the sealed text
// did not, so narration derived from the stream would be missing
// most of the turn.
func (a *Assembler) OnFinal(text string) (Entry, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.inFlight < 0 {
		a.entries = append(a.entries, newEntry(RoleTeacher, "", false))
		a.inFlight = len(a.entries) - 1
		a.streamedRunes = 0
	}

	starved := a.streamedRunes < a.fallbackThreshold &&
		utf8.RuneCountInString(text) >= a.fallbackThreshold

	a.entries[a.inFlight].Text = text
	a.entries[a.inFlight].Final = true
	sealed := a.entries[a.inFlight]

	a.inFlight = -1
	a.streamedRunes = 0

	return sealed, starved
}

// Turn is one replayed turn from the server's session history.
type Turn struct {
	Role string
	Text string
}

// OnHistory replaces the whole transcript with the server's replay.
// Every restored turn arrives sealed, so any in-flight entry is
// discarded rather than merged.
func (a *Assembler) OnHistory(turns []Turn) []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = make([]Entry, 0, len(turns))
	for _, turn := range turns {
		role := RoleTeacher
		if turn.Role == string(RoleUser) {
			role = RoleUser
		}
		a.entries = append(a.entries, newEntry(role, turn.Text, true))
	}
	a.inFlight = -1
	a.streamedRunes = 0

	restored := make([]Entry, len(a.entries))
	copy(restored, a.entries)
	return restored
}

// Entries returns a copy of the transcript in turn order.
func (a *Assembler) Entries() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	entries := make([]Entry, len(a.entries))
	copy(entries, a.entries)
	return entries
}

// InFlight returns the open teacher entry, if any.
func (a *Assembler) InFlight() (Entry, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFlight < 0 {
		return Entry{}, false
	}
	return a.entries[a.inFlight], true
}
