package board

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func textAction(text string) Action {
	return Action{Kind: KindWriteBullet, Payload: []byte(fmt.Sprintf(`{"text":%q}`, text))}
}

func TestPushStoresTextActionAndStartsReveal(t *testing.T) {
	var mu sync.Mutex
	var revealed []int
	r := NewReducer(WithRevealCallback(func(index int, _ Action) {
		mu.Lock()
		revealed = append(revealed, index)
		mu.Unlock()
	}))

	if got := r.Push(textAction("first")); got != DispositionStored {
		t.Fatalf("expected stored disposition, got %v", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(revealed) != 1 || revealed[0] != 0 {
		t.Fatalf("expected first action to start revealing, got %v", revealed)
	}
}

func TestCursorNeverSkipsWhileRevealInProgress(t *testing.T) {
	r := NewReducer()

	r.Push(textAction("first"))
	r.Push(textAction("second"))
	r.Push(textAction("third"))

	if got := r.Cursor(); got != 1 {
		t.Fatalf("expected cursor to hold at 1 while the first reveal runs, got %d", got)
	}

	r.FinishReveal()
	if got := r.Cursor(); got != 2 {
		t.Fatalf("expected cursor at 2 after finishing the first reveal, got %d", got)
	}

	r.FinishReveal()
	r.FinishReveal()
	if got := r.Cursor(); got != 3 {
		t.Fatalf("expected cursor to stop at the sequence length, got %d", got)
	}
}

func TestPushEvictsOldestPastCap(t *testing.T) {
	r := NewReducer()

	for i := 0; i < maxVisibleActions+3; i++ {
		r.Push(textAction(fmt.Sprintf("line %d", i)))
	}

	actions := r.Actions()
	if len(actions) != maxVisibleActions {
		t.Fatalf("expected the sequence capped at %d, got %d", maxVisibleActions, len(actions))
	}
	if string(actions[0].Payload) != `{"text":"line 3"}` {
		t.Fatalf("expected the oldest actions evicted, got %s first", actions[0].Payload)
	}
	if cursor := r.Cursor(); cursor > len(actions) {
		t.Fatalf("expected cursor within the sequence after eviction, got %d", cursor)
	}
}

func TestClearResetsSequenceAndCursor(t *testing.T) {
	r := NewReducer()
	r.Push(textAction("first"))
	r.Push(textAction("second"))

	if got := r.Push(Action{Kind: KindClear}); got != DispositionCleared {
		t.Fatalf("expected cleared disposition, got %v", got)
	}
	if got := len(r.Actions()); got != 0 {
		t.Fatalf("expected an empty sequence after clear, got %d actions", got)
	}
	if got := r.Cursor(); got != 0 {
		t.Fatalf("expected cursor reset after clear, got %d", got)
	}

	r.Push(textAction("fresh"))
	if got := r.Cursor(); got != 1 {
		t.Fatalf("expected reveals to restart after clear, got cursor %d", got)
	}
}

func TestGatingKindsNeverEnterSequence(t *testing.T) {
	r := NewReducer()

	if got := r.Push(Action{Kind: KindShowQuiz}); got != DispositionGating {
		t.Fatalf("expected gating disposition for quiz, got %v", got)
	}
	if got := r.Push(Action{Kind: KindShowFlashcards}); got != DispositionGating {
		t.Fatalf("expected gating disposition for flashcards, got %v", got)
	}
	if got := r.Push(Action{Kind: KindShowReward}); got != DispositionReward {
		t.Fatalf("expected reward disposition, got %v", got)
	}
	if got := len(r.Actions()); got != 0 {
		t.Fatalf("expected gating and reward kinds to stay out of the sequence, got %d actions", got)
	}
}

func TestRevealGuardHoldsCursor(t *testing.T) {
	held := true
	r := NewReducer(WithRevealGuard(func() bool { return held }))

	r.Push(textAction("first"))
	if got := r.Cursor(); got != 0 {
		t.Fatalf("expected guard to hold the cursor at 0, got %d", got)
	}

	held = false
	if !r.Advance() {
		t.Fatal("expected the reveal to start once the guard released")
	}
	if got := r.Cursor(); got != 1 {
		t.Fatalf("expected cursor at 1 after the guard released, got %d", got)
	}
}

func TestNonTextActionAdvancesAfterDwell(t *testing.T) {
	revealed := make(chan int, 4)
	r := NewReducer(
		WithDwell(10*time.Millisecond),
		WithRevealCallback(func(index int, _ Action) { revealed <- index }),
	)

	r.Push(Action{Kind: KindShowImage, Payload: []byte(`{"url":"x"}`)})
	r.Push(textAction("after the image"))

	select {
	case index := <-revealed:
		if index != 0 {
			t.Fatalf("expected the image to reveal first, got index %d", index)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the first reveal")
	}

	select {
	case index := <-revealed:
		if index != 1 {
			t.Fatalf("expected the text to reveal after the dwell, got index %d", index)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the dwell to release the next reveal")
	}
}
