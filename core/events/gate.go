package events

const (
	// KindGateOpened identifies a quiz or flashcard deck taking the gate.
	KindGateOpened Kind = "gate.opened"
	// KindGateResolved identifies release of the gate with a result.
	KindGateResolved Kind = "gate.resolved"
)

// GateOpened marks a gated interaction taking the gate.
type GateOpened struct {
	Base
	GateKind string
}

// NewGateOpened creates a gate opened event.
func NewGateOpened(gateKind string) GateOpened {
	return GateOpened{Base: NewBase(KindGateOpened), GateKind: gateKind}
}

// GateResolved marks release of the gate. Summary carries the result marker
// reported upstream (empty when the interaction was dismissed).
type GateResolved struct {
	Base
	GateKind string
	Summary  string
}

// NewGateResolved creates a gate resolved event.
func NewGateResolved(gateKind, summary string) GateResolved {
	return GateResolved{Base: NewBase(KindGateResolved), GateKind: gateKind, Summary: summary}
}
