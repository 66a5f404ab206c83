package transport

import "testing"

func TestDispatchRunsHandlersInRegistrationOrder(t *testing.T) {
	d := NewDispatcher()

	var order []int
	d.On(KindStatus, func(Message) { order = append(order, 1) })
	d.On(KindStatus, func(Message) { order = append(order, 2) })
	d.On(KindTeacherTextDelta, func(Message) { order = append(order, 3) })

	d.Dispatch(&Status{Status: "teaching"})

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected status handlers in order, got %v", order)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	d := NewDispatcher()

	calls := 0
	unsubscribe := d.On(KindStatus, func(Message) { calls++ })

	d.Dispatch(&Status{})
	unsubscribe()
	unsubscribe()
	d.Dispatch(&Status{})

	if calls != 1 {
		t.Fatalf("expected a single delivery, got %d", calls)
	}
}

func TestHandlerMayUnsubscribeItselfMidDispatch(t *testing.T) {
	d := NewDispatcher()

	var unsubscribe func()
	first := 0
	second := 0
	unsubscribe = d.On(KindStatus, func(Message) {
		first++
		unsubscribe()
	})
	d.On(KindStatus, func(Message) { second++ })

	d.Dispatch(&Status{})
	d.Dispatch(&Status{})

	if first != 1 {
		t.Fatalf("expected the self-removing handler to run once, got %d", first)
	}
	if second != 2 {
		t.Fatalf("expected the surviving handler to run twice, got %d", second)
	}
}
