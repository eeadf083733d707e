package refract

import "testing"

func TestCell_NotifiesOncePerTransition(t *testing.T) {
	cell := NewCell(1.0)

	var got []float64
	cell.Subscribe(func(v float64) {
		got = append(got, v)
	})

	cell.Write(2.0)
	cell.Write(3.0)

	if len(got) != 2 || got[0] != 2.0 || got[1] != 3.0 {
		t.Errorf("expected [2 3], got %v", got)
	}
}

func TestCell_IdenticalWriteIsNoOp(t *testing.T) {
	cell := NewCell(5.0)

	count := 0
	cell.Subscribe(func(float64) { count++ })

	if !cell.Write(5.0) {
		t.Error("identical write should report success")
	}
	if count != 0 {
		t.Errorf("expected 0 notifications, got %d", count)
	}
}

func TestCell_ValidationRejectKeepsPrevious(t *testing.T) {
	cell := NewCell(0.5, WithValidator(func(v float64) bool {
		return v >= 0 && v <= 1
	}))

	count := 0
	cell.Subscribe(func(float64) { count++ })

	if cell.Write(2.0) {
		t.Error("expected rejection")
	}
	if cell.Read() != 0.5 {
		t.Errorf("expected previous value retained, got %v", cell.Read())
	}
	if count != 0 {
		t.Errorf("expected no notification on reject, got %d", count)
	}
}

func TestCell_Unsubscribe(t *testing.T) {
	cell := NewCell("a")

	count := 0
	unsub := cell.Subscribe(func(string) { count++ })

	cell.Write("b")
	unsub()
	cell.Write("c")
	unsub() // double-unsubscribe is harmless

	if count != 1 {
		t.Errorf("expected 1 notification, got %d", count)
	}
}

func TestBatch_CoalescesWritesToOneNotification(t *testing.T) {
	cell := NewCell(0.0)

	var got []float64
	cell.Subscribe(func(v float64) {
		got = append(got, v)
	})

	Batch(func() {
		cell.Write(1.0)
		cell.Write(2.0)
		cell.Write(3.0)
	})

	if len(got) != 1 || got[0] != 3.0 {
		t.Errorf("expected one notification carrying 3, got %v", got)
	}
}

func TestBatch_ValueRestoredWithinBatchDoesNotNotify(t *testing.T) {
	cell := NewCell(1.0)

	count := 0
	cell.Subscribe(func(float64) { count++ })

	Batch(func() {
		cell.Write(2.0)
		cell.Write(1.0)
	})

	if count != 0 {
		t.Errorf("expected no notification for a round trip, got %d", count)
	}
}

func TestBatch_SubscriberSeesWholeBatchApplied(t *testing.T) {
	a := NewCell(0.0)
	b := NewCell(0.0)

	var observedB float64
	a.Subscribe(func(float64) {
		observedB = b.Read()
	})

	Batch(func() {
		a.Write(1.0)
		b.Write(2.0)
	})

	if observedB != 2.0 {
		t.Errorf("subscriber of a should see b already applied, got %v", observedB)
	}
}

func TestDerive_RecomputesOncePerBatch(t *testing.T) {
	width := NewCell(2.0)
	height := NewCell(3.0)

	evals := 0
	area := Derive(func() float64 {
		evals++
		return width.Read() * height.Read()
	}, width, height)

	if area.Read() != 6.0 {
		t.Fatalf("expected 6, got %v", area.Read())
	}
	evals = 0

	notifications := 0
	area.Subscribe(func(float64) { notifications++ })

	Batch(func() {
		width.Write(4.0)
		height.Write(5.0)
	})

	if area.Read() != 20.0 {
		t.Errorf("expected 20, got %v", area.Read())
	}
	if evals != 1 {
		t.Errorf("expected exactly 1 re-evaluation per batch, got %d", evals)
	}
	if notifications != 1 {
		t.Errorf("expected 1 derived notification, got %d", notifications)
	}
}

func TestDerive_Detach(t *testing.T) {
	base := NewCell(1.0)
	doubled := Derive(func() float64 { return base.Read() * 2 }, base)

	doubled.Detach()
	base.Write(10.0)

	if doubled.Read() != 2.0 {
		t.Errorf("detached computed should keep last value, got %v", doubled.Read())
	}
}

func TestDerive_FeedsAnotherComputed(t *testing.T) {
	base := NewCell(1.0)
	doubled := Derive(func() float64 { return base.Read() * 2 }, base)
	quadrupled := Derive(func() float64 { return doubled.Read() * 2 }, doubled)

	base.Write(3.0)

	if quadrupled.Read() != 12.0 {
		t.Errorf("expected 12, got %v", quadrupled.Read())
	}
}
