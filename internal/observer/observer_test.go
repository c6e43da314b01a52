package observer

import (
	"testing"

	"go.uber.org/zap"
	zapobserver "go.uber.org/zap/zaptest/observer"
)

func TestAddEmitRemove(t *testing.T) {
	var l List[int]

	var a, b int
	ha := l.Add(func(v int) { a += v })
	l.Add(func(v int) { b += v })

	l.Emit(3)
	if a != 3 || b != 3 {
		t.Fatalf("after first emit a=%d b=%d, want 3 3", a, b)
	}

	if !l.Remove(ha) {
		t.Fatal("Remove returned false for a live handle")
	}
	if l.Remove(ha) {
		t.Error("Remove returned true twice for the same handle")
	}

	l.Emit(2)
	if a != 3 || b != 5 {
		t.Errorf("after remove a=%d b=%d, want 3 5", a, b)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestEmitWithoutObservers(t *testing.T) {
	var l List[string]
	l.Emit("nobody listening")
	if l.Remove(42) {
		t.Error("Remove on empty list returned true")
	}
}

func TestHandlesAreUnique(t *testing.T) {
	var l List[struct{}]
	seen := make(map[Handle]bool)
	for i := 0; i < 100; i++ {
		h := l.Add(func(struct{}) {})
		if h == 0 || seen[h] {
			t.Fatalf("duplicate or zero handle %d", h)
		}
		seen[h] = true
	}
}

func TestPanickingObserverIsIsolated(t *testing.T) {
	core, logs := zapobserver.New(zap.WarnLevel)
	l := List[int]{Name: "max-deform", Logger: zap.New(core)}

	delivered := 0
	l.Add(func(int) { panic("boom") })
	l.Add(func(int) { delivered++ })
	l.Add(func(int) { delivered++ })

	l.Emit(1)

	if delivered != 2 {
		t.Errorf("delivered = %d, want 2", delivered)
	}
	if logs.FilterMessage("observer panicked").Len() != 1 {
		t.Errorf("expected one panic log entry, got %d", logs.Len())
	}
}

func TestRemoveDuringEmit(t *testing.T) {
	var l List[int]
	var h Handle
	calls := 0
	h = l.Add(func(int) {
		calls++
		l.Remove(h)
	})

	l.Emit(0)
	l.Emit(0)
	if calls != 1 {
		t.Errorf("self-removing observer called %d times, want 1", calls)
	}
}
