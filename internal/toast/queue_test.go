package toast

import (
	"testing"
	"time"
)

func TestPushOrderAndIDs(t *testing.T) {
	q := New(time.Hour)
	defer q.Close()

	a := q.Success("saved")
	b := q.Error("failed")
	c := q.Success("again")

	if !(a.ID < b.ID && b.ID < c.ID) {
		t.Fatalf("ids not increasing: %d %d %d", a.ID, b.ID, c.ID)
	}

	list := q.List()
	if len(list) != 3 {
		t.Fatalf("List() len = %d, want 3", len(list))
	}
	for i, want := range []Toast{a, b, c} {
		if list[i].ID != want.ID || list[i].Type != want.Type {
			t.Errorf("List()[%d] = %+v, want %+v", i, list[i], want)
		}
	}
}

func TestDismiss(t *testing.T) {
	q := New(time.Hour)
	defer q.Close()

	a := q.Success("one")
	b := q.Success("two")

	if !q.Dismiss(a.ID) {
		t.Fatalf("Dismiss() = false for a visible toast")
	}
	if q.Dismiss(a.ID) {
		t.Errorf("Dismiss() = true for an already dismissed toast")
	}
	list := q.List()
	if len(list) != 1 || list[0].ID != b.ID {
		t.Errorf("List() = %+v", list)
	}

	c := q.Success("three")
	if c.ID <= b.ID {
		t.Errorf("ids must not be reused after dismissal")
	}
}

func TestExpiry(t *testing.T) {
	q := New(20 * time.Millisecond)
	defer q.Close()

	q.Error("gone soon")
	if len(q.List()) != 1 {
		t.Fatalf("toast should be visible right after push")
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(q.List()) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("toast did not expire")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestOnPushAndClose(t *testing.T) {
	var seen []Type
	q := New(time.Hour, OnPush(func(t Type) { seen = append(seen, t) }))

	q.Success("x")
	q.Error("y")
	q.Close()
	q.Success("after close")

	if len(seen) != 3 || seen[1] != Error {
		t.Errorf("hook saw %v", seen)
	}
	if len(q.List()) != 0 {
		t.Errorf("closed queue should show nothing")
	}
}
