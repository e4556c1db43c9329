package internal

import (
	"fmt"
	"testing"
)

type emitted struct {
	role Role
	text string
}

func collect(out *[]emitted) func(Role, string) error {
	return func(r Role, s string) error {
		*out = append(*out, emitted{r, s})
		return nil
	}
}

func TestWindow_RingNeverExceedsBefore(t *testing.T) {
	w := newWindow(3, 0)
	var out []emitted
	for i := 0; i < 10; i++ {
		if err := w.feed(fmt.Sprintf("l%d", i), false, collect(&out)); err != nil {
			t.Fatal(err)
		}
		if w.n > 3 {
			t.Fatalf("ring holds %d lines, want <= 3", w.n)
		}
	}
	if len(out) != 0 {
		t.Fatalf("non-matching lines must not be emitted, got %v", out)
	}
	_ = w.feed("M", true, collect(&out))
	want := []emitted{{RoleBefore, "l7"}, {RoleBefore, "l8"}, {RoleBefore, "l9"}, {RoleMatch, "M"}}
	if fmt.Sprint(out) != fmt.Sprint(want) {
		t.Fatalf("oldest must be evicted first, got %v", out)
	}
}

func TestWindow_MatchFlushesInOrderAndClears(t *testing.T) {
	w := newWindow(2, 0)
	var out []emitted
	emit := collect(&out)
	_ = w.feed("a", false, emit)
	_ = w.feed("b", false, emit)
	_ = w.feed("c", false, emit)
	_ = w.feed("M", true, emit)

	want := []emitted{{RoleBefore, "b"}, {RoleBefore, "c"}, {RoleMatch, "M"}}
	if fmt.Sprint(out) != fmt.Sprint(want) {
		t.Fatalf("got %v want %v", out, want)
	}
	if w.n != 0 {
		t.Fatal("buffer must be cleared after a match")
	}
}

func TestWindow_AfterCountdown(t *testing.T) {
	w := newWindow(0, 2)
	var out []emitted
	emit := collect(&out)
	_ = w.feed("M", true, emit)
	if w.remaining != 2 {
		t.Fatalf("countdown after match = %d, want 2", w.remaining)
	}
	_ = w.feed("x", false, emit)
	if w.remaining != 1 {
		t.Fatalf("countdown = %d, want 1", w.remaining)
	}
	_ = w.feed("y", false, emit)
	_ = w.feed("z", false, emit)
	if w.remaining != 0 {
		t.Fatalf("countdown = %d, want 0", w.remaining)
	}
	want := []emitted{{RoleMatch, "M"}, {RoleAfter, "x"}, {RoleAfter, "y"}}
	if fmt.Sprint(out) != fmt.Sprint(want) {
		t.Fatalf("got %v want %v", out, want)
	}
}

func TestWindow_MatchInsideAfterResetsCountdown(t *testing.T) {
	w := newWindow(1, 2)
	var out []emitted
	emit := collect(&out)
	_ = w.feed("M1", true, emit)
	_ = w.feed("a", false, emit)
	_ = w.feed("M2", true, emit)
	_ = w.feed("b", false, emit)
	_ = w.feed("c", false, emit)
	_ = w.feed("d", false, emit)

	want := []emitted{{RoleMatch, "M1"}, {RoleAfter, "a"}, {RoleMatch, "M2"}, {RoleAfter, "b"}, {RoleAfter, "c"}}
	if fmt.Sprint(out) != fmt.Sprint(want) {
		t.Fatalf("got %v want %v", out, want)
	}
	out = out[:0]
	_ = w.feed("M3", true, emit)
	if fmt.Sprint(out) != fmt.Sprint([]emitted{{RoleBefore, "d"}, {RoleMatch, "M3"}}) {
		t.Fatalf("line after the countdown must be buffered, got %v", out)
	}
}
