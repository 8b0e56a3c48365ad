// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bitset

import "testing"

func TestSetClearTest(t *testing.T) {
	var s Set
	if !s.IsEmpty() {
		t.Fatal("expected empty set")
	}
	s.Set(3)
	s.Set(63)
	if s.IsEmpty() {
		t.Fatal("expected non-empty set")
	}
	if !s.Test(3) || !s.Test(63) {
		t.Fatal("expected bits 3 and 63 set")
	}
	if s.Test(4) {
		t.Fatal("expected bit 4 clear")
	}
	s.Clear(3)
	if s.Test(3) {
		t.Fatal("expected bit 3 cleared")
	}
}

func TestMSB(t *testing.T) {
	var s Set
	if s.MSB() != -1 {
		t.Fatalf("expected -1 for empty set, got %d", s.MSB())
	}
	s.Set(0)
	s.Set(5)
	s.Set(2)
	if got := s.MSB(); got != 5 {
		t.Fatalf("expected MSB 5, got %d", got)
	}
	s.Clear(5)
	if got := s.MSB(); got != 2 {
		t.Fatalf("expected MSB 2, got %d", got)
	}
}

func TestDescendOrderAndEarlyStop(t *testing.T) {
	var s Set
	s.Set(1)
	s.Set(7)
	s.Set(3)

	var got []int
	s.Descend(func(n int) bool {
		got = append(got, n)
		return true
	})
	want := []int{7, 3, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}

	var stopped []int
	s.Descend(func(n int) bool {
		stopped = append(stopped, n)
		return false
	})
	if len(stopped) != 1 || stopped[0] != 7 {
		t.Fatalf("expected early stop after first bit, got %v", stopped)
	}
}

func TestSetPanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range index")
		}
	}()
	var s Set
	s.Set(64)
}
