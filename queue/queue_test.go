// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"testing"

	"code.hybscloud.com/am"
)

func TestPushBackPopFrontOrder(t *testing.T) {
	q := New[int](make([]int, 4))
	for _, v := range []int{1, 2, 3} {
		if err := q.PushBack(v); err != nil {
			t.Fatalf("PushBack(%d): %v", v, err)
		}
	}
	for _, want := range []int{1, 2, 3} {
		got, err := q.PopFront()
		if err != nil {
			t.Fatalf("PopFront: %v", err)
		}
		if got != want {
			t.Fatalf("PopFront: got %d want %d", got, want)
		}
	}
	if !q.IsEmpty() {
		t.Fatal("expected empty")
	}
}

func TestPushFrontPriority(t *testing.T) {
	q := New[int](make([]int, 4))
	_ = q.PushBack(1)
	_ = q.PushBack(2)
	_ = q.PushFront(0)
	got, _ := q.PopFront()
	if got != 0 {
		t.Fatalf("expected 0 popped first, got %d", got)
	}
}

func TestFullReturnsWouldBlock(t *testing.T) {
	q := New[int](make([]int, 2))
	if err := q.PushBack(1); err != nil {
		t.Fatal(err)
	}
	if err := q.PushBack(2); err != nil {
		t.Fatal(err)
	}
	if err := q.PushBack(3); err != am.ErrWouldBlock {
		t.Fatalf("expected ErrWouldBlock, got %v", err)
	}
}

func TestEmptyPopReturnsWouldBlock(t *testing.T) {
	q := New[int](make([]int, 2))
	if _, err := q.PopFront(); err != am.ErrWouldBlock {
		t.Fatalf("expected ErrWouldBlock, got %v", err)
	}
}

func TestWrapAround(t *testing.T) {
	q := New[int](make([]int, 3))
	_ = q.PushBack(1)
	_ = q.PushBack(2)
	v, _ := q.PopFront()
	if v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}
	_ = q.PushBack(3)
	_ = q.PushBack(4)
	if q.Room() != 0 {
		t.Fatalf("expected full, room=%d", q.Room())
	}
	var got []int
	for {
		v, err := q.PopFront()
		if err != nil {
			break
		}
		got = append(got, v)
	}
	if len(got) != 3 || got[0] != 2 || got[1] != 3 || got[2] != 4 {
		t.Fatalf("unexpected order after wraparound: %v", got)
	}
}

func TestDrain(t *testing.T) {
	q := New[int](make([]int, 4))
	_ = q.PushBack(1)
	_ = q.PushBack(2)
	_ = q.PushBack(3)
	var got []int
	q.Drain(func(v int) { got = append(got, v) })
	if len(got) != 3 {
		t.Fatalf("expected 3 drained, got %v", got)
	}
	if !q.IsEmpty() {
		t.Fatal("expected empty after Drain")
	}
}

func TestRoomAndCap(t *testing.T) {
	q := New[int](make([]int, 5))
	if q.Cap() != 5 {
		t.Fatalf("expected cap 5, got %d", q.Cap())
	}
	_ = q.PushBack(1)
	if q.Room() != 4 {
		t.Fatalf("expected room 4, got %d", q.Room())
	}
}
