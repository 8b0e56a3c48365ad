// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ilist

import "testing"

type item struct {
	Node
	val int
}

func TestPushBackPopFront(t *testing.T) {
	var l List
	if !l.IsEmpty() {
		t.Fatal("expected empty list")
	}
	a, b, c := &item{val: 1}, &item{val: 2}, &item{val: 3}
	l.PushBack(&a.Node)
	l.PushBack(&b.Node)
	l.PushBack(&c.Node)

	if !a.Node.IsLinked() {
		t.Fatal("expected a linked")
	}

	var got []int
	for n := l.PopFront(); n != nil; n = l.PopFront() {
		// recover the owning item via the list ordering we pushed in.
		switch n {
		case &a.Node:
			got = append(got, a.val)
		case &b.Node:
			got = append(got, b.val)
		case &c.Node:
			got = append(got, c.val)
		}
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("unexpected pop order: %v", got)
	}
	if !l.IsEmpty() {
		t.Fatal("expected list empty after draining")
	}
}

func TestPushFront(t *testing.T) {
	var l List
	a, b := &item{val: 1}, &item{val: 2}
	l.PushBack(&a.Node)
	l.PushFront(&b.Node)
	if n := l.PopFront(); n != &b.Node {
		t.Fatal("expected b to be popped first")
	}
	if n := l.PopFront(); n != &a.Node {
		t.Fatal("expected a to be popped second")
	}
}

func TestAppend(t *testing.T) {
	var l1, l2 List
	a, b, c := &item{val: 1}, &item{val: 2}, &item{val: 3}
	l1.PushBack(&a.Node)
	l2.PushBack(&b.Node)
	l2.PushBack(&c.Node)

	l1.Append(&l2)
	if !l2.IsEmpty() {
		t.Fatal("expected l2 drained after Append")
	}
	var got []*Node
	for n := l1.PopFront(); n != nil; n = l1.PopFront() {
		got = append(got, n)
	}
	if len(got) != 3 || got[0] != &a.Node || got[1] != &b.Node || got[2] != &c.Node {
		t.Fatal("unexpected order after Append")
	}
}

func TestAppendOntoEmpty(t *testing.T) {
	var l1, l2 List
	a := &item{val: 1}
	l2.PushBack(&a.Node)
	l1.Append(&l2)
	if l1.IsEmpty() {
		t.Fatal("expected l1 non-empty")
	}
	if n := l1.PopFront(); n != &a.Node {
		t.Fatal("expected a")
	}
}

func TestIteratorRemoveMiddle(t *testing.T) {
	var l List
	a, b, c := &item{val: 1}, &item{val: 2}, &item{val: 3}
	l.PushBack(&a.Node)
	l.PushBack(&b.Node)
	l.PushBack(&c.Node)

	it := l.Iterate()
	for n := it.Next(); n != nil; n = it.Next() {
		if n == &b.Node {
			it.Remove()
		}
	}
	if b.Node.IsLinked() {
		t.Fatal("expected b unlinked after Remove")
	}
	var got []*Node
	for n := l.PopFront(); n != nil; n = l.PopFront() {
		got = append(got, n)
	}
	if len(got) != 2 || got[0] != &a.Node || got[1] != &c.Node {
		t.Fatalf("unexpected remaining order: %v", got)
	}
}

func TestIteratorRemoveHead(t *testing.T) {
	var l List
	a, b := &item{val: 1}, &item{val: 2}
	l.PushBack(&a.Node)
	l.PushBack(&b.Node)

	it := l.Iterate()
	n := it.Next()
	if n != &a.Node {
		t.Fatal("expected a first")
	}
	it.Remove()
	if n := l.PopFront(); n != &b.Node {
		t.Fatal("expected b to remain")
	}
}

func TestPushBackPanicsWhenAlreadyLinked(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	var l List
	a := &item{val: 1}
	l.PushBack(&a.Node)
	l.PushBack(&a.Node)
}
