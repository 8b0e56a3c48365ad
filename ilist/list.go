// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ilist provides a singly-linked intrusive list.
//
// The list never allocates: callers embed a Node in the struct they want
// to link (such as a free pool block) and pass pointers to that Node
// around. This is the data structure code.hybscloud.com/am/pool uses for
// its free lists; code.hybscloud.com/am/timer keeps its per-domain
// armed/pending lists in its own *Timer-typed list instead.
package ilist

// Node is an intrusive singly-linked list node. Embed it by value in the
// struct to be linked; the zero value is an unlinked node.
type Node struct {
	next *Node
}

// IsLinked reports whether n is currently a member of some List.
func (n *Node) IsLinked() bool {
	return n.next != nil
}

// List is a singly-linked FIFO list of intrusively embedded Nodes.
//
// The zero value is an empty list, ready to use. List is not safe for
// concurrent use; callers (am/pool) serialize access with the platform
// critical section.
type List struct {
	head *Node
	tail *Node
}

// IsEmpty reports whether the list has no elements.
func (l *List) IsEmpty() bool {
	return l.head == nil
}

// PushBack appends n to the tail of the list. n must not already be linked.
func (l *List) PushBack(n *Node) {
	if n.next != nil {
		panic("ilist: node already linked")
	}
	n.next = n // self-loop marks "linked, last element" until appended after
	if l.tail == nil {
		l.head = n
		l.tail = n
		return
	}
	l.tail.next = n
	l.tail = n
}

// PushFront prepends n to the head of the list. n must not already be linked.
func (l *List) PushFront(n *Node) {
	if n.next != nil {
		panic("ilist: node already linked")
	}
	if l.head == nil {
		n.next = n
		l.head = n
		l.tail = n
		return
	}
	n.next = l.head
	l.head = n
}

// PopFront removes and returns the head element, or nil if the list is empty.
func (l *List) PopFront() *Node {
	n := l.head
	if n == nil {
		return nil
	}
	l.remove(nil, n)
	return n
}

// Append moves every element of other onto the tail of l, leaving other
// empty.
func (l *List) Append(other *List) {
	if other.head == nil {
		return
	}
	if l.head == nil {
		l.head = other.head
		l.tail = other.tail
	} else {
		l.tail.next = other.head
		l.tail = other.tail
	}
	other.head = nil
	other.tail = nil
}

// Iterator walks a List from head to tail, supporting removal of the
// current element mid-iteration.
type Iterator struct {
	list *List
	prev *Node
	cur  *Node
}

// Iterate returns an Iterator positioned before the first element.
func (l *List) Iterate() Iterator {
	return Iterator{list: l}
}

// Next advances the iterator and returns the next node, or nil when
// iteration is exhausted. Next must be called before the first Remove.
func (it *Iterator) Next() *Node {
	if it.cur != nil {
		it.prev = it.cur
	}
	var n *Node
	if it.prev == nil {
		n = it.list.head
	} else {
		n = it.prev.next
		if n == it.prev {
			// prev was the sole/last element (self-loop sentinel).
			n = nil
		}
	}
	it.cur = n
	return n
}

// Remove unlinks the node last returned by Next and advances prev so
// iteration can continue.
func (it *Iterator) Remove() {
	if it.cur == nil {
		panic("ilist: Remove called without a current node")
	}
	it.list.remove(it.prev, it.cur)
	it.cur = nil
}

// remove unlinks n, given its predecessor prev (nil if n is the head).
func (l *List) remove(prev *Node, n *Node) {
	var next *Node
	if n.next != n {
		next = n.next
	}
	if prev == nil {
		l.head = next
	} else {
		prev.next = next
	}
	if l.tail == n {
		l.tail = prev
		if prev != nil {
			prev.next = prev // new last element keeps the self-loop mark
		}
	}
	n.next = nil
}
