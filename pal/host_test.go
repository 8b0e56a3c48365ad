// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pal

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestCreateNotifyWait(t *testing.T) {
	h := NewHost()
	done := make(chan TaskID, 1)
	id := h.Create("worker", 1, func(ctx context.Context, id TaskID) {
		if err := h.Wait(ctx, id); err != nil {
			t.Errorf("Wait: %v", err)
			return
		}
		got, ok := TaskIDFromContext(ctx)
		if !ok || got != id {
			t.Errorf("TaskIDFromContext mismatch: got %v ok=%v want %v", got, ok, id)
		}
		done <- id
	})

	h.Notify(id)
	select {
	case got := <-done:
		if got != id {
			t.Fatalf("expected id %v, got %v", id, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task to observe notify")
	}
}

func TestNotifyBeforeWaitIsNotLost(t *testing.T) {
	h := NewHost()
	released := make(chan struct{})
	id := h.Create("late-waiter", 0, func(ctx context.Context, id TaskID) {
		time.Sleep(20 * time.Millisecond)
		_ = h.Wait(ctx, id)
		close(released)
	})
	h.Notify(id)
	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("notify delivered before wait should not be lost")
	}
}

func TestWaitAllBarrier(t *testing.T) {
	h := NewHost()
	var wg sync.WaitGroup
	const n = 8
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if err := h.WaitAll(context.Background()); err != nil {
				t.Errorf("WaitAll: %v", err)
			}
		}()
	}
	time.Sleep(10 * time.Millisecond)
	h.ReleaseAll()
	h.ReleaseAll() // idempotent

	waitDone := make(chan struct{})
	go func() { wg.Wait(); close(waitDone) }()
	select {
	case <-waitDone:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitAll did not release")
	}
}

func TestCritSectionMutualExclusion(t *testing.T) {
	h := NewHost()
	counter := 0
	var wg sync.WaitGroup
	const n, iters = 16, 200
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				h.Enter()
				counter++
				h.Exit()
			}
		}()
	}
	wg.Wait()
	if counter != n*iters {
		t.Fatalf("expected %d, got %d (lost updates under the section)", n*iters, counter)
	}
}

func TestSleepTillTicksAdvance(t *testing.T) {
	h := NewHost()
	woke := make(chan uint64, 1)
	go func() {
		_ = h.SleepTillTicks(context.Background(), 0, 5)
		woke <- h.Tick(0)
	}()
	time.Sleep(10 * time.Millisecond)
	h.Advance(0, 3)
	select {
	case <-woke:
		t.Fatal("should not have woken before target tick")
	case <-time.After(20 * time.Millisecond):
	}
	h.Advance(0, 3)
	select {
	case got := <-woke:
		if got < 5 {
			t.Fatalf("expected tick >= 5, got %d", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("did not wake after reaching target tick")
	}
}

func TestSleepTillTicksAlreadyPast(t *testing.T) {
	h := NewHost()
	h.Advance(0, 10)
	if err := h.SleepTillTicks(context.Background(), 0, 5); err != nil {
		t.Fatalf("expected immediate return, got %v", err)
	}
}
