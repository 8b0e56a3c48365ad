// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package timer

import (
	"testing"

	"code.hybscloud.com/am/event"
	"code.hybscloud.com/am/pal"
)

func newTestWheel(t *testing.T, posted, published *[]*event.Event) (*Wheel, pal.Platform) {
	t.Helper()
	host := pal.NewHost()
	w := NewWheel(host,
		func(owner int, e *event.Event) { *posted = append(*posted, e) },
		func(e *event.Event) { *published = append(*published, e) },
		nil,
	)
	return w, host
}

func TestArmTicksFiresExactlyOnceThenDisarmed(t *testing.T) {
	var posted, published []*event.Event
	w, _ := newTestWheel(t, &posted, &published)

	e := event.NewStatic(event.UserBase, nil)
	tm := New(e, 0, true, 3)

	w.ArmTicks(tm, 3, 0)
	if !w.IsArmed(tm) {
		t.Fatal("expected timer to be armed immediately after ArmTicks")
	}

	w.Tick(0)
	w.Tick(0)
	if len(posted) != 0 {
		t.Fatalf("expected no fire before the third tick, got %d", len(posted))
	}

	w.Tick(0)
	if len(posted) != 1 {
		t.Fatalf("expected exactly one fire on the third tick, got %d", len(posted))
	}
	if w.IsArmed(tm) {
		t.Fatal("expected a one-shot timer to be disarmed after firing")
	}

	w.Tick(0)
	if len(posted) != 1 {
		t.Fatalf("expected no further fire after a one-shot timer has fired, got %d", len(posted))
	}
}

func TestArmTicksIntervalReloads(t *testing.T) {
	var posted, published []*event.Event
	w, _ := newTestWheel(t, &posted, &published)

	e := event.NewStatic(event.UserBase+1, nil)
	tm := New(e, 0, true, 0)

	w.ArmTicks(tm, 2, 2)
	w.Tick(0)
	w.Tick(0)
	if len(posted) != 1 {
		t.Fatalf("expected one fire after the first period, got %d", len(posted))
	}
	if !w.IsArmed(tm) {
		t.Fatal("expected an interval timer to remain armed after firing")
	}

	w.Tick(0)
	w.Tick(0)
	if len(posted) != 2 {
		t.Fatalf("expected a second fire after the second period, got %d", len(posted))
	}
}

func TestDisarmBeforeFireSuppressesDelivery(t *testing.T) {
	var posted, published []*event.Event
	w, _ := newTestWheel(t, &posted, &published)

	e := event.NewStatic(event.UserBase+2, nil)
	tm := New(e, 0, true, 0)

	w.ArmTicks(tm, 2, 0)
	w.Tick(0)
	w.Disarm(tm)
	w.Tick(0)

	if len(posted) != 0 {
		t.Fatalf("expected disarm before the countdown completes to suppress delivery, got %d posts", len(posted))
	}
	if w.IsArmed(tm) {
		t.Fatal("expected timer to no longer be armed after a disarm takes effect")
	}
}

func TestDisarmIsIdempotent(t *testing.T) {
	var posted, published []*event.Event
	w, _ := newTestWheel(t, &posted, &published)

	e := event.NewStatic(event.UserBase+3, nil)
	tm := New(e, 0, true, 0)

	w.Disarm(tm)
	w.Disarm(tm)
	if w.IsArmed(tm) {
		t.Fatal("expected a never-armed timer to report not armed")
	}

	w.ArmTicks(tm, 1, 0)
	w.Tick(0)
	if len(posted) != 1 {
		t.Fatalf("expected arming after redundant disarms to still fire normally, got %d", len(posted))
	}
}

func TestNoOwnerTimerPublishesInsteadOfPosting(t *testing.T) {
	var posted, published []*event.Event
	w, _ := newTestWheel(t, &posted, &published)

	e := event.NewStatic(event.UserBase+4, nil)
	tm := New(e, 0, false, 0)

	w.ArmTicks(tm, 1, 0)
	w.Tick(0)

	if len(posted) != 0 || len(published) != 1 {
		t.Fatalf("expected an ownerless timer to publish, got posted=%d published=%d", len(posted), len(published))
	}
}

func TestDomainsAreIndependent(t *testing.T) {
	var posted, published []*event.Event
	w, _ := newTestWheel(t, &posted, &published)

	e0 := event.NewStatic(event.UserBase+5, nil)
	e1 := event.NewStatic(event.UserBase+6, nil)
	t0 := New(e0, 0, true, 0)
	t1 := New(e1, 1, true, 0)

	w.ArmTicks(t0, 1, 0)
	w.ArmTicks(t1, 1, 0)

	w.Tick(0)
	if len(posted) != 1 {
		t.Fatalf("expected ticking domain 0 to fire only its own timer, got %d", len(posted))
	}

	w.Tick(1)
	if len(posted) != 2 {
		t.Fatalf("expected ticking domain 1 to fire the remaining timer, got %d", len(posted))
	}
}

func TestReArmWhileAlreadyLinkedUpdatesInPlace(t *testing.T) {
	var posted, published []*event.Event
	w, _ := newTestWheel(t, &posted, &published)

	e := event.NewStatic(event.UserBase+7, nil)
	tm := New(e, 0, true, 0)

	w.ArmTicks(tm, 5, 0)
	w.ArmTicks(tm, 1, 0) // re-arm before the first countdown ever ticks down

	w.Tick(0)
	if len(posted) != 1 {
		t.Fatalf("expected the re-armed shorter countdown to take effect, got %d", len(posted))
	}
}
