// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package amlog binds am/pal.Logger to logiface, using stumpy as the
// JSON sink every other package in this module writes its fatal-fault
// dumps and optional dispatch traces through.
package amlog

import (
	"fmt"
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"code.hybscloud.com/am/event"
	"code.hybscloud.com/am/hsm"
)

// flusher is satisfied by *bufio.Writer and similar buffered sinks;
// Logger.Flush no-ops when the underlying writer doesn't buffer.
type flusher interface{ Flush() error }

// Logger wraps a logiface.Logger[*stumpy.Event] to satisfy am/pal.Logger
// (Printf/Flush), the narrow interface every package in this module logs
// fatal faults through.
type Logger struct {
	l *logiface.Logger[*stumpy.Event]
	f flusher
}

// New builds a Logger writing newline-delimited JSON to w. Pass nil to
// log to os.Stderr.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	fl, _ := w.(flusher)
	return &Logger{
		l: stumpy.L.New(
			stumpy.L.WithStumpy(stumpy.WithWriter(w)),
			stumpy.L.WithLevel(stumpy.L.LevelTrace()),
		),
		f: fl,
	}
}

// Printf formats and logs at error level — this module's only caller is
// a fatal-fault dump immediately before the process aborts, so anything
// reaching Printf is already an error by definition.
func (lg *Logger) Printf(format string, args ...any) {
	lg.l.Err().Log(fmt.Sprintf(format, args...))
}

// Flush flushes the underlying writer if it buffers.
func (lg *Logger) Flush() {
	if lg.f != nil {
		_ = lg.f.Flush()
	}
}

// Spy returns an hsm.Spy that logs every dispatched event at debug
// level — wire it in with (*hsm.HSM).SetSpy during development; leave
// it unset in production, since the spy runs inside the dispatcher's
// reentrancy guard on every single event.
func (lg *Logger) Spy() hsm.Spy {
	return func(h *hsm.HSM, e *event.Event) {
		lg.l.Debug().Int64(`event_id`, int64(e.ID())).Log(`hsm dispatch`)
	}
}
