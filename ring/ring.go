// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ring implements a byte-region single-producer single-consumer
// ring buffer: the producer claims a contiguous write region, fills it
// directly (no intermediate copy), and flushes the bytes it actually
// used; the consumer claims a contiguous read region the same way and
// seeks past the bytes it consumed. One byte of capacity is always held
// back to distinguish a full ring from an empty one.
package ring

import (
	"code.hybscloud.com/am/internal/pad"
	"code.hybscloud.com/atomix"
)

// Ring is a fixed-capacity byte ring over a caller-provided buffer.
// ReadOffset is written only by the consumer, WriteOffset and ReadSkip
// only by the producer; each is laid out on its own cache line so
// producer and consumer cores never bounce the same line, following the
// same layout convention as the lfq package's SPSC.
type Ring struct {
	_          pad.Line
	readOffset atomix.Uint64 // consumer-owned
	_          pad.AfterUint64
	writeOffset atomix.Uint64 // producer-owned
	_           pad.AfterUint64
	readSkip atomix.Uint64 // producer-owned; read by the consumer's wrap check
	_        pad.AfterUint64
	dropped atomix.Uint64
	_       pad.AfterUint64

	buf []byte
}

// New wraps buf as a ring buffer. len(buf) must be at least 2; the
// usable capacity is len(buf)-1.
func New(buf []byte) *Ring {
	if len(buf) < 2 {
		panic("ring: buffer must be at least 2 bytes")
	}
	return &Ring{buf: buf}
}

// Cap returns the usable capacity in bytes (len(buf) - 1).
func (r *Ring) Cap() int { return len(r.buf) - 1 }

// GetReadPtr returns the contiguous run of unread bytes starting at the
// read offset, or nil if there is nothing to read. The run may be
// shorter than GetDataSize when the unread data wraps around the end
// of the buffer — call GetReadPtr again after Seek to reach the rest.
// The caller may read, but must not retain, the returned slice past the
// next Seek call.
func (r *Ring) GetReadPtr() []byte {
	rd := int(r.readOffset.LoadAcquire())
	wr := int(r.writeOffset.LoadAcquire())
	if rd == wr {
		return nil
	}
	if rd <= wr {
		return r.buf[rd:wr]
	}
	rds := int(r.readSkip.LoadAcquire())
	if avail := len(r.buf) - rd - rds; avail > 0 {
		return r.buf[rd : rd+avail]
	}
	// The producer has wrapped and left no more bytes at the tail for
	// this reader to see; fast-forward the read offset to the front.
	r.readOffset.StoreRelease(0)
	if wr == 0 {
		return nil
	}
	return r.buf[0:wr]
}

// Seek advances the read offset by n bytes, returning that much space
// to the producer. n must not exceed the size last returned by
// GetReadPtr (or the sum across repeated calls since the last Seek).
func (r *Ring) Seek(n int) {
	if n == 0 {
		return
	}
	rd := int(r.readOffset.LoadAcquire())
	wr := int(r.writeOffset.LoadAcquire())
	if rd > wr {
		rds := int(r.readSkip.LoadAcquire())
		avail := len(r.buf) - rd - rds
		if n > avail {
			n = avail
		}
		rd = (rd + n) % (len(r.buf) - rds)
	} else {
		avail := wr - rd
		if n > avail {
			n = avail
		}
		rd += n
	}
	r.readOffset.StoreRelease(uint64(rd))
}

// GetWritePtr returns a contiguous writable region of at least size
// bytes starting at the write offset, or nil if no such contiguous run
// exists right now (the caller should retry with a smaller size, or
// drop the write and count it via AddDropped). The returned slice may
// be longer than size; the producer may use as much of it as it wants,
// reporting the actual amount used to Flush.
func (r *Ring) GetWritePtr(size int) []byte {
	rd := int(r.readOffset.LoadAcquire())
	wr := int(r.writeOffset.LoadAcquire())
	n := len(r.buf)

	if wr >= rd {
		avail := n - wr
		if rd == 0 {
			avail = n - 1 - wr
		}
		if avail >= size {
			r.readSkip.StoreRelease(0)
			return r.buf[wr : wr+avail]
		}
		if rd <= size {
			return nil
		}
		r.readSkip.StoreRelease(uint64(avail))
		r.writeOffset.StoreRelease(0)
		wr = 0
	}

	avail := rd - wr - 1
	if avail >= size {
		return r.buf[wr : wr+avail]
	}
	return nil
}

// Flush advances the write offset by n bytes, making that much newly
// written data visible to the consumer. n must not exceed the size of
// the region GetWritePtr last returned.
func (r *Ring) Flush(n int) {
	if n == 0 {
		return
	}
	rd := int(r.readOffset.LoadAcquire())
	wr := int(r.writeOffset.LoadAcquire())
	buflen := len(r.buf)

	if wr >= rd {
		wr = (wr + n) % buflen
	} else {
		wr += n
	}
	r.writeOffset.StoreRelease(uint64(wr))
}

// GetDataSize returns the total number of unread bytes, possibly spread
// across a wrap (unlike GetReadPtr, which reports only the first
// contiguous run).
func (r *Ring) GetDataSize() int {
	rd := int(r.readOffset.LoadAcquire())
	wr := int(r.writeOffset.LoadAcquire())
	if rd <= wr {
		return wr - rd
	}
	rds := int(r.readSkip.LoadAcquire())
	return len(r.buf) - rd - rds + wr
}

// GetFreeSize returns the total number of bytes available for writing,
// including the tail bytes the producer skipped when it last wrapped
// (readSkip), which become writable again once the consumer wraps.
// GetDataSize() + GetFreeSize() always equals Cap().
func (r *Ring) GetFreeSize() int {
	rd := int(r.readOffset.LoadAcquire())
	wr := int(r.writeOffset.LoadAcquire())
	if wr >= rd {
		return len(r.buf) - 1 - wr + rd
	}
	rds := int(r.readSkip.LoadAcquire())
	return rd - wr - 1 + rds
}

// AddDropped adds n to the dropped-byte counter, for a producer that
// chose to discard a write rather than block or overwrite.
func (r *Ring) AddDropped(n int) {
	r.dropped.StoreRelease(r.dropped.LoadAcquire() + uint64(n))
}

// Dropped returns the current dropped-byte count.
func (r *Ring) Dropped() int { return int(r.dropped.LoadAcquire()) }

// ClearDropped resets the dropped-byte count to zero.
func (r *Ring) ClearDropped() { r.dropped.StoreRelease(0) }
