package memoryindex

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/lexgo/internal/generation"
)

// DefaultFeatureBufferSize is the capacity of one feature store buffer.
const DefaultFeatureBufferSize = 64 << 10

// FeatureRef locates one encoded feature blob inside a FeatureStore. The
// high 32 bits select the buffer, the low 32 bits the byte offset.
type FeatureRef uint64

func makeFeatureRef(buffer, offset uint32) FeatureRef {
	return FeatureRef(buffer)<<32 | FeatureRef(offset)
}

func (r FeatureRef) buffer() uint32 { return uint32(r >> 32) }
func (r FeatureRef) offset() uint32 { return uint32(r) }

// TermFeatures is the decoded occurrence data of one term in one document
// field: the field's total token count and the term's hits.
type TermFeatures struct {
	FieldLength uint32
	Occurrences []Occurrence
}

// featureBuffer is a fixed-size byte arena. data is full-length from
// construction so readers never observe a changing slice header; used,
// dead and sealed are touched only by the owning push worker.
type featureBuffer struct {
	data   []byte
	used   uint32
	dead   uint32
	sealed bool
}

// FeatureStore holds the encoded occurrence data referenced by postings.
//
// Buffers are append-only: the single push worker of the owning field index
// writes, readers decode concurrently through refs published via posting
// snapshots. A sealed buffer whose bytes are all dead is retired through the
// generation handler: it stays visible until every guard that could still
// reach it has been released, and only then is its slot cleared and the
// memory recycled.
type FeatureStore struct {
	buffers   atomic.Pointer[[]*featureBuffer]
	buffersMu sync.Mutex // serializes buffer slice publication
	active    *featureBuffer
	activeIdx uint32
	gen       *generation.Handler
	bufSize   int
	scratch   []byte
	blob      []byte

	allocated atomic.Uint64
	used      atomic.Uint64
	dead      atomic.Uint64
}

var featureBufferPool = sync.Pool{
	New: func() any { return &featureBuffer{} },
}

func newFeatureStore(gen *generation.Handler, bufSize int) *FeatureStore {
	if bufSize <= 0 {
		bufSize = DefaultFeatureBufferSize
	}
	fs := &FeatureStore{gen: gen, bufSize: bufSize}
	fs.addBuffer(bufSize)
	return fs
}

// addBuffer seals the active buffer and appends a fresh one with at least
// the given capacity. Buffer publication is copy-on-write so readers can
// index the slice without locks.
func (fs *FeatureStore) addBuffer(capacity int) {
	if fs.active != nil {
		fs.active.sealed = true
		fs.retireIfDead(fs.active, fs.activeIdx)
	}

	buf := featureBufferPool.Get().(*featureBuffer)
	if cap(buf.data) < capacity {
		buf.data = make([]byte, capacity)
	}
	buf.data = buf.data[:cap(buf.data)]
	buf.used = 0
	buf.dead = 0
	buf.sealed = false

	fs.buffersMu.Lock()
	old := fs.buffers.Load()
	var next []*featureBuffer
	if old != nil {
		next = make([]*featureBuffer, len(*old), len(*old)+1)
		copy(next, *old)
	}
	next = append(next, buf)
	fs.buffers.Store(&next)
	fs.buffersMu.Unlock()

	fs.active = buf
	fs.activeIdx = uint32(len(next) - 1)
	fs.allocated.Add(uint64(cap(buf.data)))
}

// EncodeFeatures appends the encoded form of f and returns its ref. Only
// the owning push worker may call it.
func (fs *FeatureStore) EncodeFeatures(f TermFeatures) FeatureRef {
	payload := fs.scratch[:0]
	payload = binary.AppendUvarint(payload, uint64(f.FieldLength))
	payload = binary.AppendUvarint(payload, uint64(len(f.Occurrences)))
	prev := uint32(0)
	for _, occ := range f.Occurrences {
		payload = binary.AppendUvarint(payload, uint64(occ.Position-prev))
		payload = binary.AppendVarint(payload, int64(occ.Weight))
		prev = occ.Position
	}
	fs.scratch = payload

	blob := binary.AppendUvarint(fs.blob[:0], uint64(len(payload)))
	blob = append(blob, payload...)
	fs.blob = blob

	if int(fs.active.used)+len(blob) > len(fs.active.data) {
		capacity := fs.bufSize
		if len(blob) > capacity {
			capacity = len(blob)
		}
		fs.addBuffer(capacity)
	}

	buf := fs.active
	offset := buf.used
	copy(buf.data[offset:], blob)
	buf.used += uint32(len(blob))
	fs.used.Add(uint64(len(blob)))

	return makeFeatureRef(fs.activeIdx, offset)
}

// DecodeFeatures reads the blob behind ref. Callers must hold a generation
// guard taken before the ref was obtained.
func (fs *FeatureStore) DecodeFeatures(ref FeatureRef) TermFeatures {
	bufs := *fs.buffers.Load()
	buf := bufs[ref.buffer()]
	data := buf.data[ref.offset():]

	payloadLen, n := binary.Uvarint(data)
	data = data[n : n+int(payloadLen)]

	fieldLength, n := binary.Uvarint(data)
	data = data[n:]
	numOcc, n := binary.Uvarint(data)
	data = data[n:]

	f := TermFeatures{FieldLength: uint32(fieldLength)}
	if numOcc > 0 {
		f.Occurrences = make([]Occurrence, 0, numOcc)
		pos := uint32(0)
		for i := uint64(0); i < numOcc; i++ {
			delta, n := binary.Uvarint(data)
			data = data[n:]
			weight, n := binary.Varint(data)
			data = data[n:]
			pos += uint32(delta)
			f.Occurrences = append(f.Occurrences, Occurrence{Position: pos, Weight: int32(weight)})
		}
	}
	return f
}

// MarkDead flags the blob behind ref as unreferenced. When a sealed buffer
// turns entirely dead it is parked on the generation hold list and recycled
// once no reader can reach it. Only the owning push worker may call it.
func (fs *FeatureStore) MarkDead(ref FeatureRef) {
	bufs := *fs.buffers.Load()
	idx := ref.buffer()
	buf := bufs[idx]

	data := buf.data[ref.offset():]
	payloadLen, n := binary.Uvarint(data)
	size := uint32(n) + uint32(payloadLen)

	buf.dead += size
	fs.dead.Add(uint64(size))

	fs.retireIfDead(buf, idx)
}

func (fs *FeatureStore) retireIfDead(buf *featureBuffer, idx uint32) {
	if !buf.sealed || buf.dead == 0 || buf.dead != buf.used {
		return
	}

	size := uint64(cap(buf.data))
	fs.allocated.Add(^(size - 1))
	fs.used.Add(^(uint64(buf.used) - 1))
	fs.dead.Add(^(uint64(buf.dead) - 1))

	// The buffer must stay reachable for readers whose guards predate this
	// retirement: posting snapshots they hold still carry refs into it.
	// Clearing the slot and recycling both wait for the hold to fire.
	fs.gen.Hold(size, func() {
		fs.buffersMu.Lock()
		bufs := *fs.buffers.Load()
		next := make([]*featureBuffer, len(bufs))
		copy(next, bufs)
		next[idx] = nil
		fs.buffers.Store(&next)
		fs.buffersMu.Unlock()

		featureBufferPool.Put(buf)
	})
}

// MemoryUsage reports the store's accounting. OnHold is tracked by the
// owning field index's generation handler, not here.
func (fs *FeatureStore) MemoryUsage() MemoryUsage {
	return MemoryUsage{
		Allocated: fs.allocated.Load(),
		Used:      fs.used.Load(),
		Dead:      fs.dead.Load(),
	}
}

// liveBuffers returns the number of unretired buffers.
func (fs *FeatureStore) liveBuffers() int {
	n := 0
	for _, buf := range *fs.buffers.Load() {
		if buf != nil {
			n++
		}
	}
	return n
}
