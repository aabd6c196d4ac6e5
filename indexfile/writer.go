package indexfile

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/time/rate"

	"github.com/hupe1980/lexgo/memoryindex"
	"github.com/hupe1980/lexgo/schema"
)

// File layout:
//
//	magic "LXD1" | codec byte
//	per field:
//	  uvarint len(name) | name | type byte | collection byte
//	  uvarint wordCount
//	  uvarint rawLen | uvarint compLen | payload   (compLen 0: stored raw)
//	terminator: uvarint 0
//
// The payload holds wordCount words: uvarint len(word), word, uvarint
// postingCount, then per posting uvarint docID delta, uvarint fieldLength,
// uvarint occurrence count and per occurrence uvarint position delta plus
// varint weight.

var magic = [4]byte{'L', 'X', 'D', '1'}

// ErrBuilderState is returned when builder calls arrive out of order.
var ErrBuilderState = errors.New("indexfile: builder calls out of order")

type writerOptions struct {
	codec        Codec
	rateLimit    int
	rateLimitCtx context.Context
}

// WriterOption configures a Writer.
type WriterOption func(*writerOptions)

// WithCodec selects the payload compression. Defaults to CodecZstd.
func WithCodec(c Codec) WriterOption {
	return func(o *writerOptions) {
		if c.valid() {
			o.codec = c
		}
	}
}

// WithRateLimit throttles the writer's output to bytesPerSec. ctx bounds
// waits for write tokens; canceling it fails subsequent writes.
func WithRateLimit(ctx context.Context, bytesPerSec int) WriterOption {
	return func(o *writerOptions) {
		if bytesPerSec > 0 {
			o.rateLimit = bytesPerSec
			o.rateLimitCtx = ctx
		}
	}
}

// Writer streams a memory index dump into w. It implements
// memoryindex.IndexBuilder; drive it through MemoryIndex.Dump and finish
// with Close.
type Writer struct {
	w       io.Writer
	codec   Codec
	limiter *rate.Limiter
	limCtx  context.Context

	field      []byte // current field's payload, compressed on EndField
	word       string
	postings   []byte
	numWords   uint64
	numPost    uint64
	prevDocID  uint32
	inField    bool
	inWord     bool
	headerDone bool
	closed     bool

	bytesWritten int64
}

var _ memoryindex.IndexBuilder = (*Writer)(nil)

// NewWriter creates a dump writer over w.
func NewWriter(w io.Writer, optFns ...WriterOption) *Writer {
	opts := writerOptions{codec: CodecZstd}
	for _, fn := range optFns {
		fn(&opts)
	}

	dw := &Writer{w: w, codec: opts.codec}
	if opts.rateLimit > 0 {
		dw.limiter = rate.NewLimiter(rate.Limit(opts.rateLimit), opts.rateLimit)
		dw.limCtx = opts.rateLimitCtx
		if dw.limCtx == nil {
			dw.limCtx = context.Background()
		}
	}
	return dw
}

func (dw *Writer) write(p []byte) error {
	if dw.limiter != nil {
		// Chunk to the limiter's burst so WaitN never fails on size.
		for len(p) > 0 {
			n := min(len(p), dw.limiter.Burst())
			if err := dw.limiter.WaitN(dw.limCtx, n); err != nil {
				return fmt.Errorf("rate limit: %w", err)
			}
			if _, err := dw.w.Write(p[:n]); err != nil {
				return err
			}
			dw.bytesWritten += int64(n)
			p = p[n:]
		}
		return nil
	}

	n, err := dw.w.Write(p)
	dw.bytesWritten += int64(n)
	return err
}

func (dw *Writer) writeHeader() error {
	if dw.headerDone {
		return nil
	}
	dw.headerDone = true
	return dw.write(append(magic[:], byte(dw.codec)))
}

// BeginField starts the section for field. Field names must be non-empty:
// a zero-length name would collide with the stream terminator.
func (dw *Writer) BeginField(field schema.Field) error {
	if dw.closed || dw.inField {
		return ErrBuilderState
	}
	if field.Name == "" {
		return errors.New("indexfile: empty field name")
	}
	if err := dw.writeHeader(); err != nil {
		return err
	}

	header := binary.AppendUvarint(nil, uint64(len(field.Name)))
	header = append(header, field.Name...)
	header = append(header, byte(field.Type), byte(field.Collection))
	if err := dw.write(header); err != nil {
		return err
	}

	dw.inField = true
	dw.field = dw.field[:0]
	dw.numWords = 0
	return nil
}

// BeginWord starts a word inside the current field.
func (dw *Writer) BeginWord(word string) error {
	if !dw.inField || dw.inWord {
		return ErrBuilderState
	}
	dw.inWord = true
	dw.word = word
	dw.postings = dw.postings[:0]
	dw.numPost = 0
	dw.prevDocID = 0
	return nil
}

// AddPosting appends one document hit to the current word.
func (dw *Writer) AddPosting(docID uint32, fieldLength uint32, occurrences []memoryindex.Occurrence) error {
	if !dw.inWord {
		return ErrBuilderState
	}
	if docID <= dw.prevDocID {
		return fmt.Errorf("indexfile: posting doc ids must ascend, got %d after %d", docID, dw.prevDocID)
	}

	buf := binary.AppendUvarint(dw.postings, uint64(docID-dw.prevDocID))
	buf = binary.AppendUvarint(buf, uint64(fieldLength))
	buf = binary.AppendUvarint(buf, uint64(len(occurrences)))
	prevPos := uint32(0)
	for _, occ := range occurrences {
		buf = binary.AppendUvarint(buf, uint64(occ.Position-prevPos))
		buf = binary.AppendVarint(buf, int64(occ.Weight))
		prevPos = occ.Position
	}
	dw.postings = buf
	dw.prevDocID = docID
	dw.numPost++
	return nil
}

// EndWord seals the current word into the field payload.
func (dw *Writer) EndWord() error {
	if !dw.inWord {
		return ErrBuilderState
	}

	buf := binary.AppendUvarint(dw.field, uint64(len(dw.word)))
	buf = append(buf, dw.word...)
	buf = binary.AppendUvarint(buf, dw.numPost)
	buf = append(buf, dw.postings...)
	dw.field = buf

	dw.inWord = false
	dw.numWords++
	return nil
}

// EndField compresses and writes the current field section.
func (dw *Writer) EndField() error {
	if !dw.inField || dw.inWord {
		return ErrBuilderState
	}
	dw.inField = false

	compressed, err := compressBlock(dw.field, dw.codec)
	if err != nil {
		return err
	}

	header := binary.AppendUvarint(nil, dw.numWords)
	header = binary.AppendUvarint(header, uint64(len(dw.field)))
	header = binary.AppendUvarint(header, uint64(len(compressed)))
	if err := dw.write(header); err != nil {
		return err
	}
	if compressed == nil {
		return dw.write(dw.field)
	}
	return dw.write(compressed)
}

// Close finalizes the stream. Closing mid-field is an error; Close is not
// idempotent on errors but further builder calls always fail afterwards.
func (dw *Writer) Close() error {
	if dw.closed {
		return nil
	}
	if dw.inField || dw.inWord {
		dw.closed = true
		return ErrBuilderState
	}
	dw.closed = true

	if err := dw.writeHeader(); err != nil {
		return err
	}
	return dw.write([]byte{0})
}

// BytesWritten returns the number of bytes emitted so far.
func (dw *Writer) BytesWritten() int64 {
	return dw.bytesWritten
}
