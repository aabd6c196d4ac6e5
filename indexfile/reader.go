package indexfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/lexgo/memoryindex"
	"github.com/hupe1980/lexgo/schema"
)

// ErrCorrupt is returned when the stream violates the dump format.
var ErrCorrupt = errors.New("indexfile: corrupt stream")

const (
	// maxFieldNameLen bounds the field name length a reader accepts.
	maxFieldNameLen = 1 << 16
	// maxSectionSize bounds one field section's raw payload. Headers are
	// validated against it before any allocation, so a corrupt length
	// cannot force a huge make.
	maxSectionSize = 1 << 28
)

// Posting is one decoded document hit of the current word.
type Posting struct {
	DocID       uint32
	FieldLength uint32
	Occurrences []memoryindex.Occurrence
}

// Reader walks a dump stream written by Writer: NextField, then NextWord
// until it reports false, then NextPosting until it reports false.
// Calling NextField early skips the rest of the current field.
type Reader struct {
	r     *bufio.Reader
	codec Codec

	headerDone bool
	payload    []byte // current field, decompressed
	words      uint64 // words left in the field
	posts      uint64 // postings left in the word
	prevDocID  uint32
}

// NewReader creates a dump reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

func (dr *Reader) readHeader() error {
	if dr.headerDone {
		return nil
	}

	var head [5]byte
	if _, err := io.ReadFull(dr.r, head[:]); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if [4]byte(head[:4]) != magic {
		return fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	codec := Codec(head[4])
	if !codec.valid() {
		return fmt.Errorf("%w: unknown codec %d", ErrCorrupt, head[4])
	}

	dr.codec = codec
	dr.headerDone = true
	return nil
}

// Codec returns the stream's codec. Valid after the first NextField call.
func (dr *Reader) Codec() Codec {
	return dr.codec
}

// NextField advances to the next field section. It returns false when the
// stream terminator was reached.
func (dr *Reader) NextField() (schema.Field, bool, error) {
	if err := dr.readHeader(); err != nil {
		return schema.Field{}, false, err
	}

	nameLen, err := binary.ReadUvarint(dr.r)
	if err != nil {
		return schema.Field{}, false, fmt.Errorf("read field header: %w", err)
	}
	if nameLen == 0 {
		return schema.Field{}, false, nil
	}
	if nameLen > maxFieldNameLen {
		return schema.Field{}, false, fmt.Errorf("%w: field name length %d", ErrCorrupt, nameLen)
	}

	name := make([]byte, nameLen)
	if _, err := io.ReadFull(dr.r, name); err != nil {
		return schema.Field{}, false, fmt.Errorf("read field name: %w", err)
	}
	var kind [2]byte
	if _, err := io.ReadFull(dr.r, kind[:]); err != nil {
		return schema.Field{}, false, fmt.Errorf("read field kind: %w", err)
	}

	numWords, err := binary.ReadUvarint(dr.r)
	if err != nil {
		return schema.Field{}, false, fmt.Errorf("read word count: %w", err)
	}
	rawLen, err := binary.ReadUvarint(dr.r)
	if err != nil {
		return schema.Field{}, false, fmt.Errorf("read payload size: %w", err)
	}
	compLen, err := binary.ReadUvarint(dr.r)
	if err != nil {
		return schema.Field{}, false, fmt.Errorf("read block size: %w", err)
	}
	if rawLen > maxSectionSize {
		return schema.Field{}, false, fmt.Errorf("%w: payload size %d", ErrCorrupt, rawLen)
	}
	if compLen >= rawLen && compLen != 0 {
		// Compressed blocks are only stored when they shrink; anything else
		// is stored raw with compLen 0.
		return schema.Field{}, false, fmt.Errorf("%w: block size %d for payload %d", ErrCorrupt, compLen, rawLen)
	}

	if compLen == 0 {
		payload := make([]byte, rawLen)
		if _, err := io.ReadFull(dr.r, payload); err != nil {
			return schema.Field{}, false, fmt.Errorf("read payload: %w", err)
		}
		dr.payload = payload
	} else {
		block := make([]byte, compLen)
		if _, err := io.ReadFull(dr.r, block); err != nil {
			return schema.Field{}, false, fmt.Errorf("read block: %w", err)
		}
		payload, err := decompressBlock(block, int(rawLen), dr.codec)
		if err != nil {
			return schema.Field{}, false, err
		}
		dr.payload = payload
	}

	dr.words = numWords
	dr.posts = 0

	field := schema.Field{
		Name:       string(name),
		Type:       schema.DataType(kind[0]),
		Collection: schema.CollectionType(kind[1]),
	}
	return field, true, nil
}

func (dr *Reader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(dr.payload)
	if n <= 0 {
		return 0, fmt.Errorf("%w: truncated payload", ErrCorrupt)
	}
	dr.payload = dr.payload[n:]
	return v, nil
}

func (dr *Reader) varint() (int64, error) {
	v, n := binary.Varint(dr.payload)
	if n <= 0 {
		return 0, fmt.Errorf("%w: truncated payload", ErrCorrupt)
	}
	dr.payload = dr.payload[n:]
	return v, nil
}

// NextWord advances to the next word of the current field, skipping any
// unread postings. It returns false when the field is exhausted.
func (dr *Reader) NextWord() (string, bool, error) {
	for dr.posts > 0 {
		if _, _, err := dr.NextPosting(); err != nil {
			return "", false, err
		}
	}
	if dr.words == 0 {
		return "", false, nil
	}
	dr.words--

	wordLen, err := dr.uvarint()
	if err != nil {
		return "", false, err
	}
	if uint64(len(dr.payload)) < wordLen {
		return "", false, fmt.Errorf("%w: truncated word", ErrCorrupt)
	}
	word := string(dr.payload[:wordLen])
	dr.payload = dr.payload[wordLen:]

	if dr.posts, err = dr.uvarint(); err != nil {
		return "", false, err
	}
	dr.prevDocID = 0
	return word, true, nil
}

// NextPosting decodes the next posting of the current word. It returns
// false when the word is exhausted.
func (dr *Reader) NextPosting() (Posting, bool, error) {
	if dr.posts == 0 {
		return Posting{}, false, nil
	}
	dr.posts--

	delta, err := dr.uvarint()
	if err != nil {
		return Posting{}, false, err
	}
	fieldLength, err := dr.uvarint()
	if err != nil {
		return Posting{}, false, err
	}
	numOcc, err := dr.uvarint()
	if err != nil {
		return Posting{}, false, err
	}

	p := Posting{
		DocID:       dr.prevDocID + uint32(delta),
		FieldLength: uint32(fieldLength),
	}
	dr.prevDocID = p.DocID

	if numOcc > 0 {
		p.Occurrences = make([]memoryindex.Occurrence, 0, numOcc)
		pos := uint32(0)
		for i := uint64(0); i < numOcc; i++ {
			posDelta, err := dr.uvarint()
			if err != nil {
				return Posting{}, false, err
			}
			weight, err := dr.varint()
			if err != nil {
				return Posting{}, false, err
			}
			pos += uint32(posDelta)
			p.Occurrences = append(p.Occurrences, memoryindex.Occurrence{
				Position: pos,
				Weight:   int32(weight),
			})
		}
	}
	return p, true, nil
}
