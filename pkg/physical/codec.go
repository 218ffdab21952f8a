package physical

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/pierrec/lz4/v4"
)

// StringFieldWidth bounds the payload bytes of a String value so a tuple's
// serialized size is a schema-known constant regardless of actual string
// content: strings are truncated to, and zero-padded up to, this width.
const StringFieldWidth = 256

// frameHeaderSize is [uint32 tupleCount][uint32 compressedLen].
const frameHeaderSize = 8

// WriteBatch writes one length-prefixed, lz4-compressed frame (§4.6,
// §6 "Spill file format"):
//
//	[uint32 tupleCount][uint32 compressedLen][lz4(payload)]
//
// where payload is the concatenation of each tuple's fixed/length-prefixed
// field encoding. Compression is grounded on harshithgowdakt-GranuleDB's
// use of the same library for block compression.
func WriteBatch(w io.Writer, schema *Schema, b *Batch) error {
	var payload bytes.Buffer
	for _, t := range b.Tuples {
		if err := encodeTuple(&payload, schema, t); err != nil {
			return err
		}
	}

	var compressed bytes.Buffer
	zw := lz4.NewWriter(&compressed)
	if _, err := zw.Write(payload.Bytes()); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(len(b.Tuples)))
	binary.BigEndian.PutUint32(header[4:8], uint32(compressed.Len()))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(compressed.Bytes())
	return err
}

// ReadBatch reads one frame written by WriteBatch. It returns (nil, nil) at
// a clean end-of-run — EOF exactly at a frame boundary, or a zero-tuple
// frame — mirroring the original's batch.isEmpty() end marker. Any other
// error is returned to the caller, who (per §4.3/§7, once past Open) treats
// it the same as end-of-stream.
func ReadBatch(r io.Reader, schema *Schema, capacity int) (*Batch, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	count := binary.BigEndian.Uint32(header[0:4])
	compressedLen := binary.BigEndian.Uint32(header[4:8])
	if count == 0 {
		return nil, nil
	}

	compressed := make([]byte, compressedLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, err
	}

	zr := lz4.NewReader(bytes.NewReader(compressed))
	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}

	buf := bytes.NewReader(payload)
	if capacity < int(count) {
		capacity = int(count)
	}
	batch := NewBatch(capacity)
	for i := uint32(0); i < count; i++ {
		t, err := decodeTuple(buf, schema)
		if err != nil {
			return nil, err
		}
		if err := batch.Append(t); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

func encodeTuple(w io.Writer, schema *Schema, t *Tuple) error {
	for i := 0; i < schema.NumFields(); i++ {
		tag, err := schema.TagAtIndex(i)
		if err != nil {
			return err
		}
		v := t.Values[i]
		switch tag {
		case TagInt:
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], uint64(v.i))
			if _, err := w.Write(b[:]); err != nil {
				return err
			}
		case TagFloat:
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], math.Float32bits(v.f))
			if _, err := w.Write(b[:]); err != nil {
				return err
			}
		case TagString:
			s := v.s
			if len(s) > StringFieldWidth {
				s = s[:StringFieldWidth]
			}
			var lenBuf [2]byte
			binary.BigEndian.PutUint16(lenBuf[:], uint16(len(s)))
			if _, err := w.Write(lenBuf[:]); err != nil {
				return err
			}
			padded := make([]byte, StringFieldWidth)
			copy(padded, s)
			if _, err := w.Write(padded); err != nil {
				return err
			}
		default:
			return newDataError("encodeTuple", fmt.Sprintf("unsupported value tag %s", tag))
		}
	}
	return nil
}

func decodeTuple(r io.Reader, schema *Schema) (*Tuple, error) {
	values := make([]Value, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		tag, err := schema.TagAtIndex(i)
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagInt:
			var b [8]byte
			if _, err := io.ReadFull(r, b[:]); err != nil {
				return nil, err
			}
			values[i] = IntValue(int64(binary.BigEndian.Uint64(b[:])))
		case TagFloat:
			var b [4]byte
			if _, err := io.ReadFull(r, b[:]); err != nil {
				return nil, err
			}
			values[i] = FloatValue(math.Float32frombits(binary.BigEndian.Uint32(b[:])))
		case TagString:
			var lenBuf [2]byte
			if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
				return nil, err
			}
			n := binary.BigEndian.Uint16(lenBuf[:])
			padded := make([]byte, StringFieldWidth)
			if _, err := io.ReadFull(r, padded); err != nil {
				return nil, err
			}
			values[i] = StringValue(string(padded[:n]))
		default:
			return nil, newDataError("decodeTuple", fmt.Sprintf("unsupported value tag %s", tag))
		}
	}
	return NewTuple(values), nil
}
