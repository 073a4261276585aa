// Package wire implements the binary encoding of metadata records.
//
// A Record is encoded as a tagged, length-delimited message and then
// gzip-compressed before it is handed to the index store. The layout is fixed
// by cross-build compatibility: a consumer must be able to read whatever any
// producer in its dependency graph wrote, so there is no schema negotiation
// and unknown higher field numbers are skipped rather than rejected.
//
// # Layout
//
// Every field is preceded by a varint tag (field<<3 | wiretype). All fields
// the encoder emits use wiretype 2 (length-delimited); the decoder also skips
// wiretypes 0, 1 and 5 so future numeric fields stay forward-compatible.
//
//	Record:  1 = name (UTF-8 bytes, required)
//	         2 = repeated Extra message
//	Extra:   1 = extension key (UTF-8 bytes)
//	         2 = repeated Entry message
//	Entry:   1 = metadata key, 2 = metadata value
//
// Encoding is stable for a given input: extras keep their order and map
// entries are emitted sorted by key. Map-entry order on the wire carries no
// meaning for equality.
package wire

import (
	"encoding/binary"
	"sort"

	"github.com/uber/crumb/pkg/errors"
	"github.com/uber/crumb/pkg/model"
)

// Field numbers of the Record message and its submessages.
const (
	fieldRecordName  = 1
	fieldRecordExtra = 2
	fieldExtraKey    = 1
	fieldExtraEntry  = 2
	fieldEntryKey    = 1
	fieldEntryValue  = 2
)

// Wire types. Only wireBytes is produced; the rest are recognised so the
// decoder can skip unknown fields of any shape.
const (
	wireVarint = 0
	wireI64    = 1
	wireBytes  = 2
	wireI32    = 5
)

// Encode serializes the record into its tagged binary form (uncompressed).
// A record without a name is invalid and cannot be encoded.
func Encode(r model.Record) ([]byte, error) {
	if r.Name == "" {
		return nil, errors.New(errors.ErrCodeInvalidRecord, "record has no name")
	}
	buf := appendBytesField(nil, fieldRecordName, []byte(r.Name))
	for _, extra := range r.Extras {
		buf = appendBytesField(buf, fieldRecordExtra, encodeExtra(extra))
	}
	return buf, nil
}

// Decode parses a tagged binary record. A missing name is a decode error;
// unknown fields are skipped for forward compatibility.
func Decode(data []byte) (model.Record, error) {
	var r model.Record
	rest := data
	for len(rest) > 0 {
		field, wire, n := readTag(rest)
		if n <= 0 {
			return model.Record{}, errors.New(errors.ErrCodeDecodeFailed, "truncated tag")
		}
		rest = rest[n:]

		switch {
		case field == fieldRecordName && wire == wireBytes:
			val, rem, err := readBytes(rest)
			if err != nil {
				return model.Record{}, err
			}
			r.Name = string(val)
			rest = rem
		case field == fieldRecordExtra && wire == wireBytes:
			val, rem, err := readBytes(rest)
			if err != nil {
				return model.Record{}, err
			}
			extra, err := decodeExtra(val)
			if err != nil {
				return model.Record{}, err
			}
			r.Extras = append(r.Extras, extra)
			rest = rem
		default:
			rem, err := skipField(rest, wire)
			if err != nil {
				return model.Record{}, err
			}
			rest = rem
		}
	}
	if r.Name == "" {
		return model.Record{}, errors.New(errors.ErrCodeDecodeFailed, "record name missing")
	}
	return r, nil
}

func encodeExtra(e model.Extra) []byte {
	buf := appendBytesField(nil, fieldExtraKey, []byte(e.Key))

	// Sorted keys keep the encoding deterministic for a given record.
	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entry := appendBytesField(nil, fieldEntryKey, []byte(k))
		entry = appendBytesField(entry, fieldEntryValue, []byte(e.Metadata[k]))
		buf = appendBytesField(buf, fieldExtraEntry, entry)
	}
	return buf
}

func decodeExtra(data []byte) (model.Extra, error) {
	extra := model.Extra{Metadata: model.Metadata{}}
	rest := data
	for len(rest) > 0 {
		field, wire, n := readTag(rest)
		if n <= 0 {
			return model.Extra{}, errors.New(errors.ErrCodeDecodeFailed, "truncated extra tag")
		}
		rest = rest[n:]

		switch {
		case field == fieldExtraKey && wire == wireBytes:
			val, rem, err := readBytes(rest)
			if err != nil {
				return model.Extra{}, err
			}
			extra.Key = string(val)
			rest = rem
		case field == fieldExtraEntry && wire == wireBytes:
			val, rem, err := readBytes(rest)
			if err != nil {
				return model.Extra{}, err
			}
			k, v, err := decodeEntry(val)
			if err != nil {
				return model.Extra{}, err
			}
			extra.Metadata[k] = v
			rest = rem
		default:
			rem, err := skipField(rest, wire)
			if err != nil {
				return model.Extra{}, err
			}
			rest = rem
		}
	}
	return extra, nil
}

func decodeEntry(data []byte) (key, value string, err error) {
	rest := data
	for len(rest) > 0 {
		field, wire, n := readTag(rest)
		if n <= 0 {
			return "", "", errors.New(errors.ErrCodeDecodeFailed, "truncated entry tag")
		}
		rest = rest[n:]

		switch {
		case field == fieldEntryKey && wire == wireBytes:
			val, rem, e := readBytes(rest)
			if e != nil {
				return "", "", e
			}
			key = string(val)
			rest = rem
		case field == fieldEntryValue && wire == wireBytes:
			val, rem, e := readBytes(rest)
			if e != nil {
				return "", "", e
			}
			value = string(val)
			rest = rem
		default:
			rem, e := skipField(rest, wire)
			if e != nil {
				return "", "", e
			}
			rest = rem
		}
	}
	return key, value, nil
}

func appendBytesField(buf []byte, field int, val []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(field)<<3|wireBytes)
	buf = binary.AppendUvarint(buf, uint64(len(val)))
	return append(buf, val...)
}

// readTag decodes the next field tag. It returns the field number, wire type
// and consumed byte count; n <= 0 means the input is truncated.
func readTag(data []byte) (field int, wire int, n int) {
	tag, n := binary.Uvarint(data)
	if n <= 0 {
		return 0, 0, n
	}
	return int(tag >> 3), int(tag & 7), n
}

func readBytes(data []byte) (val, rest []byte, err error) {
	length, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, nil, errors.New(errors.ErrCodeDecodeFailed, "truncated length prefix")
	}
	data = data[n:]
	if uint64(len(data)) < length {
		return nil, nil, errors.New(errors.ErrCodeDecodeFailed,
			"field length %d exceeds remaining %d bytes", length, len(data))
	}
	return data[:length], data[length:], nil
}

// skipField advances past an unknown field of the given wire type.
func skipField(data []byte, wire int) ([]byte, error) {
	switch wire {
	case wireVarint:
		_, n := binary.Uvarint(data)
		if n <= 0 {
			return nil, errors.New(errors.ErrCodeDecodeFailed, "truncated varint field")
		}
		return data[n:], nil
	case wireI64:
		if len(data) < 8 {
			return nil, errors.New(errors.ErrCodeDecodeFailed, "truncated 64-bit field")
		}
		return data[8:], nil
	case wireBytes:
		_, rest, err := readBytes(data)
		return rest, err
	case wireI32:
		if len(data) < 4 {
			return nil, errors.New(errors.ErrCodeDecodeFailed, "truncated 32-bit field")
		}
		return data[4:], nil
	default:
		return nil, errors.New(errors.ErrCodeDecodeFailed, "unsupported wire type %d", wire)
	}
}
