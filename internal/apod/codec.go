package apod

import (
	"errors"
	"fmt"

	"github.com/JakeFAU/apodex/internal/day"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformedRecord is returned when a record's wire bytes cannot be decoded.
var ErrMalformedRecord = errors.New("malformed record")

const (
	fieldDay protowire.Number = 1

	fieldDocumentHTML protowire.Number = 2

	fieldEntryTitle       protowire.Number = 2
	fieldEntryExplanation protowire.Number = 3
	fieldEntryURL         protowire.Number = 4
	fieldEntryHDURL       protowire.Number = 5
)

// MarshalBinary encodes the document in protobuf wire format.
func (d Document) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, len(d.HTML)+16)
	out = appendDay(out, d.Index)
	out = appendString(out, fieldDocumentHTML, d.HTML)
	return out, nil
}

// UnmarshalBinary decodes a document written by MarshalBinary.
func (d *Document) UnmarshalBinary(data []byte) error {
	*d = Document{}
	return consumeFields(data, func(num protowire.Number, v field) error {
		switch num {
		case fieldDay:
			return v.index(&d.Index)
		case fieldDocumentHTML:
			return v.text(&d.HTML)
		}
		return nil
	})
}

// MarshalBinary encodes the entry in protobuf wire format. Empty strings are omitted.
func (e Entry) MarshalBinary() ([]byte, error) {
	size := len(e.Title) + len(e.Explanation) + len(e.Media.URL) + len(e.Media.HDURL) + 32
	out := make([]byte, 0, size)
	out = appendDay(out, e.Index)
	out = appendString(out, fieldEntryTitle, e.Title)
	out = appendString(out, fieldEntryExplanation, e.Explanation)
	out = appendString(out, fieldEntryURL, e.Media.URL)
	out = appendString(out, fieldEntryHDURL, e.Media.HDURL)
	return out, nil
}

// UnmarshalBinary decodes an entry written by MarshalBinary.
func (e *Entry) UnmarshalBinary(data []byte) error {
	*e = Entry{}
	return consumeFields(data, func(num protowire.Number, v field) error {
		switch num {
		case fieldDay:
			return v.index(&e.Index)
		case fieldEntryTitle:
			return v.text(&e.Title)
		case fieldEntryExplanation:
			return v.text(&e.Explanation)
		case fieldEntryURL:
			return v.text(&e.Media.URL)
		case fieldEntryHDURL:
			return v.text(&e.Media.HDURL)
		}
		return nil
	})
}

func appendDay(b []byte, i day.Index) []byte {
	b = protowire.AppendTag(b, fieldDay, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(int64(i)))
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// field is one decoded wire value.
type field struct {
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

func (f field) index(dst *day.Index) error {
	if f.typ != protowire.VarintType {
		return fmt.Errorf("%w: day has wire type %d", ErrMalformedRecord, f.typ)
	}
	*dst = day.Index(protowire.DecodeZigZag(f.varint))
	return nil
}

func (f field) text(dst *string) error {
	if f.typ != protowire.BytesType {
		return fmt.Errorf("%w: string has wire type %d", ErrMalformedRecord, f.typ)
	}
	*dst = string(f.bytes)
	return nil
}

// consumeFields walks a message, handing known wire types to fn and skipping the rest.
func consumeFields(data []byte, fn func(protowire.Number, field) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformedRecord, protowire.ParseError(n))
		}
		data = data[n:]

		var v field
		v.typ = typ
		switch typ {
		case protowire.VarintType:
			v.varint, n = protowire.ConsumeVarint(data)
		case protowire.BytesType:
			v.bytes, n = protowire.ConsumeBytes(data)
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformedRecord, protowire.ParseError(n))
		}
		data = data[n:]

		if typ != protowire.VarintType && typ != protowire.BytesType {
			continue
		}
		if err := fn(num, v); err != nil {
			return err
		}
	}
	return nil
}
