// Package archive provides a generic keyed container of day records that can be
// encoded to protobuf wire format, compressed with zstd, and persisted atomically.
package archive

import (
	"encoding"
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/JakeFAU/apodex/internal/day"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrCodec wraps every encode, decode, compress and decompress failure.
var ErrCodec = errors.New("archive codec")

// Record is implemented by pointers to archivable values.
type Record[T any] interface {
	*T
	Day() day.Index
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// Archive maps each day to exactly one value. Pushing a value for a day that is
// already present replaces it. An Archive is not safe for concurrent mutation.
type Archive[T any, P Record[T]] struct {
	items map[day.Index]T
}

// New returns an empty archive.
func New[T any, P Record[T]]() *Archive[T, P] {
	return &Archive[T, P]{items: make(map[day.Index]T)}
}

// Push upserts v under its own day.
func (a *Archive[T, P]) Push(v T) {
	a.items[P(&v).Day()] = v
}

// Get returns the value stored for d.
func (a *Archive[T, P]) Get(d day.Index) (T, bool) {
	v, ok := a.items[d]
	return v, ok
}

// Has reports whether d has a value.
func (a *Archive[T, P]) Has(d day.Index) bool {
	_, ok := a.items[d]
	return ok
}

// Delete removes the value stored for d, if any.
func (a *Archive[T, P]) Delete(d day.Index) {
	delete(a.items, d)
}

// Len returns the number of stored days.
func (a *Archive[T, P]) Len() int {
	return len(a.items)
}

// Clear removes every value.
func (a *Archive[T, P]) Clear() {
	clear(a.items)
}

// Days returns the stored days in ascending order.
func (a *Archive[T, P]) Days() []day.Index {
	return slices.Sorted(maps.Keys(a.items))
}

// All yields every (day, value) pair in ascending day order.
func (a *Archive[T, P]) All() iter.Seq2[day.Index, T] {
	return func(yield func(day.Index, T) bool) {
		for _, d := range a.Days() {
			if !yield(d, a.items[d]) {
				return
			}
		}
	}
}

// LatestDay returns the greatest stored day.
func (a *Archive[T, P]) LatestDay() (day.Index, bool) {
	if len(a.items) == 0 {
		return 0, false
	}
	latest := day.Min
	for d := range a.items {
		latest = max(latest, d)
	}
	return latest, true
}

// Clone returns a shallow copy that can be mutated independently.
func (a *Archive[T, P]) Clone() *Archive[T, P] {
	return &Archive[T, P]{items: maps.Clone(a.items)}
}

const fieldRecord protowire.Number = 1

// Encode serializes the archive as a repeated length-delimited field, one
// element per record in ascending day order.
func (a *Archive[T, P]) Encode() ([]byte, error) {
	var out []byte
	for _, v := range a.All() {
		data, err := P(&v).MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("%w: marshal record: %w", ErrCodec, err)
		}
		out = protowire.AppendTag(out, fieldRecord, protowire.BytesType)
		out = protowire.AppendBytes(out, data)
	}
	return out, nil
}

// Decode rebuilds an archive from Encode output. Records repeated for one day
// resolve to the last occurrence.
func Decode[T any, P Record[T]](data []byte) (*Archive[T, P], error) {
	a := New[T, P]()
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %w", ErrCodec, protowire.ParseError(n))
		}
		data = data[n:]
		if num != fieldRecord || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("%w: %w", ErrCodec, protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}
		raw, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %w", ErrCodec, protowire.ParseError(n))
		}
		data = data[n:]

		var v T
		if err := P(&v).UnmarshalBinary(raw); err != nil {
			return nil, fmt.Errorf("%w: unmarshal record: %w", ErrCodec, err)
		}
		a.Push(v)
	}
	return a, nil
}
