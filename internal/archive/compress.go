package archive

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Compression levels on the zstd scale.
const (
	LevelFast    = 2
	LevelDefault = LevelFast
	LevelMax     = 22
)

// Compress encodes the archive and wraps it in a single zstd frame. Levels
// outside 1..22 are rejected.
func (a *Archive[T, P]) Compress(level int) ([]byte, error) {
	if level < 1 || level > LevelMax {
		return nil, fmt.Errorf("%w: compression level %d outside 1..%d", ErrCodec, level, LevelMax)
	}
	raw, err := a.Encode()
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd encoder: %w", ErrCodec, err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

// Decompress inverts Compress.
func Decompress[T any, P Record[T]](data []byte) (*Archive[T, P], error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd decoder: %w", ErrCodec, err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd decode: %w", ErrCodec, err)
	}
	return Decode[T, P](raw)
}

// FromBytes loads an archive embedded in the binary. It takes the same path as Load.
func FromBytes[T any, P Record[T]](data []byte) (*Archive[T, P], error) {
	return Decompress[T, P](data)
}
