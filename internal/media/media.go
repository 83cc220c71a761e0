// Package media defines the binary payloads referenced by a day's entry and the
// two-tier cache that keeps them: a persistent store plus a bounded in-memory LRU.
package media

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// Kind tags a media payload.
type Kind uint8

// Supported media kinds. The numeric values are persisted; append only.
const (
	KindUnknown Kind = iota
	KindPNG
	KindJPEG
	KindGIF
	KindMP4
	KindYouTube
)

const youtubeEmbedPrefix = "https://www.youtube.com/embed/"

var kindNames = map[Kind]string{
	KindUnknown: "unknown",
	KindPNG:     "png",
	KindJPEG:    "jpeg",
	KindGIF:     "gif",
	KindMP4:     "mp4",
	KindYouTube: "youtube",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsImage reports whether the payload is a still or animated image.
func (k Kind) IsImage() bool {
	return k == KindPNG || k == KindJPEG || k == KindGIF
}

// KindOf classifies a media URL: YouTube embeds first, then the file extension.
func KindOf(url string) Kind {
	if strings.HasPrefix(url, youtubeEmbedPrefix) {
		return KindYouTube
	}
	path, _, _ := strings.Cut(url, "?")
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		return KindUnknown
	}
	switch strings.ToLower(path[dot+1:]) {
	case "png":
		return KindPNG
	case "jpg", "jpeg":
		return KindJPEG
	case "gif":
		return KindGIF
	case "mp4":
		return KindMP4
	default:
		return KindUnknown
	}
}

// Blob is an opaque media payload plus its kind.
type Blob struct {
	Kind Kind
	Data []byte
}

// ErrMalformedBlob is returned when a stored blob cannot be decoded.
var ErrMalformedBlob = errors.New("malformed media blob")

const (
	blobFieldKind protowire.Number = 1
	blobFieldData protowire.Number = 2
)

// MarshalBinary encodes the blob in protobuf wire format.
func (b Blob) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, len(b.Data)+16)
	out = protowire.AppendTag(out, blobFieldKind, protowire.VarintType)
	out = protowire.AppendVarint(out, uint64(b.Kind))
	out = protowire.AppendTag(out, blobFieldData, protowire.BytesType)
	out = protowire.AppendBytes(out, b.Data)
	return out, nil
}

// UnmarshalBinary decodes a blob written by MarshalBinary. The data is copied.
func (b *Blob) UnmarshalBinary(data []byte) error {
	*b = Blob{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformedBlob, protowire.ParseError(n))
		}
		data = data[n:]
		switch {
		case num == blobFieldKind && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return fmt.Errorf("%w: %w", ErrMalformedBlob, protowire.ParseError(m))
			}
			b.Kind = Kind(v)
			n = m
		case num == blobFieldData && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return fmt.Errorf("%w: %w", ErrMalformedBlob, protowire.ParseError(m))
			}
			b.Data = append([]byte(nil), v...)
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("%w: %w", ErrMalformedBlob, protowire.ParseError(n))
			}
		}
		data = data[n:]
	}
	return nil
}
