package walkstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/graphwalk/model"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrCorruptFrame is returned when a frame cannot be decoded.
var ErrCorruptFrame = errors.New("walkstore: corrupt frame")

// Codec is the compression of a frame.
type Codec uint8

const (
	// CodecNone stores walker records as is.
	CodecNone Codec = 0
	// CodecLZ4 uses LZ4 block compression.
	CodecLZ4 Codec = 1
	// CodecZstd uses Zstandard.
	CodecZstd Codec = 2
)

// FrameHeaderSize is the size of a frame header.
const FrameHeaderSize = 9

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Codec(%d)", uint8(c))
	}
}

// ParseCodec parses a codec name.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CodecNone, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZstd, nil
	default:
		return 0, fmt.Errorf("walkstore: unknown codec %q", s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// AppendFrame encodes walkers as one frame and appends it to dst.
// Data that does not compress is stored with CodecNone.
func AppendFrame(dst []byte, walkers []model.Walker, codec Codec) ([]byte, error) {
	raw := make([]byte, 0, len(walkers)*model.WalkerSize)
	for _, w := range walkers {
		raw = w.AppendBinary(raw)
	}

	data := raw
	switch codec {
	case CodecNone:
	case CodecLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("walkstore: lz4: %w", err)
		}
		data = buf[:n]
	case CodecZstd:
		enc := getZstdEncoder()
		data = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("walkstore: unknown codec %d", codec)
	}
	if len(data) == 0 || len(data) >= len(raw) {
		codec, data = CodecNone, raw
	}

	dst = append(dst, byte(codec))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(raw)))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(data)))
	return append(dst, data...), nil
}

// DecodeFrames decodes every frame in b and appends the walkers to dst.
func DecodeFrames(dst []model.Walker, b []byte) ([]model.Walker, error) {
	for len(b) > 0 {
		if len(b) < FrameHeaderSize {
			return dst, fmt.Errorf("%w: %d trailing bytes", ErrCorruptFrame, len(b))
		}
		codec := Codec(b[0])
		rawLen := int(binary.LittleEndian.Uint32(b[1:]))
		dataLen := int(binary.LittleEndian.Uint32(b[5:]))
		b = b[FrameHeaderSize:]
		if dataLen > len(b) || rawLen%model.WalkerSize != 0 {
			return dst, fmt.Errorf("%w: lengths raw=%d data=%d", ErrCorruptFrame, rawLen, dataLen)
		}

		raw, err := decode(codec, b[:dataLen], rawLen)
		if err != nil {
			return dst, err
		}
		for off := 0; off < len(raw); off += model.WalkerSize {
			dst = append(dst, model.DecodeWalker(raw[off:]))
		}
		b = b[dataLen:]
	}
	return dst, nil
}

func decode(codec Codec, data []byte, rawLen int) ([]byte, error) {
	switch codec {
	case CodecNone:
		if len(data) != rawLen {
			return nil, fmt.Errorf("%w: raw frame of %d bytes, want %d", ErrCorruptFrame, len(data), rawLen)
		}
		return data, nil
	case CodecLZ4:
		raw := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(data, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorruptFrame, err)
		}
		if n != rawLen {
			return nil, fmt.Errorf("%w: lz4 size mismatch", ErrCorruptFrame)
		}
		return raw, nil
	case CodecZstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		raw, err := dec.DecodeAll(data, make([]byte, 0, rawLen))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorruptFrame, err)
		}
		if len(raw) != rawLen {
			return nil, fmt.Errorf("%w: zstd size mismatch", ErrCorruptFrame)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: codec %d", ErrCorruptFrame, codec)
	}
}
