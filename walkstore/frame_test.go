package walkstore

import (
	"testing"

	"github.com/hupe1980/graphwalk/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walkers(n int) []model.Walker {
	ws := make([]model.Walker, n)
	for i := range ws {
		ws[i] = model.Walker{
			ID:       model.WalkerID(i),
			Source:   model.VertexID(i % 7),
			Previous: model.VertexID(i % 5),
			Current:  model.VertexID(i % 3),
			Hop:      model.Hop(i % 4),
		}
	}
	return ws
}

func TestFrame_Codecs(t *testing.T) {
	for _, codec := range []Codec{CodecNone, CodecLZ4, CodecZstd} {
		t.Run(codec.String(), func(t *testing.T) {
			ws := walkers(1000)

			buf, err := AppendFrame(nil, ws[:400], codec)
			require.NoError(t, err)
			buf, err = AppendFrame(buf, ws[400:], codec)
			require.NoError(t, err)

			if codec != CodecNone {
				assert.Less(t, len(buf), len(ws)*model.WalkerSize)
			}

			got, err := DecodeFrames(nil, buf)
			require.NoError(t, err)
			assert.Equal(t, ws, got)
		})
	}
}

func TestFrame_Incompressible(t *testing.T) {
	buf, err := AppendFrame(nil, walkers(1), CodecLZ4)
	require.NoError(t, err)
	assert.Equal(t, byte(CodecNone), buf[0])
	assert.Len(t, buf, FrameHeaderSize+model.WalkerSize)
}

func TestFrame_Empty(t *testing.T) {
	buf, err := AppendFrame(nil, nil, CodecZstd)
	require.NoError(t, err)

	got, err := DecodeFrames(nil, buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFrame_Corrupt(t *testing.T) {
	buf, err := AppendFrame(nil, walkers(10), CodecNone)
	require.NoError(t, err)

	_, err = DecodeFrames(nil, buf[:len(buf)-1])
	assert.ErrorIs(t, err, ErrCorruptFrame)

	_, err = DecodeFrames(nil, buf[:4])
	assert.ErrorIs(t, err, ErrCorruptFrame)

	bad := append([]byte(nil), buf...)
	bad[0] = 9
	_, err = DecodeFrames(nil, bad)
	assert.ErrorIs(t, err, ErrCorruptFrame)
}

func TestParseCodec(t *testing.T) {
	c, err := ParseCodec("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, CodecZstd, c)

	c, err = ParseCodec("")
	require.NoError(t, err)
	assert.Equal(t, CodecNone, c)

	_, err = ParseCodec("gzip")
	assert.Error(t, err)
}
