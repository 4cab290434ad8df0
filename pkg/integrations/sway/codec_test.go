package sway

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSubscribe(t *testing.T) {
	frame := EncodeSubscribe(TopicWindow)
	payload := []byte(`["window"]`)

	require.Len(t, frame, HeaderSize+len(payload))
	assert.Equal(t, []byte(Magic), frame[:6])
	assert.Equal(t, uint32(len(payload)), binary.LittleEndian.Uint32(frame[6:10]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(frame[10:14]))
	assert.Equal(t, payload, frame[HeaderSize:])
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		size    int
	}{
		{"empty payload", MsgSubscribe, 0},
		{"single byte", MessageType(0), 1},
		{"4096 bytes", MessageType(0x80000003), 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := bytes.Repeat([]byte{0xA5}, tt.size)

			frame, err := ReadFrame(bytes.NewReader(Encode(tt.msgType, payload)))
			require.NoError(t, err)

			assert.Equal(t, tt.msgType, frame.Type)
			assert.Len(t, frame.Payload, tt.size)
			assert.True(t, bytes.Equal(payload, frame.Payload))
		})
	}
}

func TestDecodeNextOneByteReads(t *testing.T) {
	payload := []byte(`{"change":"focus","container":{"focused":true}}`)
	r := iotest.OneByteReader(bytes.NewReader(Encode(MsgSubscribe, payload)))

	got, err := DecodeNext(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDecodeNextConsumesExactlyOneFrame(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(Encode(MsgSubscribe, []byte("first")))
	stream.Write(Encode(MsgSubscribe, []byte("second")))

	r := iotest.HalfReader(&stream)

	first, err := DecodeNext(r)
	require.NoError(t, err)
	assert.Equal(t, "first", string(first))

	second, err := DecodeNext(r)
	require.NoError(t, err)
	assert.Equal(t, "second", string(second))

	_, err = DecodeNext(r)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestDecodeNextTruncated(t *testing.T) {
	full := Encode(MsgSubscribe, []byte("payload"))

	tests := []struct {
		name string
		data []byte
	}{
		{"empty stream", nil},
		{"partial magic", full[:3]},
		{"missing length", full[:6]},
		{"partial type", full[:12]},
		{"short payload", full[:len(full)-2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeNext(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, ErrConnectionClosed)
		})
	}
}

func TestDecodeNextIgnoresMagic(t *testing.T) {
	frame := Encode(MsgSubscribe, []byte("ok"))
	copy(frame, "xxxxxx")

	got, err := DecodeNext(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(got))
}

func TestDecodeNextReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := DecodeNext(iotest.ErrReader(boom))

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrConnectionClosed)
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, MsgSubscribe, []byte(`["window"]`)))
	assert.Equal(t, EncodeSubscribe(TopicWindow), buf.Bytes())

	err := WriteFrame(errWriter{}, MsgSubscribe, nil)
	assert.Error(t, err)
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func BenchmarkDecodeNext(b *testing.B) {
	frame := Encode(MsgSubscribe, bytes.Repeat([]byte("x"), 1024))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = DecodeNext(bytes.NewReader(frame))
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	hdr := make([]byte, HeaderSize)
	copy(hdr, "garbag")
	binary.LittleEndian.PutUint32(hdr[len(Magic):], 0xFFFFFFF0)
	binary.LittleEndian.PutUint32(hdr[len(Magic)+4:], 0x80000003)

	_, err := ReadFrame(bytes.NewReader(hdr))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.NotErrorIs(t, err, ErrConnectionClosed)
}
