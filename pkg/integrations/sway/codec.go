package sway

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
)

const (
	// Magic is the preamble of every i3/sway IPC frame.
	Magic = "i3-ipc"

	// HeaderSize is magic + u32 length + u32 type.
	HeaderSize = len(Magic) + 4 + 4
)

// MessageType is the u32 type code carried in the frame header.
type MessageType uint32

const MsgSubscribe MessageType = 2

// MaxPayloadSize bounds the length read from a frame header. sway's
// largest replies (get_tree on busy sessions) stay far below it.
const MaxPayloadSize = 64 << 20

// TopicWindow is the only event topic the watcher subscribes to.
const TopicWindow = "window"

var (
	// ErrConnectionClosed means the stream ended before a frame field was complete.
	ErrConnectionClosed = errors.New("sway: connection closed")

	// ErrPayloadTooLarge means a header announced more than MaxPayloadSize bytes.
	ErrPayloadTooLarge = errors.New("sway: payload too large")
)

// Frame is one decoded IPC message.
type Frame struct {
	Type    MessageType
	Payload []byte
}

// Encode builds a complete frame for the given type and payload.
func Encode(t MessageType, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	copy(buf, Magic)
	binary.LittleEndian.PutUint32(buf[len(Magic):], uint32(len(payload)))
	binary.LittleEndian.PutUint32(buf[len(Magic)+4:], uint32(t))
	copy(buf[HeaderSize:], payload)
	return buf
}

// EncodeSubscribe builds the subscribe command for a single topic.
// The payload is a one-element JSON array, e.g. ["window"].
func EncodeSubscribe(topic string) []byte {
	// a []string always marshals
	payload, _ := sonic.Marshal([]string{topic})
	return Encode(MsgSubscribe, payload)
}

// WriteFrame encodes and writes a frame in a single Write call.
func WriteFrame(w io.Writer, t MessageType, payload []byte) error {
	if _, err := w.Write(Encode(t, payload)); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// ReadFrame reads exactly one frame from r. Short reads are resumed until
// every field is complete; a stream that ends early yields ErrConnectionClosed.
func ReadFrame(r io.Reader) (*Frame, error) {
	var hdr [HeaderSize]byte

	if err := readField(r, hdr[:len(Magic)], "magic"); err != nil {
		return nil, err
	}
	if err := verifyMagic(hdr[:len(Magic)]); err != nil {
		return nil, err
	}
	if err := readField(r, hdr[len(Magic):len(Magic)+4], "length"); err != nil {
		return nil, err
	}
	if err := readField(r, hdr[len(Magic)+4:], "type"); err != nil {
		return nil, err
	}

	length := binary.LittleEndian.Uint32(hdr[len(Magic):])
	if length > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, length, MaxPayloadSize)
	}

	frame := &Frame{
		Type:    MessageType(binary.LittleEndian.Uint32(hdr[len(Magic)+4:])),
		Payload: make([]byte, length),
	}

	if err := readField(r, frame.Payload, "payload"); err != nil {
		return nil, err
	}

	return frame, nil
}

// DecodeNext reads the next frame and returns only its payload.
func DecodeNext(r io.Reader) ([]byte, error) {
	frame, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return frame.Payload, nil
}

func readField(r io.Reader, buf []byte, field string) error {
	if len(buf) == 0 {
		return nil
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: short read on %s", ErrConnectionClosed, field)
		}
		return fmt.Errorf("failed to read frame %s: %w", field, err)
	}
	return nil
}

// verifyMagic accepts any preamble. The compositor is trusted to speak the
// protocol, and there is no resynchronisation to fall back on if it did not.
// A desynchronised stream is caught by the MaxPayloadSize check instead.
func verifyMagic(_ []byte) error {
	return nil
}
