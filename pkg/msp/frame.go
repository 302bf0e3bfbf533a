package msp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Version is the framing version, identified by the marker byte.
type Version byte

const (
	// V1 frames carry 8-bit code/length and an XOR checksum.
	V1 Version = 'M'
	// V2 frames carry 16-bit code/length and a CRC8-DVB-S2 checksum.
	V2 Version = 'X'
)

// String implements fmt.Stringer.
func (v Version) String() string {
	switch v {
	case V1:
		return "V1"
	case V2:
		return "V2"
	}
	return fmt.Sprintf("Version(0x%02x)", byte(v))
}

// MaxPayload is the largest payload the length field can carry.
func (v Version) MaxPayload() int {
	if v == V2 {
		return 0xffff
	}
	return 0xff
}

// Direction is the direction byte of a frame.
type Direction byte

const (
	// DirRequest marks frames sent to the device.
	DirRequest Direction = '<'
	// DirResponse marks frames sent by the device.
	DirResponse Direction = '>'
)

// IsValid checks if it's a known direction.
func (d Direction) IsValid() bool {
	return d == DirRequest || d == DirResponse
}

// String implements fmt.Stringer.
func (d Direction) String() string {
	return string(rune(d))
}

const frameStart byte = '$'

const (
	v1Overhead  = 6
	v2Overhead  = 9
	v2HeaderLen = 8
)

var errCodeRange = errors.New("code out of range for V1")

// Frame contains the information of a frame.
type Frame struct {
	Version   Version
	Direction Direction
	Code      Code
	Payload   []byte
	// Checksum is the received checksum. It's ignored when encoding.
	Checksum byte
}

// Encode builds a request frame, V1 for codes up to MaxV1Code, V2 otherwise.
func Encode(code Code, payload []byte) ([]byte, error) {
	f := Frame{Version: code.Version(), Direction: DirRequest, Code: code, Payload: payload}
	return f.Bytes()
}

// EncodeV1 builds a V1 frame.
func EncodeV1(dir Direction, code Code, payload []byte) ([]byte, error) {
	if code > 0xff {
		return nil, errCodeRange
	}
	n := len(payload)
	if n > V1.MaxPayload() {
		return nil, ErrPayloadTooLarge
	}
	b := make([]byte, n+v1Overhead)
	b[0], b[1], b[2] = frameStart, byte(V1), byte(dir)
	b[3], b[4] = byte(n), byte(code)
	copy(b[5:], payload)
	b[5+n] = XOR(b[3 : 5+n])
	return b, nil
}

// EncodeV2 builds a V2 frame.
func EncodeV2(dir Direction, code Code, payload []byte) ([]byte, error) {
	n := len(payload)
	if n > V2.MaxPayload() {
		return nil, ErrPayloadTooLarge
	}
	b := make([]byte, n+v2Overhead)
	b[0], b[1], b[2], b[3] = frameStart, byte(V2), byte(dir), 0
	binary.LittleEndian.PutUint16(b[4:], uint16(code))
	binary.LittleEndian.PutUint16(b[6:], uint16(n))
	copy(b[v2HeaderLen:], payload)
	b[v2HeaderLen+n] = CRC8DVBS2(b[3 : v2HeaderLen+n])
	return b, nil
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() ([]byte, error) {
	if f.Version == V2 {
		return EncodeV2(f.Direction, f.Code, f.Payload)
	}
	return EncodeV1(f.Direction, f.Code, f.Payload)
}

// Sum calculates the checksum of the frame.
func (f *Frame) Sum() byte {
	if f.Version == V2 {
		var head [5]byte
		binary.LittleEndian.PutUint16(head[1:], uint16(f.Code))
		binary.LittleEndian.PutUint16(head[3:], uint16(len(f.Payload)))
		crc := CRC8DVBS2(head[:])
		for _, b := range f.Payload {
			crc = CRC8DVBS2Update(crc, b)
		}
		return crc
	}
	return byte(len(f.Payload)) ^ byte(f.Code) ^ XOR(f.Payload)
}

// WriteTo writes encoded bytes.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	b, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// String implements fmt.Stringer.
func (f *Frame) String() string {
	return fmt.Sprintf("%s %s %s[%d] % x", f.Version, f.Direction, f.Code.Name(), len(f.Payload), f.Payload)
}
