package mqtt

import (
	"errors"
	"fmt"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/msp.go/pkg/msp"
)

// Records are encoded in protobuf wire format without generated code,
// the field numbers below are the schema.
//
//   message FrameRecord {
//     uint32 version = 1;   // 1 or 2
//     uint32 direction = 2; // '<' or '>'
//     uint32 code = 3;
//     bytes payload = 4;
//     int64 timestamp_ns = 5;
//   }
//   message RequestRecord {
//     string id = 1;
//     uint32 code = 2;
//     bytes payload = 3;
//     uint32 timeout_ms = 4;
//   }
//   message ResponseRecord {
//     string id = 1;
//     uint32 code = 2;
//     bytes payload = 3;
//     string error = 4;
//   }

// ErrTruncated indicates a record ends in the middle of a field.
var ErrTruncated = errors.New("truncated record")

// FrameRecord is the record published for each received frame.
type FrameRecord struct {
	Version     int
	Direction   msp.Direction
	Code        msp.Code
	Payload     []byte
	TimestampNS int64
}

// RequestRecord asks the bridge to send a correlated request.
type RequestRecord struct {
	ID        string
	Code      msp.Code
	Payload   []byte
	TimeoutMS uint32
}

// ResponseRecord settles a RequestRecord with the same ID.
type ResponseRecord struct {
	ID      string
	Code    msp.Code
	Payload []byte
	Error   string
}

// FrameRecordOf converts a frame.
func FrameRecordOf(f *msp.Frame, timestampNS int64) *FrameRecord {
	r := &FrameRecord{
		Version:     1,
		Direction:   f.Direction,
		Code:        f.Code,
		Payload:     f.Payload,
		TimestampNS: timestampNS,
	}
	if f.Version == msp.V2 {
		r.Version = 2
	}
	return r
}

type recordEncoder struct {
	buf *proto.Buffer
	err error
}

func newRecordEncoder() *recordEncoder {
	return &recordEncoder{buf: proto.NewBuffer(nil)}
}

func (e *recordEncoder) key(field int, wireType int) {
	if e.err == nil {
		e.err = e.buf.EncodeVarint(uint64(field)<<3 | uint64(wireType))
	}
}

func (e *recordEncoder) varint(field int, v uint64) {
	if v == 0 {
		return
	}
	e.key(field, proto.WireVarint)
	if e.err == nil {
		e.err = e.buf.EncodeVarint(v)
	}
}

func (e *recordEncoder) bytes(field int, b []byte) {
	if len(b) == 0 {
		return
	}
	e.key(field, proto.WireBytes)
	if e.err == nil {
		e.err = e.buf.EncodeRawBytes(b)
	}
}

func (e *recordEncoder) string(field int, s string) {
	if s == "" {
		return
	}
	e.key(field, proto.WireBytes)
	if e.err == nil {
		e.err = e.buf.EncodeStringBytes(s)
	}
}

func (e *recordEncoder) result() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.buf.Bytes(), nil
}

// recordField is a decoded field, Bytes is valid for WireBytes only.
type recordField struct {
	Num      int
	WireType int
	Varint   uint64
	Bytes    []byte
}

// decodeFields walks all fields of a record, only varint and
// length-delimited wire types are accepted.
func decodeFields(b []byte, fn func(recordField) error) error {
	for len(b) > 0 {
		key, n := proto.DecodeVarint(b)
		if n == 0 {
			return ErrTruncated
		}
		b = b[n:]
		f := recordField{Num: int(key >> 3), WireType: int(key & 7)}
		switch f.WireType {
		case proto.WireVarint:
			if f.Varint, n = proto.DecodeVarint(b); n == 0 {
				return ErrTruncated
			}
			b = b[n:]
		case proto.WireBytes:
			size, n := proto.DecodeVarint(b)
			if n == 0 || uint64(len(b)-n) < size {
				return ErrTruncated
			}
			f.Bytes, b = b[n:n+int(size)], b[n+int(size):]
		default:
			return fmt.Errorf("field %d: unsupported wire type %d", f.Num, f.WireType)
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func fieldCode(f recordField) (msp.Code, error) {
	if f.Varint > 0xffff {
		return 0, fmt.Errorf("code %d out of range", f.Varint)
	}
	return msp.Code(f.Varint), nil
}

// Marshal encodes the record.
func (r *FrameRecord) Marshal() ([]byte, error) {
	e := newRecordEncoder()
	e.varint(1, uint64(r.Version))
	e.varint(2, uint64(r.Direction))
	e.varint(3, uint64(r.Code))
	e.bytes(4, r.Payload)
	e.varint(5, uint64(r.TimestampNS))
	return e.result()
}

// Unmarshal decodes the record, unknown fields are skipped.
func (r *FrameRecord) Unmarshal(b []byte) error {
	*r = FrameRecord{}
	return decodeFields(b, func(f recordField) (err error) {
		switch f.Num {
		case 1:
			r.Version = int(f.Varint)
		case 2:
			r.Direction = msp.Direction(f.Varint)
		case 3:
			r.Code, err = fieldCode(f)
		case 4:
			r.Payload = append([]byte(nil), f.Bytes...)
		case 5:
			r.TimestampNS = int64(f.Varint)
		}
		return
	})
}

// Marshal encodes the record.
func (r *RequestRecord) Marshal() ([]byte, error) {
	e := newRecordEncoder()
	e.string(1, r.ID)
	e.varint(2, uint64(r.Code))
	e.bytes(3, r.Payload)
	e.varint(4, uint64(r.TimeoutMS))
	return e.result()
}

// Unmarshal decodes the record, unknown fields are skipped.
func (r *RequestRecord) Unmarshal(b []byte) error {
	*r = RequestRecord{}
	return decodeFields(b, func(f recordField) (err error) {
		switch f.Num {
		case 1:
			r.ID = string(f.Bytes)
		case 2:
			r.Code, err = fieldCode(f)
		case 3:
			r.Payload = append([]byte(nil), f.Bytes...)
		case 4:
			r.TimeoutMS = uint32(f.Varint)
		}
		return
	})
}

// Marshal encodes the record.
func (r *ResponseRecord) Marshal() ([]byte, error) {
	e := newRecordEncoder()
	e.string(1, r.ID)
	e.varint(2, uint64(r.Code))
	e.bytes(3, r.Payload)
	e.string(4, r.Error)
	return e.result()
}

// Unmarshal decodes the record, unknown fields are skipped.
func (r *ResponseRecord) Unmarshal(b []byte) error {
	*r = ResponseRecord{}
	return decodeFields(b, func(f recordField) (err error) {
		switch f.Num {
		case 1:
			r.ID = string(f.Bytes)
		case 2:
			r.Code, err = fieldCode(f)
		case 3:
			r.Payload = append([]byte(nil), f.Bytes...)
		case 4:
			r.Error = string(f.Bytes)
		}
		return
	})
}
