package sh

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/msp.go/pkg/msp"
)

// ParsePayload builds a payload from command arguments. Each argument is
// one of:
//
//   dc05, 0xdc05    hex bytes
//   u8:N            one byte
//   u16:N, u32:N    little-endian integers
//   str:TEXT        raw text
func ParsePayload(args []string) ([]byte, error) {
	var payload []byte
	for _, arg := range args {
		b, err := parsePayloadArg(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid payload %q: %w", arg, err)
		}
		payload = append(payload, b...)
	}
	return payload, nil
}

func parsePayloadArg(arg string) ([]byte, error) {
	kind, val := "", arg
	if pos := strings.Index(arg, ":"); pos >= 0 {
		kind, val = arg[:pos], arg[pos+1:]
	}
	switch kind {
	case "":
		val = strings.TrimPrefix(strings.TrimPrefix(val, "0x"), "0X")
		return hex.DecodeString(val)
	case "str":
		return []byte(val), nil
	case "u8":
		n, err := strconv.ParseUint(val, 0, 8)
		return []byte{byte(n)}, err
	case "u16":
		n, err := strconv.ParseUint(val, 0, 16)
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(n))
		return b, err
	case "u32":
		n, err := strconv.ParseUint(val, 0, 32)
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(n))
		return b, err
	}
	return nil, fmt.Errorf("unknown type %q", kind)
}

// ParseCodeAndPayload parses "CODE [PAYLOAD...]" arguments.
func ParseCodeAndPayload(args []string) (msp.Code, []byte, error) {
	if len(args) < 1 {
		return 0, nil, fmt.Errorf("CODE required")
	}
	code, err := msp.ParseCode(args[0])
	if err != nil {
		return 0, nil, err
	}
	payload, err := ParsePayload(args[1:])
	if err != nil {
		return 0, nil, err
	}
	return code, payload, nil
}

// FormatHex formats bytes as space separated hex.
func FormatHex(b []byte) string {
	return fmt.Sprintf("% x", b)
}

// ResultOutput is the JSON form of a request result.
type ResultOutput struct {
	Code    msp.Code `json:"code"`
	Name    string   `json:"name"`
	Payload string   `json:"payload"`
	Error   string   `json:"error,omitempty"`
}

// NewResultOutput converts a Result.
func NewResultOutput(res msp.Result) *ResultOutput {
	out := &ResultOutput{
		Code:    res.Code,
		Name:    res.Code.Name(),
		Payload: hex.EncodeToString(res.Data),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// FormatResult formats a Result for display.
func FormatResult(res msp.Result) string {
	if res.Err != nil {
		return fmt.Sprintf("%s ERROR %v", res.Code.Name(), res.Err)
	}
	return fmt.Sprintf("%s [%d] %s", res.Code.Name(), len(res.Data), FormatHex(res.Data))
}
