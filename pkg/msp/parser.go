package msp

// Parser parses bytes received.
// It keeps state across calls so a frame may span any number of chunks.
type Parser struct {
	state   parseState
	frame   *Frame
	length  int
	recvLen int
	sum     byte
}

// ParseResult indicates the result after one parsing step.
// At most one of Frame and Err is set.
type ParseResult struct {
	Frame *Frame
	Err   error
}

// IsEmpty indicates nothing happened in this step.
func (r ParseResult) IsEmpty() bool {
	return r.Frame == nil && r.Err == nil
}

type parseState int

const (
	stateDollar    parseState = iota // waiting for '$'
	stateMarker                      // waiting for version marker
	stateDirection                   // waiting for direction
	stateV1Length                    // waiting for V1 length
	stateV1Code                      // waiting for V1 code
	stateV2Flag                      // waiting for V2 flag
	stateV2CodeLo                    // waiting for V2 code, low byte
	stateV2CodeHi                    // waiting for V2 code, high byte
	stateV2LenLo                     // waiting for V2 length, low byte
	stateV2LenHi                     // waiting for V2 length, high byte
	statePayload                     // waiting for payload
	stateChecksum                    // waiting for checksum
)

// Idle indicates the parser is between frames.
func (p *Parser) Idle() bool {
	return p.state == stateDollar
}

// Reset drops any partially received frame.
func (p *Parser) Reset() {
	p.state, p.frame = stateDollar, nil
	p.length, p.recvLen, p.sum = 0, 0, 0
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch p.state {
	case stateDollar:
		if b == frameStart {
			p.state = stateMarker
		}
	case stateMarker:
		switch v := Version(b); v {
		case V1, V2:
			p.frame = &Frame{Version: v}
			p.state = stateDirection
		default:
			p.Reset()
		}
	case stateDirection:
		dir := Direction(b)
		if !dir.IsValid() {
			p.Reset()
			pr.Err = &FramingError{Byte: b}
			return
		}
		p.frame.Direction = dir
		if p.frame.Version == V2 {
			p.state = stateV2Flag
		} else {
			p.state = stateV1Length
		}
	case stateV1Length:
		p.sum = b
		p.allocate(int(b))
		p.state = stateV1Code
	case stateV1Code:
		p.sum ^= b
		p.frame.Code = Code(b)
		p.payloadOrChecksum()
	case stateV2Flag:
		p.sum = CRC8DVBS2Update(0, b)
		p.state = stateV2CodeLo
	case stateV2CodeLo:
		p.sum = CRC8DVBS2Update(p.sum, b)
		p.frame.Code = Code(b)
		p.state = stateV2CodeHi
	case stateV2CodeHi:
		p.sum = CRC8DVBS2Update(p.sum, b)
		p.frame.Code |= Code(b) << 8
		p.state = stateV2LenLo
	case stateV2LenLo:
		p.sum = CRC8DVBS2Update(p.sum, b)
		p.length = int(b)
		p.state = stateV2LenHi
	case stateV2LenHi:
		p.sum = CRC8DVBS2Update(p.sum, b)
		p.allocate(p.length | int(b)<<8)
		p.payloadOrChecksum()
	case statePayload:
		p.frame.Payload[p.recvLen] = b
		p.recvLen++
		if p.frame.Version == V2 {
			p.sum = CRC8DVBS2Update(p.sum, b)
		} else {
			p.sum ^= b
		}
		if p.recvLen >= p.length {
			p.state = stateChecksum
		}
	case stateChecksum:
		frame, sum := p.frame, p.sum
		p.Reset()
		frame.Checksum = b
		if b != sum {
			pr.Err = &ChecksumError{Version: frame.Version, Code: frame.Code, Expected: sum, Actual: b}
			return
		}
		pr.Frame = frame
	}
	return
}

// Feed consumes a chunk of bytes and returns all non-empty results in order.
func (p *Parser) Feed(data []byte) (results []ParseResult) {
	for _, b := range data {
		if pr := p.Parse(b); !pr.IsEmpty() {
			results = append(results, pr)
		}
	}
	return
}

func (p *Parser) allocate(length int) {
	p.length, p.recvLen = length, 0
	p.frame.Payload = make([]byte, length)
}

func (p *Parser) payloadOrChecksum() {
	if p.length > 0 {
		p.state = statePayload
	} else {
		p.state = stateChecksum
	}
}
