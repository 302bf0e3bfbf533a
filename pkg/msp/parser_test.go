package msp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustEncode(t *testing.T, f Frame) []byte {
	b, err := f.Bytes()
	require.NoError(t, err)
	return b
}

func response(v Version, code Code, payload ...byte) *Frame {
	if payload == nil {
		payload = []byte{}
	}
	f := &Frame{Version: v, Direction: DirResponse, Code: code, Payload: payload}
	f.Checksum = f.Sum()
	return f
}

func parseAll(p *Parser, chunks ...[]byte) (results []ParseResult) {
	for _, chunk := range chunks {
		results = append(results, p.Feed(chunk)...)
	}
	return
}

type parserTestStream struct {
	data   []byte
	expect []ParseResult
}

func (s *parserTestStream) frame(t *testing.T, f *Frame) *parserTestStream {
	s.data = append(s.data, mustEncode(t, *f)...)
	s.expect = append(s.expect, ParseResult{Frame: f})
	return s
}

func (s *parserTestStream) raw(b ...byte) *parserTestStream {
	s.data = append(s.data, b...)
	return s
}

func (s *parserTestStream) fail(err error) *parserTestStream {
	s.expect = append(s.expect, ParseResult{Err: err})
	return s
}

func TestParserExample(t *testing.T) {
	var p Parser
	results := p.Feed([]byte{'$', 'M', '>', 0x00, 0x01, 0x01})
	require.Equal(t, []ParseResult{{Frame: response(V1, CmdAPIVersion)}}, results)
	require.True(t, p.Idle())
}

func TestParser(t *testing.T) {
	testCases := []struct {
		name   string
		stream func(*parserTestStream)
	}{
		{
			name: "v1 frames",
			stream: func(s *parserTestStream) {
				s.frame(t, response(V1, CmdStatus, 1, 2, 3, 4)).
					frame(t, response(V1, CmdAPIVersion))
			},
		},
		{
			name: "v2 frames",
			stream: func(s *parserTestStream) {
				s.frame(t, response(V2, Cmd2InavStatus, 5, 6)).
					frame(t, response(V2, Cmd2CommonSetting))
			},
		},
		{
			name: "mixed versions",
			stream: func(s *parserTestStream) {
				s.frame(t, response(V2, Cmd2InavAnalog, 1)).
					frame(t, response(V1, CmdAttitude, 1, 2, 3, 4, 5, 6)).
					frame(t, response(V2, 0xffff))
			},
		},
		{
			name: "skip garbage",
			stream: func(s *parserTestStream) {
				s.raw(0x00, 'M', '>', 0xff, '$', 'Q', 'M').
					frame(t, response(V1, CmdRC, 0xdc, 0x05))
			},
		},
		{
			name: "framing error",
			stream: func(s *parserTestStream) {
				s.raw('$', 'M', '!').fail(&FramingError{Byte: '!'}).
					frame(t, response(V1, CmdAltitude, 9))
			},
		},
		{
			name: "request direction",
			stream: func(s *parserTestStream) {
				f := &Frame{Version: V1, Direction: DirRequest, Code: CmdStatus, Payload: []byte{}}
				f.Checksum = f.Sum()
				s.frame(t, f)
			},
		},
		{
			name: "v1 checksum mismatch",
			stream: func(s *parserTestStream) {
				s.raw('$', 'M', '>', 0x01, 0x65, 0x07, 0x00).
					fail(&ChecksumError{Version: V1, Code: CmdStatus, Expected: 0x63, Actual: 0x00}).
					frame(t, response(V1, CmdStatus, 7))
			},
		},
		{
			name: "v2 checksum mismatch",
			stream: func(s *parserTestStream) {
				s.raw('$', 'X', '>', 0x00, 0x00, 0x20, 0x00, 0x00, 0x00).
					fail(&ChecksumError{Version: V2, Code: Cmd2InavStatus, Expected: 0x32, Actual: 0x00}).
					frame(t, response(V2, Cmd2InavStatus))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var s parserTestStream
			tc.stream(&s)
			var p Parser
			require.Equal(t, s.expect, p.Feed(s.data))
			require.True(t, p.Idle())
		})
	}
}

func TestParserRoundTripV1(t *testing.T) {
	var p Parser
	payload := make([]byte, 255)
	for i := range payload {
		payload[i] = byte(i * 31)
	}
	for code := Code(1); code <= MaxV1Code; code++ {
		for n := 0; n <= 255; n++ {
			b, err := EncodeV1(DirResponse, code, payload[:n])
			require.NoError(t, err)
			results := p.Feed(b)
			require.Len(t, results, 1)
			require.NoError(t, results[0].Err)
			require.Equal(t, code, results[0].Frame.Code)
			require.Equal(t, payload[:n], results[0].Frame.Payload)
		}
	}
}

func TestParserRoundTripV2(t *testing.T) {
	var p Parser
	for _, code := range []Code{255, 256, 0x1003, 0x2000, 0xffff} {
		for _, n := range []int{0, 1, 255, 256, 4096, 0xffff} {
			payload := make([]byte, n)
			rand.Read(payload)
			b, err := EncodeV2(DirResponse, code, payload)
			require.NoError(t, err)
			results := p.Feed(b)
			require.Len(t, results, 1)
			require.NoError(t, results[0].Err)
			require.Equal(t, code, results[0].Frame.Code)
			require.Equal(t, V2, results[0].Frame.Version)
			require.Equal(t, payload, results[0].Frame.Payload)
		}
	}
}

func TestParserChunkBoundaries(t *testing.T) {
	var s parserTestStream
	s.frame(t, response(V1, CmdStatus, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11)).
		raw(0x55, 0xaa).
		frame(t, response(V2, Cmd2InavMisc, 1, 2)).
		raw('$', 'M', '?').fail(&FramingError{Byte: '?'}).
		frame(t, response(V1, CmdUID, 0xde, 0xad, 0xbe, 0xef)).
		frame(t, response(V1, CmdDebug))

	var whole Parser
	expect := whole.Feed(s.data)
	require.Equal(t, s.expect, expect)

	var bytewise Parser
	var chunks [][]byte
	for i := range s.data {
		chunks = append(chunks, s.data[i:i+1])
	}
	require.Equal(t, expect, parseAll(&bytewise, chunks...))

	rnd := rand.New(rand.NewSource(1))
	for round := 0; round < 100; round++ {
		var p Parser
		chunks = chunks[:0]
		for data := s.data; len(data) > 0; {
			n := rnd.Intn(len(data)) + 1
			chunks, data = append(chunks, data[:n]), data[n:]
		}
		require.Equal(t, expect, parseAll(&p, chunks...), "round %d", round)
	}
}

func TestParserResync(t *testing.T) {
	good1, err := EncodeV1(DirResponse, CmdAnalog, []byte{1, 2, 3, 4, 5, 6, 7})
	require.NoError(t, err)
	good2, err := EncodeV1(DirResponse, CmdMisc, []byte{8, 9})
	require.NoError(t, err)
	corrupt := append([]byte(nil), good1...)
	corrupt[7] ^= 0x10

	var p Parser
	results := p.Feed(append(corrupt, good2...))
	require.Len(t, results, 2)
	require.IsType(t, &ChecksumError{}, results[0].Err)
	require.Nil(t, results[0].Frame)
	require.NoError(t, results[1].Err)
	require.Equal(t, CmdMisc, results[1].Frame.Code)
	require.Equal(t, []byte{8, 9}, results[1].Frame.Payload)
}

func TestParserReset(t *testing.T) {
	var p Parser
	require.Empty(t, p.Feed([]byte{'$', 'M', '>', 0x03, 0x65, 1}))
	require.False(t, p.Idle())
	p.Reset()
	require.True(t, p.Idle())
	results := p.Feed([]byte{'$', 'M', '>', 0x00, 0x01, 0x01})
	require.Equal(t, []ParseResult{{Frame: response(V1, CmdAPIVersion)}}, results)
}
