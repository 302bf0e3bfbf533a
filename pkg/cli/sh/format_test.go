package sh

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/msp.go/pkg/msp"
)

func TestParsePayload(t *testing.T) {
	testCases := []struct {
		args   []string
		expect []byte
	}{
		{nil, nil},
		{[]string{"dc05"}, []byte{0xdc, 0x05}},
		{[]string{"0xdc05", "DC"}, []byte{0xdc, 0x05, 0xdc}},
		{[]string{"u8:7", "u8:0xff"}, []byte{7, 0xff}},
		{[]string{"u16:1500", "u16:1000"}, []byte{0xdc, 0x05, 0xe8, 0x03}},
		{[]string{"u32:0x01020304"}, []byte{4, 3, 2, 1}},
		{[]string{"str:quad"}, []byte("quad")},
		{[]string{"str:"}, []byte{}},
	}
	for _, tc := range testCases {
		payload, err := ParsePayload(tc.args)
		require.NoError(t, err, "%v", tc.args)
		require.Equal(t, tc.expect, payload, "%v", tc.args)
	}

	for _, bad := range []string{"abc", "zz", "u8:256", "u16:-1", "u32:x", "f32:1.0"} {
		_, err := ParsePayload([]string{bad})
		require.Error(t, err, bad)
	}
}

func TestParseCodeAndPayload(t *testing.T) {
	code, payload, err := ParseCodeAndPayload([]string{"set_raw_rc", "u16:1500", "u16:1500"})
	require.NoError(t, err)
	require.Equal(t, msp.CmdSetRawRC, code)
	require.Equal(t, []byte{0xdc, 0x05, 0xdc, 0x05}, payload)

	code, payload, err = ParseCodeAndPayload([]string{"0x2000"})
	require.NoError(t, err)
	require.Equal(t, msp.Cmd2InavStatus, code)
	require.Empty(t, payload)

	_, _, err = ParseCodeAndPayload(nil)
	require.Error(t, err)
	_, _, err = ParseCodeAndPayload([]string{"MSP_NOPE"})
	require.Error(t, err)
	_, _, err = ParseCodeAndPayload([]string{"status", "x"})
	require.Error(t, err)
}

func TestFormatResult(t *testing.T) {
	res := msp.Result{Code: msp.CmdStatus, Data: []byte{1, 0xab}}
	require.Equal(t, "MSP_STATUS [2] 01 ab", FormatResult(res))
	require.Equal(t, &ResultOutput{Code: msp.CmdStatus, Name: "MSP_STATUS", Payload: "01ab"}, NewResultOutput(res))

	res = msp.Result{Code: msp.CmdAttitude, Err: errors.New("boom")}
	require.Equal(t, "MSP_ATTITUDE ERROR boom", FormatResult(res))
	require.Equal(t, "boom", NewResultOutput(res).Error)
	require.Equal(t, "", NewResultOutput(res).Payload)
}
