// Package msp provides MultiWii Serial Protocol (MSP) support.
package msp

// MSP is a request/response protocol spoken by flight controller firmware
// over a serial link. A frame starts with '$', followed by a version marker
// ('M' for V1, 'X' for V2) and a direction byte ('<' request, '>' response).
//
// V1: $ M <dir> <len:1> <cmd:1> <payload> <xor(len, cmd, payload)>
// V2: $ X <dir> <flag:1> <cmd:2 LE> <len:2 LE> <payload> <crc8(flag..payload)>
//
// Commands with codes up to 254 are sent as V1, larger codes as V2.
// Responses are correlated to requests by command code in FIFO order.
//
// Producer: flight controller firmware
// Consumer: host side tools
