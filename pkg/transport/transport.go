// Package transport opens byte streams to a device.
package transport

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
	"golang.org/x/net/websocket"
)

// DefaultBaudRate is used when the serial baud rate is not specified.
const DefaultBaudRate = 115200

const dialTimeout = 5 * time.Second

// Open opens a transport from address:
//
//	/dev/ttyUSB0, COM3                     serial port
//	serial:///dev/ttyUSB0?baud=57600       serial port with baud rate
//	tcp://host:port                        raw TCP (e.g. ser2net, SITL)
//	ws://host:port/path, wss://...         websocket binary stream
//
// baud is used for serial ports unless overridden in the address.
func Open(address string, baud int) (io.ReadWriteCloser, error) {
	if !strings.Contains(address, "://") {
		return OpenSerial(address, baud)
	}
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("invalid transport address %q: %w", address, err)
	}
	switch u.Scheme {
	case "serial":
		if val := u.Query().Get("baud"); val != "" {
			if baud, err = strconv.Atoi(val); err != nil {
				return nil, fmt.Errorf("invalid baud %q: %w", val, err)
			}
		}
		name := u.Path
		if u.Host != "" {
			name = u.Host + u.Path
		}
		return OpenSerial(name, baud)
	case "tcp":
		return net.DialTimeout("tcp", u.Host, dialTimeout)
	case "ws", "wss":
		return OpenWebsocket(address)
	default:
		return nil, fmt.Errorf("unknown transport scheme: %q", u.Scheme)
	}
}

// OpenSerial opens a serial port with 8N1.
func OpenSerial(name string, baud int) (io.ReadWriteCloser, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return port, nil
}

// OpenWebsocket connects a websocket and uses binary frames for writes.
func OpenWebsocket(address string) (io.ReadWriteCloser, error) {
	origin := "http://localhost/"
	conn, err := websocket.Dial(address, "", origin)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}

// Ports lists serial ports available on this machine.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
