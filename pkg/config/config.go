// Package config provides common options for connecting to a device.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"

	"github.com/robotalks/msp.go/pkg/msp"
	"github.com/robotalks/msp.go/pkg/transport"
)

// Config provides options to setup a connection and the bridge.
// Precedence: built-in defaults, config file, env, command line flags.
type Config struct {
	// Port is the transport address, see transport.Open.
	Port string `toml:"port"`
	// Baud is the serial baud rate.
	Baud int `toml:"baud"`
	// TimeoutMS is the response timeout in milliseconds.
	TimeoutMS int `toml:"timeout_ms"`
	// MQTTURL specifies the broker for the bridge.
	// e.g. mqtt://host:port/topic-prefix
	MQTTURL string `toml:"mqtt_url"`
	// DeviceID names the device in bridge topics, machine ID if empty.
	DeviceID string `toml:"device_id"`
}

// Env variables.
const (
	EnvConfigFile = "MSP_CONFIG"
	EnvPort       = "MSP_PORT"
	EnvBaud       = "MSP_BAUD"
	EnvTimeoutMS  = "MSP_TIMEOUT_MS"
	EnvMQTTURL    = "MSP_MQTT_URL"
	EnvDeviceID   = "MSP_DEVICE_ID"
)

var builtinConfig = Config{
	Port:      "/dev/ttyUSB0",
	Baud:      transport.DefaultBaudRate,
	TimeoutMS: int(msp.DefaultTimeout / time.Millisecond),
	MQTTURL:   "mqtt://localhost:1883/msp/",
}

var (
	configFile = os.Getenv(EnvConfigFile)
	flagConfig = builtinConfig
)

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", configFile, "Config file (TOML).")
	flag.StringVar(&flagConfig.Port, "port", flagConfig.Port, "Device address: serial port, tcp://, ws://.")
	flag.IntVar(&flagConfig.Baud, "baud", flagConfig.Baud, "Serial baud rate.")
	flag.IntVar(&flagConfig.TimeoutMS, "timeout", flagConfig.TimeoutMS, "Response timeout in milliseconds.")
	flag.StringVar(&flagConfig.MQTTURL, "mqtt", flagConfig.MQTTURL, "MQTT broker URL.")
	flag.StringVar(&flagConfig.DeviceID, "device-id", flagConfig.DeviceID, "Device ID used in MQTT topics.")
}

// NewConfig creates a Config from defaults, the config file, env and flags.
func NewConfig() (*Config, error) {
	conf := builtinConfig
	if configFile != "" {
		if err := conf.LoadFile(configFile); err != nil {
			return nil, err
		}
	}
	if err := conf.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	conf.applyFlags(flag.CommandLine)
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// MustNewConfig creates a Config and fails on error.
func MustNewConfig() *Config {
	conf, err := NewConfig()
	if err != nil {
		glog.Exit(err)
	}
	return conf
}

// LoadFile overrides options present in a TOML file.
func (c *Config) LoadFile(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	return nil
}

// ApplyEnv overrides options from env variables.
func (c *Config) ApplyEnv(getenv func(string) string) (err error) {
	if val := getenv(EnvPort); val != "" {
		c.Port = val
	}
	if val := getenv(EnvBaud); val != "" {
		if c.Baud, err = strconv.Atoi(val); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvBaud, err)
		}
	}
	if val := getenv(EnvTimeoutMS); val != "" {
		if c.TimeoutMS, err = strconv.Atoi(val); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeoutMS, err)
		}
	}
	if val := getenv(EnvMQTTURL); val != "" {
		c.MQTTURL = val
	}
	if val := getenv(EnvDeviceID); val != "" {
		c.DeviceID = val
	}
	return nil
}

// applyFlags copies values of flags explicitly set on the command line.
func (c *Config) applyFlags(fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			c.Port = flagConfig.Port
		case "baud":
			c.Baud = flagConfig.Baud
		case "timeout":
			c.TimeoutMS = flagConfig.TimeoutMS
		case "mqtt":
			c.MQTTURL = flagConfig.MQTTURL
		case "device-id":
			c.DeviceID = flagConfig.DeviceID
		}
	})
}

// Validate checks the options.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must be specified")
	}
	if c.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Baud)
	}
	if c.TimeoutMS <= 0 {
		return fmt.Errorf("invalid timeout %dms", c.TimeoutMS)
	}
	return nil
}

// Timeout returns the response timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Connect opens the transport and creates a Conn over it.
// The returned Closer closes the transport.
func (c *Config) Connect() (*msp.Conn, io.Closer, error) {
	rw, err := transport.Open(c.Port, c.Baud)
	if err != nil {
		return nil, nil, err
	}
	conn := msp.NewConn(rw)
	conn.Timeout = c.Timeout()
	return conn, rw, nil
}

// MustConnect connects or fails.
func (c *Config) MustConnect() (*msp.Conn, io.Closer) {
	conn, closer, err := c.Connect()
	if err != nil {
		glog.Exitf("connect %s failed: %v", c.Port, err)
	}
	return conn, closer
}
