package config

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const (
	machineAppID   = "msp.go"
	machineIDLen   = 12
	fallbackDevice = "default"
)

// ResolveDeviceID returns DeviceID, or an ID derived from the machine ID.
func (c *Config) ResolveDeviceID() string {
	if c.DeviceID != "" {
		return c.DeviceID
	}
	id, err := machineid.ProtectedID(machineAppID)
	if err != nil {
		glog.Warningf("machine id unavailable, using %q: %v", fallbackDevice, err)
		return fallbackDevice
	}
	if len(id) > machineIDLen {
		id = id[:machineIDLen]
	}
	return id
}
