package fc

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Version is decoded from MSP_API_VERSION, MSP_FC_VARIANT and MSP_FC_VERSION.
type Version struct {
	Protocol   uint8  `json:"protocol"`
	APIVersion string `json:"api_version"`
	Variant    string `json:"variant"`
	Version    string `json:"version"`
}

// String implements fmt.Stringer.
func (v *Version) String() string {
	return fmt.Sprintf("%s %s (API %s, protocol %d)", v.Variant, v.Version, v.APIVersion, v.Protocol)
}

// Attitude is decoded from MSP_ATTITUDE.
type Attitude struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// String implements fmt.Stringer.
func (a *Attitude) String() string {
	return fmt.Sprintf("roll=%.1f pitch=%.1f yaw=%.0f", a.Roll, a.Pitch, a.Yaw)
}

func short(name string, payload []byte, n int) error {
	if len(payload) < n {
		return fmt.Errorf("%s: expect %d bytes, got %d", name, n, len(payload))
	}
	return nil
}

// DecodeAPIVersion decodes MSP_API_VERSION into v.
func (v *Version) DecodeAPIVersion(payload []byte) error {
	if err := short("MSP_API_VERSION", payload, 3); err != nil {
		return err
	}
	v.Protocol = payload[0]
	v.APIVersion = fmt.Sprintf("%d.%d", payload[1], payload[2])
	return nil
}

// DecodeVariant decodes MSP_FC_VARIANT into v.
func (v *Version) DecodeVariant(payload []byte) error {
	if err := short("MSP_FC_VARIANT", payload, 4); err != nil {
		return err
	}
	v.Variant = strings.TrimRight(string(payload[:4]), "\x00 ")
	return nil
}

// DecodeFCVersion decodes MSP_FC_VERSION into v.
func (v *Version) DecodeFCVersion(payload []byte) error {
	if err := short("MSP_FC_VERSION", payload, 3); err != nil {
		return err
	}
	v.Version = fmt.Sprintf("%d.%d.%d", payload[0], payload[1], payload[2])
	return nil
}

// DecodeAttitude decodes MSP_ATTITUDE: roll and pitch in 0.1 degree,
// yaw in degrees, all int16.
func DecodeAttitude(payload []byte) (*Attitude, error) {
	if err := short("MSP_ATTITUDE", payload, 6); err != nil {
		return nil, err
	}
	return &Attitude{
		Roll:  float64(int16(binary.LittleEndian.Uint16(payload[0:]))) / 10,
		Pitch: float64(int16(binary.LittleEndian.Uint16(payload[2:]))) / 10,
		Yaw:   float64(int16(binary.LittleEndian.Uint16(payload[4:]))),
	}, nil
}

// DecodeRC decodes MSP_RC channel values.
func DecodeRC(payload []byte) []uint16 {
	channels := make([]uint16, len(payload)/2)
	for n := range channels {
		channels[n] = binary.LittleEndian.Uint16(payload[n*2:])
	}
	return channels
}
