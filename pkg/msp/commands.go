package msp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Code is the command code of a frame.
type Code uint16

// MaxV1Code is the largest code sent using V1 framing.
const MaxV1Code Code = 254

// V1 commands.
const (
	CmdAPIVersion     Code = 1
	CmdFCVariant      Code = 2
	CmdFCVersion      Code = 3
	CmdBoardInfo      Code = 4
	CmdBuildInfo      Code = 5
	CmdName           Code = 10
	CmdSetName        Code = 11
	CmdFeature        Code = 36
	CmdSetFeature     Code = 37
	CmdReboot         Code = 68
	CmdStatus         Code = 101
	CmdRawIMU         Code = 102
	CmdServo          Code = 103
	CmdMotor          Code = 104
	CmdRC             Code = 105
	CmdRawGPS         Code = 106
	CmdCompGPS        Code = 107
	CmdAttitude       Code = 108
	CmdAltitude       Code = 109
	CmdAnalog         Code = 110
	CmdRCTuning       Code = 111
	CmdPID            Code = 112
	CmdBox            Code = 113
	CmdMisc           Code = 114
	CmdMotorPins      Code = 115
	CmdBoxNames       Code = 116
	CmdPIDNames       Code = 117
	CmdWP             Code = 118
	CmdBoxIDs         Code = 119
	CmdServoConf      Code = 120
	CmdStatusEx       Code = 150
	CmdUID            Code = 160
	CmdSetRawRC       Code = 200
	CmdSetRawGPS      Code = 201
	CmdSetPID         Code = 202
	CmdSetBox         Code = 203
	CmdSetRCTuning    Code = 204
	CmdAccCalibration Code = 205
	CmdMagCalibration Code = 206
	CmdSetMisc        Code = 207
	CmdResetConf      Code = 208
	CmdSetWP          Code = 209
	CmdSelectSetting  Code = 210
	CmdSetHead        Code = 211
	CmdSetServoConf   Code = 212
	CmdSetMotor       Code = 214
	CmdEEPROMWrite    Code = 250
	CmdDebug          Code = 254
)

// V2 commands.
const (
	Cmd2CommonSetting     Code = 0x1003
	Cmd2CommonSetSetting  Code = 0x1004
	Cmd2CommonSettingInfo Code = 0x1007
	Cmd2InavStatus        Code = 0x2000
	Cmd2InavOpticalFlow   Code = 0x2001
	Cmd2InavAnalog        Code = 0x2002
	Cmd2InavMisc          Code = 0x2003
	Cmd2InavSetMisc       Code = 0x2004
	Cmd2InavBatteryConfig Code = 0x2005
	Cmd2InavAirSpeed      Code = 0x2009
)

var codeNames = map[Code]string{
	CmdAPIVersion:     "MSP_API_VERSION",
	CmdFCVariant:      "MSP_FC_VARIANT",
	CmdFCVersion:      "MSP_FC_VERSION",
	CmdBoardInfo:      "MSP_BOARD_INFO",
	CmdBuildInfo:      "MSP_BUILD_INFO",
	CmdName:           "MSP_NAME",
	CmdSetName:        "MSP_SET_NAME",
	CmdFeature:        "MSP_FEATURE",
	CmdSetFeature:     "MSP_SET_FEATURE",
	CmdReboot:         "MSP_REBOOT",
	CmdStatus:         "MSP_STATUS",
	CmdRawIMU:         "MSP_RAW_IMU",
	CmdServo:          "MSP_SERVO",
	CmdMotor:          "MSP_MOTOR",
	CmdRC:             "MSP_RC",
	CmdRawGPS:         "MSP_RAW_GPS",
	CmdCompGPS:        "MSP_COMP_GPS",
	CmdAttitude:       "MSP_ATTITUDE",
	CmdAltitude:       "MSP_ALTITUDE",
	CmdAnalog:         "MSP_ANALOG",
	CmdRCTuning:       "MSP_RC_TUNING",
	CmdPID:            "MSP_PID",
	CmdBox:            "MSP_BOX",
	CmdMisc:           "MSP_MISC",
	CmdMotorPins:      "MSP_MOTOR_PINS",
	CmdBoxNames:       "MSP_BOXNAMES",
	CmdPIDNames:       "MSP_PIDNAMES",
	CmdWP:             "MSP_WP",
	CmdBoxIDs:         "MSP_BOXIDS",
	CmdServoConf:      "MSP_SERVO_CONF",
	CmdStatusEx:       "MSP_STATUS_EX",
	CmdUID:            "MSP_UID",
	CmdSetRawRC:       "MSP_SET_RAW_RC",
	CmdSetRawGPS:      "MSP_SET_RAW_GPS",
	CmdSetPID:         "MSP_SET_PID",
	CmdSetBox:         "MSP_SET_BOX",
	CmdSetRCTuning:    "MSP_SET_RC_TUNING",
	CmdAccCalibration: "MSP_ACC_CALIBRATION",
	CmdMagCalibration: "MSP_MAG_CALIBRATION",
	CmdSetMisc:        "MSP_SET_MISC",
	CmdResetConf:      "MSP_RESET_CONF",
	CmdSetWP:          "MSP_SET_WP",
	CmdSelectSetting:  "MSP_SELECT_SETTING",
	CmdSetHead:        "MSP_SET_HEAD",
	CmdSetServoConf:   "MSP_SET_SERVO_CONF",
	CmdSetMotor:       "MSP_SET_MOTOR",
	CmdEEPROMWrite:    "MSP_EEPROM_WRITE",
	CmdDebug:          "MSP_DEBUG",

	Cmd2CommonSetting:     "MSP2_COMMON_SETTING",
	Cmd2CommonSetSetting:  "MSP2_COMMON_SET_SETTING",
	Cmd2CommonSettingInfo: "MSP2_COMMON_SETTING_INFO",
	Cmd2InavStatus:        "MSP2_INAV_STATUS",
	Cmd2InavOpticalFlow:   "MSP2_INAV_OPTICAL_FLOW",
	Cmd2InavAnalog:        "MSP2_INAV_ANALOG",
	Cmd2InavMisc:          "MSP2_INAV_MISC",
	Cmd2InavSetMisc:       "MSP2_INAV_SET_MISC",
	Cmd2InavBatteryConfig: "MSP2_INAV_BATTERY_CONFIG",
	Cmd2InavAirSpeed:      "MSP2_INAV_AIR_SPEED",
}

var namedCodes = func() map[string]Code {
	m := make(map[string]Code, len(codeNames))
	for code, name := range codeNames {
		m[name] = code
	}
	return m
}()

// Name returns the protocol name of a known code, or MSP_<code> otherwise.
func (c Code) Name() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "MSP_" + strconv.Itoa(int(c))
}

// String implements fmt.Stringer.
func (c Code) String() string {
	return c.Name()
}

// IsKnown indicates the code is in the catalog.
func (c Code) IsKnown() bool {
	_, ok := codeNames[c]
	return ok
}

// Version returns the framing used when sending this code.
func (c Code) Version() Version {
	if c <= MaxV1Code {
		return V1
	}
	return V2
}

// ParseCode parses a command code from a name (case insensitive, the
// MSP_/MSP2_ prefix may be omitted), a decimal number, or a 0x prefixed
// hex number.
func ParseCode(s string) (Code, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 0, 16); err == nil {
		return Code(n), nil
	}
	name := strings.ToUpper(s)
	if code, ok := namedCodes[name]; ok {
		return code, nil
	}
	if code, ok := namedCodes["MSP_"+name]; ok {
		return code, nil
	}
	if code, ok := namedCodes["MSP2_"+name]; ok {
		return code, nil
	}
	if strings.HasPrefix(name, "MSP_") {
		if n, err := strconv.ParseUint(name[4:], 10, 16); err == nil {
			return Code(n), nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", s)
}

// Codes returns all known codes in ascending order.
func Codes() []Code {
	codes := make([]Code, 0, len(codeNames))
	for code := range codeNames {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
