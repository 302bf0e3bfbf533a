package config

import (
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestApplyEnv(t *testing.T) {
	conf := builtinConfig
	require.NoError(t, conf.ApplyEnv(envFrom(map[string]string{
		EnvPort:      "tcp://127.0.0.1:5760",
		EnvBaud:      "57600",
		EnvTimeoutMS: "500",
		EnvDeviceID:  "quad1",
	})))
	require.Equal(t, "tcp://127.0.0.1:5760", conf.Port)
	require.Equal(t, 57600, conf.Baud)
	require.Equal(t, 500*time.Millisecond, conf.Timeout())
	require.Equal(t, "quad1", conf.DeviceID)
	require.Equal(t, builtinConfig.MQTTURL, conf.MQTTURL)

	require.Error(t, conf.ApplyEnv(envFrom(map[string]string{EnvBaud: "fast"})))
	require.Error(t, conf.ApplyEnv(envFrom(map[string]string{EnvTimeoutMS: "soon"})))
}

func TestLoadFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "msp-config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "msp.toml")
	require.NoError(t, ioutil.WriteFile(path, []byte(`
port = "/dev/ttyACM0"
timeout_ms = 300
mqtt_url = "mqtt://broker:1883/fc/"
`), 0644))

	conf := builtinConfig
	require.NoError(t, conf.LoadFile(path))
	require.Equal(t, "/dev/ttyACM0", conf.Port)
	require.Equal(t, builtinConfig.Baud, conf.Baud)
	require.Equal(t, 300, conf.TimeoutMS)
	require.Equal(t, "mqtt://broker:1883/fc/", conf.MQTTURL)

	require.Error(t, conf.LoadFile(filepath.Join(dir, "missing.toml")))
	require.NoError(t, ioutil.WriteFile(path, []byte(`port = `), 0644))
	require.Error(t, conf.LoadFile(path))
}

func TestApplyFlags(t *testing.T) {
	saved := flagConfig
	defer func() { flagConfig = saved }()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&flagConfig.Port, "port", flagConfig.Port, "")
	fs.IntVar(&flagConfig.Baud, "baud", flagConfig.Baud, "")
	require.NoError(t, fs.Parse([]string{"-port", "ws://sim:8080/msp"}))

	conf := builtinConfig
	conf.Baud = 9600
	conf.applyFlags(fs)
	require.Equal(t, "ws://sim:8080/msp", conf.Port)
	// not set on command line, keeps file/env value.
	require.Equal(t, 9600, conf.Baud)
}

func TestValidate(t *testing.T) {
	conf := builtinConfig
	require.NoError(t, conf.Validate())
	conf.Port = ""
	require.Error(t, conf.Validate())
	conf = builtinConfig
	conf.Baud = 0
	require.Error(t, conf.Validate())
	conf = builtinConfig
	conf.TimeoutMS = -1
	require.Error(t, conf.Validate())
}

func TestResolveDeviceID(t *testing.T) {
	conf := builtinConfig
	conf.DeviceID = "bench"
	require.Equal(t, "bench", conf.ResolveDeviceID())
	conf.DeviceID = ""
	id := conf.ResolveDeviceID()
	require.NotEmpty(t, id)
	require.True(t, len(id) <= machineIDLen)
}
