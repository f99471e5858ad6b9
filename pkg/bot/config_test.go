package bot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AriaCoder/Axobotl/pkg/auto"
	"github.com/AriaCoder/Axobotl/pkg/control"
	"github.com/AriaCoder/Axobotl/pkg/robot"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, control.Driver, cfg.Mode)
	assert.Equal(t, DefaultHz, cfg.Hz)
	assert.Equal(t, auto.DefaultShootCycles, cfg.ShootCycles)
	assert.Equal(t, 4*time.Second, cfg.Timing.ArmTimeout.Std())
	assert.Equal(t, robot.DefaultBaudRate, cfg.Hardware.BaudRate)
	assert.Equal(t, DefaultListen, cfg.Remote.Listen)
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	cfg := DefaultConfig()
	cfg.Mode = control.AutoFar
	cfg.ShootCycles = 3
	cfg.Hardware.Port = "/dev/ttyACM0"
	require.NoError(t, cfg.SaveTo(path))
	assert.True(t, ConfigExists(path))

	loaded, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, control.AutoFar, loaded.Mode)
	assert.Equal(t, 3, loaded.ShootCycles)
	assert.Equal(t, "/dev/ttyACM0", loaded.Hardware.Port)
	assert.Equal(t, cfg.Timing, loaded.Timing)
}

func TestConfig_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mode":"auto-near","timing":{"rock_timeout":"2s"}}`), 0644))

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, control.AutoNear, cfg.Mode)
	assert.Equal(t, 2*time.Second, cfg.Timing.RockTimeout.Std())
	assert.Equal(t, 3*time.Second, cfg.Timing.RockBounce.Std())
	assert.Equal(t, DefaultHz, cfg.Hz)
}

func TestConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadConfigFrom(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mode":"sideways"}`), 0644))
	_, err = LoadConfigFrom(path)
	assert.ErrorContains(t, err, "unknown mode")
}

func TestLogSink(t *testing.T) {
	s := NewLogSink(2)
	n, err := s.Write([]byte("one\ntwo\nthree\n"))
	require.NoError(t, err)
	assert.Equal(t, 14, n)
	assert.Equal(t, "one", <-s.Lines())
	assert.Equal(t, "two", <-s.Lines())
	select {
	case l := <-s.Lines():
		t.Fatalf("unexpected line %q", l)
	default:
	}
}
