package tuning

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"starlane.io/internal/flight"
)

type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz"`

	Net Net `yaml:"net"`

	Input Input `yaml:"input"`

	Flight flight.Params `yaml:"flight"`
}

type Net struct {
	RetryDelayMs       int `yaml:"retry_delay_ms"`
	HandshakeTimeoutMs int `yaml:"handshake_timeout_ms"`
	WriteTimeoutMs     int `yaml:"write_timeout_ms"`
}

type Input struct {
	// HoldWindowMs is how long a terminal key counts as held after its last
	// press. A second press inside the window reads as autorepeat, so edge
	// controls (toggle, scan) need taps further apart than this.
	HoldWindowMs int `yaml:"hold_window_ms"`
}

func (i Input) HoldWindow() time.Duration { return time.Duration(i.HoldWindowMs) * time.Millisecond }

func Defaults() Tuning {
	return Tuning{
		TickRateHz: 60,
		Net: Net{
			RetryDelayMs:       3000,
			HandshakeTimeoutMs: 5000,
			WriteTimeoutMs:     5000,
		},
		Input:  Input{HoldWindowMs: 550},
		Flight: flight.DefaultParams(),
	}
}

// Load reads path over Defaults. Keys absent from the file keep their default.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// LoadOrDefault is Load that treats a missing file as "use defaults". found
// reports whether the file existed.
func LoadOrDefault(path string) (t Tuning, found bool, err error) {
	t, err = Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), false, nil
	}
	return t, err == nil, err
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 || t.TickRateHz > 1000 {
		return fmt.Errorf("tick_rate_hz out of range: %d", t.TickRateHz)
	}
	f := t.Flight
	if f.MaxAngularSpeed <= 0 {
		return fmt.Errorf("flight.max_angular_speed must be > 0")
	}
	if f.NormalDamping <= 0 || f.NormalDamping >= 1 || f.StrongDamping <= 0 || f.StrongDamping >= 1 {
		return fmt.Errorf("flight damping factors must be in (0,1)")
	}
	if f.Acceleration <= 0 {
		return fmt.Errorf("flight.acceleration must be > 0")
	}
	// Without a snap threshold damping only approaches zero.
	if f.SnapThreshold <= 0 {
		return fmt.Errorf("flight.snap_threshold must be > 0")
	}
	if f.Deadzone < 0 || f.AutoDampThreshold < 0 {
		return fmt.Errorf("flight thresholds must be >= 0")
	}
	if f.ThrustStep <= 0 || f.BrakeStep <= 0 {
		return fmt.Errorf("flight thrust and brake steps must be > 0")
	}
	if t.Input.HoldWindowMs <= 0 {
		return fmt.Errorf("input.hold_window_ms must be > 0")
	}
	return nil
}

func (t Tuning) TickInterval() time.Duration {
	return time.Second / time.Duration(t.TickRateHz)
}

func (n Net) RetryDelay() time.Duration { return time.Duration(n.RetryDelayMs) * time.Millisecond }
func (n Net) HandshakeTimeout() time.Duration {
	return time.Duration(n.HandshakeTimeoutMs) * time.Millisecond
}
func (n Net) WriteTimeout() time.Duration { return time.Duration(n.WriteTimeoutMs) * time.Millisecond }
