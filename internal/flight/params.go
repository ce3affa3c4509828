package flight

// Params are the per-tick flight constants. All rates are per logical tick;
// nothing is scaled by wall-clock frame time.
type Params struct {
	Deadzone          float64 `yaml:"deadzone"`
	MaxAngularSpeed   float64 `yaml:"max_angular_speed"`
	Acceleration      float64 `yaml:"acceleration"`
	NormalDamping     float64 `yaml:"normal_damping"`
	StrongDamping     float64 `yaml:"strong_damping"`
	AutoDampThreshold float64 `yaml:"auto_damp_threshold"`
	SnapThreshold     float64 `yaml:"snap_threshold"`

	ThrustStep float64 `yaml:"thrust_step"`
	BrakeStep  float64 `yaml:"brake_step"`

	BankFactor float64 `yaml:"bank_factor"`
	MaxBank    float64 `yaml:"max_bank"`

	CameraOffset [3]float64 `yaml:"camera_offset"`
}

func DefaultParams() Params {
	return Params{
		Deadzone:          0.1,
		MaxAngularSpeed:   0.03,
		Acceleration:      0.002,
		NormalDamping:     0.98,
		StrongDamping:     0.94,
		AutoDampThreshold: 0.015,
		SnapThreshold:     0.007,

		ThrustStep: 10,
		BrakeStep:  5,

		BankFactor: 8,
		MaxBank:    0.5,

		CameraOffset: [3]float64{0, 5, -20},
	}
}
