package sensor

import (
	"math/rand"
	"sync"
	"time"
)

// Baseline values for the simulated environment, drifted by a small random
// walk on every read.
const (
	simBaseTemperature = 22.0
	simBasePressure    = 1013.25
	simBaseHumidity    = 40.0
	simBaseLight       = 120
)

// SimReader is a simulated driver for development and tests: no hardware,
// plausible numbers. Values random-walk around the baselines and are clamped
// to sane ranges.
type SimReader struct {
	mu  sync.Mutex
	rng *rand.Rand
	env Environment
}

// NewSimReader creates a simulated sensor seeded with the given value.
// A zero seed falls back to the clock, so two unseeded nodes diverge.
func NewSimReader(seed int64) *SimReader {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimReader{
		rng: rand.New(rand.NewSource(seed)),
		env: Environment{
			Temperature: simBaseTemperature,
			Humidity:    simBaseHumidity,
			Pressure:    simBasePressure,
			Light:       simBaseLight,
		},
	}
}

func (s *SimReader) Name() string { return "sim" }

// Init always succeeds; there is no hardware to probe.
func (s *SimReader) Init() error { return nil }

// Read drifts each value a step and returns the result.
func (s *SimReader) Read() (Environment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.env.Temperature = clamp(s.env.Temperature+s.step(0.3), -10, 50)
	s.env.Humidity = clamp(s.env.Humidity+s.step(1.0), 0, 100)
	s.env.Pressure = clamp(s.env.Pressure+s.step(0.5), 900, 1100)

	light := float64(s.env.Light) + s.step(10)
	s.env.Light = uint32(clamp(light, 0, 100000))

	return s.env, nil
}

func (s *SimReader) step(scale float64) float64 {
	return (s.rng.Float64()*2 - 1) * scale
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
