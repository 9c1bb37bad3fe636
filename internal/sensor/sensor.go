package sensor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gilestrolab/ethosensor/internal/logging"
)

// Time budgets for sensor access. Each blocking wait is bounded and degrades
// to a reported failure, never a stall.
const (
	// InitTimeout bounds the retry loop around driver initialization.
	InitTimeout = 5 * time.Second

	// ReadTimeout bounds a single measurement.
	ReadTimeout = 1 * time.Second

	// DefaultPollInterval is how often the daemon refreshes the mirror.
	DefaultPollInterval = 10 * time.Second

	initRetryDelay = 100 * time.Millisecond
)

// Environment is the in-memory mirror of the last sensor reading. It is
// overwritten wholesale on every successful poll and left untouched on a
// failed one; freshness is tracked separately by the Poller, since a stale
// value is indistinguishable from a fresh one by looking at the numbers.
type Environment struct {
	Temperature float64 // degrees Celsius
	Humidity    float64 // percent relative, 0 when the device has no sensor
	Pressure    float64 // hPa
	Light       uint32  // lux, 0 when the device has no sensor
}

// Reader is a sensor driver. Implementations must not block unboundedly;
// the Poller additionally enforces ReadTimeout around Read.
type Reader interface {
	// Init prepares the device. It may be called repeatedly until it
	// succeeds within the init budget.
	Init() error

	// Read takes one measurement.
	Read() (Environment, error)

	// Name identifies the driver in logs.
	Name() string
}

// Poller owns the Environment mirror and refreshes it from a Reader.
type Poller struct {
	reader Reader

	mu       sync.RWMutex
	env      Environment
	ok       bool
	lastPoll time.Time
}

// NewPoller creates a poller over the given driver.
func NewPoller(reader Reader) *Poller {
	return &Poller{reader: reader}
}

// Init retries driver initialization within the InitTimeout budget.
func (p *Poller) Init(ctx context.Context) error {
	deadline := time.Now().Add(InitTimeout)

	var err error
	for {
		if err = p.reader.Init(); err == nil {
			logging.Info("Sensor initialized", zap.String("driver", p.reader.Name()))
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("sensor %s did not initialize within %v: %w", p.reader.Name(), InitTimeout, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(initRetryDelay):
		}
	}
}

// Poll takes one bounded measurement and, on success, replaces the mirror
// wholesale. On failure the previous values stay in place and only the
// freshness flag drops.
func (p *Poller) Poll(ctx context.Context) error {
	env, err := p.readBounded(ctx)
	if err == nil {
		err = validate(env)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastPoll = time.Now()

	if err != nil {
		p.ok = false
		logging.Warn("Sensor poll failed",
			zap.String("driver", p.reader.Name()),
			zap.Error(err),
		)
		return err
	}

	p.env = env
	p.ok = true
	logging.Debug("Sensor poll completed",
		zap.Float64("temperature", env.Temperature),
		zap.Float64("humidity", env.Humidity),
		zap.Float64("pressure", env.Pressure),
		zap.Uint32("light", env.Light),
	)
	return nil
}

// readBounded runs a single Read with the ReadTimeout budget.
func (p *Poller) readBounded(ctx context.Context) (Environment, error) {
	type result struct {
		env Environment
		err error
	}
	done := make(chan result, 1)
	go func() {
		env, err := p.reader.Read()
		done <- result{env, err}
	}()

	select {
	case r := <-done:
		return r.env, r.err
	case <-time.After(ReadTimeout):
		return Environment{}, fmt.Errorf("sensor read exceeded %v", ReadTimeout)
	case <-ctx.Done():
		return Environment{}, ctx.Err()
	}
}

// validate rejects not-a-number readings. BME280-class drivers report NaN
// when the bus times out mid-measurement.
func validate(env Environment) error {
	if math.IsNaN(env.Temperature) || math.IsNaN(env.Pressure) || math.IsNaN(env.Humidity) {
		return fmt.Errorf("sensor returned NaN reading")
	}
	return nil
}

// Run polls on a fixed interval until the context is cancelled. Poll errors
// are logged and absorbed; the loop never stops on its own.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	// Prime the mirror before the first tick.
	_ = p.Poll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.Poll(ctx)
		}
	}
}

// Snapshot returns the current mirror and whether the most recent poll
// succeeded.
func (p *Poller) Snapshot() (Environment, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.env, p.ok
}

// LastPoll returns when the mirror was last refreshed (successfully or not).
func (p *Poller) LastPoll() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastPoll
}
