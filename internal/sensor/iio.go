package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Sysfs attribute names exposed by the industrial-I/O subsystem for
// BME280-class devices.
const (
	iioTempFile     = "in_temp_input"         // millidegrees Celsius
	iioHumidityFile = "in_humidityrelative_input" // milli-percent
	iioPressureFile = "in_pressure_input"     // kPa
	iioLightFile    = "in_illuminance_input"  // lux
)

// IIOReader reads a BME280-class device through the Linux industrial-I/O
// sysfs interface. Humidity and light attributes are optional: a BMP280 has
// no humidity channel and the light sensor is a separate part, matching the
// firmware's optional-sensor build flags.
type IIOReader struct {
	// Dir is the device directory, e.g. /sys/bus/iio/devices/iio:device0.
	Dir string

	hasHumidity bool
	hasLight    bool
}

// NewIIOReader creates a reader over the given iio device directory.
func NewIIOReader(dir string) *IIOReader {
	return &IIOReader{Dir: dir}
}

func (r *IIOReader) Name() string { return "iio" }

// Init checks that the mandatory channels exist and probes the optional
// ones.
func (r *IIOReader) Init() error {
	for _, name := range []string{iioTempFile, iioPressureFile} {
		if _, err := os.Stat(filepath.Join(r.Dir, name)); err != nil {
			return fmt.Errorf("iio channel %s: %w", name, err)
		}
	}

	_, err := os.Stat(filepath.Join(r.Dir, iioHumidityFile))
	r.hasHumidity = err == nil
	_, err = os.Stat(filepath.Join(r.Dir, iioLightFile))
	r.hasLight = err == nil

	return nil
}

// Read takes one measurement from the sysfs attributes.
func (r *IIOReader) Read() (Environment, error) {
	var env Environment

	milli, err := r.readValue(iioTempFile)
	if err != nil {
		return env, err
	}
	env.Temperature = milli / 1000

	kpa, err := r.readValue(iioPressureFile)
	if err != nil {
		return env, err
	}
	env.Pressure = kpa * 10 // kPa to hPa

	if r.hasHumidity {
		milli, err := r.readValue(iioHumidityFile)
		if err != nil {
			return env, err
		}
		env.Humidity = milli / 1000
	}

	if r.hasLight {
		lux, err := r.readValue(iioLightFile)
		if err != nil {
			return env, err
		}
		if lux > 0 {
			env.Light = uint32(lux)
		}
	}

	return env, nil
}

func (r *IIOReader) readValue(name string) (float64, error) {
	data, err := os.ReadFile(filepath.Join(r.Dir, name))
	if err != nil {
		return 0, fmt.Errorf("read iio channel %s: %w", name, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse iio channel %s: %w", name, err)
	}
	return v, nil
}
