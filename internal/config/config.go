package config

// FieldCapacity is the maximum number of content bytes in each configuration
// field. The persisted layout reserves FieldCapacity+1 bytes per field, so a
// stored field is always NUL-terminated.
const FieldCapacity = 19

// Field names accepted by the storage façade and the /set endpoint.
const (
	FieldName     = "name"
	FieldLocation = "location"
	FieldWiFiSSID = "wifi_ssid"
	FieldWiFiPwd  = "wifi_pwd"
)

// Compiled-in defaults, used when storage holds no valid record.
const (
	DefaultName     = "etho_sensor_000"
	DefaultLocation = "n/a"
	DefaultWiFiSSID = "ETHOSCOPE_WIFI"
	DefaultWiFiPwd  = "ETHOSCOPE_1234"
)

// Configuration is the device record persisted to non-volatile storage.
// Field values are bounded to FieldCapacity bytes; anything longer is
// truncated on the way in, never on the way out. The record is only ever
// mutated through the storage façade - callers hold an in-memory mirror that
// they refresh after the façade reports success.
type Configuration struct {
	Name     string
	Location string
	WiFiSSID string
	WiFiPwd  string

	// Checksum is the stored 16-bit additive checksum over the serialized
	// field bytes. Zero on records that have never been saved.
	Checksum uint16
}

// Default returns the compiled-in configuration used when storage is empty
// or fails validation.
func Default() Configuration {
	return Configuration{
		Name:     DefaultName,
		Location: DefaultLocation,
		WiFiSSID: DefaultWiFiSSID,
		WiFiPwd:  DefaultWiFiPwd,
	}
}

// Truncate clamps a value to FieldCapacity bytes. The persisted layout
// depends on fixed widths, so overlong input is cut, not rejected.
func Truncate(value string) string {
	if len(value) > FieldCapacity {
		return value[:FieldCapacity]
	}
	return value
}

// Fields returns the persisted field names in serialization order.
func Fields() []string {
	return []string{FieldName, FieldLocation, FieldWiFiSSID, FieldWiFiPwd}
}

// IsField reports whether name is a recognized configuration field.
func IsField(name string) bool {
	switch name {
	case FieldName, FieldLocation, FieldWiFiSSID, FieldWiFiPwd:
		return true
	}
	return false
}

// Set assigns a field by name with truncating-copy semantics.
// Returns false if the field name is not recognized; the record is left
// untouched in that case.
func (c *Configuration) Set(field, value string) bool {
	switch field {
	case FieldName:
		c.Name = Truncate(value)
	case FieldLocation:
		c.Location = Truncate(value)
	case FieldWiFiSSID:
		c.WiFiSSID = Truncate(value)
	case FieldWiFiPwd:
		c.WiFiPwd = Truncate(value)
	default:
		return false
	}
	return true
}

// Get returns a field value by name.
func (c *Configuration) Get(field string) (string, bool) {
	switch field {
	case FieldName:
		return c.Name, true
	case FieldLocation:
		return c.Location, true
	case FieldWiFiSSID:
		return c.WiFiSSID, true
	case FieldWiFiPwd:
		return c.WiFiPwd, true
	}
	return "", false
}

// FieldsEqual reports whether two records carry the same field values,
// ignoring the checksum. Used by write verification, where the checksum is
// compared separately.
func (c *Configuration) FieldsEqual(other *Configuration) bool {
	return c.Name == other.Name &&
		c.Location == other.Location &&
		c.WiFiSSID == other.WiFiSSID &&
		c.WiFiPwd == other.WiFiPwd
}
