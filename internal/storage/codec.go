package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/gilestrolab/ethosensor/internal/config"
)

// The persisted record uses an explicit fixed layout rather than the
// in-memory struct layout, so the format is identical across architectures
// and compilers:
//
//	offset  0: name       20 bytes (NUL-padded, max 19 content bytes)
//	offset 20: location   20 bytes
//	offset 40: wifi_ssid  20 bytes
//	offset 60: wifi_pwd   20 bytes
//	offset 80: checksum    2 bytes, little-endian uint16
const (
	fieldSlot = config.FieldCapacity + 1

	// RecordSize is the serialized size of a configuration record.
	RecordSize = 4*fieldSlot + 2

	checksumOffset = RecordSize - 2
)

// MarshalRecord serializes a configuration into the fixed persisted layout.
// Field values longer than the slot content capacity are truncated.
func MarshalRecord(cfg *config.Configuration) []byte {
	buf := make([]byte, RecordSize)
	putField(buf[0*fieldSlot:], cfg.Name)
	putField(buf[1*fieldSlot:], cfg.Location)
	putField(buf[2*fieldSlot:], cfg.WiFiSSID)
	putField(buf[3*fieldSlot:], cfg.WiFiPwd)
	binary.LittleEndian.PutUint16(buf[checksumOffset:], cfg.Checksum)
	return buf
}

// UnmarshalRecord decodes a serialized record. The input must be exactly
// RecordSize bytes.
func UnmarshalRecord(data []byte) (config.Configuration, error) {
	if len(data) != RecordSize {
		return config.Configuration{}, fmt.Errorf("record is %d bytes, want %d", len(data), RecordSize)
	}
	return config.Configuration{
		Name:     getField(data[0*fieldSlot:]),
		Location: getField(data[1*fieldSlot:]),
		WiFiSSID: getField(data[2*fieldSlot:]),
		WiFiPwd:  getField(data[3*fieldSlot:]),
		Checksum: binary.LittleEndian.Uint16(data[checksumOffset:]),
	}, nil
}

// Checksum computes the additive 16-bit checksum of a record: the byte sum
// of the serialized layout with the checksum field treated as zero. It must
// be computed identically at save time and at load time, or every load would
// spuriously fail validation.
func Checksum(cfg *config.Configuration) uint16 {
	return ChecksumBytes(MarshalRecord(cfg))
}

// ChecksumBytes computes the checksum over an already-serialized record.
// Validation runs it on the raw loaded bytes, so corruption in the NUL
// padding is caught too, not only corruption in field content.
func ChecksumBytes(data []byte) uint16 {
	var sum uint16
	for i, b := range data {
		if i == checksumOffset || i == checksumOffset+1 {
			continue
		}
		sum += uint16(b)
	}
	return sum
}

func sumBytes(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

func putField(slot []byte, value string) {
	value = config.Truncate(value)
	copy(slot[:fieldSlot-1], value)
}

func getField(slot []byte) string {
	for i := 0; i < fieldSlot; i++ {
		if slot[i] == 0 {
			return string(slot[:i])
		}
	}
	return string(slot[:fieldSlot-1])
}
