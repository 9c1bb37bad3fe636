package config

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"empty", "", ""},
		{"short", "lab", "lab"},
		{"exactly capacity", strings.Repeat("a", FieldCapacity), strings.Repeat("a", FieldCapacity)},
		{"one over", strings.Repeat("a", FieldCapacity+1), strings.Repeat("a", FieldCapacity)},
		{"far over", strings.Repeat("x", 200), strings.Repeat("x", FieldCapacity)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.value); got != tt.want {
				t.Errorf("Truncate(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestSetAndGet(t *testing.T) {
	var c Configuration

	for _, field := range Fields() {
		if !c.Set(field, "value-"+field) {
			t.Errorf("Set(%q) = false", field)
		}
		got, ok := c.Get(field)
		if !ok {
			t.Errorf("Get(%q) not found", field)
		}
		if got != Truncate("value-"+field) {
			t.Errorf("Get(%q) = %q", field, got)
		}
	}
}

func TestSetTruncates(t *testing.T) {
	var c Configuration
	long := strings.Repeat("z", 100)

	if !c.Set(FieldName, long) {
		t.Fatal("Set failed")
	}
	if len(c.Name) != FieldCapacity {
		t.Errorf("Name length = %d, want %d", len(c.Name), FieldCapacity)
	}
}

func TestSetUnknownFieldLeavesRecordUntouched(t *testing.T) {
	c := Default()
	before := c

	if c.Set("hostname", "x") {
		t.Error("Set accepted an unknown field")
	}
	if !c.FieldsEqual(&before) {
		t.Error("record mutated by rejected Set")
	}
}

func TestIsField(t *testing.T) {
	for _, field := range Fields() {
		if !IsField(field) {
			t.Errorf("IsField(%q) = false", field)
		}
	}
	for _, bad := range []string{"", "Name", "ssid", "checksum"} {
		if IsField(bad) {
			t.Errorf("IsField(%q) = true", bad)
		}
	}
}

func TestDefaultFieldsFitCapacity(t *testing.T) {
	c := Default()
	for _, field := range Fields() {
		v, _ := c.Get(field)
		if len(v) > FieldCapacity {
			t.Errorf("default %s = %q exceeds capacity", field, v)
		}
	}
}

func TestFieldsEqualIgnoresChecksum(t *testing.T) {
	a := Default()
	b := Default()
	b.Checksum = 0xBEEF

	if !a.FieldsEqual(&b) {
		t.Error("FieldsEqual() = false for records differing only in checksum")
	}
}
