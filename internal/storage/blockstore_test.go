package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testRecord(fill byte) []byte {
	data := make([]byte, RecordSize)
	for i := range data[:checksumOffset] {
		data[i] = fill
	}
	return data
}

func TestBlockStoreOpenIdempotent(t *testing.T) {
	b := NewBlockStore(filepath.Join(t.TempDir(), "eeprom.bin"))
	if err := b.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := b.Open(); err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
}

func TestBlockStoreReadBeforeAnyWrite(t *testing.T) {
	b := NewBlockStore(filepath.Join(t.TempDir(), "eeprom.bin"))
	if err := b.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := b.ReadRecord(); !errors.Is(err, ErrNoRecord) {
		t.Errorf("ReadRecord() on fresh store = %v, want ErrNoRecord", err)
	}
}

func TestBlockStoreWriteReadBack(t *testing.T) {
	b := NewBlockStore(filepath.Join(t.TempDir(), "eeprom.bin"))
	if err := b.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	want := testRecord(0x5A)
	if err := b.WriteRecord(want); err != nil {
		t.Fatalf("WriteRecord() error = %v", err)
	}

	got, err := b.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("ReadRecord() does not match written record")
	}
}

func TestBlockStoreRejectsWrongRecordSize(t *testing.T) {
	b := NewBlockStore(filepath.Join(t.TempDir(), "eeprom.bin"))
	if err := b.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := b.WriteRecord(make([]byte, RecordSize+1)); err == nil {
		t.Error("WriteRecord() accepted oversized record")
	}
}

// Commits rotate across sectors; the newest generation wins after a reopen.
func TestBlockStoreRotationSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.bin")
	b := NewBlockStore(path)
	if err := b.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	// More commits than sectors, to wrap the rotation at least once.
	var last []byte
	for i := 0; i < defaultSectorCount+3; i++ {
		last = testRecord(byte(i + 1))
		if err := b.WriteRecord(last); err != nil {
			t.Fatalf("WriteRecord(#%d) error = %v", i, err)
		}
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := b.Open(); err != nil {
		t.Fatalf("reopen error = %v", err)
	}

	got, err := b.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord() after reopen = %v", err)
	}
	if !bytes.Equal(got, last) {
		t.Error("reopen did not pick the newest committed record")
	}
}

// Corrupting the newest sector must fall the store back to the previous
// commit on reopen - that is the point of the rotation.
func TestBlockStoreFallsBackToPreviousSector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.bin")
	b := NewBlockStore(path)
	if err := b.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	first := testRecord(0x11)
	second := testRecord(0x22)
	if err := b.WriteRecord(first); err != nil {
		t.Fatalf("WriteRecord(first) error = %v", err)
	}
	if err := b.WriteRecord(second); err != nil {
		t.Fatalf("WriteRecord(second) error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Second commit went to sector 1; break its tail checksum.
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("open backing file: %v", err)
	}
	if _, err := f.WriteAt([]byte{0xFF}, 1*sectorSize+sectorSumOffset); err != nil {
		t.Fatalf("corrupt sector: %v", err)
	}
	f.Close()

	if err := b.Open(); err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	got, err := b.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord() after corruption = %v", err)
	}
	if !bytes.Equal(got, first) {
		t.Error("store did not fall back to the previous committed record")
	}
}

// Clear withdraws the marker without erasing the record bytes, and the
// cleared state survives a reopen.
func TestBlockStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.bin")
	b := NewBlockStore(path)
	if err := b.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := b.WriteRecord(testRecord(0x33)); err != nil {
		t.Fatalf("WriteRecord() error = %v", err)
	}
	if err := b.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if _, err := b.ReadRecord(); !errors.Is(err, ErrNoRecord) {
		t.Errorf("ReadRecord() after Clear = %v, want ErrNoRecord", err)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := b.Open(); err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if _, err := b.ReadRecord(); !errors.Is(err, ErrNoRecord) {
		t.Errorf("ReadRecord() after Clear and reopen = %v, want ErrNoRecord", err)
	}
}
