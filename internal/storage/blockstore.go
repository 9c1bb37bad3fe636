package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// BlockStore persists the record in a file that emulates the firmware's
// rotating-EEPROM flash region. The file holds a fixed number of 4 KiB
// sectors; every commit writes a full sector image to the next sector in
// rotation, so a power cut during a write leaves the previous committed
// sector intact. Inside the data region the layout matches the firmware:
// a single validity-marker byte at the reserved offset, immediately followed
// by the serialized record.
//
// Each sector ends with a one-byte generation counter and a 16-bit additive
// checksum over the rest of the sector. Open scans all sectors and trusts
// the newest one whose checksum holds.
const (
	sectorSize         = 4096
	defaultSectorCount = 4

	// recordOffset is where the validity marker sits inside the data
	// region, with the record right behind it. Matches the firmware's
	// reserved EEPROM start.
	recordOffset = 128

	genOffset       = sectorSize - 3
	sectorSumOffset = sectorSize - 2
)

// BlockStore implements Backend. It has no native single-field write; the
// façade synthesizes field updates as read-modify-write.
type BlockStore struct {
	path    string
	sectors int

	f      *os.File
	active int // committed sector index, -1 when none
	gen    uint8
}

// NewBlockStore creates a block-storage backend over the file at path.
// The file is created and sized on Open.
func NewBlockStore(path string) *BlockStore {
	return &BlockStore{
		path:    path,
		sectors: defaultSectorCount,
		active:  -1,
	}
}

func (b *BlockStore) Name() string { return "block" }

// Open maps the backing file and locates the newest committed sector.
// Idempotent.
func (b *BlockStore) Open() error {
	if b.f != nil {
		return nil
	}

	f, err := os.OpenFile(b.path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("open block store: %w", err)
	}

	size := int64(b.sectors) * sectorSize
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat block store: %w", err)
	}
	if info.Size() != size {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return fmt.Errorf("size block store: %w", err)
		}
	}

	b.f = f
	b.scanSectors()
	return nil
}

// Close releases the backing file. A closed store can be reopened.
func (b *BlockStore) Close() error {
	if b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	b.active = -1
	b.gen = 0
	return err
}

// scanSectors picks the newest sector with an intact checksum. Generation
// counters are compared modulo 256, so the counter wrapping is harmless.
func (b *BlockStore) scanSectors() {
	b.active = -1
	b.gen = 0
	for i := 0; i < b.sectors; i++ {
		sec, err := b.readSector(i)
		if err != nil {
			continue
		}
		if !sectorValid(sec) {
			continue
		}
		g := sec[genOffset]
		if b.active < 0 || newerGen(g, b.gen) {
			b.active = i
			b.gen = g
		}
	}
}

func sectorValid(sec []byte) bool {
	stored := binary.LittleEndian.Uint16(sec[sectorSumOffset:])
	if stored != sumBytes(sec[:sectorSumOffset]) {
		return false
	}
	// An erased sector is all zeroes, which trivially satisfies the sum.
	for _, v := range sec {
		if v != 0 {
			return true
		}
	}
	return false
}

func newerGen(a, b uint8) bool { return int8(a-b) > 0 }

func (b *BlockStore) readSector(i int) ([]byte, error) {
	buf := make([]byte, sectorSize)
	if _, err := b.f.ReadAt(buf, int64(i)*sectorSize); err != nil {
		return nil, fmt.Errorf("read sector %d: %w", i, err)
	}
	return buf, nil
}

// currentImage returns the active sector's data region, or a blank region
// when nothing was ever committed.
func (b *BlockStore) currentImage() []byte {
	if b.active >= 0 {
		if sec, err := b.readSector(b.active); err == nil {
			return sec[:genOffset]
		}
	}
	return make([]byte, genOffset)
}

// WriteRecord sets the validity marker, stores the record and commits the
// image to the next sector in rotation. The committed sector is read back
// and byte-compared before success is reported.
func (b *BlockStore) WriteRecord(data []byte) error {
	if b.f == nil {
		return fmt.Errorf("block store not open")
	}
	if len(data) != RecordSize {
		return fmt.Errorf("record is %d bytes, want %d", len(data), RecordSize)
	}

	img := b.currentImage()
	img[recordOffset] = 1
	copy(img[recordOffset+1:], data)
	return b.commit(img)
}

// ReadRecord returns the committed record, or ErrNoRecord when the validity
// marker is not set.
func (b *BlockStore) ReadRecord() ([]byte, error) {
	if b.f == nil {
		return nil, fmt.Errorf("block store not open")
	}
	if b.active < 0 {
		return nil, ErrNoRecord
	}

	sec, err := b.readSector(b.active)
	if err != nil {
		return nil, err
	}
	if sec[recordOffset] != 1 {
		return nil, ErrNoRecord
	}

	out := make([]byte, RecordSize)
	copy(out, sec[recordOffset+1:])
	return out, nil
}

// Clear commits an image with the validity marker zeroed. The record bytes
// stay in place; only the marker is withdrawn.
func (b *BlockStore) Clear() error {
	if b.f == nil {
		return fmt.Errorf("block store not open")
	}
	img := b.currentImage()
	img[recordOffset] = 0
	return b.commit(img)
}

// commit writes img to the next sector in rotation, flushes, and verifies
// the committed bytes. The previous sector stays valid until the new one is
// durably written, so a failed commit never destroys the old record.
func (b *BlockStore) commit(img []byte) error {
	next := 0
	gen := uint8(1)
	if b.active >= 0 {
		next = (b.active + 1) % b.sectors
		gen = b.gen + 1
	}

	sec := make([]byte, sectorSize)
	copy(sec, img)
	sec[genOffset] = gen
	binary.LittleEndian.PutUint16(sec[sectorSumOffset:], sumBytes(sec[:sectorSumOffset]))

	if _, err := b.f.WriteAt(sec, int64(next)*sectorSize); err != nil {
		return fmt.Errorf("write sector %d: %w", next, err)
	}
	if err := b.f.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrCommit, err)
	}

	verify, err := b.readSector(next)
	if err != nil {
		return fmt.Errorf("read-back: %w", err)
	}
	if !bytes.Equal(sec, verify) {
		return fmt.Errorf("read-back verification mismatch on sector %d", next)
	}

	b.active = next
	b.gen = gen
	return nil
}
