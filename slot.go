package pictdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	// ShaSize is the length, in bytes, of the content digest stored per slot.
	ShaSize = 32

	picIDSize = MaxPicID + 1
	slotSize  = picIDSize + ShaSize + 4*2 + 4*nbRes + 8*nbRes + 2 + 2

	// validEmpty marks a slot with no picture.
	validEmpty uint16 = 0
	// validNonEmpty marks a slot holding a picture.
	validNonEmpty uint16 = 1
)

// slot is the fixed-width, one-per-picture metadata record, mirroring the
// on-disk struct pict_metadata: pict_id, sha, original geometry, a
// (size, offset) pair per resolution, and a validity flag.
type slot struct {
	picID      string
	sha        [ShaSize]byte
	origWidth  uint32
	origHeight uint32
	size       [nbRes]uint32
	offset     [nbRes]uint64
	valid      uint16
	reserved16 uint16
}

func (s *slot) isValid() bool {
	return s.valid == validNonEmpty
}

func slotFromBytes(b []byte) (slot, error) {
	if len(b) != slotSize {
		return slot{}, fmt.Errorf("pictdb: slot must be read from exactly %d bytes, got %d", slotSize, len(b))
	}
	var s slot
	off := 0

	id := b[off : off+picIDSize]
	if nul := bytes.IndexByte(id, 0); nul >= 0 {
		id = id[:nul]
	}
	s.picID = string(id)
	off += picIDSize

	copy(s.sha[:], b[off:off+ShaSize])
	off += ShaSize

	s.origWidth = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	s.origHeight = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4

	for r := 0; r < nbRes; r++ {
		s.size[r] = binary.LittleEndian.Uint32(b[off : off+4])
		off += 4
	}
	for r := 0; r < nbRes; r++ {
		s.offset[r] = binary.LittleEndian.Uint64(b[off : off+8])
		off += 8
	}

	s.valid = binary.LittleEndian.Uint16(b[off : off+2])
	off += 2
	s.reserved16 = binary.LittleEndian.Uint16(b[off : off+2])
	off += 2

	return s, nil
}

func (s slot) toBytes() ([]byte, error) {
	if len(s.picID) > MaxPicID {
		return nil, fmt.Errorf("pictdb: pict_id %q longer than %d bytes", s.picID, MaxPicID)
	}
	b := make([]byte, slotSize)
	off := 0

	copy(b[off:off+picIDSize], s.picID)
	off += picIDSize

	copy(b[off:off+ShaSize], s.sha[:])
	off += ShaSize

	binary.LittleEndian.PutUint32(b[off:off+4], s.origWidth)
	off += 4
	binary.LittleEndian.PutUint32(b[off:off+4], s.origHeight)
	off += 4

	for r := 0; r < nbRes; r++ {
		binary.LittleEndian.PutUint32(b[off:off+4], s.size[r])
		off += 4
	}
	for r := 0; r < nbRes; r++ {
		binary.LittleEndian.PutUint64(b[off:off+8], s.offset[r])
		off += 8
	}

	binary.LittleEndian.PutUint16(b[off:off+2], s.valid)
	off += 2
	binary.LittleEndian.PutUint16(b[off:off+2], s.reserved16)
	off += 2

	return b, nil
}

// SlotInfo is a read-only copy of a slot's metadata, built by slot.info,
// deliberately excluding the internal reserved field. No exported API
// returns it; ListHuman and ListJSON use PictureInfo instead.
type SlotInfo struct {
	PicID      string
	Sha        [ShaSize]byte
	OrigWidth  uint32
	OrigHeight uint32
	Size       [nbRes]uint32
	Offset     [nbRes]uint64
}

func (s slot) info() SlotInfo {
	return SlotInfo{
		PicID:      s.picID,
		Sha:        s.sha,
		OrigWidth:  s.origWidth,
		OrigHeight: s.origHeight,
		Size:       s.size,
		Offset:     s.offset,
	}
}
