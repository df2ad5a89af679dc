package pictdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Resolution identifies one of the three sizes a picture may be stored at.
type Resolution uint32

const (
	// ResThumb is the small, always-square-ish thumbnail resolution.
	ResThumb Resolution = 0
	// ResSmall is the medium resolution.
	ResSmall Resolution = 1
	// ResOrig is the original, as-inserted resolution.
	ResOrig Resolution = 2
	// nbRes is the number of resolutions a slot tracks.
	nbRes = 3
)

func (r Resolution) String() string {
	switch r {
	case ResThumb:
		return "thumbnail"
	case ResSmall:
		return "small"
	case ResOrig:
		return "original"
	default:
		return fmt.Sprintf("Resolution(%d)", uint32(r))
	}
}

// ResolutionFromString maps the CLI/HTTP spellings of a resolution onto a
// Resolution. It returns false if s does not name a known resolution.
func ResolutionFromString(s string) (Resolution, bool) {
	switch s {
	case "", "orig", "original":
		return ResOrig, true
	case "thumb", "thumbnail":
		return ResThumb, true
	case "small":
		return ResSmall, true
	default:
		return 0, false
	}
}

const (
	// dbNameMagic is written into every newly created container's db_name field.
	dbNameMagic = "EPFL PictDB binary"
	// MaxDBName is the maximum length, excluding the NUL terminator, of db_name.
	MaxDBName = 31
	// MaxPicID is the maximum length, excluding the NUL terminator, of a pict_id.
	MaxPicID = 127
	// MaxCapacity is the largest max_files a container may be created or opened with.
	//
	// spec.md flags the original C implementation's `max_files >= MAX_CAPACITY`
	// open-time check as an off-by-one: this rewrite treats MaxCapacity itself
	// as a valid max_files value.
	MaxCapacity = 100000
	// MaxThumbRes is the largest width or height a thumbnail resolution may request.
	MaxThumbRes = 128
	// MaxSmallRes is the largest width or height a small resolution may request.
	MaxSmallRes = 512

	headerSize = 64
	dbNameSize = MaxDBName + 1
)

// Header is the fixed-width region at the start of every container, exactly
// mirroring the on-disk struct pictdb_header from the original C
// implementation: db_name, db_version, num_files, max_files, res_resized,
// and two reserved fields, all little-endian.
type Header struct {
	DBName     string
	DBVersion  uint32
	NumFiles   uint32
	MaxFiles   uint32
	ThumbResX  uint16
	ThumbResY  uint16
	SmallResX  uint16
	SmallResY  uint16
	reserved32 uint32
	reserved64 uint64
}

// newHeader builds the header written by Create: magic name, version 0, no
// files, the caller's capacity and variant resolutions.
func newHeader(maxFiles uint32, thumbX, thumbY, smallX, smallY uint16) Header {
	return Header{
		DBName:    dbNameMagic,
		DBVersion: 0,
		NumFiles:  0,
		MaxFiles:  maxFiles,
		ThumbResX: thumbX,
		ThumbResY: thumbY,
		SmallResX: smallX,
		SmallResY: smallY,
	}
}

// resFor returns the (maxWidth, maxHeight) pair configured for a non-original
// resolution.
func (h Header) resFor(r Resolution) (uint16, uint16) {
	if r == ResThumb {
		return h.ThumbResX, h.ThumbResY
	}
	return h.SmallResX, h.SmallResY
}

func headerFromBytes(b []byte) (Header, error) {
	if len(b) != headerSize {
		return Header{}, fmt.Errorf("pictdb: header must be read from exactly %d bytes, got %d", headerSize, len(b))
	}
	var h Header
	name := b[0:dbNameSize]
	if nul := bytes.IndexByte(name, 0); nul >= 0 {
		name = name[:nul]
	}
	h.DBName = string(name)
	h.DBVersion = binary.LittleEndian.Uint32(b[0x20:0x24])
	h.NumFiles = binary.LittleEndian.Uint32(b[0x24:0x28])
	h.MaxFiles = binary.LittleEndian.Uint32(b[0x28:0x2c])
	h.ThumbResX = binary.LittleEndian.Uint16(b[0x2c:0x2e])
	h.ThumbResY = binary.LittleEndian.Uint16(b[0x2e:0x30])
	h.SmallResX = binary.LittleEndian.Uint16(b[0x30:0x32])
	h.SmallResY = binary.LittleEndian.Uint16(b[0x32:0x34])
	h.reserved32 = binary.LittleEndian.Uint32(b[0x34:0x38])
	h.reserved64 = binary.LittleEndian.Uint64(b[0x38:0x40])
	return h, nil
}

func (h Header) toBytes() ([]byte, error) {
	if len(h.DBName) > MaxDBName {
		return nil, fmt.Errorf("pictdb: db_name %q longer than %d bytes", h.DBName, MaxDBName)
	}
	b := make([]byte, headerSize)
	copy(b[0:dbNameSize], h.DBName)
	binary.LittleEndian.PutUint32(b[0x20:0x24], h.DBVersion)
	binary.LittleEndian.PutUint32(b[0x24:0x28], h.NumFiles)
	binary.LittleEndian.PutUint32(b[0x28:0x2c], h.MaxFiles)
	binary.LittleEndian.PutUint16(b[0x2c:0x2e], h.ThumbResX)
	binary.LittleEndian.PutUint16(b[0x2e:0x30], h.ThumbResY)
	binary.LittleEndian.PutUint16(b[0x30:0x32], h.SmallResX)
	binary.LittleEndian.PutUint16(b[0x32:0x34], h.SmallResY)
	binary.LittleEndian.PutUint32(b[0x34:0x38], h.reserved32)
	binary.LittleEndian.PutUint64(b[0x38:0x40], h.reserved64)
	return b, nil
}
