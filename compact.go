package pictdb

import (
	"io"

	"github.com/google/renameio"
)

// Compact rebuilds the container into a fresh file containing only the
// bytes still reachable from a valid slot, reclaiming the space left behind
// by deleted pictures — the only reclamation mechanism spec.md §4.7
// specifies. Two valid slots that shared an ORIG offset before compaction
// (spec.md's dedup invariant) still share a single copy afterwards: each
// distinct old offset is copied at most once. The rebuilt file replaces the
// original atomically via github.com/google/renameio, so a crash or power
// loss mid-compaction leaves the original container untouched. Ported from
// original_source/pictDBM/db_gbcollect.c's do_gbcollect.
func (c *Container) Compact() error {
	const op = "Compact"

	t, err := renameio.TempFile("", c.path)
	if err != nil {
		return newErr(op, ErrIO, err)
	}
	defer t.Cleanup()

	tableSize := int64(headerSize) + int64(len(c.slots))*int64(slotSize)
	if _, err := t.Write(make([]byte, tableSize)); err != nil {
		return newErr(op, ErrIO, err)
	}

	newSlots := make([]slot, len(c.slots))
	remapped := make(map[uint64]uint64)
	writeOffset := uint64(tableSize)
	var numFiles uint32

	for i, s := range c.slots {
		if !s.isValid() {
			continue
		}
		ns := s
		for r := Resolution(0); r < nbRes; r++ {
			if s.size[r] == 0 {
				continue
			}
			if newOff, ok := remapped[s.offset[r]]; ok {
				ns.offset[r] = newOff
				continue
			}
			data, err := c.readBlob(s.offset[r], s.size[r])
			if err != nil {
				return newErr(op, ErrIO, err)
			}
			if _, err := t.Write(data); err != nil {
				return newErr(op, ErrIO, err)
			}
			remapped[s.offset[r]] = writeOffset
			ns.offset[r] = writeOffset
			writeOffset += uint64(len(data))
		}
		newSlots[i] = ns
		numFiles++
	}

	newHeader := c.header
	newHeader.NumFiles = numFiles
	newHeader.DBVersion++

	if _, err := t.Seek(0, io.SeekStart); err != nil {
		return newErr(op, ErrIO, err)
	}
	hb, err := newHeader.toBytes()
	if err != nil {
		return newErr(op, ErrIO, err)
	}
	if _, err := t.Write(hb); err != nil {
		return newErr(op, ErrIO, err)
	}
	for _, s := range newSlots {
		sb, err := s.toBytes()
		if err != nil {
			return newErr(op, ErrIO, err)
		}
		if _, err := t.Write(sb); err != nil {
			return newErr(op, ErrIO, err)
		}
	}

	if err := t.CloseAtomicallyReplace(); err != nil {
		return newErr(op, ErrIO, err)
	}

	if err := c.file.Close(); err != nil {
		return newErr(op, ErrIO, err)
	}
	reopened, err := Open(c.path, func(rc *Container) {
		rc.digest = c.digest
		rc.image = c.image
		rc.log = c.log
	})
	if err != nil {
		return newErr(op, ErrIO, err)
	}
	*c = *reopened

	c.log.WithField("num_files", numFiles).Info("compacted container")
	return nil
}
