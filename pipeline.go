package pictdb

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Insert stores data, a JPEG image, under id. Ported from
// original_source/pictDBM/db_insert.c's do_insert, composed with dedup.c's
// content dedup: if an existing valid slot already holds identical content,
// the new slot shares its ORIG (offset, size) instead of appending a second
// copy. NumFiles is only incremented once the full slot and header have
// been durably written — an Insert that fails after reserving a slot always
// leaves NumFiles exactly as it was before the call.
func (c *Container) Insert(data []byte, id string) error {
	const op = "Insert"
	if c.header.NumFiles == c.header.MaxFiles {
		return newErr(op, ErrFullDatabase, fmt.Errorf("no free slot among %d", len(c.slots)))
	}
	if id == "" {
		return newErr(op, ErrInvalidPicID, fmt.Errorf("empty pict_id"))
	}
	if len(id) > MaxPicID {
		return newErr(op, ErrInvalidPicID, fmt.Errorf("pict_id %q longer than %d bytes", id, MaxPicID))
	}
	if _, exists := c.index.byID[id]; exists {
		return newErr(op, ErrDuplicateID, fmt.Errorf("pict_id %q already present", id))
	}

	width, height, err := c.image.DecodeGeometry(data)
	if err != nil {
		return newErr(op, ErrVips, err)
	}

	i, ok := c.index.firstFree()
	if !ok {
		return newErr(op, ErrFullDatabase, fmt.Errorf("no free slot among %d", len(c.slots)))
	}
	c.index.reserve(i)

	sha := c.digest.Sum(data)
	s := slot{
		picID:      id,
		sha:        sha,
		origWidth:  uint32(width),
		origHeight: uint32(height),
		valid:      validNonEmpty,
	}

	if dup, found := c.dedupOriginal(sha); found {
		s.offset[ResOrig] = c.slots[dup].offset[ResOrig]
		s.size[ResOrig] = c.slots[dup].size[ResOrig]
	} else {
		offset, err := c.appendBlob(data)
		if err != nil {
			c.index.unreserve(i)
			return newErr(op, ErrIO, err)
		}
		s.offset[ResOrig] = offset
		s.size[ResOrig] = uint32(len(data))
	}

	c.slots[i] = s
	if err := c.writeHeaderAndTable(); err != nil {
		c.slots[i] = slot{}
		c.index.unreserve(i)
		return newErr(op, ErrIO, err)
	}

	c.header.NumFiles++
	if err := c.writeHeaderAndTable(); err != nil {
		c.header.NumFiles--
		c.slots[i] = slot{}
		c.index.unreserve(i)
		return newErr(op, ErrIO, err)
	}
	c.index.markValid(i, s)

	c.log.WithFields(logrus.Fields{"pict_id": id, "bytes": len(data), "width": width, "height": height}).Info("inserted picture")
	return nil
}

// Delete removes id's slot, freeing it for reuse by a future Insert, and
// advances db_version. The
// appended blob bytes are not reclaimed until the next Compact, per
// spec.md §4.7 — Delete is purely a metadata-table operation. Ported from
// original_source/pictDBM/db_delete.c's do_delete.
func (c *Container) Delete(id string) error {
	const op = "Delete"
	i, ok := c.index.byID[id]
	if !ok {
		return newErr(op, ErrFileNotFound, fmt.Errorf("no such pict_id %q", id))
	}

	s := c.slots[i]
	c.slots[i] = slot{}
	if err := c.writeHeaderAndTable(); err != nil {
		c.slots[i] = s
		return newErr(op, ErrIO, err)
	}

	c.header.NumFiles--
	c.header.DBVersion++
	if err := c.writeHeaderAndTable(); err != nil {
		c.header.NumFiles++
		c.header.DBVersion--
		c.slots[i] = s
		c.writeHeaderAndTable()
		return newErr(op, ErrIO, err)
	}

	c.index.markRemoved(c.slots, i, s)
	c.cache.invalidateSlot(i)
	c.log.WithField("pict_id", id).Info("deleted picture")
	return nil
}

// Read returns id's image bytes at resolution res, lazily materialising a
// thumbnail or small variant on first demand. Ported from
// original_source/pictDBM/db_read.c's do_read.
func (c *Container) Read(id string, res Resolution) ([]byte, error) {
	const op = "Read"
	i, ok := c.index.byID[id]
	if !ok {
		return nil, newErr(op, ErrFileNotFound, fmt.Errorf("no such pict_id %q", id))
	}
	return c.fetchVariant(i, res)
}
