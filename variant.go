package pictdb

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// fetchVariant returns the bytes for slot i at resolution res, consulting
// the blob cache first, then materialising it — lazily resizing from the
// original if necessary — on a miss. Ported from
// original_source/pictDBM/image_content.c's lazily_resize/fetch_image.
func (c *Container) fetchVariant(i int, res Resolution) ([]byte, error) {
	const op = "Read"
	if data, ok := c.cache.get(i, res); ok {
		return data, nil
	}

	s := c.slots[i]
	if s.size[res] == 0 {
		if res == ResOrig {
			return nil, newErr(op, ErrFileNotFound, fmt.Errorf("slot %d has no original", i))
		}
		if err := c.lazilyResize(i, res); err != nil {
			return nil, err
		}
		s = c.slots[i]
	}

	data, err := c.readBlob(s.offset[res], s.size[res])
	if err != nil {
		return nil, newErr(op, ErrIO, err)
	}
	c.cache.put(i, res, data)
	return data, nil
}

// lazilyResize materialises the thumbnail or small variant of slot i's
// original on first demand: resize through the image engine, append the
// result, record its (size, offset) in the slot, and persist the table.
// Ported from original_source/pictDBM/image_content.c's lazily_resize,
// store_image, and check_image_exists.
func (c *Container) lazilyResize(i int, res Resolution) error {
	const op = "Read"
	if res == ResOrig {
		return nil
	}
	s := c.slots[i]
	if s.size[res] != 0 {
		return nil
	}

	orig, err := c.fetchVariant(i, ResOrig)
	if err != nil {
		return err
	}

	maxW, maxH := c.header.resFor(res)
	resized, err := c.image.ResizeJPEG(orig, int(maxW), int(maxH))
	if err != nil {
		return newErr(op, ErrVips, err)
	}

	offset, err := c.appendBlob(resized)
	if err != nil {
		return newErr(op, ErrIO, err)
	}

	s.size[res] = uint32(len(resized))
	s.offset[res] = offset
	c.slots[i] = s

	if err := c.writeHeaderAndTable(); err != nil {
		return newErr(op, ErrIO, err)
	}
	c.log.WithFields(logrus.Fields{
		"pict_id":    s.picID,
		"resolution": res.String(),
		"bytes":      len(resized),
	}).Debug("materialised variant")
	return nil
}
