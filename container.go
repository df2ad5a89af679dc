// Package pictdb implements the embedded, single-file JPEG image database
// described in the project's specification: a fixed-layout binary container
// (header + metadata slot table + appended blobs) with content-addressed
// deduplication, lazy variant materialisation, and offline compaction.
package pictdb

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/droduit/pictDBM/digest"
	"github.com/droduit/pictDBM/imageengine"
)

// Config configures a newly created container.
type Config struct {
	MaxFiles int
	ThumbX   uint16
	ThumbY   uint16
	SmallX   uint16
	SmallY   uint16
}

// Container is one open pictDB file: a header, its metadata slot table, and
// the file handle blobs are appended to and read from. All operations on a
// Container assume exclusive, single-threaded access, per spec.md §5.
type Container struct {
	path   string
	file   *os.File
	header Header
	slots  []slot
	index  *slotIndex
	cache  *blobCache

	digest digest.Digest
	image  imageengine.Engine
	log    *logrus.Entry
}

// Option customises a Container beyond its on-disk defaults.
type Option func(*Container)

// WithDigest overrides the digest engine (default digest.SHA256{}).
func WithDigest(d digest.Digest) Option {
	return func(c *Container) { c.digest = d }
}

// WithImageEngine overrides the image engine (default imageengine.Standard{}).
func WithImageEngine(e imageengine.Engine) Option {
	return func(c *Container) { c.image = e }
}

// WithLogger overrides the logrus logger used for lifecycle/debug messages.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Container) { c.log = l.WithField("component", "pictdb") }
}

func applyOptions(c *Container, opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func newContainer(path string, opts []Option) *Container {
	c := &Container{
		path:   path,
		digest: digest.SHA256{},
		image:  imageengine.Standard{},
		cache:  newBlobCache(),
	}
	applyOptions(c, opts)
	if c.log == nil {
		c.log = logrus.StandardLogger().WithField("component", "pictdb")
	}
	c.log = c.log.WithField("session", uuid.New().String()).WithField("path", path)
	return c
}

// Create creates a new container at path with cfg.MaxFiles slots and the two
// variant resolutions, per spec.md §4.1. The file is truncated if it exists.
func Create(path string, cfg Config, opts ...Option) (*Container, error) {
	const op = "Create"
	if cfg.MaxFiles <= 0 || cfg.MaxFiles > MaxCapacity {
		return nil, newErr(op, ErrMaxFiles, fmt.Errorf("max_files %d out of range (1..%d)", cfg.MaxFiles, MaxCapacity))
	}
	if cfg.ThumbX == 0 || cfg.ThumbX > MaxThumbRes || cfg.ThumbY == 0 || cfg.ThumbY > MaxThumbRes {
		return nil, newErr(op, ErrResolutions, fmt.Errorf("thumbnail resolution %dx%d out of range", cfg.ThumbX, cfg.ThumbY))
	}
	if cfg.SmallX == 0 || cfg.SmallX > MaxSmallRes || cfg.SmallY == 0 || cfg.SmallY > MaxSmallRes {
		return nil, newErr(op, ErrResolutions, fmt.Errorf("small resolution %dx%d out of range", cfg.SmallX, cfg.SmallY))
	}

	c := newContainer(path, opts)
	c.header = newHeader(uint32(cfg.MaxFiles), cfg.ThumbX, cfg.ThumbY, cfg.SmallX, cfg.SmallY)
	c.slots = make([]slot, cfg.MaxFiles)
	c.index = newSlotIndex(c.slots)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, newErr(op, ErrIO, err)
	}
	c.file = f

	if err := c.writeHeaderAndTable(); err != nil {
		c.file.Close()
		return nil, newErr(op, ErrIO, err)
	}
	c.log.WithFields(logrus.Fields{"max_files": cfg.MaxFiles}).Info("created container")
	return c, nil
}

// Open opens an existing container at path, reading its header and
// allocating and reading its full metadata table, per spec.md §4.1.
func Open(path string, opts ...Option) (*Container, error) {
	const op = "Open"
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, newErr(op, ErrIO, err)
	}

	c := newContainer(path, opts)
	c.file = f

	hb := make([]byte, headerSize)
	if _, err := io.ReadFull(f, hb); err != nil {
		f.Close()
		return nil, newErr(op, ErrIO, err)
	}
	header, err := headerFromBytes(hb)
	if err != nil {
		f.Close()
		return nil, newErr(op, ErrIO, err)
	}
	if header.MaxFiles > MaxCapacity {
		f.Close()
		return nil, newErr(op, ErrMaxFiles, fmt.Errorf("max_files %d exceeds %d", header.MaxFiles, MaxCapacity))
	}
	c.header = header

	slots := make([]slot, header.MaxFiles)
	tableBytes := make([]byte, int(header.MaxFiles)*slotSize)
	if _, err := io.ReadFull(f, tableBytes); err != nil {
		f.Close()
		return nil, newErr(op, ErrIO, err)
	}
	for i := range slots {
		s, err := slotFromBytes(tableBytes[i*slotSize : (i+1)*slotSize])
		if err != nil {
			f.Close()
			return nil, newErr(op, ErrIO, err)
		}
		slots[i] = s
	}
	c.slots = slots
	c.index = newSlotIndex(slots)

	c.log.WithFields(logrus.Fields{
		"max_files": header.MaxFiles,
		"num_files": header.NumFiles,
		"version":   header.DBVersion,
	}).Info("opened container")
	return c, nil
}

// Close releases the file handle and in-memory metadata table. Close is
// idempotent and safe to call on a container that failed to fully open.
func (c *Container) Close() error {
	if c.cache != nil {
		c.cache.purge()
	}
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	c.slots = nil
	c.index = nil
	if err != nil {
		return newErr("Close", ErrIO, err)
	}
	return nil
}

// Header returns a copy of the container's current header.
func (c *Container) Header() Header { return c.header }

// writeHeaderAndTable repositions to offset 0 and writes the header followed
// by the full metadata table — the sole on-disk durability primitive. Every
// state-changing operation must call this before declaring success.
func (c *Container) writeHeaderAndTable() error {
	if _, err := c.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	hb, err := c.header.toBytes()
	if err != nil {
		return err
	}
	if _, err := c.file.Write(hb); err != nil {
		return err
	}
	for i, s := range c.slots {
		sb, err := s.toBytes()
		if err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
		if _, err := c.file.Write(sb); err != nil {
			return err
		}
	}
	if err := fsync(c.file); err != nil {
		c.log.WithError(err).Debug("fsync after header+table rewrite failed (ignored)")
	}
	return nil
}

// appendBlob positions at the end of the file and writes data, returning the
// byte offset at which writing began.
func (c *Container) appendBlob(data []byte) (uint64, error) {
	off, err := c.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := c.file.Write(data); err != nil {
		return 0, err
	}
	return uint64(off), nil
}

// readBlob reads exactly length bytes starting at offset.
func (c *Container) readBlob(offset uint64, length uint32) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := c.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, err
	}
	return buf, nil
}
