package pictdb

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/require"

	"github.com/droduit/pictDBM/digest"
)

// jpegBytes renders a solid-colour w x h JPEG, used throughout these tests
// in place of a fixture file — the original test suite ships real sample
// images, but a synthetic one exercises the same geometry/digest paths.
func jpegBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func newTestContainer(t *testing.T, maxFiles int) *Container {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pictdb")
	c, err := Create(path, Config{MaxFiles: maxFiles, ThumbX: 64, ThumbY: 64, SmallX: 256, SmallY: 256})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// TestCreate_EmptyDatabase covers scenario S1: a fresh container lists
// empty and its header reports the requested capacity with zero files.
func TestCreate_EmptyDatabase(t *testing.T) {
	c := newTestContainer(t, 2)

	h := c.Header()
	require.Equal(t, uint32(2), h.MaxFiles)
	require.Equal(t, uint32(0), h.NumFiles)

	body, err := c.ListJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"Pictures":[]}`, string(body))
}

// TestInsert_PopulatesSlotAndList covers scenario S2.
func TestInsert_PopulatesSlotAndList(t *testing.T) {
	c := newTestContainer(t, 2)
	data := jpegBytes(t, 40, 30, color.RGBA{R: 200, G: 20, B: 20, A: 255})

	require.NoError(t, c.Insert(data, "cat"))
	require.Equal(t, uint32(1), c.Header().NumFiles)

	wantSha := digest.SHA256{}.Sum(data)
	i, ok := c.index.byID["cat"]
	require.True(t, ok)
	require.Equal(t, wantSha, c.slots[i].sha)
	require.Equal(t, uint32(len(data)), c.slots[i].size[ResOrig])

	body, err := c.ListJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"Pictures":["cat"]}`, string(body))
}

// TestInsert_ContentDedup covers scenarios S3/S4 and invariant 4/5: inserting
// byte-identical content under a second id shares offset[ORIG] and does not
// grow the file, while reinserting an existing id is rejected and leaves
// num_files unchanged.
func TestInsert_ContentDedup(t *testing.T) {
	// Capacity 3, not 2: the duplicate-id insert below must be rejected
	// because of the id collision, not because the database happens to
	// be full after the first two inserts (FullDatabase is checked first).
	c := newTestContainer(t, 3)
	data := jpegBytes(t, 40, 30, color.RGBA{R: 10, G: 10, B: 200, A: 255})

	require.NoError(t, c.Insert(data, "cat"))
	sizeAfterFirst := fileSize(t, c)

	require.NoError(t, c.Insert(data, "cat2"))
	require.Equal(t, sizeAfterFirst, fileSize(t, c), "dedup must not grow the file")

	i1, i2 := c.index.byID["cat"], c.index.byID["cat2"]
	require.Equal(t, c.slots[i1].offset[ResOrig], c.slots[i2].offset[ResOrig])
	require.Equal(t, c.slots[i1].size[ResOrig], c.slots[i2].size[ResOrig])
	require.Equal(t, c.slots[i1].sha, c.slots[i2].sha)

	other := jpegBytes(t, 40, 30, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	err := c.Insert(other, "cat")
	require.Error(t, err)
	require.Equal(t, ErrDuplicateID, KindOf(err))
	require.Equal(t, uint32(2), c.Header().NumFiles)
}

// TestRead_RoundTrip covers invariant 5 / scenario round-trip: reading the
// original back returns exactly the inserted bytes.
func TestRead_RoundTrip(t *testing.T) {
	c := newTestContainer(t, 2)
	data := jpegBytes(t, 20, 20, color.RGBA{G: 255, A: 255})
	require.NoError(t, c.Insert(data, "pic"))

	got, err := c.Read("pic", ResOrig)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, got))
}

// TestRead_LazyVariant covers invariant 7 / scenario S5: the small variant
// is materialised on first read, offset[SMALL] becomes nonzero, the file
// grows by the variant's length, and a second read is byte-stable and does
// not grow the file again.
func TestRead_LazyVariant(t *testing.T) {
	c := newTestContainer(t, 2)
	data := jpegBytes(t, 800, 600, color.RGBA{B: 255, A: 255})
	require.NoError(t, c.Insert(data, "pic"))

	sizeBefore := fileSize(t, c)
	small1, err := c.Read("pic", ResSmall)
	require.NoError(t, err)
	require.NotEmpty(t, small1)

	i := c.index.byID["pic"]
	require.Greater(t, c.slots[i].offset[ResSmall], uint64(0))
	sizeAfter := fileSize(t, c)
	require.Greater(t, sizeAfter, sizeBefore)

	small2, err := c.Read("pic", ResSmall)
	require.NoError(t, err)
	require.True(t, bytes.Equal(small1, small2))
	require.Equal(t, sizeAfter, fileSize(t, c), "second read of a materialised variant must not grow the file")
}

// TestDelete_ThenReadFails covers invariant 6: deleting a picture twice
// fails the second time, and a deleted id becomes unreadable.
func TestDelete_ThenReadFails(t *testing.T) {
	c := newTestContainer(t, 2)
	data := jpegBytes(t, 10, 10, color.RGBA{A: 255})
	require.NoError(t, c.Insert(data, "pic"))

	require.NoError(t, c.Delete("pic"))
	require.Equal(t, uint32(0), c.Header().NumFiles)

	err := c.Delete("pic")
	require.Error(t, err)
	require.Equal(t, ErrFileNotFound, KindOf(err))

	_, err = c.Read("pic", ResOrig)
	require.Error(t, err)
	require.Equal(t, ErrFileNotFound, KindOf(err))
}

// TestInsert_FullDatabase covers invariant 10: the (max_files+1)-th insert
// into a fresh container fails with FullDatabase, and num_files is left
// untouched by the failed attempt.
func TestInsert_FullDatabase(t *testing.T) {
	c := newTestContainer(t, 1)
	require.NoError(t, c.Insert(jpegBytes(t, 5, 5, color.RGBA{A: 255}), "a"))

	err := c.Insert(jpegBytes(t, 5, 5, color.RGBA{R: 1, A: 255}), "b")
	require.Error(t, err)
	require.Equal(t, ErrFullDatabase, KindOf(err))
	require.Equal(t, uint32(1), c.Header().NumFiles)
}

// TestInsert_FullDatabaseCheckedBeforeDuplicateID covers §4.5 step 1: the
// FullDatabase check is unconditional and runs first, so a duplicate id (or
// invalid JPEG bytes) presented to an already-full database still reports
// FullDatabase rather than DuplicateId/Vips.
func TestInsert_FullDatabaseCheckedBeforeDuplicateID(t *testing.T) {
	c := newTestContainer(t, 1)
	require.NoError(t, c.Insert(jpegBytes(t, 5, 5, color.RGBA{A: 255}), "a"))

	err := c.Insert(jpegBytes(t, 5, 5, color.RGBA{A: 255}), "a")
	require.Error(t, err)
	require.Equal(t, ErrFullDatabase, KindOf(err))

	err = c.Insert([]byte("not a jpeg"), "a")
	require.Error(t, err)
	require.Equal(t, ErrFullDatabase, KindOf(err))
}

// TestCompact_PreservesSurvivorsAndReclaimsSpace covers invariants 8/9 and
// scenario S6: after deleting one of two deduplicated pictures, Compact
// leaves the survivor byte-identical, strictly advances db_version, and
// leaves a file holding only the header, the table and the one live blob.
func TestCompact_PreservesSurvivorsAndReclaimsSpace(t *testing.T) {
	c := newTestContainer(t, 2)
	data := jpegBytes(t, 64, 64, color.RGBA{R: 50, G: 60, B: 70, A: 255})
	require.NoError(t, c.Insert(data, "cat"))
	require.NoError(t, c.Insert(data, "cat2"))
	versionBeforeDelete := c.Header().DBVersion

	require.NoError(t, c.Delete("cat"))
	require.Greater(t, c.Header().DBVersion, versionBeforeDelete)
	versionBeforeCompact := c.Header().DBVersion

	require.NoError(t, c.Compact())
	require.Greater(t, c.Header().DBVersion, versionBeforeCompact)
	require.Equal(t, uint32(1), c.Header().NumFiles)
	require.Equal(t, int64(headerSize+2*slotSize+len(data)), fileSize(t, c))

	got, err := c.Read("cat2", ResOrig)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, got))

	_, ok := c.index.byID["cat"]
	require.False(t, ok)
}

// TestHeaderRoundTrip exercises the on-disk codec directly: encoding then
// decoding a header must reproduce it field-for-field.
func TestHeaderRoundTrip(t *testing.T) {
	h := newHeader(7, 64, 64, 256, 256)
	b, err := h.toBytes()
	require.NoError(t, err)

	got, err := headerFromBytes(b)
	require.NoError(t, err)
	if diff := deep.Equal(h, got); diff != nil {
		t.Fatalf("header round-trip mismatch: %v", diff)
	}
}

// TestSlotRoundTrip mirrors TestHeaderRoundTrip for the per-picture record.
func TestSlotRoundTrip(t *testing.T) {
	s := slot{
		picID:      "pic",
		origWidth:  12,
		origHeight: 34,
		valid:      validNonEmpty,
	}
	s.sha[0] = 0xAB
	s.size[ResOrig] = 99
	s.offset[ResOrig] = 128

	b, err := s.toBytes()
	require.NoError(t, err)
	got, err := slotFromBytes(b)
	require.NoError(t, err)
	if diff := deep.Equal(s, got); diff != nil {
		t.Fatalf("slot round-trip mismatch: %v", diff)
	}
}

func fileSize(t *testing.T, c *Container) int64 {
	t.Helper()
	info, err := c.file.Stat()
	require.NoError(t, err)
	return info.Size()
}
