package pictdb

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// PictureInfo is the JSON/human-readable projection of one valid slot,
// ported from original_source/pictDBM/db_list.c's print_metadata fields.
type PictureInfo struct {
	PicID      string `json:"Pict_ID"`
	Sha        string `json:"SHA"`
	OrigWidth  uint32 `json:"Width"`
	OrigHeight uint32 `json:"Height"`
	Size       uint32 `json:"Size"`
}

// pictureList walks the slot table in index order collecting every valid
// slot's PictureInfo, the common core shared by ListHuman and ListJSON.
func (c *Container) pictureList() []PictureInfo {
	out := make([]PictureInfo, 0, c.header.NumFiles)
	for _, s := range c.slots {
		if !s.isValid() {
			continue
		}
		out = append(out, PictureInfo{
			PicID:      s.picID,
			Sha:        hex.EncodeToString(s.sha[:]),
			OrigWidth:  s.origWidth,
			OrigHeight: s.origHeight,
			Size:       s.size[ResOrig],
		})
	}
	return out
}

// ListHuman renders the container's header and every valid picture's
// metadata as the CLI's plain-text "list" output, ported from
// original_source/pictDBM/db_list.c's print_header/print_metadata/do_list.
func (c *Container) ListHuman() string {
	var b strings.Builder
	h := c.header
	fmt.Fprintf(&b, "*****************************************\n")
	fmt.Fprintf(&b, "**********DATABASE HEADER START*********\n")
	fmt.Fprintf(&b, "DB NAME: %s\n", h.DBName)
	fmt.Fprintf(&b, "VERSION: %d\n", h.DBVersion)
	fmt.Fprintf(&b, "IMAGE COUNT: %d\t\tMAX IMAGES: %d\n", h.NumFiles, h.MaxFiles)
	fmt.Fprintf(&b, "THUMBNAIL: %d x %d\tSMALL: %d x %d\n", h.ThumbResX, h.ThumbResY, h.SmallResX, h.SmallResY)
	fmt.Fprintf(&b, "**********DATABASE HEADER END**********\n")

	pics := c.pictureList()
	if len(pics) == 0 {
		fmt.Fprintf(&b, "<< empty database >>\n")
		return b.String()
	}
	for _, p := range pics {
		fmt.Fprintf(&b, "**********PICTURE METADATA START********\n")
		fmt.Fprintf(&b, "PICTURE ID: %s\n", p.PicID)
		fmt.Fprintf(&b, "SHA: %s\n", p.Sha)
		fmt.Fprintf(&b, "ORIGINAL: %d x %d\t%d bytes\n", p.OrigWidth, p.OrigHeight, p.Size)
		fmt.Fprintf(&b, "**********PICTURE METADATA END**********\n")
	}
	return b.String()
}

// listJSON is the wire shape for ListJSON: the original's do_list_json
// wraps a bare array of identifiers under a single "Pictures" key, and an
// empty database still renders "Pictures":[] rather than a JSON null — the
// resolution spec.md leaves as an Open Question.
type listJSON struct {
	Pictures []string `json:"Pictures"`
}

// ListJSON renders the identifiers of every valid slot, in index order, in
// the "Pictures": [...] shape the HTTP API returns, ported from
// original_source/pictDBM/db_list.c's do_list_json.
func (c *Container) ListJSON() ([]byte, error) {
	pics := c.pictureList()
	ids := make([]string, len(pics))
	for i, p := range pics {
		ids[i] = p.PicID
	}
	doc := listJSON{Pictures: ids}
	return json.Marshal(doc)
}
