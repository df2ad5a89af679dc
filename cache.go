package pictdb

import lru "github.com/hashicorp/golang-lru/v2"

// blobKey identifies one stored blob by the slot it belongs to and the
// resolution requested, the same pair that addresses an (offset, size) in a
// slot.
type blobKey struct {
	index int
	res   Resolution
}

// blobCache is a bounded, read-through cache of recently fetched or stored
// blob bytes, purely an in-memory optimisation layered in front of
// Container.readBlob/appendBlob. It never changes on-disk semantics: a cache
// miss always falls back to the file, and a delete/compaction simply
// invalidates the affected entries.
type blobCache struct {
	lru *lru.Cache[blobKey, []byte]
}

// defaultBlobCacheSize bounds the cache to a modest number of decoded blobs
// per open container — enough to avoid re-reading the original on back-to-back
// lazy resizes of both configured variants, without holding a whole large
// database's pictures in memory.
const defaultBlobCacheSize = 64

func newBlobCache() *blobCache {
	c, _ := lru.New[blobKey, []byte](defaultBlobCacheSize)
	return &blobCache{lru: c}
}

func (c *blobCache) get(index int, res Resolution) ([]byte, bool) {
	return c.lru.Get(blobKey{index, res})
}

func (c *blobCache) put(index int, res Resolution, data []byte) {
	c.lru.Add(blobKey{index, res}, data)
}

func (c *blobCache) invalidateSlot(index int) {
	for r := Resolution(0); r < nbRes; r++ {
		c.lru.Remove(blobKey{index, r})
	}
}

func (c *blobCache) purge() {
	c.lru.Purge()
}
