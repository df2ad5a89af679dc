package pictdb

import "github.com/bits-and-blooms/bitset"

// slotIndex holds the auxiliary, non-persisted lookup structures spec.md
// §4.2 permits: a free-slot bitset and id/sha lookup maps. All three are
// rebuilt from the slot table on every Open/Create and never written to
// disk — they exist purely to avoid an O(max_files) scan on every
// insert/dedup/lookup, the way the teacher's ext4 package uses bitmaps to
// avoid scanning every block/inode for a free one.
type slotIndex struct {
	free  *bitset.BitSet
	byID  map[string]int
	bySha map[[ShaSize]byte]int
}

func newSlotIndex(slots []slot) *slotIndex {
	idx := &slotIndex{
		free:  bitset.New(uint(len(slots))),
		byID:  make(map[string]int, len(slots)),
		bySha: make(map[[ShaSize]byte]int, len(slots)),
	}
	for i, s := range slots {
		if !s.isValid() {
			idx.free.Set(uint(i))
			continue
		}
		idx.byID[s.picID] = i
		if _, ok := idx.bySha[s.sha]; !ok {
			idx.bySha[s.sha] = i
		}
	}
	return idx
}

// firstFree returns the lowest-index free slot, matching the original's
// "first EMPTY position in index order" allocation rule, or ok=false if the
// table has no free slot.
func (idx *slotIndex) firstFree() (int, bool) {
	i, ok := idx.free.NextSet(0)
	if !ok {
		return 0, false
	}
	return int(i), true
}

func (idx *slotIndex) reserve(i int) {
	idx.free.Clear(uint(i))
}

// unreserve gives index i back to the free pool without touching byID/bySha,
// for the "zero the reserved slot before returning the error" cleanup path.
func (idx *slotIndex) unreserve(i int) {
	idx.free.Set(uint(i))
}

func (idx *slotIndex) markValid(i int, s slot) {
	idx.byID[s.picID] = i
	if _, ok := idx.bySha[s.sha]; !ok {
		idx.bySha[s.sha] = i
	}
}

// markRemoved retires slot i (whose metadata was s before being zeroed) from
// the index and, if it was the tie-break winner for its sha, repromotes the
// next-lowest-index valid slot sharing that sha, scanning the live table.
func (idx *slotIndex) markRemoved(slots []slot, i int, s slot) {
	delete(idx.byID, s.picID)
	idx.free.Set(uint(i))

	if idx.bySha[s.sha] != i {
		return
	}
	delete(idx.bySha, s.sha)
	for j, other := range slots {
		if j != i && other.isValid() && other.sha == s.sha {
			idx.bySha[s.sha] = j
			break
		}
	}
}
