package index

import (
	"bytes"
	"sort"

	"github.com/minidb/miniql/value"
)

// Scanner iterates entries within a [leftKeys, rightKeys] range (either
// bound optional/nil meaning unbounded on that side), honoring the
// inclusive flags per spec.md §4.7's create_scanner contract.
type Scanner struct {
	entries []entry
	pos     int
	end     int
}

func comparePrefix(full, prefix []byte) int {
	n := len(prefix)
	if n > len(full) {
		n = len(full)
	}
	return bytes.Compare(full[:n], prefix)
}

// NewScanner opens a range scan. left/rightKeys may be a prefix of the
// index's full column list (a partial-key scan); nil means unbounded on
// that side.
func (t *BPlusTree) NewScanner(leftKeys []value.Value, leftInclusive bool, rightKeys []value.Value, rightInclusive bool) *Scanner {
	lo, hi := 0, len(t.entries)

	if leftKeys != nil {
		prefix := EncodeKey(leftKeys)
		lo = sort.Search(len(t.entries), func(i int) bool { return comparePrefix(t.entries[i].key, prefix) >= 0 })
		if !leftInclusive {
			for lo < len(t.entries) && comparePrefix(t.entries[lo].key, prefix) == 0 {
				lo++
			}
		}
	}

	if rightKeys != nil {
		prefix := EncodeKey(rightKeys)
		hi = sort.Search(len(t.entries), func(i int) bool { return comparePrefix(t.entries[i].key, prefix) > 0 })
		if !rightInclusive {
			for hi > 0 && comparePrefix(t.entries[hi-1].key, prefix) == 0 {
				hi--
			}
		}
	}
	if lo > hi {
		lo = hi
	}
	return &Scanner{entries: t.entries, pos: lo, end: hi}
}

// Next returns the next matching RID, or ok=false once the range is
// exhausted.
func (s *Scanner) Next() (value.RID, bool) {
	if s.pos >= s.end {
		return value.RID{}, false
	}
	rid := s.entries[s.pos].rid
	s.pos++
	return rid, true
}
