package bucket

import (
	"fmt"
	"sort"

	"github.com/ivlev/timefade/internal/source"
)

// Entry is the image standing for one offset inside a bucket.
type Entry struct {
	Offset source.Offset
	Path   string
	Proxy  bool // fallback or dummy, not a genuine source for this offset
}

// Bucket is one time slot (one subfolder) with its entries kept
// sorted by offset.
type Bucket struct {
	Name    string
	Entries []Entry
}

// New sorts entries by offset. On duplicate offsets the first entry wins.
func New(name string, entries []Entry) Bucket {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	out := sorted[:0]
	for i, e := range sorted {
		if i > 0 && e.Offset == out[len(out)-1].Offset {
			continue
		}
		out = append(out, e)
	}
	return Bucket{Name: name, Entries: out}
}

func (b Bucket) Lookup(o source.Offset) (Entry, bool) {
	i := sort.Search(len(b.Entries), func(i int) bool { return b.Entries[i].Offset >= o })
	if i < len(b.Entries) && b.Entries[i].Offset == o {
		return b.Entries[i], true
	}
	return Entry{}, false
}

func (b Bucket) Offsets() []source.Offset {
	out := make([]source.Offset, len(b.Entries))
	for i, e := range b.Entries {
		out[i] = e.Offset
	}
	return out
}

// Range returns the contiguous buckets from start to end by name.
// Empty names select the first and last bucket.
func Range(buckets []Bucket, start, end string) ([]Bucket, error) {
	idx := func(name string, def int) (int, error) {
		if name == "" {
			return def, nil
		}
		for i, b := range buckets {
			if b.Name == name {
				return i, nil
			}
		}
		return 0, fmt.Errorf("bucket %q not found", name)
	}
	s, err := idx(start, 0)
	if err != nil {
		return nil, err
	}
	e, err := idx(end, len(buckets)-1)
	if err != nil {
		return nil, err
	}
	if s > e {
		return nil, fmt.Errorf("start bucket %q comes after end bucket %q", start, end)
	}
	return buckets[s : e+1], nil
}
