package bucket

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/ivlev/timefade/internal/source"
)

// Placeholder produces the path of a black stand-in image for an
// offset that no bucket carries.
type Placeholder interface {
	Path(o source.Offset) (string, error)
}

// Union returns every offset seen in any bucket, ascending.
func Union(buckets []Bucket) []source.Offset {
	seen := make(map[source.Offset]bool)
	var out []source.Offset
	for _, b := range buckets {
		for _, e := range b.Entries {
			if !seen[e.Offset] {
				seen[e.Offset] = true
				out = append(out, e.Offset)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolve pads every bucket to the union of offsets. A missing offset
// borrows the image of the nearest bucket that has it, looking forward
// first, then backward; the first bucket only looks forward and the
// last only backward. When no bucket has the offset a placeholder is
// used. Substitutes are flagged Proxy. The input is not modified.
func Resolve(buckets []Bucket, ph Placeholder) ([]Bucket, error) {
	offsets := Union(buckets)
	out := make([]Bucket, len(buckets))

	for i, b := range buckets {
		entries := make([]Entry, 0, len(offsets))
		for _, o := range offsets {
			if e, ok := b.Lookup(o); ok {
				entries = append(entries, e)
				continue
			}
			e, err := fallback(buckets, i, o, ph)
			if err != nil {
				return nil, fmt.Errorf("bucket %s offset %s: %w", b.Name, o, err)
			}
			log.WithFields(log.Fields{"bucket": b.Name, "offset": o.String(), "path": e.Path}).
				Debug("[*] offset gap filled")
			entries = append(entries, e)
		}
		out[i] = Bucket{Name: b.Name, Entries: entries}
	}
	return out, nil
}

func fallback(buckets []Bucket, i int, o source.Offset, ph Placeholder) (Entry, error) {
	last := len(buckets) - 1

	forward := func() (Entry, bool) {
		for k := i + 1; k <= last; k++ {
			if e, ok := buckets[k].Lookup(o); ok {
				return e, true
			}
		}
		return Entry{}, false
	}
	backward := func() (Entry, bool) {
		for k := i - 1; k >= 0; k-- {
			if e, ok := buckets[k].Lookup(o); ok {
				return e, true
			}
		}
		return Entry{}, false
	}

	var (
		e  Entry
		ok bool
	)
	switch i {
	case 0:
		e, ok = forward()
	case last:
		e, ok = backward()
	default:
		if e, ok = forward(); !ok {
			e, ok = backward()
		}
	}
	if ok {
		return Entry{Offset: o, Path: e.Path, Proxy: true}, nil
	}

	path, err := ph.Path(o)
	if err != nil {
		return Entry{}, err
	}
	log.WithField("offset", o.String()).Warn("[!] no bucket has this offset, using black placeholder")
	return Entry{Offset: o, Path: path, Proxy: true}, nil
}
