package bucket

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	log "github.com/sirupsen/logrus"

	"github.com/ivlev/timefade/internal/source"
)

// Scan lists the subfolders of root in natural order and collects the
// files ending in suffix, keyed by the UTC offset in their names.
// Folders without any usable file are skipped.
func Scan(root, suffix string) ([]Bucket, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	suffix = strings.ToLower(suffix)

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Sort(natural.StringSlice(names))

	var buckets []Bucket
	for _, name := range names {
		dir := filepath.Join(root, name)
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read bucket %s: %w", name, err)
		}

		var fnames []string
		for _, f := range files {
			if !f.IsDir() && strings.HasSuffix(strings.ToLower(f.Name()), suffix) {
				fnames = append(fnames, f.Name())
			}
		}
		sort.Sort(natural.StringSlice(fnames))

		var items []Entry
		for _, fn := range fnames {
			off, ok := source.ParseUTCOffset(fn)
			if !ok {
				log.WithFields(log.Fields{"bucket": name, "path": fn}).Warn("[!] no UTC offset in file name, skipped")
				continue
			}
			items = append(items, Entry{Offset: off, Path: filepath.Join(dir, fn)})
		}
		if len(items) == 0 {
			continue
		}
		buckets = append(buckets, New(name, items))
	}
	return buckets, nil
}
