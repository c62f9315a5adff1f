package engine

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ivlev/timefade/internal/analyzer"
	"github.com/ivlev/timefade/internal/bucket"
	"github.com/ivlev/timefade/internal/config"
	"github.com/ivlev/timefade/internal/fade"
	"github.com/ivlev/timefade/internal/renderer"
	"github.com/ivlev/timefade/internal/source"
)

// Timeline is the keyframe sequence of a bucket range, ready to render.
type Timeline struct {
	Names     []string
	Keyframes []*fade.Result
	Model     *renderer.Model
}

// LoadBuckets scans cfg.InputPath, cuts the configured range out of it
// and fills every offset gap.
func LoadBuckets(cfg *config.Config) ([]bucket.Bucket, error) {
	all, err := bucket.Scan(cfg.InputPath, cfg.FileSuffix)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", cfg.InputPath, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: no buckets under %s", fade.ErrInsufficientInput, cfg.InputPath)
	}
	sel, err := bucket.Range(all, cfg.StartBucket, cfg.EndBucket)
	if err != nil {
		return nil, err
	}
	return bucket.Resolve(sel, source.NewPlaceholders(cfg.PlaceholderDir))
}

// Refs measures the entries of b for the fade builder.
func Refs(l source.Loader, b bucket.Bucket, gamma float64) []analyzer.ImageRef {
	refs := make([]analyzer.ImageRef, len(b.Entries))
	for i, e := range b.Entries {
		refs[i] = analyzer.ImageRef{Path: e.Path, Offset: e.Offset, Proxy: e.Proxy, Active: true}
	}
	analyzer.Measure(l, refs, gamma)
	return refs
}

// filterOffsets deactivates an offset in every bucket when it is below
// threshold in all of them, so each keyframe keeps the same layout.
func filterOffsets(refs [][]analyzer.ImageRef, threshold int) {
	if threshold <= 0 || len(refs) == 0 {
		return
	}
	for j := range refs[0] {
		dark := true
		for _, r := range refs {
			if r[j].Brightness >= threshold {
				dark = false
				break
			}
		}
		if !dark {
			continue
		}
		log.WithField("offset", refs[0][j].Offset.String()).Infof("[*] Below brightness %d everywhere, dropped", threshold)
		for _, r := range refs {
			r[j].Active = false
		}
	}
}

// LoadTimeline builds one fade per bucket and fits the timeline through
// them. Neighbouring buckets with identical input share one build.
func LoadTimeline(cfg *config.Config, l source.Loader) (*Timeline, error) {
	buckets, err := LoadBuckets(cfg)
	if err != nil {
		return nil, err
	}
	if len(buckets) < 2 {
		return nil, fmt.Errorf("%w: %d bucket(s) in range", fade.ErrInsufficientInput, len(buckets))
	}

	refs := make([][]analyzer.ImageRef, len(buckets))
	for i, b := range buckets {
		refs[i] = Refs(l, b, cfg.Gamma)
	}
	filterOffsets(refs, cfg.BrightnessFloor)

	cache := fade.NewCache(fade.NewBuilder(l))
	tl := &Timeline{}
	for i, b := range buckets {
		paths, brightness, proxies := analyzer.Active(refs[i])
		res, err := cache.Build(paths, brightness, proxies, cfg.FadeParams)
		if err != nil {
			return nil, fmt.Errorf("bucket %s: %w", b.Name, err)
		}
		log.WithField("bucket", b.Name).Debugf("[*] Keyframe %d: %d segment(s)", i, res.Segments())
		tl.Names = append(tl.Names, b.Name)
		tl.Keyframes = append(tl.Keyframes, res)
	}

	tl.Model, err = renderer.NewModel(tl.Keyframes, cfg.Steps)
	if err != nil {
		return nil, err
	}
	return tl, nil
}
