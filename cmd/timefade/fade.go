package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ivlev/timefade/internal/analyzer"
	"github.com/ivlev/timefade/internal/bucket"
	"github.com/ivlev/timefade/internal/config"
	"github.com/ivlev/timefade/internal/engine"
	"github.com/ivlev/timefade/internal/fade"
	"github.com/ivlev/timefade/internal/source"
	"github.com/ivlev/timefade/internal/system"
)

var fadeCmd = &cobra.Command{
	Use:   "fade [bucket...]",
	Short: "Build the fade image of one or more buckets",
	Long: `Builds the horizontal fade of each named bucket (default: the first
bucket of the range) and saves it as PNG into the next free numbered
folder under the output folder.`,
	RunE: runFade,
}

func init() {
	rootCmd.AddCommand(fadeCmd)
}

func runFade(cmd *cobra.Command, args []string) error {
	if err := cfg.FadeParams.Validate(); err != nil {
		return err
	}
	buckets, err := engine.LoadBuckets(cfg)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{buckets[0].Name}
	}

	dir, err := system.NextRunDir(cfg.OutputDir)
	if err != nil {
		return err
	}

	saved, err := saveFades(cfg, source.FileLoader{}, buckets, args, dir)
	if err != nil {
		return err
	}
	if len(saved) == 0 {
		return fmt.Errorf("%w: no bucket produced a fade", fade.ErrInsufficientInput)
	}
	return nil
}

// saveFades writes one PNG per named bucket into dir and returns their
// paths. A bucket without enough usable images is skipped with a warning.
func saveFades(c *config.Config, l source.Loader, buckets []bucket.Bucket, names []string, dir string) ([]string, error) {
	cache := fade.NewCache(fade.NewBuilder(l))
	var saved []string
	for _, name := range names {
		idx := -1
		for i, b := range buckets {
			if b.Name == name {
				idx = i
			}
		}
		if idx < 0 {
			return saved, fmt.Errorf("bucket %q not in range", name)
		}

		refs := engine.Refs(l, buckets[idx], c.Gamma)
		analyzer.FilterByBrightness(refs, c.BrightnessFloor)
		paths, brightness, proxies := analyzer.Active(refs)

		res, err := cache.Build(paths, brightness, proxies, c.FadeParams)
		if errors.Is(err, fade.ErrInsufficientInput) {
			log.WithField("bucket", name).Warnf("[!] Skipped: %v", err)
			continue
		}
		if err != nil {
			return saved, fmt.Errorf("bucket %s: %w", name, err)
		}

		out := filepath.Join(dir, fmt.Sprintf("%s_%s.png", name, c.FadeParams.Tag()))
		if err := imaging.Save(res.Image, out); err != nil {
			return saved, err
		}
		for i, lb := range res.Labels {
			proxy := ""
			if lb.Proxy {
				proxy = " (proxy)"
			}
			log.Debugf("[*] %5d  %s%s", res.Boundaries[i], lb.Name, proxy)
		}
		log.Infof("[+++] %s: %d segment(s) -> %s", name, res.Segments(), out)
		saved = append(saved, out)
	}
	return saved, nil
}
