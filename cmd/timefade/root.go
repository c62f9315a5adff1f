package main

import (
	"fmt"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ivlev/timefade/internal/config"
	"github.com/ivlev/timefade/internal/system"
)

var (
	version    = "0.1.0"
	verbose    bool
	configPath string

	// flagCfg receives flag values; only flags the user set are copied
	// over the loaded configuration.
	flagCfg = config.Default()
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "timefade",
	Short: "Blend per-timezone images into fades and crossfade videos",
	Long: `timefade reads folders of images named after their UTC offset
(UTC+5.75_fading.png), lays them out side by side as one horizontal
fade per folder and animates the fades of consecutive folders into a
video.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVarP(&configPath, "config", "c", "", "YAML configuration file")

	pf.StringVarP(&flagCfg.InputPath, "input", "i", flagCfg.InputPath, "folder holding one subfolder per time bucket")
	pf.StringVarP(&flagCfg.OutputDir, "output", "o", flagCfg.OutputDir, "output folder")
	pf.StringVar(&flagCfg.PlaceholderDir, "placeholder-dir", flagCfg.PlaceholderDir, "folder for generated dummy images")
	pf.StringVar(&flagCfg.FileSuffix, "suffix", flagCfg.FileSuffix, "file name suffix of source images")
	pf.StringVar(&flagCfg.StartBucket, "start", "", "first bucket of the range (default: first)")
	pf.StringVar(&flagCfg.EndBucket, "end", "", "last bucket of the range (default: last)")

	pf.IntVar(&flagCfg.Width, "width", flagCfg.Width, "canvas width")
	pf.IntVar(&flagCfg.Height, "height", flagCfg.Height, "canvas height")
	pf.Float64Var(&flagCfg.Gamma, "gamma", flagCfg.Gamma, "brightness gamma")
	pf.Float64Var(&flagCfg.Influence, "influence", flagCfg.Influence, "weight exponent")
	pf.Float64Var(&flagCfg.Damping, "damping", flagCfg.Damping, "max width deviation from an equal split, percent")
	pf.Float64Var(&flagCfg.Midpoint, "midpoint", flagCfg.Midpoint, "parabola peak brightness")
	pf.Var(weightingValue{&flagCfg.Weighting}, "weighting", "Exponential or Parabola")
	pf.IntVar(&flagCfg.BrightnessFloor, "brightness-threshold", 0, "drop images darker than this")

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"timefade %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// overrides copies one flag's value from src to dst.
var overrides = map[string]func(dst, src *config.Config){
	"input":                func(d, s *config.Config) { d.InputPath = s.InputPath },
	"output":               func(d, s *config.Config) { d.OutputDir = s.OutputDir },
	"placeholder-dir":      func(d, s *config.Config) { d.PlaceholderDir = s.PlaceholderDir },
	"suffix":               func(d, s *config.Config) { d.FileSuffix = s.FileSuffix },
	"start":                func(d, s *config.Config) { d.StartBucket = s.StartBucket },
	"end":                  func(d, s *config.Config) { d.EndBucket = s.EndBucket },
	"width":                func(d, s *config.Config) { d.Width = s.Width },
	"height":               func(d, s *config.Config) { d.Height = s.Height },
	"gamma":                func(d, s *config.Config) { d.Gamma = s.Gamma },
	"influence":            func(d, s *config.Config) { d.Influence = s.Influence },
	"damping":              func(d, s *config.Config) { d.Damping = s.Damping },
	"midpoint":             func(d, s *config.Config) { d.Midpoint = s.Midpoint },
	"weighting":            func(d, s *config.Config) { d.Weighting = s.Weighting },
	"brightness-threshold": func(d, s *config.Config) { d.BrightnessFloor = s.BrightnessFloor },
	"fps":                  func(d, s *config.Config) { d.FPS = s.FPS },
	"steps":                func(d, s *config.Config) { d.Steps = s.Steps },
	"frames-per-batch":     func(d, s *config.Config) { d.FramesPerBatch = s.FramesPerBatch },
	"workers":              func(d, s *config.Config) { d.Workers = s.Workers },
	"ghost":                func(d, s *config.Config) { d.GhostCount = s.GhostCount },
	"split":                func(d, s *config.Config) { d.SplitCount = s.SplitCount },
	"delete-chunks":        func(d, s *config.Config) { d.DeleteChunks = s.DeleteChunks },
	"hstack":               func(d, s *config.Config) { d.HStack = s.HStack },
	"ffmpeg":               func(d, s *config.Config) { d.FFmpegPath = s.FFmpegPath },
	"encoder":              func(d, s *config.Config) { d.VideoEncoder = s.VideoEncoder },
	"quality":              func(d, s *config.Config) { d.Quality = s.Quality },
	"encoder-timeout":      func(d, s *config.Config) { d.EncoderTimeout = s.EncoderTimeout },
	"blend":                func(d, s *config.Config) { d.Blend = s.Blend },
	"tag":                  func(d, s *config.Config) { d.FileTag = s.FileTag },
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: time.TimeOnly})
	system.InitResourceLimits()

	if configPath != "" {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c
		log.Debugf("[*] Config loaded from %s", configPath)
	} else {
		cfg = config.Default()
	}

	cmd.Flags().Visit(func(f *pflag.Flag) {
		if apply, ok := overrides[f.Name]; ok {
			apply(cfg, flagCfg)
		}
	})
	return nil
}

// weightingValue adapts config.Weighting to pflag.
type weightingValue struct{ w *config.Weighting }

func (v weightingValue) String() string {
	if v.w == nil {
		return config.Exponential.String()
	}
	return v.w.String()
}

func (v weightingValue) Set(s string) error {
	w, err := config.ParseWeighting(s)
	if err != nil {
		return err
	}
	*v.w = w
	return nil
}

func (v weightingValue) Type() string { return "weighting" }
