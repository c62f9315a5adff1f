package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidParameters is wrapped by every validation failure.
var ErrInvalidParameters = errors.New("invalid parameters")

// Weighting selects the transition weight curve.
type Weighting int

const (
	Exponential Weighting = iota
	Parabola
)

func (w Weighting) String() string {
	switch w {
	case Parabola:
		return "Parabola"
	default:
		return "Exponential"
	}
}

// ParseWeighting accepts the mode names case-insensitively.
func ParseWeighting(s string) (Weighting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exponential", "exp":
		return Exponential, nil
	case "parabola", "parabolic":
		return Parabola, nil
	}
	return Exponential, fmt.Errorf("%w: unknown weighting mode %q", ErrInvalidParameters, s)
}

func (w Weighting) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *Weighting) UnmarshalText(b []byte) error {
	v, err := ParseWeighting(string(b))
	if err != nil {
		return err
	}
	*w = v
	return nil
}

// BlendMode selects how in-between frames are produced.
type BlendMode string

const (
	BlendMorph    BlendMode = "morph"
	BlendDissolve BlendMode = "dissolve"
)

// FadeParams is the complete tunable contract of one fade computation.
type FadeParams struct {
	Width     int       `yaml:"width"`
	Height    int       `yaml:"height"`
	Gamma     float64   `yaml:"gamma"`
	Influence float64   `yaml:"influence"`
	Damping   float64   `yaml:"damping"` // percent, 0..100
	Midpoint  float64   `yaml:"midpoint"`
	Weighting Weighting `yaml:"weighting"`
}

// Validate rejects parameters no fade can be built from.
func (p FadeParams) Validate() error {
	switch {
	case p.Width <= 0 || p.Height <= 0:
		return fmt.Errorf("%w: size %dx%d must be positive", ErrInvalidParameters, p.Width, p.Height)
	case p.Gamma <= 0:
		return fmt.Errorf("%w: gamma %v must be > 0", ErrInvalidParameters, p.Gamma)
	case p.Influence < 0:
		return fmt.Errorf("%w: influence %v must be >= 0", ErrInvalidParameters, p.Influence)
	case p.Damping < 0 || p.Damping > 100:
		return fmt.Errorf("%w: damping %v outside [0,100]", ErrInvalidParameters, p.Damping)
	case p.Midpoint <= 0:
		return fmt.Errorf("%w: midpoint %v must be > 0", ErrInvalidParameters, p.Midpoint)
	case p.Weighting != Exponential && p.Weighting != Parabola:
		return fmt.Errorf("%w: weighting %d", ErrInvalidParameters, p.Weighting)
	}
	return nil
}

// Tag renders the weighting knobs the way output files are named.
func (p FadeParams) Tag() string {
	return fmt.Sprintf("g%si%sd%sm%s", num(p.Gamma), num(p.Influence), num(p.Damping), num(p.Midpoint))
}

func num(v float64) string {
	s := fmt.Sprintf("%g", v)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

type Config struct {
	FadeParams `yaml:",inline"`

	InputPath       string        `yaml:"input"`
	OutputDir       string        `yaml:"output"`
	PlaceholderDir  string        `yaml:"placeholder_dir"`
	FileSuffix      string        `yaml:"file_suffix"`
	StartBucket     string        `yaml:"start"`
	EndBucket       string        `yaml:"end"`
	FPS             int           `yaml:"fps"`
	Steps           int           `yaml:"steps"`
	FramesPerBatch  int           `yaml:"frames_per_batch"`
	Workers         int           `yaml:"workers"`
	GhostCount      int           `yaml:"ghost"`
	SplitCount      int           `yaml:"split"`
	DeleteChunks    bool          `yaml:"delete_chunks"`
	HStack          bool          `yaml:"hstack"`
	FFmpegPath      string        `yaml:"ffmpeg_path"`
	VideoEncoder    string        `yaml:"video_encoder"`
	Quality         int           `yaml:"quality"`
	EncoderTimeout  time.Duration `yaml:"encoder_timeout"`
	Blend           BlendMode     `yaml:"blend"`
	BrightnessFloor int           `yaml:"brightness_threshold"`
	FileTag         string        `yaml:"tag"`
}

// Default mirrors the values the fading tool starts with.
func Default() *Config {
	return &Config{
		FadeParams: FadeParams{
			Width:     3840,
			Height:    2160,
			Gamma:     2.0,
			Influence: 4.0,
			Damping:   100,
			Midpoint:  128,
			Weighting: Exponential,
		},
		OutputDir:      "output",
		PlaceholderDir: "temp",
		FileSuffix:     "_fading.png",
		FPS:            25,
		Steps:          10,
		FramesPerBatch: 300,
		Workers:        1,
		SplitCount:     1,
		FFmpegPath:     "ffmpeg",
		VideoEncoder:   "libx264",
		Quality:        18,
		EncoderTimeout: 30 * time.Minute,
		Blend:          BlendMorph,
	}
}

// Load overlays a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the export surface. It never touches the filesystem.
func (c *Config) Validate() error {
	if err := c.FadeParams.Validate(); err != nil {
		return err
	}
	switch {
	case c.FPS <= 0:
		return fmt.Errorf("%w: fps %d", ErrInvalidParameters, c.FPS)
	case c.Steps < 1:
		return fmt.Errorf("%w: steps %d must be >= 1", ErrInvalidParameters, c.Steps)
	case c.FramesPerBatch < 1:
		return fmt.Errorf("%w: frames per batch %d must be >= 1", ErrInvalidParameters, c.FramesPerBatch)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers %d must be >= 1", ErrInvalidParameters, c.Workers)
	case c.GhostCount < 0:
		return fmt.Errorf("%w: ghost count %d", ErrInvalidParameters, c.GhostCount)
	case c.SplitCount < 1 || c.SplitCount > c.Width:
		return fmt.Errorf("%w: split count %d for width %d", ErrInvalidParameters, c.SplitCount, c.Width)
	case c.EncoderTimeout < 0:
		return fmt.Errorf("%w: encoder timeout %s", ErrInvalidParameters, c.EncoderTimeout)
	case c.Blend != BlendMorph && c.Blend != BlendDissolve:
		return fmt.Errorf("%w: blend mode %q", ErrInvalidParameters, c.Blend)
	}
	return nil
}

// StreamParams describes one raw-frame encode.
type StreamParams struct {
	Width, Height int
	FPS           int
	VideoEncoder  string
	Quality       int
}
