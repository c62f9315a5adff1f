package movement

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/timefade/internal/renderer"
)

// Export is the boundary trajectory of one timeline, as read by the
// movement plotting tool.
type Export struct {
	Width         int       `json:"width" yaml:"width"`
	Height        int       `json:"height" yaml:"height"`
	TotalFrames   int       `json:"total_frames" yaml:"total_frames"`
	Subfolders    []string  `json:"subfolders" yaml:"subfolders"`
	MovementData  []Frame   `json:"movement_data" yaml:"movement_data"`
	KeyframeTimes []float64 `json:"keyframe_times" yaml:"keyframe_times"`
}

// Frame holds the spline positions of one frame, rounded but not
// clamped, edges included.
type Frame struct {
	Frame      int   `json:"frame" yaml:"frame"`
	Boundaries []int `json:"boundaries" yaml:"boundaries"`
}

// Build samples every frame 0..TotalFrames of m. names are the bucket
// names of the keyframes, in timeline order.
func Build(m *renderer.Model, names []string) *Export {
	total := m.TotalFrames()
	exp := &Export{
		Width:         m.Width(),
		Height:        m.Height(),
		TotalFrames:   total,
		Subfolders:    append([]string(nil), names...),
		MovementData:  make([]Frame, 0, total+1),
		KeyframeTimes: append([]float64(nil), m.Times...),
	}
	for f := 0; f <= total; f++ {
		raw := m.Boundaries(f)
		b := make([]int, len(raw))
		for j, v := range raw {
			b[j] = int(math.Round(v))
		}
		exp.MovementData = append(exp.MovementData, Frame{Frame: f, Boundaries: b})
	}
	return exp
}

// DefaultPath names a movement file after its creation time.
func DefaultPath(dir string, now time.Time) string {
	return filepath.Join(dir, now.Format("20060102_150405")+"_movement.json")
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Write stores exp as indented JSON, or as YAML for .yaml and .yml paths.
func Write(exp *Export, path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(exp)
	} else {
		data, err = json.MarshalIndent(exp, "", "    ")
	}
	if err != nil {
		return fmt.Errorf("encode movement data: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Read loads a file written by Write.
func Read(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var exp Export
	if isYAML(path) {
		err = yaml.Unmarshal(data, &exp)
	} else {
		err = json.Unmarshal(data, &exp)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &exp, nil
}
