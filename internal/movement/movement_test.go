package movement

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ivlev/timefade/internal/analyzer"
	"github.com/ivlev/timefade/internal/fade"
	"github.com/ivlev/timefade/internal/renderer"
)

func keyframe(bounds []int) *fade.Result {
	res := &fade.Result{
		Image:      image.NewRGBA(image.Rect(0, 0, 100, 1)),
		Boundaries: bounds,
		Width:      100,
		Height:     1,
	}
	for range bounds {
		res.Colors = append(res.Colors, analyzer.Column{{10, 20, 30}})
	}
	return res
}

func testModel(t *testing.T) *renderer.Model {
	t.Helper()
	m, err := renderer.NewModel([]*fade.Result{
		keyframe([]int{0, 20, 99}),
		keyframe([]int{0, 60, 99}),
		keyframe([]int{0, 40, 99}),
	}, 4)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestBuild(t *testing.T) {
	exp := Build(testModel(t), []string{"day1", "day2", "day3"})

	if exp.TotalFrames != 8 || len(exp.MovementData) != 9 {
		t.Fatalf("total %d with %d frames", exp.TotalFrames, len(exp.MovementData))
	}
	if exp.Width != 100 || exp.Height != 1 {
		t.Errorf("size %dx%d", exp.Width, exp.Height)
	}
	if len(exp.KeyframeTimes) != 3 || exp.KeyframeTimes[1] != 0.5 {
		t.Errorf("keyframe times = %v", exp.KeyframeTimes)
	}
	first, mid, last := exp.MovementData[0], exp.MovementData[4], exp.MovementData[8]
	if first.Boundaries[1] != 20 || mid.Boundaries[1] != 60 || last.Boundaries[1] != 40 {
		t.Errorf("keyframe positions: %v %v %v", first.Boundaries, mid.Boundaries, last.Boundaries)
	}
	// raw positions keep the width-1 edge
	if last.Frame != 8 || last.Boundaries[2] != 99 {
		t.Errorf("last frame = %+v", last)
	}
}

func TestWriteJSONKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "run_movement.json")
	if err := Write(Build(testModel(t), []string{"a", "b", "c"}), path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"width"`, `"height"`, `"total_frames"`, `"subfolders"`, `"movement_data"`, `"keyframe_times"`, `"frame"`, `"boundaries"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("missing key %s", key)
		}
	}

	back, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.TotalFrames != 8 || back.Subfolders[2] != "c" || len(back.MovementData) != 9 {
		t.Errorf("read back %+v", back)
	}
}

func TestWriteYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movement.yaml")
	if err := Write(Build(testModel(t), []string{"a", "b", "c"}), path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "total_frames: 8") {
		t.Errorf("not YAML:\n%s", data)
	}
}

func TestDefaultPath(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if got, want := DefaultPath("output", now), filepath.Join("output", "20250102_030405_movement.json"); got != want {
		t.Errorf("DefaultPath = %q, want %q", got, want)
	}
}
