package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ivlev/timefade/internal/config"
)

// counter renders blank frames of a fixed size.
type counter struct {
	w, h, total int
}

func (c counter) TotalFrames() int { return c.total }
func (c counter) Width() int       { return c.w }
func (c counter) Height() int      { return c.h }

func (c counter) Render(dst *image.RGBA, f, originX int) {
	for i := range dst.Pix {
		dst.Pix[i] = uint8(f)
	}
}

// fakeEncoder writes the number of frames it received into each chunk
// file; Concatenate sums them.
type fakeEncoder struct {
	mu        sync.Mutex
	fail      map[string]bool
	failMerge bool
	block     bool
	onStart   func()
	concats   int
	stacked   []string
	stackWith config.StreamParams
	widths    []int
}

func (e *fakeEncoder) EncodeStream(ctx context.Context, path string, p config.StreamParams, write func(io.Writer) error) error {
	e.mu.Lock()
	e.widths = append(e.widths, p.Width)
	fail := e.fail[filepath.Base(path)]
	start := e.onStart
	e.mu.Unlock()
	if start != nil {
		start()
	}
	if e.block {
		<-ctx.Done()
		return ctx.Err()
	}

	var n countWriter
	if err := write(&n); err != nil {
		return err
	}
	if fail {
		return errors.New("exit status 1")
	}
	frames := int(n) / (p.Width * p.Height * 4)
	return os.WriteFile(path, []byte(strconv.Itoa(frames)), 0644)
}

func (e *fakeEncoder) Concatenate(ctx context.Context, parts []string, finalPath, tmpDir string) error {
	e.mu.Lock()
	e.concats++
	e.mu.Unlock()
	if e.failMerge {
		return errors.New("concat: invalid data found when processing input")
	}
	sum := 0
	for _, p := range parts {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(string(data))
		if err != nil {
			return err
		}
		sum += n
	}
	return os.WriteFile(finalPath, []byte(strconv.Itoa(sum)), 0644)
}

func (e *fakeEncoder) HStack(ctx context.Context, inputs []string, outPath string, p config.StreamParams) error {
	e.stacked = inputs
	e.stackWith = p
	return os.WriteFile(outPath, []byte(strings.Join(inputs, ",")), 0644)
}

type countWriter int

func (c *countWriter) Write(p []byte) (int, error) {
	*c += countWriter(len(p))
	return len(p), nil
}

func testConfig(t *testing.T, width int) *config.Config {
	cfg := config.Default()
	cfg.Width, cfg.Height = width, 4
	cfg.OutputDir = t.TempDir()
	cfg.FramesPerBatch = 30
	cfg.Workers = 3
	return cfg
}

func readInt(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestPartition(t *testing.T) {
	tests := []struct {
		total, batch int
		steps        []int
		frames       int
	}{
		{100, 30, []int{30, 30, 30, 10}, 101},
		{90, 30, []int{30, 30, 30}, 91},
		{5, 300, []int{5}, 6},
		{40, 10, []int{10, 10, 10, 10}, 41},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.total, tt.batch), func(t *testing.T) {
			chunks := Partition(tt.total, tt.batch)
			if len(chunks) != len(tt.steps) {
				t.Fatalf("got %d chunks, want %d", len(chunks), len(tt.steps))
			}
			frames, next := 0, 0
			for i, c := range chunks {
				if c.Steps != tt.steps[i] {
					t.Errorf("chunk %d steps = %d, want %d", i, c.Steps, tt.steps[i])
				}
				if c.Start != next {
					t.Errorf("chunk %d starts at %d, want %d", i, c.Start, next)
				}
				if c.Final != (i == len(chunks)-1) {
					t.Errorf("chunk %d final = %v", i, c.Final)
				}
				next = c.End()
				frames += c.Frames()
			}
			if frames != tt.frames {
				t.Errorf("frames = %d, want %d", frames, tt.frames)
			}
		})
	}
}

func TestExportMergesAllFrames(t *testing.T) {
	cfg := testConfig(t, 8)
	cfg.DeleteChunks = true
	enc := &fakeEncoder{}
	p := NewExportProject(cfg, counter{w: 8, h: 4, total: 100}, enc)
	p.Tag = "run"

	var last int
	p.Progress = func(done, total int) {
		if done < last {
			t.Errorf("progress went backwards: %d after %d", done, last)
		}
		last = done
		if total != 101 {
			t.Errorf("progress total = %d", total)
		}
	}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Parts) != 1 || res.Parts[0] != filepath.Join(cfg.OutputDir, "run_part-1.mp4") {
		t.Fatalf("parts = %v", res.Parts)
	}
	if got := readInt(t, res.Parts[0]); got != 101 {
		t.Errorf("merged frame count = %d, want 101", got)
	}
	if last != 101 {
		t.Errorf("final progress = %d, want 101", last)
	}
	if len(enc.widths) != 4 {
		t.Errorf("encoded %d chunks, want 4", len(enc.widths))
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "run_chunks")); !os.IsNotExist(err) {
		t.Error("chunk folder survived delete_chunks")
	}
}

func TestExportKeepsChunksWithoutDelete(t *testing.T) {
	cfg := testConfig(t, 8)
	p := NewExportProject(cfg, counter{w: 8, h: 4, total: 100}, &fakeEncoder{})
	p.Tag = "keep"
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	for n := 0; n < 4; n++ {
		path := filepath.Join(cfg.OutputDir, "keep_chunks", fmt.Sprintf("keep_part-1_chunk-%04d.mp4", n))
		if _, err := os.Stat(path); err != nil {
			t.Errorf("chunk %d missing: %v", n, err)
		}
	}
}

func TestExportChunkFailure(t *testing.T) {
	cfg := testConfig(t, 10)
	cfg.SplitCount = 2
	cfg.DeleteChunks = true
	enc := &fakeEncoder{fail: map[string]bool{"bad_part-2_chunk-0001.mp4": true}}
	p := NewExportProject(cfg, counter{w: 10, h: 4, total: 100}, enc)
	p.Tag = "bad"

	res, err := p.Run(context.Background())
	var exportErr *ExportError
	if !errors.As(err, &exportErr) {
		t.Fatalf("expected ExportError, got %v", err)
	}
	if len(exportErr.Failed) != 1 || exportErr.Failed[0].Part != 2 || exportErr.Failed[0].Index != 1 {
		t.Errorf("failed chunks = %+v", exportErr.Failed)
	}
	if len(enc.widths) != 8 {
		t.Errorf("siblings stopped: %d of 8 chunks encoded", len(enc.widths))
	}

	// part 1 is complete and merged, part 2 keeps its chunks
	if len(res.Parts) != 1 || readInt(t, res.Parts[0]) != 101 {
		t.Errorf("parts = %v", res.Parts)
	}
	if enc.concats != 1 {
		t.Errorf("concat ran %d times, want 1", enc.concats)
	}
	kept := filepath.Join(cfg.OutputDir, "bad_chunks", "bad_part-2_chunk-0000.mp4")
	if _, err := os.Stat(kept); err != nil {
		t.Errorf("chunk of the failed part was removed: %v", err)
	}
}

func TestExportSplitAndStack(t *testing.T) {
	cfg := testConfig(t, 10)
	cfg.SplitCount = 3
	cfg.HStack = true
	enc := &fakeEncoder{}
	p := NewExportProject(cfg, counter{w: 10, h: 4, total: 20}, enc)
	p.Tag = "wide"

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Parts) != 3 {
		t.Fatalf("parts = %v", res.Parts)
	}
	if res.Combined != filepath.Join(cfg.OutputDir, "wide_combined.mp4") {
		t.Errorf("combined = %q", res.Combined)
	}
	if strings.Join(enc.stacked, ",") != strings.Join(res.Parts, ",") {
		t.Errorf("stacked %v, want %v", enc.stacked, res.Parts)
	}
	sum := 0
	for _, w := range enc.widths {
		sum += w
	}
	if sum != 10 {
		t.Errorf("strip widths sum to %d, want 10", sum)
	}
	if enc.stackWith.VideoEncoder != cfg.VideoEncoder || enc.stackWith.Quality != cfg.Quality {
		t.Errorf("hstack encoded with %+v, want %s at %d", enc.stackWith, cfg.VideoEncoder, cfg.Quality)
	}
}

func TestExportMergeFailureKeepsChunks(t *testing.T) {
	cfg := testConfig(t, 8)
	cfg.DeleteChunks = true
	enc := &fakeEncoder{failMerge: true}
	p := NewExportProject(cfg, counter{w: 8, h: 4, total: 100}, enc)
	p.Tag = "merge"

	res, err := p.Run(context.Background())
	var mergeErr *MergeError
	if !errors.As(err, &mergeErr) {
		t.Fatalf("expected MergeError, got %v", err)
	}
	if mergeErr.Part != 1 || mergeErr.Path != filepath.Join(cfg.OutputDir, "merge_part-1.mp4") {
		t.Errorf("merge error = %+v", mergeErr)
	}
	if res == nil || len(res.Parts) != 0 {
		t.Errorf("result = %+v, want no parts", res)
	}
	for n, want := range []int{30, 30, 30, 11} {
		path := filepath.Join(cfg.OutputDir, "merge_chunks", fmt.Sprintf("merge_part-1_chunk-%04d.mp4", n))
		if got := readInt(t, path); got != want {
			t.Errorf("chunk %d holds %d frames, want %d", n, got, want)
		}
	}
}

func TestExportEncoderTimeout(t *testing.T) {
	cfg := testConfig(t, 8)
	cfg.EncoderTimeout = 20 * time.Millisecond
	p := NewExportProject(cfg, counter{w: 8, h: 4, total: 10}, &fakeEncoder{block: true})
	p.Tag = "slow"

	_, err := p.Run(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected a deadline error, got %v", err)
	}
	var exportErr *ExportError
	if !errors.As(err, &exportErr) || len(exportErr.Failed) != 1 {
		t.Errorf("timeout not reported per chunk: %v", err)
	}
}

func TestExportCancel(t *testing.T) {
	cfg := testConfig(t, 8)
	cfg.Workers = 1
	cfg.FramesPerBatch = 5

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	enc := &fakeEncoder{onStart: cancel}
	p := NewExportProject(cfg, counter{w: 8, h: 4, total: 100}, enc)
	p.Tag = "abort"

	res, err := p.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res != nil {
		t.Errorf("canceled export returned %+v", res)
	}
	if len(enc.widths) > 2 {
		t.Errorf("%d chunks started after cancel", len(enc.widths))
	}
	if enc.concats != 0 {
		t.Error("canceled export merged")
	}
}

func TestExportRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, 8)
	cfg.Workers = 0
	_, err := NewExportProject(cfg, counter{w: 8, h: 4, total: 10}, &fakeEncoder{}).Run(context.Background())
	if !errors.Is(err, config.ErrInvalidParameters) {
		t.Errorf("got %v", err)
	}
}

func TestFileTag(t *testing.T) {
	now := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)
	got := FileTag(now, config.Default().FadeParams)
	if want := "20240309_070501_fading_g2.0i4.0d100.0m128.0"; got != want {
		t.Errorf("FileTag = %q, want %q", got, want)
	}
}
