package engine

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/timefade/internal/config"
	"github.com/ivlev/timefade/internal/effects"
	"github.com/ivlev/timefade/internal/renderer"
	"github.com/ivlev/timefade/internal/system"
	"github.com/ivlev/timefade/internal/video"
)

// progressInterval is how often the coordinator reports progress.
const progressInterval = 250 * time.Millisecond

// ProgressFunc receives the number of frames encoded so far. Calls come
// from one goroutine and done never decreases.
type ProgressFunc func(done, total int)

// Result lists what an export wrote.
type Result struct {
	Parts    []string
	Combined string
	Frames   int // per part
	Elapsed  time.Duration
}

type ExportProject struct {
	Config   *config.Config
	Source   renderer.Source
	Encoder  video.VideoEncoder
	Progress ProgressFunc
	Tag      string
}

func NewExportProject(cfg *config.Config, src renderer.Source, ve video.VideoEncoder) *ExportProject {
	return &ExportProject{
		Config:  cfg,
		Source:  src,
		Encoder: ve,
	}
}

// FrameSource picks the frame producer for cfg. Ghosting re-renders the
// neighbours of every frame, so it always reads the spline model
// directly instead of a precomputed table.
func FrameSource(m *renderer.Model, cfg *config.Config) renderer.Source {
	var src renderer.Source
	switch {
	case cfg.Blend == config.BlendDissolve:
		src = renderer.NewDissolve(m)
	case cfg.GhostCount > 0:
		src = renderer.NewMorph(m, nil)
	default:
		src = renderer.NewMorph(m, renderer.NewTable(m))
	}
	if cfg.GhostCount > 0 {
		return effects.NewGhost(src, cfg.GhostCount)
	}
	return src
}

// FileTag names one export after its start time and fade parameters.
func FileTag(now time.Time, p config.FadeParams) string {
	return fmt.Sprintf("%s_fading_%s", now.Format("20060102_150405"), p.Tag())
}

type task struct {
	strip renderer.Strip
	chunk Chunk
	path  string
}

func (p *ExportProject) tag() string {
	switch {
	case p.Tag != "":
		return p.Tag
	case p.Config.FileTag != "":
		return p.Config.FileTag
	}
	p.Tag = FileTag(time.Now(), p.Config.FadeParams)
	return p.Tag
}

// PartPath is where part i (1-based) of the export is written.
func (p *ExportProject) PartPath(i int) string {
	return filepath.Join(p.Config.OutputDir, fmt.Sprintf("%s_part-%d.mp4", p.tag(), i))
}

func (p *ExportProject) chunkDir() string {
	return filepath.Join(p.Config.OutputDir, p.tag()+"_chunks")
}

func (p *ExportProject) chunkPath(part, n int) string {
	return filepath.Join(p.chunkDir(), fmt.Sprintf("%s_part-%d_chunk-%04d.mp4", p.tag(), part, n))
}

// Run renders and encodes every chunk of every strip, then merges each
// strip into its part file. A failed chunk does not stop its siblings;
// it only keeps its own part from being merged.
func (p *ExportProject) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if p.Source.Width() <= 0 || p.Source.Height() <= 0 {
		return nil, ErrNothingToExport
	}
	if cfg.SplitCount > p.Source.Width() {
		return nil, fmt.Errorf("%w: split count %d for width %d",
			config.ErrInvalidParameters, cfg.SplitCount, p.Source.Width())
	}

	total := p.Source.TotalFrames()
	chunks := Partition(total, cfg.FramesPerBatch)
	strips := renderer.SplitStrips(p.Source.Width(), cfg.SplitCount)

	if err := os.MkdirAll(p.chunkDir(), 0755); err != nil {
		return nil, err
	}

	var tasks []task
	for _, s := range strips {
		for _, c := range chunks {
			tasks = append(tasks, task{strip: s, chunk: c, path: p.chunkPath(s.Index, c.Index)})
		}
	}
	frames := chunks[len(chunks)-1].End()
	grand := frames * len(strips)

	log.Infof("[*] Export %s: %d frames @ %d FPS, %d chunk(s) x %d part(s), %d worker(s)",
		p.tag(), frames, cfg.FPS, len(chunks), len(strips), cfg.Workers)

	var done atomic.Int64
	errs := make([]error, len(tasks))

	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i, t := range tasks {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					errs[i] = ctx.Err()
					return nil
				}
				errs[i] = p.encodeChunk(ctx, t, &done)
				return nil
			})
		}
		g.Wait()
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for running := true; running; {
		select {
		case <-finished:
			running = false
		case <-ticker.C:
		}
		if p.Progress != nil {
			p.Progress(int(done.Load()), grand)
		}
	}

	if err := ctx.Err(); err != nil {
		log.Warnf("[!] Export canceled, %d/%d frames encoded", done.Load(), grand)
		return nil, fmt.Errorf("export canceled: %w", err)
	}

	exportErr := &ExportError{}
	res := &Result{Frames: frames}
	for _, s := range strips {
		var paths []string
		ok := true
		for i, t := range tasks {
			if t.strip.Index != s.Index {
				continue
			}
			if errs[i] != nil {
				ok = false
				exportErr.Failed = append(exportErr.Failed, ChunkError{
					Part: s.Index, Index: t.chunk.Index, Path: t.path, Err: errs[i],
				})
				continue
			}
			paths = append(paths, t.path)
		}
		if !ok {
			log.Warnf("[!] Part %d incomplete, chunks kept in %s", s.Index, p.chunkDir())
			continue
		}

		partPath := p.PartPath(s.Index)
		if err := p.Encoder.Concatenate(ctx, paths, partPath, p.chunkDir()); err != nil {
			exportErr.Merges = append(exportErr.Merges, MergeError{Part: s.Index, Path: partPath, Err: err})
			continue
		}
		res.Parts = append(res.Parts, partPath)
		log.Infof("[*] Part %d ready: %s", s.Index, partPath)

		if cfg.DeleteChunks {
			for _, c := range paths {
				if err := os.Remove(c); err != nil {
					log.Warnf("[!] Could not remove chunk %s: %v", c, err)
				}
			}
		}
	}
	if cfg.DeleteChunks {
		// only succeeds once every part merged
		os.Remove(p.chunkDir())
	}

	if cfg.HStack && len(strips) > 1 && len(res.Parts) == len(strips) {
		combined := filepath.Join(cfg.OutputDir, p.tag()+"_combined.mp4")
		params := config.StreamParams{
			Width:        p.Source.Width(),
			Height:       p.Source.Height(),
			FPS:          cfg.FPS,
			VideoEncoder: cfg.VideoEncoder,
			Quality:      cfg.Quality,
		}
		if err := p.Encoder.HStack(ctx, res.Parts, combined, params); err != nil {
			exportErr.Stack = err
		} else {
			res.Combined = combined
			log.Infof("[*] Combined video: %s", combined)
		}
	}

	res.Elapsed = time.Since(startTime)
	if !exportErr.empty() {
		return res, exportErr
	}
	return res, nil
}

// encodeChunk streams one chunk's frames into one encoder process.
func (p *ExportProject) encodeChunk(ctx context.Context, t task, done *atomic.Int64) error {
	cfg := p.Config
	if cfg.EncoderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.EncoderTimeout)
		defer cancel()
	}

	params := config.StreamParams{
		Width:        t.strip.Width,
		Height:       p.Source.Height(),
		FPS:          cfg.FPS,
		VideoEncoder: cfg.VideoEncoder,
		Quality:      cfg.Quality,
	}
	err := p.Encoder.EncodeStream(ctx, t.path, params, func(w io.Writer) error {
		buf := system.GetImage(image.Rect(0, 0, params.Width, params.Height))
		defer system.PutImage(buf)
		for f := t.chunk.Start; f < t.chunk.End(); f++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.Source.Render(buf, f, t.strip.X)
			if err := video.WriteRawRGBA(w, buf); err != nil {
				return err
			}
			done.Add(1)
		}
		return nil
	})
	if err != nil {
		log.WithField("chunk", t.path).Warnf("[!] Chunk failed: %v", err)
		return err
	}
	log.Debugf("[>] Ready: %s", t.path)
	return nil
}
