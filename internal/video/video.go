package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/ivlev/timefade/internal/config"
	"github.com/ivlev/timefade/internal/renderer"
)

// PartialSuffix marks an encode that has not finished yet. Such files
// are never merged.
const PartialSuffix = ".partial"

type VideoEncoder interface {
	// EncodeStream runs one encoder process writing path. write streams
	// raw RGBA frames of p's size, in order.
	EncodeStream(ctx context.Context, path string, p config.StreamParams, write func(io.Writer) error) error
	Concatenate(ctx context.Context, parts []string, finalPath string, tmpDir string) error
	// HStack re-encodes with p's encoder and quality; size and rate come
	// from the inputs.
	HStack(ctx context.Context, inputs []string, outPath string, p config.StreamParams) error
}

type FFmpegEncoder struct {
	Path string
}

func NewFFmpegEncoder(path string) *FFmpegEncoder {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpegEncoder{Path: path}
}

func (e *FFmpegEncoder) EncodeStream(ctx context.Context, path string, p config.StreamParams, write func(io.Writer) error) error {
	partial := path + PartialSuffix
	args := e.buildStreamArgs(partial, p)

	cmd := exec.CommandContext(ctx, e.Path, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	werr := write(stdin)
	stdin.Close()
	if err := cmd.Wait(); err != nil {
		os.Remove(partial)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, tail(out.Bytes()))
	}
	if werr != nil {
		os.Remove(partial)
		return fmt.Errorf("write raw error: %w", werr)
	}

	if err := os.Rename(partial, path); err != nil {
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return nil
}

func (e *FFmpegEncoder) buildStreamArgs(outPath string, p config.StreamParams) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", strconv.Itoa(p.FPS),
		"-i", "-",
		"-vf", renderer.EvenPadFilter,
		"-pix_fmt", "yuv420p",
		"-c:v", p.VideoEncoder,
	}
	args = append(args, QualityArgs(p.VideoEncoder, p.Quality)...)
	args = append(args, "-f", "mp4", outPath)
	return args
}

// QualityArgs maps one quality number onto each encoder's own knob.
func QualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox has no usable -q:v on every version, use bitrate
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", strconv.Itoa(quality)}
	default: // libx264
		return []string{"-crf", strconv.Itoa(quality), "-preset", "medium"}
	}
}

// WriteRawRGBA writes img as tightly packed RGBA rows.
func WriteRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

// Concatenate merges parts in order with the concat demuxer, without
// re-encoding.
func (e *FFmpegEncoder) Concatenate(ctx context.Context, parts []string, finalPath string, tmpDir string) error {
	if len(parts) == 0 {
		return fmt.Errorf("concat %s: no parts", finalPath)
	}
	listPath, err := WriteConcatList(tmpDir, filepath.Base(finalPath)+".txt", parts)
	if err != nil {
		return err
	}
	defer os.Remove(listPath)

	cmd := exec.CommandContext(ctx, e.Path, "-y",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-c", "copy", finalPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(finalPath)
		return fmt.Errorf("ffmpeg concat error: %w, output: %s", err, tail(out))
	}
	return nil
}

// WriteConcatList writes the concat demuxer input file for parts.
func WriteConcatList(dir, name string, parts []string) (string, error) {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	for _, p := range parts {
		absPath, err := filepath.Abs(p)
		if err != nil {
			absPath = p
		}
		fmt.Fprintf(f, "file '%s'\n", absPath)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// HStack places the inputs side by side, first input leftmost.
func (e *FFmpegEncoder) HStack(ctx context.Context, inputs []string, outPath string, p config.StreamParams) error {
	if len(inputs) < 2 {
		return fmt.Errorf("hstack needs at least two inputs, got %d", len(inputs))
	}
	args := buildHStackArgs(inputs, outPath, p)

	log.Debugf("[*] %s %v", e.Path, args)
	cmd := exec.CommandContext(ctx, e.Path, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg hstack error: %w, output: %s", err, tail(out))
	}
	return nil
}

func buildHStackArgs(inputs []string, outPath string, p config.StreamParams) []string {
	encoder := p.VideoEncoder
	if encoder == "" {
		encoder = "libx264"
	}
	args := []string{"-y"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}
	args = append(args,
		"-filter_complex", renderer.HStackFilter(len(inputs)),
		"-pix_fmt", "yuv420p",
		"-c:v", encoder,
	)
	args = append(args, QualityArgs(encoder, p.Quality)...)
	return append(args, "-c:a", "copy", outPath)
}

// tail keeps the end of encoder output, where ffmpeg prints its error.
func tail(b []byte) string {
	const keep = 2048
	if len(b) > keep {
		b = b[len(b)-keep:]
	}
	return string(bytes.TrimSpace(b))
}
