package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ivlev/timefade/internal/config"
	"github.com/ivlev/timefade/internal/engine"
	"github.com/ivlev/timefade/internal/source"
	"github.com/ivlev/timefade/internal/system"
	"github.com/ivlev/timefade/internal/video"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the crossfade video of a bucket range",
	Long: `Builds one fade per bucket, moves the segment boundaries smoothly from
fade to fade and encodes the frames with ffmpeg in parallel chunks.
Each vertical strip (--split) becomes its own part video; --hstack joins
them side by side afterwards.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.IntVar(&flagCfg.FPS, "fps", flagCfg.FPS, "frames per second")
	f.IntVar(&flagCfg.Steps, "steps", flagCfg.Steps, "frames between two keyframes")
	f.IntVar(&flagCfg.FramesPerBatch, "frames-per-batch", flagCfg.FramesPerBatch, "frames per chunk file")
	f.IntVarP(&flagCfg.Workers, "workers", "w", flagCfg.Workers, "parallel chunk workers (0 = from CPU count)")
	f.IntVar(&flagCfg.GhostCount, "ghost", 0, "average each frame with this many previous frames")
	f.IntVar(&flagCfg.SplitCount, "split", flagCfg.SplitCount, "number of vertical strips")
	f.BoolVar(&flagCfg.DeleteChunks, "delete-chunks", false, "remove chunk files after a successful merge")
	f.BoolVar(&flagCfg.HStack, "hstack", false, "stack the strip videos into one")
	f.StringVar(&flagCfg.FFmpegPath, "ffmpeg", flagCfg.FFmpegPath, "ffmpeg binary")
	f.StringVar(&flagCfg.VideoEncoder, "encoder", flagCfg.VideoEncoder, "video encoder, or auto")
	f.IntVarP(&flagCfg.Quality, "quality", "q", flagCfg.Quality, "x264/nvenc: CRF, videotoolbox: bitrate = Q*100 kbit/s")
	f.DurationVar(&flagCfg.EncoderTimeout, "encoder-timeout", flagCfg.EncoderTimeout, "limit per encoder process (0 = none)")
	f.StringVar((*string)(&flagCfg.Blend), "blend", string(flagCfg.Blend), "morph or dissolve")
	f.StringVar(&flagCfg.FileTag, "tag", "", "output name prefix (default: time and fade parameters)")
	rootCmd.AddCommand(exportCmd)
}

// prepareEncoder fills in the automatic encoder settings.
func prepareEncoder(c *config.Config) error {
	ffmpeg, err := system.LookFFmpeg(c.FFmpegPath)
	if err != nil {
		return err
	}
	c.FFmpegPath = ffmpeg
	if c.VideoEncoder == "" || c.VideoEncoder == "auto" {
		c.VideoEncoder = system.GetBestH264Encoder(ffmpeg)
		log.Infof("[*] Encoder: %s", c.VideoEncoder)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	if cfg.Workers <= 0 {
		cfg.Workers = system.DefaultWorkers()
	}
	frame := uint64(cfg.Width) * uint64(cfg.Height) * 4
	cfg.Workers = system.CapWorkers(cfg.Workers, frame*uint64(cfg.GhostCount+2))
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := prepareEncoder(cfg); err != nil {
		return err
	}

	tl, err := engine.LoadTimeline(cfg, source.FileLoader{})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := engine.FrameSource(tl.Model, cfg)
	project := engine.NewExportProject(cfg, src, video.NewFFmpegEncoder(cfg.FFmpegPath))

	var bar *progressbar.ProgressBar
	project.Progress = func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Exporting"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionClearOnFinish(),
			)
		}
		bar.Set(done)
	}

	res, err := project.Run(ctx)
	if bar != nil {
		bar.Finish()
	}
	var exportErr *engine.ExportError
	if errors.As(err, &exportErr) {
		for _, c := range exportErr.Failed {
			log.Errorf("[-] %v", &c)
		}
	}
	if res != nil {
		for _, p := range res.Parts {
			log.Infof("[+++] Part: %s", p)
		}
		if res.Combined != "" {
			log.Infof("[+++] Combined: %s", res.Combined)
		}
		log.Infof("[*] %d frames per part in %.2fs", res.Frames, res.Elapsed.Seconds())
	}
	return err
}
