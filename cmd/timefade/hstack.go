package main

import (
	"context"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ivlev/timefade/internal/config"
	"github.com/ivlev/timefade/internal/video"
)

var hstackOut string

var hstackCmd = &cobra.Command{
	Use:   "hstack <part.mp4> <part.mp4>...",
	Short: "Join part videos side by side",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := prepareEncoder(cfg); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		params := config.StreamParams{VideoEncoder: cfg.VideoEncoder, Quality: cfg.Quality}
		if err := video.NewFFmpegEncoder(cfg.FFmpegPath).HStack(ctx, args, hstackOut, params); err != nil {
			return err
		}
		log.Infof("[+++] Combined video: %s", hstackOut)
		return nil
	},
}

func init() {
	f := hstackCmd.Flags()
	f.StringVar(&hstackOut, "out", "combined.mp4", "output video")
	f.StringVar(&flagCfg.FFmpegPath, "ffmpeg", flagCfg.FFmpegPath, "ffmpeg binary")
	f.StringVar(&flagCfg.VideoEncoder, "encoder", flagCfg.VideoEncoder, "video encoder, or auto")
	f.IntVarP(&flagCfg.Quality, "quality", "q", flagCfg.Quality, "x264/nvenc: CRF, videotoolbox: bitrate = Q*100 kbit/s")
	rootCmd.AddCommand(hstackCmd)
}
