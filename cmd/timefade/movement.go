package main

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ivlev/timefade/internal/engine"
	"github.com/ivlev/timefade/internal/movement"
	"github.com/ivlev/timefade/internal/source"
)

var movementOut string

var movementCmd = &cobra.Command{
	Use:   "movement",
	Short: "Write the boundary trajectory of a bucket range",
	Long: `Writes every frame's boundary positions for the selected range. The
file is JSON unless --out ends in .yaml or .yml.`,
	Args: cobra.NoArgs,
	RunE: runMovement,
}

func init() {
	movementCmd.Flags().StringVar(&movementOut, "out", "", "output file (default: output/<time>_movement.json)")
	movementCmd.Flags().IntVar(&flagCfg.Steps, "steps", flagCfg.Steps, "frames between two keyframes")
	rootCmd.AddCommand(movementCmd)
}

func runMovement(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	tl, err := engine.LoadTimeline(cfg, source.FileLoader{})
	if err != nil {
		return err
	}

	path := movementOut
	if path == "" {
		path = movement.DefaultPath(cfg.OutputDir, time.Now())
	}
	exp := movement.Build(tl.Model, tl.Names)
	if err := movement.Write(exp, path); err != nil {
		return err
	}
	log.Infof("[+++] Movement data (%d frames): %s", len(exp.MovementData), path)
	return nil
}
