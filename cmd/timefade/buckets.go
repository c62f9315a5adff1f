package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ivlev/timefade/internal/bucket"
	"github.com/ivlev/timefade/internal/engine"
)

var bucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "List the buckets of the input folder and their offset coverage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := engine.LoadBuckets(cfg)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "BUCKET\tOFFSETS\tPROXIES\tRANGE")
		for _, b := range resolved {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", b.Name, len(b.Entries), proxies(b), span(b))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(bucketsCmd)
}

func proxies(b bucket.Bucket) int {
	n := 0
	for _, e := range b.Entries {
		if e.Proxy {
			n++
		}
	}
	return n
}

func span(b bucket.Bucket) string {
	if len(b.Entries) == 0 {
		return "-"
	}
	return fmt.Sprintf("%s .. %s", b.Entries[0].Offset, b.Entries[len(b.Entries)-1].Offset)
}
