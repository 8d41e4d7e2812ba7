// README: ridectl match: ranks groups from a CSV dataset and prints JSON.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"campusride/internal/modules/matching"
	"campusride/internal/modules/records"
	"campusride/internal/types"
)

type matchFlags struct {
	dir       string
	uid       string
	start     string
	dest      string
	departure string
	window    int
	maxSize   int
	pref      string
	mode      string
	topK      int
}

func newMatchCmd() *cobra.Command {
	var f matchFlags
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Rank ride groups for one request against a CSV dataset",
		Example: `  ridectl match --dir ./data --uid U001 --start "Thapar Patiala" --dest Delhi
  ridectl match --dir ./data --start Ambala --dest Delhi --mode strict --departure 2025-10-12T09:00`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, ok := matching.ParseMode(f.mode)
			if !ok {
				return fmt.Errorf("unknown mode %q", f.mode)
			}
			if !types.ValidPreference(f.pref) {
				return fmt.Errorf("unknown preference %q", f.pref)
			}
			snap, err := records.DirSource{Dir: f.dir}.Load(cmd.Context())
			if err != nil {
				return err
			}
			req := matching.Request{
				RequesterID: types.ParseID(f.uid),
				Origin:      f.start,
				Destination: f.dest,
				Departure:   records.ParseTimePtr(f.departure),
				Preference:  types.ParsePreference(f.pref),
				Mode:        mode,
				TopK:        f.topK,
			}
			window := f.window
			req.WindowMinutes = &window
			if f.maxSize > 0 {
				maxSize := f.maxSize
				req.MaxGroupSize = &maxSize
			}

			results := matching.Match(req, snap)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}
	cmd.Flags().StringVar(&f.dir, "dir", ".", "directory holding the CSV files")
	cmd.Flags().StringVar(&f.uid, "uid", "", "requester id")
	cmd.Flags().StringVar(&f.start, "start", "", "origin label")
	cmd.Flags().StringVar(&f.dest, "dest", "", "destination label")
	cmd.Flags().StringVar(&f.departure, "departure", "", "desired departure, e.g. 2025-10-12T09:00")
	cmd.Flags().IntVar(&f.window, "window", matching.DefaultWindowMinutes, "departure tolerance in minutes")
	cmd.Flags().IntVar(&f.maxSize, "max-size", 0, "maximum group capacity (0 = any)")
	cmd.Flags().StringVar(&f.pref, "pref", "ALL", "ALL or FEMALE_ONLY")
	cmd.Flags().StringVar(&f.mode, "mode", string(matching.ModeDiscovery), "discovery or strict")
	cmd.Flags().IntVar(&f.topK, "top-k", 50, "maximum results")
	return cmd
}
