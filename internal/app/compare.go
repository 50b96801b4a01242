package app

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/renderlens/internal/compare"
	"github.com/blackwell-systems/renderlens/internal/report"
)

var compareLast bool

var compareCmd = &cobra.Command{
	Use:   "compare [baseline-id candidate-id]",
	Short: "Compare two saved runs",
	Long: `Diff two saved runs metric by metric and finding by finding. With
--last the two most recent runs are compared; otherwise pass two run IDs
from 'renderlens runs'.

Examples:
  renderlens compare --last
  renderlens compare 3 7
  renderlens compare 3 7 --json`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().BoolVar(&compareLast, "last", false, "Compare the two most recent runs")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	var baseID, candID int64
	if compareLast {
		latest, err := db.GetRunN(1)
		if err != nil {
			return err
		}
		prev, err := db.GetRunN(2)
		if err != nil {
			return err
		}
		if latest == nil || prev == nil {
			return fmt.Errorf("need at least two saved runs to compare")
		}
		baseID, candID = prev.ID, latest.ID
	} else {
		if len(args) != 2 {
			return fmt.Errorf("pass two run IDs or use --last")
		}
		if baseID, err = strconv.ParseInt(args[0], 10, 64); err != nil {
			return fmt.Errorf("invalid baseline id %q", args[0])
		}
		if candID, err = strconv.ParseInt(args[1], 10, 64); err != nil {
			return fmt.Errorf("invalid candidate id %q", args[1])
		}
	}

	baseline, err := db.LoadResult(baseID)
	if err != nil {
		return err
	}
	candidate, err := db.LoadResult(candID)
	if err != nil {
		return err
	}

	rep := compare.Results(baseline, candidate)
	if flagJSON {
		return report.JSON(os.Stdout, rep)
	}
	report.Comparison(os.Stdout, rep)
	return nil
}
