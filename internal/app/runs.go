package app

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/renderlens/internal/report"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List saved runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(runsLimit)
		if err != nil {
			return err
		}
		if flagJSON {
			return report.JSON(os.Stdout, runs)
		}
		report.RunList(os.Stdout, runs)
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}
