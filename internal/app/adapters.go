package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/renderlens/internal/output"
	"github.com/blackwell-systems/renderlens/internal/report"
)

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "List available trace sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := newRegistry()

		if flagJSON {
			type entry struct {
				Type         string   `json:"type"`
				Name         string   `json:"name"`
				Capabilities []string `json:"capabilities"`
			}
			var entries []entry
			for _, typ := range registry.Types() {
				meta, _ := registry.MetadataFor(typ)
				caps := make([]string, len(meta.Capabilities))
				for i, c := range meta.Capabilities {
					caps[i] = string(c)
				}
				entries = append(entries, entry{Type: typ, Name: meta.Name, Capabilities: caps})
			}
			return report.JSON(os.Stdout, entries)
		}

		fmt.Println(output.Section("Trace sources"))
		tbl := output.NewTable("TYPE", "NAME", "CAPABILITIES")
		for _, typ := range registry.Types() {
			meta, _ := registry.MetadataFor(typ)
			caps := make([]string, len(meta.Capabilities))
			for i, c := range meta.Capabilities {
				caps[i] = string(c)
			}
			tbl.AddRow(typ, meta.Name, strings.Join(caps, ", "))
		}
		fmt.Println()
		tbl.Print()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adaptersCmd)
}
