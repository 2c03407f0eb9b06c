package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glycotrace/glycotrace/internal/domain/compound"
)

// NewSugarCmd creates the sugar command, a quick structural calculator for
// one or more compound names.
func NewSugarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sugar <name>...",
		Short: "Show the sugar composition derived from compound names",
		Long:  "Parse ganglioside compound names (e.g. \"GD1+dHex(36:1;O2)\") and print the\nderived sugar composition and lipid descriptors without running an analysis.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report := &sugarReport{}
			for _, name := range args {
				rec, err := compound.ParseName(name)
				if err != nil {
					return err
				}
				report.Records = append(report.Records, *rec)
			}
			return PrintResult(cmd, report)
		},
	}
}

type sugarReport struct {
	Records []compound.Record `json:"records"`
}

func (r *sugarReport) String() string {
	var sb strings.Builder
	for _, rec := range r.Records {
		fmt.Fprintf(&sb, "%s: sialic=%d neutral=%d additional=%d total=%d",
			rec.Name, rec.Sugars.SialicAcids, rec.Sugars.NeutralSugars,
			rec.Sugars.Additional, rec.TotalSugars())
		if rec.Mods.HasAny() {
			fmt.Fprintf(&sb, " (dHex=%d HexNAc=%d OAc=%d)", rec.Mods.DHex, rec.Mods.HexNAc, rec.Mods.OAc)
		}
		fmt.Fprintf(&sb, " chain=%d:%d;O%d\n", rec.CarbonCount, rec.Unsaturation, rec.OxygenCount)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r *sugarReport) TableHeaders() []string {
	return []string{"NAME", "SIALIC", "NEUTRAL", "ADDITIONAL", "TOTAL", "CARBONS", "UNSAT", "OXYGENS"}
}

func (r *sugarReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Records))
	for _, rec := range r.Records {
		rows = append(rows, []string{
			rec.Name,
			strconv.Itoa(rec.Sugars.SialicAcids),
			strconv.Itoa(rec.Sugars.NeutralSugars),
			strconv.Itoa(rec.Sugars.Additional),
			strconv.Itoa(rec.TotalSugars()),
			strconv.Itoa(rec.CarbonCount),
			strconv.Itoa(rec.Unsaturation),
			strconv.Itoa(rec.OxygenCount),
		})
	}
	return rows
}
