package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/labelbench/pkg/labeling"
)

// algorithmsCommand lists the algorithm ids that can be used in the configuration.
func (c *CLI) algorithmsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List registered labeling algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := labeling.Default()
			t := newTable("Id", "Kind")
			for _, id := range reg.LabelerIDs() {
				t.Row(id, "labeler")
			}
			for _, id := range reg.AccessCounterIDs() {
				t.Row(id, "memory")
			}
			fmt.Fprintln(c.Out, t.Render())
			printNextStep(c.Out, "Use them in "+appName+".toml", `funcs = ["`+strings.Join(reg.LabelerIDs(), `", "`)+`"]`)
			return nil
		},
	}
}
