package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/enveloper/pkg/store"
)

func capabilityString(c store.Capabilities) string {
	marks := []struct {
		on   bool
		mark byte
	}{
		{c.Read, 'R'},
		{c.Write, 'W'},
		{c.List, 'L'},
		{c.Clear, 'C'},
	}

	out := make([]byte, len(marks))
	for i, m := range marks {
		out[i] = '-'
		if m.on {
			out[i] = m.mark
		}
	}
	return string(out)
}

// NewServicesCommand creates the services command.
func NewServicesCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the available store backends",
		Long: `Print every registered store backend with its capabilities and
documentation link. Capabilities read RWLC for read, write, list and clear;
a dash marks an operation the backend does not support.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SERVICE\tCAPS\tDESCRIPTION\tDOCS")

			for _, name := range env.Registry.Names() {
				reg, _ := env.Registry.Lookup(name)
				caps := capabilityString(reg.Descriptor.Capabilities)
				for _, row := range reg.Descriptor.DisplayRows() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row.Name, caps, row.DisplayName, row.DocURL)
				}
			}

			return w.Flush()
		},
	}
}
