package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"modforge/internal/types"
)

func newLockCommand() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Resolve a pack and write only the lock file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), cmd, opts, true)
		},
	}
	addResolveFlags(cmd, &opts)
	return cmd
}

func printDiagnostics(diags []types.Diagnostic) {
	for _, diag := range diags {
		fmt.Printf("%s: %s: %s\n", diag.Kind, diag.ModID, diag.Detail)
	}
}
