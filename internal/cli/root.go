// Package cli implements the reportctl commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"spendreport-backend/internal/shared/config"
)

// NewRootCmd returns the reportctl command tree. Results are written to out
// as indented JSON.
func NewRootCmd(cfg config.Config, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Generate, validate and summarize spending reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(
		NewGenerateCmd(cfg),
		NewValidateCmd(),
		NewSummaryCmd(),
	)
	return root
}

// openInput opens path, or stdin for "-".
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
