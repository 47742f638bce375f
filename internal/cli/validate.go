package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"spendreport-backend/internal/qualitygate"
	"spendreport-backend/internal/report"
	"spendreport-backend/internal/validation"
)

// ErrReportInvalid is returned by validate --strict for an invalid report.
var ErrReportInvalid = errors.New("report failed validation")

type ValidateCmd struct {
	input  string
	strict bool
}

func NewValidateCmd() *cobra.Command {
	vc := &ValidateCmd{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Schema-check a report and print the repaired result",
		RunE:  vc.run,
	}
	cmd.Flags().StringVar(&vc.input, "input", "", "Path to the report JSON, or - for stdin")
	cmd.Flags().BoolVar(&vc.strict, "strict", false, "Exit non-zero when the report is invalid")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (vc *ValidateCmd) run(cmd *cobra.Command, args []string) error {
	r, err := readReport(cmd, vc.input)
	if err != nil {
		return err
	}
	result := validation.Validate(r)
	if err := writeJSON(cmd, result); err != nil {
		return err
	}
	if vc.strict && !result.Valid {
		return ErrReportInvalid
	}
	return nil
}

type SummaryCmd struct {
	input string
}

func NewSummaryCmd() *cobra.Command {
	sc := &SummaryCmd{}
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the redacted summary the advisory reviewer would see",
		RunE:  sc.run,
	}
	cmd.Flags().StringVar(&sc.input, "input", "", "Path to the report JSON, or - for stdin")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (sc *SummaryCmd) run(cmd *cobra.Command, args []string) error {
	r, err := readReport(cmd, sc.input)
	if err != nil {
		return err
	}
	v := validation.Validate(r)
	return writeJSON(cmd, qualitygate.BuildRedactedSummary(v.SafeData, v))
}

func readReport(cmd *cobra.Command, path string) (report.ProReportData, error) {
	in, err := openInput(cmd, path)
	if err != nil {
		return report.ProReportData{}, err
	}
	defer in.Close()

	var r report.ProReportData
	if err := json.NewDecoder(in).Decode(&r); err != nil {
		return report.ProReportData{}, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}
