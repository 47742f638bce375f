package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"spendreport-backend/internal/analysis"
	"spendreport-backend/internal/numsafe"
	"spendreport-backend/internal/qualitygate"
	"spendreport-backend/internal/reports"
	"spendreport-backend/internal/shared/config"
)

// Pipeline stages the generate command can print.
const (
	StageGenerated = "generated"
	StageValidated = "validated"
	StageFinal     = "final"
)

type GenerateCmd struct {
	cfg   config.Config
	input string
	qa    bool
	stage string
}

type finalOutput struct {
	qualitygate.Output
	Warnings []numsafe.Warning `json:"warnings"`
}

func NewGenerateCmd(cfg config.Config) *cobra.Command {
	gc := &GenerateCmd{cfg: cfg}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the report pipeline on an analysis result",
		RunE:  gc.run,
	}

	cmd.Flags().StringVar(&gc.input, "input", "", "Path to the analysis JSON, or - for stdin")
	cmd.Flags().BoolVar(&gc.qa, "qa", false, "Submit the redacted summary to the advisory endpoint")
	cmd.Flags().StringVar(&gc.stage, "stage", StageFinal, "Stage to print: final, generated or validated")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (gc *GenerateCmd) run(cmd *cobra.Command, args []string) error {
	stage := strings.ToLower(strings.TrimSpace(gc.stage))
	switch stage {
	case StageGenerated, StageValidated, StageFinal:
	default:
		return fmt.Errorf("unsupported stage %q: use final, generated or validated", gc.stage)
	}

	in, err := openInput(cmd, gc.input)
	if err != nil {
		return err
	}
	defer in.Close()

	res, err := analysis.Decode(in)
	if err != nil {
		return err
	}

	var gate reports.QaRunner
	if gc.qa {
		gate = qualitygate.NewGate(true, gc.cfg.ReportQAEndpoint, gc.cfg.ReportQATimeout)
	}
	run := reports.NewPipeline(gc.cfg.Thresholds, gate).Run(cmd.Context(), res)

	switch stage {
	case StageGenerated:
		return writeJSON(cmd, run.Generated)
	case StageValidated:
		return writeJSON(cmd, run.Validation)
	default:
		warnings := run.Warnings
		if warnings == nil {
			warnings = []numsafe.Warning{}
		}
		return writeJSON(cmd, finalOutput{Output: run.Final, Warnings: warnings})
	}
}
