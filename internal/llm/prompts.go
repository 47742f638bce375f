package llm

import _ "embed"

var (
	//go:embed prompts/report_qa_v1.txt
	reportQAPromptV1 string
)

// ReportQAPromptVersion identifies the advisory instruction in logs.
const ReportQAPromptVersion = "report_qa_v1"

// ReportQAPrompt returns the fixed system instruction for report review.
func ReportQAPrompt() string {
	return reportQAPromptV1
}
