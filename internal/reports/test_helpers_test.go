package reports

import (
	"context"
	"sync"

	"spendreport-backend/internal/analysis"
	"spendreport-backend/internal/qualitygate"
	"spendreport-backend/internal/report"
	"spendreport-backend/internal/validation"
)

func sampleResult() analysis.Result {
	return analysis.Result{
		MonthlyLeak:   120,
		AnnualSavings: 1440,
		TopSpending: []analysis.Transaction{
			{Date: "2025-05-02", Merchant: "Qantas Airways", Amount: 640, Category: "Travel"},
			{Date: "2025-04-18", Merchant: "Woolworths", Amount: 212.5, Category: "Groceries"},
		},
		EasyWins: []analysis.EasyWin{
			{Title: "Cancel unused streaming", EstimatedYearlySavings: 180, Action: "Cancel the streaming plan you no longer watch."},
			{Title: "Cook at home twice a week", EstimatedYearlySavings: 960, Action: "Replace two delivery dinners per week."},
		},
		CategorySummary: []analysis.CategoryTotal{
			{Category: "Groceries", Total: 1800, Percent: 40, TransactionCount: 30, TopMerchants: []analysis.MerchantTotal{{Name: "Woolworths", Total: 1200}}},
			{Category: "Dining", Total: 900, Percent: 20, TransactionCount: 25, TopMerchants: []analysis.MerchantTotal{{Name: "Cafe Nero", Total: 300}}},
		},
		Subscriptions: []analysis.Subscription{
			{Merchant: "Netflix", MonthlyCost: 22.99, AnnualCost: 275.88, Confidence: 0.95, LastDate: "2025-05-10", Occurrences: 6},
		},
	}
}

type fakeGate struct {
	mu    sync.Mutex
	qa    qualitygate.QaResult
	calls int
	seen  report.ProReportData
}

func (g *fakeGate) RunReportQa(ctx context.Context, r report.ProReportData, v validation.Result) qualitygate.QaResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.seen = r
	return g.qa
}
