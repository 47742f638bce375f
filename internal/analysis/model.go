// Package analysis models the spending analysis result produced by the
// upstream transaction analyzer. Values are read-only inputs to report
// generation and may contain missing or non-finite fields.
package analysis

import (
	"encoding/json"
	"fmt"
	"io"
)

// Result is the upstream analysis of one statement set.
type Result struct {
	MonthlyLeak            Amount           `json:"monthly_leak"`
	AnnualSavings          Amount           `json:"annual_savings"`
	TopLeaks               []Leak           `json:"top_leaks"`
	TopSpending            []Transaction    `json:"top_spending"`
	EasyWins               []EasyWin        `json:"easy_wins"`
	RecoveryPlan           []string         `json:"recovery_plan"`
	Disclaimer             string           `json:"disclaimer,omitempty"`
	CategorySummary        []CategoryTotal  `json:"category_summary,omitempty"`
	Subscriptions          []Subscription   `json:"subscriptions,omitempty"`
	Comparison             *Comparison      `json:"comparison,omitempty"`
	Alternatives           []Alternative    `json:"alternatives,omitempty"`
	PriceIncreases         []PriceIncrease  `json:"price_increases,omitempty"`
	DuplicateSubscriptions []DuplicateGroup `json:"duplicate_subscriptions,omitempty"`
}

// Leak is a recurring or avoidable spend the analyzer flagged.
type Leak struct {
	Category    string `json:"category"`
	Merchant    string `json:"merchant"`
	MonthlyCost Amount `json:"monthly_cost"`
	YearlyCost  Amount `json:"yearly_cost"`
	Explanation string `json:"explanation"`
	FirstDate   string `json:"first_date,omitempty"`
	LastDate    string `json:"last_date,omitempty"`
}

// Transaction is one of the largest individual charges.
type Transaction struct {
	Date     string `json:"date"`
	Merchant string `json:"merchant"`
	Amount   Amount `json:"amount"`
	Category string `json:"category"`
}

// EasyWin is a suggested quick saving.
type EasyWin struct {
	Title                  string `json:"title"`
	EstimatedYearlySavings Amount `json:"estimated_yearly_savings"`
	Action                 string `json:"action"`
}

// CategoryTotal summarises spend in one category.
type CategoryTotal struct {
	Category         string          `json:"category"`
	Total            Amount          `json:"total"`
	Percent          Amount          `json:"percent"`
	TransactionCount Amount          `json:"transaction_count"`
	TopMerchants     []MerchantTotal `json:"top_merchants"`
}

// MerchantTotal is a merchant's share of a category.
type MerchantTotal struct {
	Name  string `json:"name"`
	Total Amount `json:"total"`
}

// Subscription is a detected recurring charge.
type Subscription struct {
	Merchant    string `json:"merchant"`
	MonthlyCost Amount `json:"monthly_cost"`
	AnnualCost  Amount `json:"annual_cost"`
	Confidence  Amount `json:"confidence"`
	LastDate    string `json:"last_date"`
	Occurrences Amount `json:"occurrences"`
	Reason      string `json:"reason"`
}

// Comparison is the month-over-month block, present only when the
// statements span enough history.
type Comparison struct {
	PreviousMonth      string           `json:"previous_month"`
	CurrentMonth       string           `json:"current_month"`
	PreviousTotal      Amount           `json:"previous_total"`
	CurrentTotal       Amount           `json:"current_total"`
	TotalChange        Amount           `json:"total_change"`
	TotalChangePercent Amount           `json:"total_change_percent"`
	TopChanges         []CategoryChange `json:"top_changes"`
	Spikes             []CategoryChange `json:"spikes,omitempty"`
	MonthsAnalyzed     *Amount          `json:"months_analyzed,omitempty"`
}

// CategoryChange is one category's movement between the compared months.
type CategoryChange struct {
	Category      string `json:"category"`
	Previous      Amount `json:"previous"`
	Current       Amount `json:"current"`
	Change        Amount `json:"change"`
	ChangePercent Amount `json:"change_percent"`
}

// Alternative suggests a cheaper replacement for a merchant.
type Alternative struct {
	Merchant               string `json:"merchant"`
	Category               string `json:"category"`
	Alternative            string `json:"alternative"`
	CurrentMonthlyCost     Amount `json:"current_monthly_cost"`
	AlternativeMonthlyCost Amount `json:"alternative_monthly_cost"`
	EstimatedYearlySavings Amount `json:"estimated_yearly_savings"`
	Note                   string `json:"note,omitempty"`
}

// PriceIncrease records a recurring charge that went up.
type PriceIncrease struct {
	Merchant        string `json:"merchant"`
	OldAmount       Amount `json:"old_amount"`
	NewAmount       Amount `json:"new_amount"`
	IncreasePercent Amount `json:"increase_percent"`
	DetectedDate    string `json:"detected_date,omitempty"`
}

// DuplicateGroup lists subscriptions that serve the same purpose.
type DuplicateGroup struct {
	Category            string   `json:"category"`
	Merchants           []string `json:"merchants"`
	CombinedMonthlyCost Amount   `json:"combined_monthly_cost"`
}

// Decode reads a Result from r. Numeric fields are decoded leniently; only
// structurally invalid JSON is an error.
func Decode(r io.Reader) (Result, error) {
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("decode analysis result: %w", err)
	}
	return res, nil
}
