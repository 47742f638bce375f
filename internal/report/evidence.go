package report

import (
	"fmt"

	"spendreport-backend/internal/numsafe"
)

const maxTop50 = 50

// evidence reconstructs a monthly charge history per subscription, walking
// back from its last seen date, and copies the leading top transactions.
func (r *run) evidence() Evidence {
	charges := []EvidenceCharge{}
	for _, s := range r.subs {
		anchor, ok := ParseDate(s.lastDate)
		if !ok {
			anchor = r.end
		}
		n := int(numsafe.Clamp(s.occurrences, 0, float64(r.t.MaxEvidenceOccurrences)))
		for k := 0; k < n; k++ {
			charges = append(charges, EvidenceCharge{
				Merchant: s.merchant,
				Date:     addMonths(anchor, -k).Format(dateLayout),
				Amount:   s.monthly,
			})
		}
	}

	limit := r.t.MaxEvidenceTransactions
	if limit > maxTop50 {
		limit = maxTop50
	}
	txns := []EvidenceTransaction{}
	for i, t := range r.res.TopSpending {
		if i >= limit {
			break
		}
		txns = append(txns, EvidenceTransaction{
			Date:     text(t.Date, "Unknown"),
			Merchant: text(t.Merchant, "Unknown"),
			Amount:   numsafe.Round(r.w.Number(t.Amount, 0, fmt.Sprintf("top_spending[%d].amount", i)), 2, 0),
			Category: text(t.Category, "Unknown"),
		})
	}

	return Evidence{SubscriptionTransactions: charges, Top50Transactions: txns}
}
