package report

import "slices"

// Clone returns a deep copy of r. A nil receiver yields a zero report.
func (r *ProReportData) Clone() ProReportData {
	if r == nil {
		return ProReportData{}
	}
	out := *r
	out.MonthlyTrends = cloneTrends(r.MonthlyTrends)
	out.SubscriptionInsights = slices.Clone(r.SubscriptionInsights)
	out.SavingsProjection = r.SavingsProjection.Clone()
	out.ActionPlan = slices.Clone(r.ActionPlan)
	out.BehavioralInsights = r.BehavioralInsights.Clone()
	out.CategoryDeepDives = cloneDeepDives(r.CategoryDeepDives)
	out.Evidence = r.Evidence.Clone()
	return out
}

func (p SavingsProjection) Clone() SavingsProjection {
	p.Assumptions = slices.Clone(p.Assumptions)
	return p
}

func (b BehavioralInsights) Clone() BehavioralInsights {
	b.TopImpulseMerchants = slices.Clone(b.TopImpulseMerchants)
	return b
}

func (e Evidence) Clone() Evidence {
	e.SubscriptionTransactions = slices.Clone(e.SubscriptionTransactions)
	e.Top50Transactions = slices.Clone(e.Top50Transactions)
	return e
}

func (m MonthlyTrend) Clone() MonthlyTrend {
	if m.ByCategory != nil {
		byCategory := make(map[string]float64, len(m.ByCategory))
		for k, v := range m.ByCategory {
			byCategory[k] = v
		}
		m.ByCategory = byCategory
	}
	return m
}

func (d CategoryDeepDive) Clone() CategoryDeepDive {
	d.TopMerchants = slices.Clone(d.TopMerchants)
	return d
}

func cloneTrends(in []MonthlyTrend) []MonthlyTrend {
	if in == nil {
		return nil
	}
	out := make([]MonthlyTrend, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}

func cloneDeepDives(in []CategoryDeepDive) []CategoryDeepDive {
	if in == nil {
		return nil
	}
	out := make([]CategoryDeepDive, len(in))
	for i, d := range in {
		out[i] = d.Clone()
	}
	return out
}
