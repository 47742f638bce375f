package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"spendreport-backend/internal/numsafe"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

var fallbackLayouts = []string{
	"2006/01/02",
	"01/02/2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	monthLayout,
}

// ParseDate accepts an ISO "YYYY-MM-DD" prefix or one of a few common
// statement layouts. Years outside 1970..2100 are rejected.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if isoDatePrefix.MatchString(s) {
		if t, err := time.Parse(dateLayout, s[:10]); err == nil {
			return plausible(t)
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return plausible(t)
		}
	}
	return time.Time{}, false
}

func plausible(t time.Time) (time.Time, bool) {
	if t.Year() < 1970 || t.Year() > 2100 {
		return time.Time{}, false
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}

// TrailingPeriod is the twelve-month window ending at now: from the first
// day of the month eleven months back to now's date.
func TrailingPeriod(now time.Time) Period {
	end := now.UTC()
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
	return Period{Start: start.Format(dateLayout), End: end.Format(dateLayout)}
}

func (r *run) collectDates() []time.Time {
	var raw []string
	for _, t := range r.res.TopSpending {
		raw = append(raw, t.Date)
	}
	for _, l := range r.res.TopLeaks {
		raw = append(raw, l.FirstDate, l.LastDate)
	}
	for _, s := range r.res.Subscriptions {
		raw = append(raw, s.LastDate)
	}
	for _, p := range r.res.PriceIncreases {
		raw = append(raw, p.DetectedDate)
	}
	if c := r.res.Comparison; c != nil {
		raw = append(raw, c.PreviousMonth, c.CurrentMonth)
	}

	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		if t, ok := ParseDate(s); ok {
			dates = append(dates, t)
		}
	}
	return dates
}

func (r *run) derivePeriod() Period {
	dates := r.collectDates()
	if len(dates) == 0 {
		p := TrailingPeriod(r.now)
		r.start, _ = time.Parse(dateLayout, p.Start)
		r.end, _ = time.Parse(dateLayout, p.End)
		r.monthCount = 12
		return p
	}

	start, end := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}
	r.start, r.end, r.hasDates = start, end, true

	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month()) + 1
	if c := r.res.Comparison; c != nil && c.MonthsAnalyzed != nil {
		hint := numsafe.Number(*c.MonthsAnalyzed, 0)
		if hint >= 1 && hint < float64(months) {
			months = int(hint)
		}
	}
	if months < 1 {
		months = 1
	}
	r.monthCount = months

	return Period{Start: start.Format(dateLayout), End: end.Format(dateLayout)}
}

// monthlyTrends spreads category totals across the period with a small
// deterministic oscillation and substitutes upstream actuals where known.
func (r *run) monthlyTrends() []MonthlyTrend {
	if len(r.categories) == 0 || r.monthCount <= 0 {
		return []MonthlyTrend{}
	}
	actuals := map[string]float64{}
	if c := r.res.Comparison; c != nil {
		if v := r.w.NonNegative(c.PreviousTotal, -1, "comparison.previous_total"); v > 0 {
			actuals[monthKey(c.PreviousMonth)] = v
		}
		if v := r.w.NonNegative(c.CurrentTotal, -1, "comparison.current_total"); v > 0 {
			actuals[monthKey(c.CurrentMonth)] = v
		}
	}

	first := time.Date(r.start.Year(), r.start.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := 0
	if r.monthCount > r.t.MaxTrendMonths {
		from = r.monthCount - r.t.MaxTrendMonths
	}

	out := make([]MonthlyTrend, 0, r.monthCount-from)
	for i := from; i < r.monthCount; i++ {
		month := first.AddDate(0, i, 0).Format(monthLayout)
		factor := 1 + 0.05*float64(i%3-1)
		byCategory := make(map[string]float64, len(r.categories))
		var total float64
		for _, c := range r.categories {
			share := r.w.Divide(c.total, r.monthCount, 0, fmt.Sprintf("monthly_trends.%s", c.name))
			v := numsafe.Round(share*factor, 2, 0)
			byCategory[c.name] = numsafe.Round(byCategory[c.name]+v, 2, 0)
			total += v
		}
		if actual, ok := actuals[month]; ok {
			total = actual
		}
		out = append(out, MonthlyTrend{
			Month:      month,
			TotalSpend: numsafe.Round(total, 2, 0),
			ByCategory: byCategory,
		})
	}
	return out
}

func monthKey(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return strings.TrimSpace(raw)
	}
	return t.Format(monthLayout)
}

// addMonths moves t by n months, clamping the day to the target month.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
