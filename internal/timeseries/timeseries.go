// Package timeseries turns monthly revenue rows into a sorted monthly series
// and a quarter-bucketed yearly rollup.
package timeseries

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/bharath-k9/Analytics-dashboard/internal/coerce"
	"github.com/bharath-k9/Analytics-dashboard/internal/models"
	"github.com/bharath-k9/Analytics-dashboard/internal/normalize"
)

const labelLayout = "Jan 2006"

// Monthly resolves each row's month, drops rows without a resolvable date,
// sorts the rest by time and assigns unique display labels.
func Monthly(rows []normalize.MonthlyRow) []models.MonthlyTrend {
	series := make([]models.MonthlyTrend, 0, len(rows))
	for _, row := range rows {
		t, ok := coerce.ISODate(row.Month)
		if !ok {
			continue
		}
		label := row.Label
		if label == "" {
			label = t.Format(labelLayout)
		}
		series = append(series, models.MonthlyTrend{
			MonthISO:   coerce.FormatISO(t),
			MonthLabel: label,
			BaseLabel:  label,
			Revenue:    row.Revenue,
			Orders:     row.Orders,
			TS:         t.UnixMilli(),
		})
	}

	slices.SortStableFunc(series, func(a, b models.MonthlyTrend) int {
		return cmp.Compare(a.TS, b.TS)
	})
	return DedupeLabels(series)
}

// DedupeLabels walks the series in order; a label already used by an earlier
// record gets the record's calendar year appended. The first occurrence keeps
// its label unchanged. Labels are derived from BaseLabel, so running it again
// on a filtered series starts over.
func DedupeLabels(series []models.MonthlyTrend) []models.MonthlyTrend {
	out := make([]models.MonthlyTrend, len(series))
	seen := make(map[string]struct{}, len(series))
	for i, m := range series {
		label := m.BaseLabel
		if label == "" {
			label = m.MonthLabel
		}
		if _, dup := seen[label]; dup {
			label = label + " " + strconv.Itoa(m.Year())
		}
		seen[label] = struct{}{}
		m.MonthLabel = label
		out[i] = m
	}
	return out
}

type quarterSums [4]decimal.Decimal

// Yearly buckets revenue by calendar year and quarter. Quarters accumulate in
// decimal; Total is computed from the reported quarters so q1+q2+q3+q4 == Total
// holds exactly.
func Yearly(series []models.MonthlyTrend) []models.YearlyRollup {
	buckets := make(map[int]*quarterSums)
	for _, m := range series {
		t := m.Time()
		q := (int(t.Month()) - 1) / 3
		sums, ok := buckets[t.Year()]
		if !ok {
			sums = &quarterSums{}
			buckets[t.Year()] = sums
		}
		sums[q] = sums[q].Add(decimal.NewFromFloat(m.Revenue))
	}

	years := lo.Keys(buckets)
	slices.Sort(years)

	out := make([]models.YearlyRollup, 0, len(years))
	for _, year := range years {
		sums := buckets[year]
		r := models.YearlyRollup{
			Year: strconv.Itoa(year),
			Q1:   sums[0].InexactFloat64(),
			Q2:   sums[1].InexactFloat64(),
			Q3:   sums[2].InexactFloat64(),
			Q4:   sums[3].InexactFloat64(),
		}
		r.Total = r.Q1 + r.Q2 + r.Q3 + r.Q4
		out = append(out, r)
	}
	return out
}

// Years lists the distinct calendar years of the series, most recent first.
func Years(series []models.MonthlyTrend) []int {
	years := lo.Uniq(lo.Map(series, func(m models.MonthlyTrend, _ int) int {
		return m.Year()
	}))
	slices.SortFunc(years, func(a, b int) int { return cmp.Compare(b, a) })
	return years
}
