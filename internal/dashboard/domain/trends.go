package domain

import (
	"math"
	"time"

	cycledomain "predpraznik_backend/internal/cycles/domain"
)

// MonthKeyLayout formats the month key shared with the repository.
const MonthKeyLayout = "2006-01"

// MonthCount is one aggregated month as stored.
type MonthCount struct {
	Month           string
	TestsStarted    int
	ContractsSigned int
	CyclesCompleted int
}

// TrendPoint is one month of the trend chart.
type TrendPoint struct {
	Month           string `json:"month"`
	TestsStarted    int    `json:"testsStarted"`
	ContractsSigned int    `json:"contractsSigned"`
	CyclesCompleted int    `json:"cyclesCompleted"`
}

// TrendStart is the first instant of the oldest month in the window.
func TrendStart(now time.Time, months int) time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.AddDate(0, -(months - 1), 0)
}

// FillMonthlyTrend returns exactly months points ending with the month of
// now, oldest first. Months without rows are zero.
func FillMonthlyTrend(rows []MonthCount, now time.Time, months int) []TrendPoint {
	byMonth := make(map[string]MonthCount, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = r
	}
	start := TrendStart(now, months)
	out := make([]TrendPoint, 0, months)
	for i := range months {
		key := start.AddDate(0, i, 0).Format(MonthKeyLayout)
		r := byMonth[key]
		out = append(out, TrendPoint{
			Month:           key,
			TestsStarted:    r.TestsStarted,
			ContractsSigned: r.ContractsSigned,
			CyclesCompleted: r.CyclesCompleted,
		})
	}
	return out
}

// ConversionRate is signed over created as a rounded whole percent, and 0
// when nothing was created.
func ConversionRate(signed, created int) int {
	if created <= 0 {
		return 0
	}
	return int(math.Round(float64(signed) * 100 / float64(created)))
}

// StatusCount is the number of cycles in one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// StatusDistribution lists every cycle status in lifecycle order, zero-filled.
func StatusDistribution(rows []StatusCount) []StatusCount {
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] += r.Count
	}
	out := make([]StatusCount, 0, len(cycledomain.AllStatuses))
	for _, s := range cycledomain.AllStatuses {
		out = append(out, StatusCount{Status: string(s), Count: counts[string(s)]})
	}
	return out
}
