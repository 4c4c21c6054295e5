package service

import (
	"fmt"
	"time"
)

// TrendPoint is one labelled bucket of a time series.
type TrendPoint struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// rangeStart maps a report range keyword to its window start. Unknown
// keywords fall back to the month window.
func rangeStart(now time.Time, rangeKey string) time.Time {
	switch rangeKey {
	case "week":
		return now.AddDate(0, 0, -7)
	case "quarter":
		return now.AddDate(0, -3, 0)
	case "year":
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}

// dailyBuckets counts events per calendar day for the trailing `days` days,
// oldest bucket first.
func dailyBuckets(times []time.Time, now time.Time, days int) []TrendPoint {
	points := make([]TrendPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		end := start.AddDate(0, 0, 1)
		points = append(points, TrendPoint{
			Label: start.Format("Jan 2"),
			Count: countBetween(times, start, end),
		})
	}
	return points
}

// weeklyBuckets counts events per trailing 7-day window, oldest first.
func weeklyBuckets(times []time.Time, now time.Time, weeks int) []TrendPoint {
	points := make([]TrendPoint, 0, weeks)
	for i := weeks - 1; i >= 0; i-- {
		end := now.AddDate(0, 0, -7*i)
		start := end.AddDate(0, 0, -7)
		points = append(points, TrendPoint{
			Label: fmt.Sprintf("Week %d", weeks-i),
			Count: countBetween(times, start, end),
		})
	}
	return points
}

// monthlyBuckets counts events per calendar month for the trailing `months`
// months, oldest first.
func monthlyBuckets(times []time.Time, now time.Time, months int) []TrendPoint {
	points := make([]TrendPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		ref := now.AddDate(0, -i, 0)
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		end := start.AddDate(0, 1, 0)
		points = append(points, TrendPoint{
			Label: start.Format("Jan"),
			Count: countBetween(times, start, end),
		})
	}
	return points
}

// growthBuckets picks the bucket granularity matching the report range:
// daily over a week, weekly over a month, monthly over a quarter or a year.
func growthBuckets(times []time.Time, now time.Time, rangeKey string) []TrendPoint {
	switch rangeKey {
	case "week":
		return dailyBuckets(times, now, 7)
	case "quarter":
		return monthlyBuckets(times, now, 3)
	case "year":
		return monthlyBuckets(times, now, 12)
	default:
		return weeklyBuckets(times, now, 4)
	}
}

func countBetween(times []time.Time, start, end time.Time) int {
	count := 0
	for _, t := range times {
		if !t.Before(start) && t.Before(end) {
			count++
		}
	}
	return count
}
