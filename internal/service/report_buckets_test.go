package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRangeStart(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.AddDate(0, 0, -7), rangeStart(now, "week"))
	assert.Equal(t, now.AddDate(0, -1, 0), rangeStart(now, "month"))
	assert.Equal(t, now.AddDate(0, -3, 0), rangeStart(now, "quarter"))
	assert.Equal(t, now.AddDate(-1, 0, 0), rangeStart(now, "year"))
	assert.Equal(t, now.AddDate(0, -1, 0), rangeStart(now, "bogus"))
}

func TestDailyBuckets(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	times := []time.Time{
		now.Add(-1 * time.Hour),                  // today
		now.AddDate(0, 0, -1),                    // yesterday
		now.AddDate(0, 0, -1).Add(2 * time.Hour), // yesterday
		now.AddDate(0, 0, -10),                   // outside the window
	}

	points := dailyBuckets(times, now, 7)
	assert.Len(t, points, 7)
	assert.Equal(t, "Jun 15", points[6].Label)
	assert.Equal(t, 1, points[6].Count)
	assert.Equal(t, 2, points[5].Count)

	total := 0
	for _, p := range points {
		total += p.Count
	}
	assert.Equal(t, 3, total)
}

func TestWeeklyBuckets(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	times := []time.Time{
		now.AddDate(0, 0, -2),  // most recent week
		now.AddDate(0, 0, -12), // two weeks back
		now.AddDate(0, 0, -40), // outside the four-week window
	}

	points := weeklyBuckets(times, now, 4)
	assert.Len(t, points, 4)
	assert.Equal(t, "Week 4", points[3].Label)
	assert.Equal(t, 1, points[3].Count)
	assert.Equal(t, 1, points[2].Count)
	assert.Zero(t, points[0].Count)
}

func TestMonthlyBuckets(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	times := []time.Time{
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 2, 0, 0, 0, 0, time.UTC),
	}

	points := monthlyBuckets(times, now, 3)
	assert.Len(t, points, 3)
	assert.Equal(t, "Apr", points[0].Label)
	assert.Zero(t, points[0].Count)
	assert.Equal(t, "May", points[1].Label)
	assert.Equal(t, 2, points[1].Count)
	assert.Equal(t, "Jun", points[2].Label)
	assert.Equal(t, 1, points[2].Count)

	year := monthlyBuckets(times, now, 12)
	assert.Len(t, year, 12)
	total := 0
	for _, p := range year {
		total += p.Count
	}
	assert.Equal(t, 4, total)
}
