package stats

import (
	"sort"

	"github.com/hong9883/ai-drug-approval-test/internal/models"
)

// PromptPoint is one bar of the prompt usage charts.
type PromptPoint struct {
	Key     string
	Label   string
	Count   int64
	AvgTime float64 // milliseconds
}

// StatusPoint is one slice of the document status chart.
type StatusPoint struct {
	Key   string
	Label string
	Value int64
}

// PromptSeries lists the prompt types present in the snapshot, known
// strategies first in display order, then unknown keys sorted.
func PromptSeries(snap *models.StatisticsSnapshot) []PromptPoint {
	if snap == nil {
		return nil
	}
	q := snap.QueryStatistics
	var out []PromptPoint
	for _, key := range orderedKeys(q.PromptTypeCounts, promptOrder()) {
		out = append(out, PromptPoint{
			Key:     key,
			Label:   models.PromptStrategy(key).Label(),
			Count:   q.PromptTypeCounts[key],
			AvgTime: q.AverageResponseTimes[key],
		})
	}
	return out
}

// StatusSeries lists the document statuses present in the snapshot, known
// statuses first in pipeline order, then unknown keys sorted.
func StatusSeries(snap *models.StatisticsSnapshot) []StatusPoint {
	if snap == nil {
		return nil
	}
	counts := snap.DocumentStatistics.StatusCounts
	var out []StatusPoint
	for _, key := range orderedKeys(counts, statusOrder()) {
		out = append(out, StatusPoint{
			Key:   key,
			Label: models.StatusLabel(models.DocStatus(key)),
			Value: counts[key],
		})
	}
	return out
}

func promptOrder() []string {
	keys := make([]string, len(models.PromptStrategies))
	for i, p := range models.PromptStrategies {
		keys[i] = string(p)
	}
	return keys
}

func statusOrder() []string {
	keys := make([]string, len(models.DocStatuses))
	for i, s := range models.DocStatuses {
		keys[i] = string(s)
	}
	return keys
}

func orderedKeys(counts map[string]int64, known []string) []string {
	var keys []string
	seen := make(map[string]bool, len(known))
	for _, k := range known {
		seen[k] = true
		if _, ok := counts[k]; ok {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range counts {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
