package orchestrator

import (
	"sort"

	"consolidate/models"
)

// Exit statuses reported by Report.ExitStatus.
const (
	ExitSuccess = 0
	ExitFailure = 2
)

// Report aggregates every command outcome of one ExecuteAll call, plus the
// clips that never produced a command because their frame range could not
// be computed.
type Report struct {
	Outcomes           []models.CommandOutcome
	ConversionFailures []models.ConversionFailure
}

// Failed returns the failed outcomes sorted by command index.
func (r *Report) Failed() []models.CommandOutcome {
	var failed []models.CommandOutcome
	for _, o := range r.Outcomes {
		if !o.Succeeded {
			failed = append(failed, o)
		}
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].Index < failed[j].Index })
	return failed
}

// Succeeded reports whether every command succeeded and every clip was
// converted. An empty report has succeeded.
func (r *Report) Succeeded() bool {
	if len(r.ConversionFailures) > 0 {
		return false
	}
	for _, o := range r.Outcomes {
		if !o.Succeeded {
			return false
		}
	}
	return true
}

// ExitStatus returns ExitSuccess when everything succeeded, else ExitFailure.
func (r *Report) ExitStatus() int {
	if r.Succeeded() {
		return ExitSuccess
	}
	return ExitFailure
}

// GetStats returns outcome counts by state.
func (r *Report) GetStats() map[string]int {
	stats := map[string]int{
		"total":               len(r.Outcomes),
		"succeeded":           0,
		"failed":              0,
		"timed_out":           0,
		"conversion_failures": len(r.ConversionFailures),
	}
	for _, o := range r.Outcomes {
		switch {
		case o.Succeeded:
			stats["succeeded"]++
		case o.TimedOut:
			stats["timed_out"]++
			stats["failed"]++
		default:
			stats["failed"]++
		}
	}
	return stats
}
