package sql

import (
	"sort"
	"time"

	"github.com/pipemeta/pipemeta/pkg/contract"
	"github.com/pipemeta/pipemeta/pkg/entities"
	"github.com/pipemeta/pipemeta/pkg/store/sql/model"
	"github.com/pipemeta/pipemeta/pkg/utils"
)

const (
	alertLevelCritical = "Critical - Data is stale"
	alertLevelWarning  = "Warning - Data aging"
	alertLevelFresh    = "Fresh"
)

func freshnessSeverity(status *string) int {
	if status == nil {
		return 3
	}

	switch *status {
	case string(entities.FreshnessStatusError):
		return 0
	case string(entities.FreshnessStatusWarn):
		return 1
	default:
		return 2
	}
}

func alertLevel(status *string) string {
	switch freshnessSeverity(status) {
	case 0:
		return alertLevelCritical
	case 1:
		return alertLevelWarning
	default:
		return alertLevelFresh
	}
}

// GetSourceFreshness returns the schedule's freshness checks with staleness
// recomputed against the current clock, most severe and most stale first.
func (s *Store) GetSourceFreshness(scheduleName string) ([]*entities.SourceFreshnessResult, *contract.Error) {
	var rows []model.SourceFreshness

	err := s.db.
		Where("schedule_name = ?", scheduleName).
		Find(&rows).Error
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to get source freshness", err)
	}

	now := time.Now().UTC()
	results := make([]*entities.SourceFreshnessResult, 0, len(rows))

	for _, row := range rows {
		result := row.ToEntity()
		if result.MaxLoadedAt != nil {
			result.HoursSinceLoad = utils.PtrTo(now.Sub(*result.MaxLoadedAt).Hours())
		}
		result.AlertLevel = utils.PtrTo(alertLevel(result.FreshnessStatus))
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		left, right := results[i], results[j]
		if severityL, severityR := freshnessSeverity(left.FreshnessStatus), freshnessSeverity(right.FreshnessStatus); severityL != severityR {
			return severityL < severityR
		}

		// Most stale first within a severity bucket, unknown staleness last.
		switch {
		case left.HoursSinceLoad == nil:
			return false
		case right.HoursSinceLoad == nil:
			return true
		default:
			return *left.HoursSinceLoad > *right.HoursSinceLoad
		}
	})

	return results, nil
}
