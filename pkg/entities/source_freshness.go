package entities

import "time"

// FreshnessThreshold is one bound of a source freshness criteria block.
type FreshnessThreshold struct {
	Count  *float64 `json:"count"`
	Period *string  `json:"period"`
}

type FreshnessCriteria struct {
	WarnAfter  *FreshnessThreshold `json:"warn_after"`
	ErrorAfter *FreshnessThreshold `json:"error_after"`
}

// SourceFreshnessResult is one source table from a freshness artifact,
// enriched with the manifest's source node where one exists.
type SourceFreshnessResult struct {
	UniqueID   string `json:"unique_id"`
	SourceName string `json:"source_name"`
	Name       string `json:"name"`
	TableName  string `json:"table_name"`

	FreshnessStatus       *string    `json:"freshness_status"`
	FreshnessChecked      bool       `json:"freshness_checked"`
	MaxLoadedAt           *time.Time `json:"max_loaded_at"`
	SnapshottedAt         *time.Time `json:"snapshotted_at"`
	MaxLoadedAtTimeAgoInS *float64   `json:"max_loaded_at_time_ago_in_s"`
	HoursSinceLoad        *float64   `json:"hours_since_load"`

	ErrorAfterHours *float64           `json:"error_after_hours"`
	WarnAfterHours  *float64           `json:"warn_after_hours"`
	Criteria        *FreshnessCriteria `json:"criteria"`

	Database          *string        `json:"database"`
	SchemaName        *string        `json:"schema_name"`
	Identifier        *string        `json:"identifier"`
	Description       *string        `json:"description"`
	SourceDescription *string        `json:"source_description"`
	Comment           *string        `json:"comment"`
	Meta              map[string]any `json:"meta"`
	Tags              []string       `json:"tags"`
	Owner             *string        `json:"owner"`
	Loader            *string        `json:"loader"`
	Type              *string        `json:"type"`
	Columns           map[string]any `json:"columns"`

	ErrorMessage *string `json:"error_message"`

	// AlertLevel is filled at query time from the freshness status.
	AlertLevel *string `json:"alert_level"`
}
