// Package artifacts normalizes the raw artifact payloads of a schedule run
// (dependency manifest, run results, source freshness) into canonical
// documents and extracts the flat record kinds the store loads.
package artifacts

import (
	"encoding/json"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

// Timestamp tolerates the timestamp spellings seen in artifacts: RFC3339
// with or without fraction, zone or separator variants. Unparseable or null
// input becomes the zero value, never an unmarshal error.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil || s == nil {
		t.Time = time.Time{}
		return nil
	}

	t.Time = parseTimestamp(*s)

	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(t.Format(time.RFC3339Nano))
}

// TimePtr returns the wrapped time, nil when unset.
func (t Timestamp) TimePtr() *time.Time {
	if t.IsZero() {
		return nil
	}
	value := t.Time

	return &value
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed
		}
	}

	return time.Time{}
}

// RunResultsDoc is the canonical shape of a run-results artifact.
type RunResultsDoc struct {
	Metadata    ArtifactMetadata `json:"metadata"`
	Results     []RunResultEntry `json:"results" validate:"dive"`
	ElapsedTime float64          `json:"elapsed_time"`
	Args        map[string]any   `json:"args"`
}

// ArtifactMetadata is the envelope block shared by run-results and
// source-freshness artifacts.
type ArtifactMetadata struct {
	DbtVersion   string    `json:"dbt_version"`
	GeneratedAt  Timestamp `json:"generated_at"`
	InvocationID string    `json:"invocation_id"`
}

type RunResultEntry struct {
	UniqueID        string         `json:"unique_id" validate:"required"`
	Status          *string        `json:"status"`
	ExecutionTime   *float64       `json:"execution_time"`
	Message         *string        `json:"message"`
	Failures        *int           `json:"failures"`
	ThreadID        *string        `json:"thread_id"`
	Timing          []TimingEntry  `json:"timing"`
	AdapterResponse map[string]any `json:"adapter_response"`
}

type TimingEntry struct {
	Name        string    `json:"name"`
	StartedAt   Timestamp `json:"started_at"`
	CompletedAt Timestamp `json:"completed_at"`
}

// SourcesDoc is the canonical shape of a source-freshness artifact.
type SourcesDoc struct {
	Metadata    ArtifactMetadata       `json:"metadata"`
	Results     []SourceFreshnessEntry `json:"results" validate:"dive"`
	ElapsedTime float64                `json:"elapsed_time"`
}

type SourceFreshnessEntry struct {
	UniqueID      string        `json:"unique_id" validate:"required"`
	Status        *string       `json:"status"`
	MaxLoadedAt   Timestamp     `json:"max_loaded_at"`
	SnapshottedAt Timestamp     `json:"snapshotted_at"`
	Criteria      *CriteriaDoc  `json:"criteria"`
	Error         *string       `json:"error"`
	Timing        []TimingEntry `json:"timing"`
}

type CriteriaDoc struct {
	WarnAfter  *ThresholdDoc `json:"warn_after"`
	ErrorAfter *ThresholdDoc `json:"error_after"`
}

type ThresholdDoc struct {
	Count  *float64 `json:"count"`
	Period *string  `json:"period"`
}

// ManifestDoc is the canonical shape of a manifest artifact, reduced to the
// maps and fields the extractors read.
type ManifestDoc struct {
	Metadata  ArtifactMetadata            `json:"metadata"`
	Nodes     map[string]ManifestNode     `json:"nodes"`
	Sources   map[string]ManifestSource   `json:"sources"`
	Exposures map[string]ManifestExposure `json:"exposures"`
}

type ManifestNode struct {
	Name             string         `json:"name"`
	ResourceType     string         `json:"resource_type"`
	DependsOn        DependsOnDoc   `json:"depends_on"`
	Config           map[string]any `json:"config"`
	Tags             []string       `json:"tags"`
	Meta             map[string]any `json:"meta"`
	Description      *string        `json:"description"`
	Comment          *string        `json:"comment"`
	Schema           *string        `json:"schema"`
	Database         *string        `json:"database"`
	Alias            *string        `json:"alias"`
	Access           *string        `json:"access"`
	Language         *string        `json:"language"`
	PackageName      *string        `json:"package_name"`
	CompiledCode     *string        `json:"compiled_code"`
	CompiledSQL      *string        `json:"compiled_sql"`
	RawCode          *string        `json:"raw_code"`
	RawSQL           *string        `json:"raw_sql"`
	Columns          map[string]any `json:"columns"`
	ColumnName       *string        `json:"column_name"`
	OriginalFilePath *string        `json:"original_file_path"`
	RootPath         *string        `json:"root_path"`
}

type DependsOnDoc struct {
	Nodes  []string `json:"nodes"`
	Macros []string `json:"macros"`
}

type ManifestSource struct {
	Name              string         `json:"name"`
	SourceName        string         `json:"source_name"`
	Database          *string        `json:"database"`
	Schema            *string        `json:"schema"`
	Identifier        *string        `json:"identifier"`
	Description       *string        `json:"description"`
	SourceDescription *string        `json:"source_description"`
	Comment           *string        `json:"comment"`
	Meta              map[string]any `json:"meta"`
	Tags              []string       `json:"tags"`
	Loader            *string        `json:"loader"`
	Columns           map[string]any `json:"columns"`
}

type ManifestExposure struct {
	Name        *string        `json:"name"`
	Type        *string        `json:"type"`
	Maturity    *string        `json:"maturity"`
	Owner       ExposureOwner  `json:"owner"`
	URL         *string        `json:"url"`
	PackageName *string        `json:"package_name"`
	Description *string        `json:"description"`
	Meta        map[string]any `json:"meta"`
	Tags        []string       `json:"tags"`
	DependsOn   DependsOnDoc   `json:"depends_on"`
}

type ExposureOwner struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}
