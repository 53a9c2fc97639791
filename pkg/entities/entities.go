// Package entities holds the domain records exchanged between the artifact
// parser, the store and the client facade. All types serialize to the
// snake_case JSON shape the HTTP API exposes.
package entities

// ResourceType is the node kind encoded in the first segment of a unique id.
type ResourceType string

const (
	ResourceTypeModel    ResourceType = "model"
	ResourceTypeTest     ResourceType = "test"
	ResourceTypeSource   ResourceType = "source"
	ResourceTypeSeed     ResourceType = "seed"
	ResourceTypeSnapshot ResourceType = "snapshot"
	ResourceTypeAnalysis ResourceType = "analysis"
	ResourceTypeMacro    ResourceType = "macro"
	ResourceTypeExposure ResourceType = "exposure"
	ResourceTypeMetric   ResourceType = "metric"
)

// RunStatus is the execution outcome reported by the build tool.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
	RunStatusFail    RunStatus = "fail"
	RunStatusPass    RunStatus = "pass"
	RunStatusWarn    RunStatus = "warn"
	RunStatusSkipped RunStatus = "skipped"
)

type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "Healthy"
	HealthStatusWarning  HealthStatus = "Warning"
	HealthStatusCritical HealthStatus = "Critical"
)

// Severity ranks health for sorting, most severe first.
func (h HealthStatus) Severity() int {
	switch h {
	case HealthStatusCritical:
		return 1
	case HealthStatusWarning:
		return 2
	default:
		return 3
	}
}

type FreshnessStatus string

const (
	FreshnessStatusPass  FreshnessStatus = "pass"
	FreshnessStatusWarn  FreshnessStatus = "warn"
	FreshnessStatusError FreshnessStatus = "error"
)
