package artifacts

import (
	"github.com/sirupsen/logrus"

	"github.com/pipemeta/pipemeta/pkg/entities"
)

// ParsedArtifacts is one schedule's artifacts flattened into the record
// slices the store loads.
type ParsedArtifacts struct {
	ScheduleName    string
	RunResults      []*entities.RunResult
	SourceFreshness []*entities.SourceFreshnessResult
	ModelMetadata   []*entities.ModelMetadata
	Seeds           []*entities.SeedData
	Snapshots       []*entities.SnapshotData
	Tests           []*entities.TestData
	Exposures       []*entities.ExposureData
}

// Parser turns an artifact set into load-ready records. Sections degrade
// independently: a section that cannot be normalized is logged and yields
// no records while the others still parse.
type Parser struct {
	log *logrus.Logger
}

func NewParser(logger *logrus.Logger) *Parser {
	return &Parser{log: logger}
}

// Parse normalizes each artifact of the set and extracts every record kind.
// Run results are enriched from model metadata when both are present.
func (p *Parser) Parse(set *ArtifactSet, scheduleName string) *ParsedArtifacts {
	parsed := &ParsedArtifacts{ScheduleName: scheduleName}
	if set == nil {
		return parsed
	}

	manifest, err := NormalizeManifest(p.log, set.Manifest)
	if err != nil {
		p.log.Warnf("Failed to normalize manifest artifact for schedule %s: %s", scheduleName, err)
	}
	runResults, err := NormalizeRunResults(p.log, set.RunResults)
	if err != nil {
		p.log.Warnf("Failed to normalize run-results artifact for schedule %s: %s", scheduleName, err)
	}
	sources, err := NormalizeSources(p.log, set.Sources)
	if err != nil {
		p.log.Warnf("Failed to normalize sources artifact for schedule %s: %s", scheduleName, err)
	}

	parsed.RunResults = ExtractRunResults(runResults)
	parsed.SourceFreshness = ExtractSourceFreshness(sources, manifest)
	parsed.ModelMetadata = ExtractModelMetadata(manifest)
	if len(parsed.RunResults) > 0 && len(parsed.ModelMetadata) > 0 {
		EnrichRunResults(parsed.RunResults, parsed.ModelMetadata)
	}
	parsed.Seeds = ExtractSeedData(manifest, runResults)
	parsed.Snapshots = ExtractSnapshotData(manifest, runResults)
	parsed.Tests = ExtractTestData(runResults, manifest)
	parsed.Exposures = ExtractExposureData(manifest)

	p.log.Debugf(
		"Parsed artifacts for schedule %s: %d run results, %d sources, %d models, %d seeds, %d snapshots, %d tests, %d exposures",
		scheduleName,
		len(parsed.RunResults),
		len(parsed.SourceFreshness),
		len(parsed.ModelMetadata),
		len(parsed.Seeds),
		len(parsed.Snapshots),
		len(parsed.Tests),
		len(parsed.Exposures),
	)

	return parsed
}
