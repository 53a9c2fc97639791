package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ErrNotFound reports that a schedule has no artifacts at the source.
var ErrNotFound = errors.New("artifacts not found")

// ArtifactSet carries the latest artifacts of one schedule. Each payload is
// either a canonical document, raw JSON still to be normalized, or nil when
// the schedule never produced that artifact.
type ArtifactSet struct {
	Manifest   any
	RunResults any
	Sources    any
}

// ArtifactSource hands out the latest artifacts of a schedule.
type ArtifactSource interface {
	GetAllLatestArtifacts(ctx context.Context, scheduleName string) (*ArtifactSet, error)
}

// DirectorySource reads artifacts from <root>/<schedule>/: a manifest.json
// plus any number of run_results*.json and sources*.json files, merged in
// lexical order. A schedule with multiple commands writes one run-results
// file per command, so merging is the common case. Unreadable or invalid
// files are logged and skipped.
type DirectorySource struct {
	root string
	log  *logrus.Logger
}

func NewDirectorySource(logger *logrus.Logger, root string) *DirectorySource {
	return &DirectorySource{
		root: root,
		log:  logger,
	}
}

func (s *DirectorySource) GetAllLatestArtifacts(
	ctx context.Context, scheduleName string,
) (*ArtifactSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, scheduleName)
	manifest, err := s.readManifest(dir)
	if err != nil {
		return nil, err
	}
	runResults, err := s.readRunResults(dir)
	if err != nil {
		return nil, err
	}
	sources, err := s.readSources(dir)
	if err != nil {
		return nil, err
	}

	if manifest == nil && runResults == nil && sources == nil {
		return nil, fmt.Errorf("schedule %q has no artifacts under %s: %w", scheduleName, dir, ErrNotFound)
	}

	return &ArtifactSet{
		Manifest:   manifest,
		RunResults: runResults,
		Sources:    sources,
	}, nil
}

func (s *DirectorySource) readManifest(dir string) (*ManifestDoc, error) {
	path := filepath.Join(dir, "manifest.json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := NormalizeManifest(s.log, data)
	if err != nil {
		s.log.Warnf("Skipping manifest artifact %s: %s", path, err)
		return nil, nil
	}

	return doc, nil
}

func (s *DirectorySource) readRunResults(dir string) (*RunResultsDoc, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "run_results*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list run-results artifacts under %s: %w", dir, err)
	}

	docs := make([]*RunResultsDoc, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warnf("Skipping run-results artifact %s: %s", path, err)
			continue
		}
		doc, err := NormalizeRunResults(s.log, data)
		if err != nil {
			s.log.Warnf("Skipping run-results artifact %s: %s", path, err)
			continue
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}

	return MergeRunResults(docs), nil
}

func (s *DirectorySource) readSources(dir string) (*SourcesDoc, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "sources*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list sources artifacts under %s: %w", dir, err)
	}

	docs := make([]*SourcesDoc, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warnf("Skipping sources artifact %s: %s", path, err)
			continue
		}
		doc, err := NormalizeSources(s.log, data)
		if err != nil {
			s.log.Warnf("Skipping sources artifact %s: %s", path, err)
			continue
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}

	return MergeSources(docs), nil
}
