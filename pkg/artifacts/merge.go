package artifacts

// MergeRunResults combines the run-results documents a schedule produced,
// one per executed command. Entries sharing a unique id are deduplicated,
// keeping the one whose timing finished last; elapsed times are summed and
// the metadata and args come from the first document.
func MergeRunResults(docs []*RunResultsDoc) *RunResultsDoc {
	if len(docs) == 0 {
		return nil
	}
	if len(docs) == 1 {
		return docs[0]
	}

	merged := &RunResultsDoc{
		Metadata: docs[0].Metadata,
		Results:  make([]RunResultEntry, 0),
		Args:     docs[0].Args,
	}
	seen := make(map[string]int)
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		merged.ElapsedTime += doc.ElapsedTime
		for _, entry := range doc.Results {
			if entry.UniqueID == "" {
				continue
			}
			index, ok := seen[entry.UniqueID]
			if !ok {
				seen[entry.UniqueID] = len(merged.Results)
				merged.Results = append(merged.Results, entry)
				continue
			}
			if timingEndsAfter(entry.Timing, merged.Results[index].Timing) {
				merged.Results[index] = entry
			}
		}
	}

	return merged
}

// MergeSources merges source-freshness documents the same way, minus the
// args block sources artifacts do not carry.
func MergeSources(docs []*SourcesDoc) *SourcesDoc {
	if len(docs) == 0 {
		return nil
	}
	if len(docs) == 1 {
		return docs[0]
	}

	merged := &SourcesDoc{
		Metadata: docs[0].Metadata,
		Results:  make([]SourceFreshnessEntry, 0),
	}
	seen := make(map[string]int)
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		merged.ElapsedTime += doc.ElapsedTime
		for _, entry := range doc.Results {
			if entry.UniqueID == "" {
				continue
			}
			index, ok := seen[entry.UniqueID]
			if !ok {
				seen[entry.UniqueID] = len(merged.Results)
				merged.Results = append(merged.Results, entry)
				continue
			}
			if timingEndsAfter(entry.Timing, merged.Results[index].Timing) {
				merged.Results[index] = entry
			}
		}
	}

	return merged
}

// timingEndsAfter reports whether candidate finished after current, judged
// by the completed_at of each timing's last phase. Either side missing its
// timing keeps current.
func timingEndsAfter(candidate, current []TimingEntry) bool {
	if len(candidate) == 0 || len(current) == 0 {
		return false
	}

	return candidate[len(candidate)-1].CompletedAt.Time.After(current[len(current)-1].CompletedAt.Time)
}
