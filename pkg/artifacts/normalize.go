package artifacts

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

var docValidator = validator.New()

// NormalizeRunResults converts any accepted payload shape (canonical doc,
// raw JSON, generic map) into a canonical run-results document. Payloads
// that fail the strict decode degrade to a lenient pass that keeps every
// entry carrying a unique id.
func NormalizeRunResults(logger *logrus.Logger, raw any) (*RunResultsDoc, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case *RunResultsDoc:
		return v, nil
	case RunResultsDoc:
		return &v, nil
	}

	data, err := payloadBytes(raw)
	if err != nil {
		return nil, err
	}

	return normalizeDoc(logger, "run results", data, lenientRunResults)
}

// NormalizeSources is NormalizeRunResults for the source-freshness artifact.
func NormalizeSources(logger *logrus.Logger, raw any) (*SourcesDoc, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case *SourcesDoc:
		return v, nil
	case SourcesDoc:
		return &v, nil
	}

	data, err := payloadBytes(raw)
	if err != nil {
		return nil, err
	}

	return normalizeDoc(logger, "source freshness", data, lenientSources)
}

// NormalizeManifest is NormalizeRunResults for the manifest artifact.
func NormalizeManifest(logger *logrus.Logger, raw any) (*ManifestDoc, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case *ManifestDoc:
		return v, nil
	case ManifestDoc:
		return &v, nil
	}

	data, err := payloadBytes(raw)
	if err != nil {
		return nil, err
	}

	return normalizeDoc(logger, "manifest", data, lenientManifest)
}

func payloadBytes(raw any) ([]byte, error) {
	switch v := raw.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	case string:
		return []byte(v), nil
	case map[string]any:
		return json.Marshal(v)
	default:
		return nil, fmt.Errorf("unsupported artifact payload type %T", raw)
	}
}

func normalizeDoc[T any](logger *logrus.Logger, kind string, data []byte, lenient func([]byte) *T) (*T, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s artifact is not valid JSON", kind)
	}

	doc := new(T)
	err := json.Unmarshal(data, doc)
	if err == nil {
		err = docValidator.Struct(doc)
	}
	if err == nil {
		return doc, nil
	}

	logger.Warnf("Strict parse of %s artifact failed, falling back to lenient extraction: %s", kind, err)

	return lenient(data), nil
}

func artifactMetadataFrom(data []byte) ArtifactMetadata {
	meta := gjson.GetBytes(data, "metadata")

	return ArtifactMetadata{
		DbtVersion:   meta.Get("dbt_version").String(),
		GeneratedAt:  Timestamp{parseTimestamp(meta.Get("generated_at").String())},
		InvocationID: meta.Get("invocation_id").String(),
	}
}

func lenientRunResults(data []byte) *RunResultsDoc {
	doc := &RunResultsDoc{
		Metadata:    artifactMetadataFrom(data),
		ElapsedTime: gjson.GetBytes(data, "elapsed_time").Float(),
	}
	if args := gjson.GetBytes(data, "args"); args.IsObject() {
		if m, ok := args.Value().(map[string]any); ok {
			doc.Args = m
		}
	}

	gjson.GetBytes(data, "results").ForEach(func(_, result gjson.Result) bool {
		if !result.IsObject() {
			return true
		}
		// Best-effort fill: a bad field keeps the rest of the entry.
		var entry RunResultEntry
		_ = json.Unmarshal([]byte(result.Raw), &entry)
		if entry.UniqueID == "" {
			return true
		}
		doc.Results = append(doc.Results, entry)

		return true
	})

	return doc
}

func lenientSources(data []byte) *SourcesDoc {
	doc := &SourcesDoc{
		Metadata:    artifactMetadataFrom(data),
		ElapsedTime: gjson.GetBytes(data, "elapsed_time").Float(),
	}

	gjson.GetBytes(data, "results").ForEach(func(_, result gjson.Result) bool {
		if !result.IsObject() {
			return true
		}
		var entry SourceFreshnessEntry
		_ = json.Unmarshal([]byte(result.Raw), &entry)
		if entry.UniqueID == "" {
			return true
		}
		doc.Results = append(doc.Results, entry)

		return true
	})

	return doc
}

func lenientManifest(data []byte) *ManifestDoc {
	doc := &ManifestDoc{
		Metadata:  artifactMetadataFrom(data),
		Nodes:     make(map[string]ManifestNode),
		Sources:   make(map[string]ManifestSource),
		Exposures: make(map[string]ManifestExposure),
	}

	gjson.GetBytes(data, "nodes").ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}
		var node ManifestNode
		_ = json.Unmarshal([]byte(value.Raw), &node)
		doc.Nodes[key.String()] = node

		return true
	})
	gjson.GetBytes(data, "sources").ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}
		var source ManifestSource
		_ = json.Unmarshal([]byte(value.Raw), &source)
		doc.Sources[key.String()] = source

		return true
	})
	gjson.GetBytes(data, "exposures").ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}
		var exposure ManifestExposure
		_ = json.Unmarshal([]byte(value.Raw), &exposure)
		doc.Exposures[key.String()] = exposure

		return true
	})

	return doc
}
