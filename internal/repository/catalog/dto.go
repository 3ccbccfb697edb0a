package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
)

// outdatedKey is the reserved incompatibility entry carrying community
// deprecation reports instead of a real mod id.
const outdatedKey = "_OUTDATED_"

// Document is the stored JSON shape of a catalog mod.
type Document struct {
	SourceID          string          `json:"source_id"`
	ID                string          `json:"id,omitempty"`
	Slug              string          `json:"slug"`
	Name              string          `json:"name"`
	Summary           string          `json:"summary,omitempty"`
	Description       string          `json:"description,omitempty"`
	Capabilities      []string        `json:"capabilities,omitempty"`
	Tags              []string        `json:"tags,omitempty"`
	Categories        []string        `json:"modrinth_categories,omitempty"`
	MCVersions        []string        `json:"mc_versions,omitempty"`
	Loaders           []string        `json:"loaders,omitempty"`
	Downloads         int64           `json:"downloads"`
	Dependencies      json.RawMessage `json:"dependencies,omitempty"`
	Incompatibilities json.RawMessage `json:"incompatibilities,omitempty"`
	Embedding         []float32       `json:"embedding,omitempty"`
}

type dependencyDTO struct {
	Type     string   `json:"type"`
	Versions []string `json:"versions"`
}

type incompatibilityDTO struct {
	Reason        string   `json:"reason"`
	Loaders       []string `json:"loaders"`
	ReportedCount int      `json:"reported_count"`
}

var errMissingID = errors.New("document has no source_id")

// decodeDocument parses a stored document. JSONPath reads return the document
// wrapped in an array ("[{...}]"); both forms are accepted.
func decodeDocument(raw []byte) (Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Document{}, errors.New("empty document")
	}
	if raw[0] == '[' {
		var docs []Document
		if err := json.Unmarshal(raw, &docs); err != nil {
			return Document{}, fmt.Errorf("decode document: %w", err)
		}
		if len(docs) == 0 {
			return Document{}, errors.New("empty document array")
		}
		return docs[0], nil
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// toMod validates a document and maps it into the domain model.
func toMod(doc *Document) (mod.Mod, error) {
	id := doc.SourceID
	if id == "" {
		id = doc.ID
	}
	if id == "" {
		return mod.Mod{}, errMissingID
	}

	deps, err := decodeDependencies(doc.Dependencies)
	if err != nil {
		return mod.Mod{}, fmt.Errorf("%s: dependencies: %w", id, err)
	}
	incompat, outdated, err := decodeIncompatibilities(doc.Incompatibilities)
	if err != nil {
		return mod.Mod{}, fmt.Errorf("%s: incompatibilities: %w", id, err)
	}

	m := mod.Mod{
		ID:                mod.ID(id),
		Slug:              doc.Slug,
		Name:              doc.Name,
		Summary:           doc.Summary,
		Description:       doc.Description,
		Capabilities:      doc.Capabilities,
		Tags:              doc.Tags,
		Categories:        doc.Categories,
		MCVersions:        doc.MCVersions,
		Downloads:         doc.Downloads,
		Dependencies:      deps,
		Incompatibilities: incompat,
		OutdatedReports:   outdated,
	}
	if len(doc.Loaders) > 0 {
		m.Loaders = make([]mod.Loader, 0, len(doc.Loaders))
		for _, l := range doc.Loaders {
			parsed, _ := mod.ParseLoader(l)
			if parsed != "" {
				m.Loaders = append(m.Loaders, parsed)
			}
		}
	}
	return m, nil
}

// unwrapJSON returns the object encoded in raw. Some rows carry the map as a
// JSON string instead of a nested object.
func unwrapJSON(raw json.RawMessage) ([]byte, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false, err
		}
		s = strings.TrimSpace(s)
		if s == "" || s == "null" {
			return nil, false, nil
		}
		return []byte(s), true, nil
	}
	return raw, true, nil
}

func decodeDependencies(raw json.RawMessage) (map[mod.ID]mod.DependencyEdge, error) {
	body, ok, err := unwrapJSON(raw)
	if err != nil || !ok {
		return nil, err
	}
	var dtos map[string]dependencyDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, err
	}
	out := make(map[mod.ID]mod.DependencyEdge, len(dtos))
	for id, d := range dtos {
		if id == "" {
			continue
		}
		out[mod.ID(id)] = mod.DependencyEdge{
			Type:     mod.ParseDependencyType(strings.ToLower(d.Type)),
			Versions: d.Versions,
		}
	}
	return out, nil
}

func decodeIncompatibilities(raw json.RawMessage) (map[mod.ID]mod.IncompatibilityEdge, int, error) {
	body, ok, err := unwrapJSON(raw)
	if err != nil || !ok {
		return nil, 0, err
	}
	var dtos map[string]incompatibilityDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, 0, err
	}
	outdated := 0
	out := make(map[mod.ID]mod.IncompatibilityEdge, len(dtos))
	for id, d := range dtos {
		if id == outdatedKey {
			outdated = d.ReportedCount
			continue
		}
		if id == "" {
			continue
		}
		e := mod.IncompatibilityEdge{Reason: d.Reason}
		for _, l := range d.Loaders {
			if parsed, ok := mod.ParseLoader(l); ok {
				e.Loaders = append(e.Loaders, parsed)
			}
		}
		// A loader-scoped edge whose loaders are all blank or unknown applies nowhere.
		if len(d.Loaders) > 0 && len(e.Loaders) == 0 {
			continue
		}
		out[mod.ID(id)] = e
	}
	return out, outdated, nil
}
