package db

import (
	"errors"
	"fmt"
)

// DistanceMetric is the similarity used by the catalog vector attribute.
type DistanceMetric string

const (
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "COSINE"
)

// FieldKind enumerates the attribute kinds a catalog index can carry.
type FieldKind int

const (
	// FieldText is a full-text attribute.
	FieldText FieldKind = iota
	// FieldNumeric is a sortable numeric attribute.
	FieldNumeric
	// FieldVector is an HNSW vector attribute.
	FieldVector
)

// HNSW holds the vector graph parameters. Zero M or EFConstruct keeps the
// server default.
type HNSW struct {
	Dim         int
	Distance    DistanceMetric
	M           int
	EFConstruct int
}

// IndexField maps a JSONPath of the stored document to a queryable attribute.
type IndexField struct {
	Path string // e.g. "$.summary"
	Attr string // referenced as @attr in queries
	Kind FieldKind
	HNSW HNSW // FieldVector only
}

// IndexDefinition describes the search index over one collection of JSON
// documents sharing Prefix.
type IndexDefinition struct {
	Name   string
	Prefix string
	Fields []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	attrs := make(map[string]struct{}, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Path == "" || f.Attr == "" {
			return fmt.Errorf("field %d: path and attribute are required", i)
		}
		if _, dup := attrs[f.Attr]; dup {
			return fmt.Errorf("duplicate attribute: %s", f.Attr)
		}
		attrs[f.Attr] = struct{}{}

		if f.Kind == FieldVector && f.HNSW.Dim <= 0 {
			return fmt.Errorf("vector attribute %s requires a positive dimension", f.Attr)
		}
	}
	return nil
}

// Vector returns the vector attribute of the index, if any.
func (idx *IndexDefinition) Vector() (IndexField, bool) {
	for _, f := range idx.Fields {
		if f.Kind == FieldVector {
			return f, true
		}
	}
	return IndexField{}, false
}

// IsValidIdentifier reports whether s matches [a-zA-Z0-9_:-]+.
// Collection names, key prefixes and attribute names must satisfy it.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == ':' || r == '-':
		default:
			return false
		}
	}
	return true
}
