package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/TheVirusNVGM/modcurator/internal/db"
)

// CreateIndex runs FT.CREATE for def over JSON documents.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := createArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if serverErrContains(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// IndexExists probes the index with FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if serverErrContains(err, "unknown index name") || serverErrContains(err, "no such index") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

// createArgs encodes def as FT.CREATE arguments:
// <name> ON JSON [PREFIX 1 <prefix>] SCHEMA <path> AS <attr> <kind> ...
func createArgs(def *db.IndexDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	args := []string{def.Name, "ON", "JSON"}
	if def.Prefix != "" {
		args = append(args, "PREFIX", "1", def.Prefix)
	}
	args = append(args, "SCHEMA")
	for i := range def.Fields {
		fieldArgs, err := schemaArgs(&def.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}
	return args, nil
}

func schemaArgs(f *db.IndexField) ([]string, error) {
	args := []string{f.Path, "AS", f.Attr}
	switch f.Kind {
	case db.FieldText:
		return append(args, "TEXT"), nil
	case db.FieldNumeric:
		return append(args, "NUMERIC"), nil
	case db.FieldVector:
		return append(args, hnswArgs(f.HNSW)...), nil
	default:
		return nil, errors.New("unknown field kind " + strconv.Itoa(int(f.Kind)))
	}
}

func hnswArgs(p db.HNSW) []string {
	distance := p.Distance
	if distance == "" {
		distance = db.DistanceCosine
	}
	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(p.Dim),
		"DISTANCE_METRIC", string(distance),
	}
	if p.M > 0 {
		attrs = append(attrs, "M", strconv.Itoa(p.M))
	}
	if p.EFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(p.EFConstruct))
	}
	return append([]string{"VECTOR", "HNSW", strconv.Itoa(len(attrs))}, attrs...)
}
