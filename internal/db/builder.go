package db

import (
	"strconv"
	"strings"
)

// IndexBuilder is a fluent builder for catalog index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an index definition named name.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix sets the key prefix of the indexed documents.
func (b *IndexBuilder) Prefix(prefix string) *IndexBuilder {
	b.def.Prefix = prefix
	return b
}

// Text adds a full-text attribute.
func (b *IndexBuilder) Text(path, attr string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Path: path, Attr: attr, Kind: FieldText})
	return b
}

// Numeric adds a numeric attribute.
func (b *IndexBuilder) Numeric(path, attr string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Path: path, Attr: attr, Kind: FieldNumeric})
	return b
}

// Vector adds an HNSW vector attribute.
func (b *IndexBuilder) Vector(path, attr string, params HNSW) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Path: path, Attr: attr, Kind: FieldVector, HNSW: params})
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// String renders the definition as a short schema summary for logs,
// e.g. "mods:idx[mods:] name:text downloads:numeric vector:vector(384,COSINE)".
func (idx *IndexDefinition) String() string {
	var sb strings.Builder
	sb.WriteString(idx.Name)
	if idx.Prefix != "" {
		sb.WriteString("[" + idx.Prefix + "]")
	}
	for _, f := range idx.Fields {
		sb.WriteString(" " + f.Attr + ":")
		switch f.Kind {
		case FieldText:
			sb.WriteString("text")
		case FieldNumeric:
			sb.WriteString("numeric")
		case FieldVector:
			sb.WriteString("vector(" + strconv.Itoa(f.HNSW.Dim) + "," + string(f.HNSW.Distance) + ")")
		}
	}
	return sb.String()
}
