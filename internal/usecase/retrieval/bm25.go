package retrieval

import (
	"math"
	"strings"

	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
)

// BM25 defaults.
const (
	DefaultK1               = 1.5
	DefaultB                = 0.75
	DefaultDescriptionLimit = 500

	// normalizationPerTerm divides the raw score per query term before clamping.
	normalizationPerTerm = 5.0
	// ExactMatchBoost multiplies the score of a keyword hit whose slug or name equals a term.
	ExactMatchBoost = 10.0
)

// BM25 scores a batch of documents against query terms. Statistics
// (document count, average length, document frequency) are local to the batch.
type BM25 struct {
	K1 float64
	B  float64
	// DescriptionLimit truncates the description (in runes) before scoring; <= 0 keeps it whole.
	DescriptionLimit int
}

// Score returns one normalized score in [0, 1] per document, aligned with docs.
// Terms are expected lower-cased.
func (s BM25) Score(docs []mod.Mod, terms []string) []float64 {
	scores := make([]float64, len(docs))
	if len(docs) == 0 || len(terms) == 0 {
		return scores
	}

	texts := make([]string, len(docs))
	lengths := make([]int, len(docs))
	total := 0
	for i := range docs {
		texts[i] = s.documentText(&docs[i])
		lengths[i] = len(strings.Fields(texts[i]))
		total += lengths[i]
	}
	avgdl := float64(total) / float64(len(docs))
	if avgdl == 0 {
		avgdl = 1
	}

	idf := make([]float64, len(terms))
	for j, term := range terms {
		df := 0
		for _, text := range texts {
			if strings.Contains(text, term) {
				df++
			}
		}
		idf[j] = IDF(len(docs), df)
	}

	norm := float64(len(terms)) * normalizationPerTerm
	for i, text := range texts {
		var raw float64
		for j, term := range terms {
			if term == "" {
				continue
			}
			tf := strings.Count(text, term)
			if tf == 0 {
				continue
			}
			raw += idf[j] * s.saturation(float64(tf), float64(lengths[i]), avgdl)
		}
		scores[i] = clamp01(raw / norm)
	}
	return scores
}

// IDF is ln((N - df + 0.5) / (df + 0.5) + 1); a term no document contains scores 0.
func IDF(n, df int) float64 {
	if df <= 0 {
		return 0
	}
	return math.Log((float64(n-df)+0.5)/(float64(df)+0.5) + 1)
}

// saturation is the per-term BM25 component without IDF.
func (s BM25) saturation(tf, docLen, avgdl float64) float64 {
	return tf * (s.K1 + 1) / (tf + s.K1*(1-s.B+s.B*(docLen/avgdl)))
}

// documentText encodes field weights by repetition: name x3, summary x2,
// tags x2, truncated description x1.
func (s BM25) documentText(m *mod.Mod) string {
	tags := strings.Join(m.Tags, " ")
	desc := truncateRunes(m.Description, s.DescriptionLimit)

	var b strings.Builder
	for _, part := range []string{m.Name, m.Name, m.Name, m.Summary, m.Summary, tags, tags, desc} {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(part)
	}
	return strings.ToLower(b.String())
}

// exactMatch reports whether any term equals the slug or name, case-insensitively.
func exactMatch(m *mod.Mod, terms []string) bool {
	slug := strings.ToLower(m.Slug)
	name := strings.ToLower(m.Name)
	for _, t := range terms {
		if t == "" {
			continue
		}
		if t == slug || t == name {
			return true
		}
	}
	return false
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
