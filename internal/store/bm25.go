package store

import (
	"fmt"
	"math"
	"strings"

	"github.com/coregx/ahocorasick"
	"github.com/orsinium-labs/stopwords"
)

var enStopwords = stopwords.MustGet("en")

// queryTerms lowercases and splits query into its stopword-free terms, the
// pattern set for the Aho-Corasick automaton built below. Grounded on the
// teacher's pkg/implicit-matcher (AC pattern compilation) and
// pkg/scanner/discovery (stopwords.MustGet("en")) — repurposed here from
// entity-alias matching to keyword relevance scoring.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	seen := map[string]bool{}
	for _, f := range fields {
		if enStopwords.Contains(f) || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

// keywordScores returns, for every candidate, a term-frequency score over
// query's non-stopword terms, normalized by document length (a BM25-style
// length penalty without the full BM25 idf term, since the corpus-wide
// document frequency a real idf needs isn't available without a second
// pass). Score is 0 when query is empty.
func keywordScores(query string, candidates []candidate) map[int64]float64 {
	scores := make(map[int64]float64, len(candidates))
	terms := queryTerms(query)
	if len(terms) == 0 {
		return scores
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(terms).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return scores
	}

	const k1 = 1.2
	const b = 0.75
	avgLen := averageLen(candidates)

	for _, cand := range candidates {
		haystack := []byte(strings.ToLower(cand.content))
		hits := automaton.FindAllOverlapping(haystack)
		if len(hits) == 0 {
			continue
		}
		docLen := float64(len(strings.Fields(cand.content)))
		if docLen == 0 {
			docLen = 1
		}
		tf := float64(len(hits))
		scores[cand.rowID] = tf * (k1 + 1) / (tf + k1*(1-b+b*docLen/avgLen))
	}
	return scores
}

func averageLen(candidates []candidate) float64 {
	if len(candidates) == 0 {
		return 1
	}
	total := 0
	for _, c := range candidates {
		total += len(strings.Fields(c.content))
	}
	avg := float64(total) / float64(len(candidates))
	if avg == 0 {
		return 1
	}
	return avg
}

// vectorScores loads the placeholder embedding (embed.go) for every
// candidate from vec_objects and returns the cosine distance to query's
// embedding (0 = identical direction, 2 = opposite) — the Distance
// convention pkg/collection documents for nearText/nearVector results.
func (c *Coll) vectorScores(query string, candidates []candidate) (map[int64]float64, error) {
	scores := make(map[int64]float64, len(candidates))
	if len(candidates) == 0 {
		return scores, nil
	}
	queryVec := pseudoEmbed(query)

	placeholders := make([]string, len(candidates))
	args := make([]any, len(candidates))
	for i, cand := range candidates {
		placeholders[i] = "?"
		args[i] = cand.rowID
	}
	rows, err := c.db.db.Query(fmt.Sprintf(
		`SELECT rowid, embedding FROM vec_objects WHERE rowid IN (%s)`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, fmt.Errorf("store: load embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rowID int64
		var blob []byte
		if err := rows.Scan(&rowID, &blob); err != nil {
			return nil, fmt.Errorf("store: scan embedding: %w", err)
		}
		scores[rowID] = cosineDistance(queryVec, deserializeFloat32(blob))
	}
	return scores, rows.Err()
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return 1 - sim
}
