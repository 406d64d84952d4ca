package store

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"strings"
)

// pseudoEmbed derives a deterministic embeddingDims-wide vector from text by
// hashing each token into a bucket and accumulating a signed weight, then
// L2-normalizing. Real embedding generation is out of scope (spec.md §1);
// this exists so every row has a vector stored in vec_objects. Searches do
// not run a vec0 KNN query: vectorScores (bm25.go) reads the stored vectors
// back by rowid and computes cosine distance in Go.
func pseudoEmbed(text string) []float32 {
	vec := make([]float64, embeddingDims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()
		bucket := int(sum % uint32(embeddingDims))
		sign := 1.0
		if sum&1 == 0 {
			sign = -1.0
		}
		vec[bucket] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, embeddingDims)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

// serializeFloat32 encodes a vector into the little-endian float32 blob
// format vec0 columns expect.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 is serializeFloat32's inverse, used to read embeddings
// back out of vec_objects for scoring.
func deserializeFloat32(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}
