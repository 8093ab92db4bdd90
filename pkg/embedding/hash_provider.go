package embedding

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashProvider is a deterministic stand-in for a semantic embedding model.
// It hashes word unigrams and bigrams into a fixed-width bag-of-words
// vector and L2-normalizes the result, so identical text always maps to
// the identical unit vector. Texts sharing vocabulary land close together,
// which is enough signal for deduplication and neighbor voting.
type HashProvider struct{}

func NewHashProvider() *HashProvider {
	return &HashProvider{}
}

// Generate returns a unit vector for non-empty text and the zero vector
// for text with no tokens. It never fails.
func (p *HashProvider) Generate(text string) ([]float32, error) {
	vec := make([]float32, Dimensions)

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return vec, nil
	}

	for i, tok := range tokens {
		vec[bucket(tok)] += 1.0
		if i+1 < len(tokens) {
			// Bigrams keep word order relevant, at half weight.
			vec[bucket(tok+" "+tokens[i+1])] += 0.5
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec, nil
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func bucket(token string) int {
	h := fnv.New32a()
	h.Write([]byte(token))
	return int(h.Sum32() % uint32(Dimensions))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
