// Package embedding produces and compares case embeddings.
package embedding

import (
	"context"
	"math"
	"strings"

	"github.com/daniel/expert-match/internal/types"
)

// Embedder turns text into vectors. EmbedBatch returns vectors in
// input order with one-to-one correspondence; empty input returns an
// empty result without a backend call.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// CaseText builds a deterministic embedding input from the case's
// structured fields. Never returns an empty string.
func CaseText(c types.Case) string {
	var b strings.Builder
	write := func(label, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString(". ")
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
	}

	write("Chief complaint", c.ChiefComplaint)
	write("Symptoms", c.Symptoms)
	write("Diagnosis", c.CurrentDiagnosis)
	write("ICD-10 codes", strings.Join(c.ICD10Codes, ", "))
	write("Required specialty", c.RequiredSpecialty)

	if b.Len() == 0 {
		return "Medical case " + c.ID
	}
	return b.String()
}

// Similarity returns the average cosine similarity between the case
// vector and the candidate vectors that are present, mapped into
// [0,1]. Candidates without a vector are excluded from the average;
// ok is false when no candidate has one, so the aggregator can
// re-weight instead of treating absence as zero.
func Similarity(caseVec []float32, candidateVecs [][]float32) (float64, bool) {
	if len(caseVec) == 0 {
		return 0, false
	}

	var sum float64
	var n int
	for _, v := range candidateVecs {
		if len(v) != len(caseVec) {
			continue
		}
		sum += cosine(caseVec, v)
		n++
	}
	if n == 0 {
		return 0, false
	}

	// Cosine lands in [-1,1]; shift into [0,1].
	score := (sum/float64(n) + 1) / 2
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, true
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
