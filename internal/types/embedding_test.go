package types

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/pgvector/pgvector-go"
)

// A vector stored at dimension D must come back component-wise equal within
// float32 tolerance.
func TestEmbeddingComponentsSurviveRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		dim  int
	}{
		{"face", FaceEmbeddingDim},
		{"text", TextEmbeddingDim},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			components := make([]float32, tt.dim)
			for i := range components {
				components[i] = float32(math.Sin(float64(i)) / 3)
			}
			got := pgvector.NewVector(components).Slice()
			if len(got) != tt.dim {
				t.Fatalf("round trip changed dimension: got %d, want %d", len(got), tt.dim)
			}
			const tolerance = 1e-6
			for i := range components {
				if math.Abs(float64(got[i]-components[i])) > tolerance {
					t.Fatalf("component %d drifted: got %g, want %g", i, got[i], components[i])
				}
			}
		})
	}
}

// The column widths in the gorm tags are fixed at migration time and must
// agree with the dimension constants the validation layer enforces.
func TestVectorColumnWidthsMatchConstants(t *testing.T) {
	tests := []struct {
		entity any
		dim    int
	}{
		{CustomerFaceEmbedding{}, FaceEmbeddingDim},
		{CustomerMemory{}, TextEmbeddingDim},
	}
	for _, tt := range tests {
		entityType := reflect.TypeOf(tt.entity)
		t.Run(entityType.Name(), func(t *testing.T) {
			field, ok := entityType.FieldByName("Embedding")
			if !ok {
				t.Fatalf("%s has no Embedding field", entityType.Name())
			}
			want := fmt.Sprintf("type:vector(%d)", tt.dim)
			if tag := field.Tag.Get("gorm"); !strings.Contains(tag, want) {
				t.Fatalf("%s embedding column tag %q does not declare %s", entityType.Name(), tag, want)
			}
		})
	}
}
