package assembler

import (
	"testing"

	"docrag/internal/domain"
)

var chunks = []domain.Chunk{
	{ID: 0, Text: "zero", WordCount: 1},
	{ID: 1, Text: "one", WordCount: 1},
	{ID: 2, Text: "two", WordCount: 1},
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name string
		hits []domain.Hit
		max  int
		want string
	}{
		{
			name: "rank order not document order",
			hits: []domain.Hit{{ChunkID: 2, Distance: 0.1}, {ChunkID: 0, Distance: 0.5}},
			max:  2,
			want: "two zero",
		},
		{
			name: "truncates to max",
			hits: []domain.Hit{{ChunkID: 1}, {ChunkID: 2}, {ChunkID: 0}},
			max:  2,
			want: "one two",
		},
		{
			name: "max above hits",
			hits: []domain.Hit{{ChunkID: 1}},
			max:  3,
			want: "one",
		},
		{name: "empty result", hits: nil, max: 3, want: ""},
		{name: "zero max", hits: []domain.Hit{{ChunkID: 1}}, max: 0, want: ""},
		{
			name: "out of range id beyond max is ignored",
			hits: []domain.Hit{{ChunkID: 0}, {ChunkID: 9}},
			max:  1,
			want: "zero",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assemble(tt.hits, chunks, tt.max)
			if err != nil {
				t.Fatalf("Assemble failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Assemble = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAssembleRejectsForeignIDs(t *testing.T) {
	for _, id := range []int{-1, 3, 9} {
		got, err := Assemble([]domain.Hit{{ChunkID: 0}, {ChunkID: id}}, chunks, 2)
		if err == nil || got != "" {
			t.Errorf("Assemble with id %d = %q, %v; want error", id, got, err)
		}
	}
}
