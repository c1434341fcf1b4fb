package engine

import (
	"testing"
)

func TestPlanChunksPartition(t *testing.T) {
	cases := []struct {
		name        string
		totalSize   int64
		connections int
	}{
		{"even split", 1000, 4},
		{"remainder on last", 1003, 4},
		{"more common sizes", 10 * 1024 * 1024, 8},
		{"single byte per chunk", 16, 16},
		{"prime size", 7919, 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunks := planChunks(tc.totalSize, tc.connections)
			if len(chunks) != tc.connections {
				t.Fatalf("expected %d chunks, got %d", tc.connections, len(chunks))
			}
			if chunks[0].StartByte != 0 {
				t.Errorf("first chunk starts at %d, want 0", chunks[0].StartByte)
			}
			if last := chunks[len(chunks)-1]; last.EndByte != tc.totalSize-1 {
				t.Errorf("last chunk ends at %d, want %d", last.EndByte, tc.totalSize-1)
			}
			var covered int64
			for i, chunk := range chunks {
				if chunk.EndByte < chunk.StartByte {
					t.Errorf("chunk %d has inverted range [%d,%d]", i, chunk.StartByte, chunk.EndByte)
				}
				if i > 0 && chunk.StartByte != chunks[i-1].EndByte+1 {
					t.Errorf("gap before chunk %d: previous ends %d, this starts %d", i, chunks[i-1].EndByte, chunk.StartByte)
				}
				covered += chunk.EndByte - chunk.StartByte + 1
			}
			if covered != tc.totalSize {
				t.Errorf("chunks cover %d bytes, want %d", covered, tc.totalSize)
			}
		})
	}
}

func TestPlanChunksMillionByFour(t *testing.T) {
	chunks := planChunks(1000000, 4)
	want := []Chunk{
		{ID: 0, StartByte: 0, EndByte: 249999},
		{ID: 1, StartByte: 250000, EndByte: 499999},
		{ID: 2, StartByte: 500000, EndByte: 749999},
		{ID: 3, StartByte: 750000, EndByte: 999999},
	}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %+v, want %+v", i, chunks[i], want[i])
		}
	}
}

func TestPlanChunksDegenerate(t *testing.T) {
	if chunks := planChunks(0, 4); chunks != nil {
		t.Errorf("expected no chunks for zero size, got %v", chunks)
	}
	if chunks := planChunks(-5, 4); chunks != nil {
		t.Errorf("expected no chunks for negative size, got %v", chunks)
	}
	for _, connections := range []int{0, 1, -3} {
		chunks := planChunks(500, connections)
		if len(chunks) != 1 {
			t.Fatalf("connections=%d: expected a single chunk, got %d", connections, len(chunks))
		}
		if chunks[0].StartByte != 0 || chunks[0].EndByte != 499 {
			t.Errorf("connections=%d: single chunk is [%d,%d], want [0,499]", connections, chunks[0].StartByte, chunks[0].EndByte)
		}
	}
}
