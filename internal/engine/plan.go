package engine

// Chunk is one contiguous byte range of the resource, assigned to a
// single worker. Ranges are inclusive on both ends.
type Chunk struct {
	ID        int
	StartByte int64
	EndByte   int64
}

// planChunks partitions [0, totalSize) into connections ranges. Ranges
// are contiguous and gapless; the last chunk absorbs the remainder of
// the integer division. Degenerate inputs yield a single chunk.
func planChunks(totalSize int64, connections int) []Chunk {
	if totalSize <= 0 {
		return nil
	}
	if connections <= 1 {
		return []Chunk{{ID: 0, StartByte: 0, EndByte: totalSize - 1}}
	}
	chunkSize := totalSize / int64(connections)
	chunks := make([]Chunk, 0, connections)
	var currentPosition int64 = 0
	for i := range connections {
		startByte := currentPosition
		endByte := startByte + chunkSize - 1
		if i == connections-1 {
			endByte = totalSize - 1
		}
		if endByte >= totalSize {
			endByte = totalSize - 1
		}
		if endByte >= startByte {
			chunks = append(chunks, Chunk{
				ID:        i,
				StartByte: startByte,
				EndByte:   endByte,
			})
		}
		currentPosition = endByte + 1
	}
	return chunks
}
