package engine

// Chunk is one contiguous run of frames encoded into one file. Steps is
// its share of the timeline; the final chunk also carries the closing
// frame, so chunks together cover frames 0..total inclusive.
type Chunk struct {
	Index int
	Start int
	Steps int
	Final bool
}

// Frames is the number of frames the chunk actually encodes.
func (c Chunk) Frames() int {
	if c.Final {
		return c.Steps + 1
	}
	return c.Steps
}

// End is one past the last frame index of the chunk.
func (c Chunk) End() int { return c.Start + c.Frames() }

// Partition cuts [0,total) into chunks of at most batch steps.
func Partition(total, batch int) []Chunk {
	if batch < 1 {
		batch = 1
	}
	if total <= 0 {
		return []Chunk{{Index: 0, Start: 0, Steps: 0, Final: true}}
	}
	var out []Chunk
	for start := 0; start < total; start += batch {
		out = append(out, Chunk{
			Index: len(out),
			Start: start,
			Steps: min(batch, total-start),
		})
	}
	out[len(out)-1].Final = true
	return out
}
