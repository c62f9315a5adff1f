package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ChunkError is one chunk whose encode failed.
type ChunkError struct {
	Part  int
	Index int
	Path  string
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("part %d chunk %d (%s): %v", e.Part, e.Index, e.Path, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// MergeError is a part whose chunks could not be merged. Its chunks are
// kept on disk.
type MergeError struct {
	Part int
	Path string
	Err  error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge part %d into %s: %v", e.Part, e.Path, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }

// ExportError collects every failure of one export. Parts whose chunks
// all succeeded are still merged and reported in the Result.
type ExportError struct {
	Failed []ChunkError
	Merges []MergeError
	Stack  error
}

func (e *ExportError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "export failed: %d chunk(s), %d merge(s)", len(e.Failed), len(e.Merges))
	if e.Stack != nil {
		b.WriteString(", hstack")
	}
	for _, c := range e.Failed {
		b.WriteString("; ")
		b.WriteString(c.Error())
	}
	for _, m := range e.Merges {
		b.WriteString("; ")
		b.WriteString(m.Error())
	}
	if e.Stack != nil {
		b.WriteString("; hstack: ")
		b.WriteString(e.Stack.Error())
	}
	return b.String()
}

func (e *ExportError) Unwrap() []error {
	var out []error
	for i := range e.Failed {
		out = append(out, &e.Failed[i])
	}
	for i := range e.Merges {
		out = append(out, &e.Merges[i])
	}
	if e.Stack != nil {
		out = append(out, e.Stack)
	}
	return out
}

func (e *ExportError) empty() bool {
	return len(e.Failed) == 0 && len(e.Merges) == 0 && e.Stack == nil
}

// ErrNothingToExport means the timeline has no frames.
var ErrNothingToExport = errors.New("nothing to export")
