// Package chunker splits extracted document text into overlapping fixed-size windows.
package chunker

import (
	"fmt"

	"github.com/futig/rag-assistant/internal/entity"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Chunker holds a validated window configuration.
type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) (*Chunker, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split windows text using the configured size and overlap.
func (c *Chunker) Split(text string) []entity.TextChunk {
	return split([]rune(text), c.size, c.overlap)
}

// Chunk emits [offset, offset+size) windows advancing by size-overlap runes.
// Windows split mid-word; there is no sentence awareness.
func Chunk(text string, size, overlap int) ([]entity.TextChunk, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return split([]rune(text), size, overlap), nil
}

func validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", entity.ErrConfiguration, size)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", entity.ErrConfiguration, overlap)
	}
	if size <= overlap {
		return fmt.Errorf("%w: chunk size %d must exceed overlap %d", entity.ErrConfiguration, size, overlap)
	}
	return nil
}

func split(runes []rune, size, overlap int) []entity.TextChunk {
	total := len(runes)
	if total == 0 {
		return []entity.TextChunk{}
	}

	step := size - overlap
	chunks := make([]entity.TextChunk, 0, total/step+1)

	for offset, index := 0, 0; offset < total; offset, index = offset+step, index+1 {
		end := min(offset+size, total)
		chunks = append(chunks, entity.TextChunk{
			Index: index,
			Text:  string(runes[offset:end]),
		})
	}

	return chunks
}
