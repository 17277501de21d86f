package workers

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// DefaultChunkSize is used when a caller passes a non-positive chunk size.
const DefaultChunkSize = 64 * 1024

// ImageChunk holds a piece of an encoded image while it is passed around
// internally. The last chunk of an image has Completed set and no data.
type ImageChunk struct {
	Data      []byte
	Completed bool
}

// Creates a new ImageChunk
func NewImageChunk(d []byte, completed bool) ImageChunk {
	return ImageChunk{
		Data:      d,
		Completed: completed,
	}
}

// PipeResult reads r in chunkSize pieces and sends each one on c, followed by
// a Completed chunk. It stops early when ctx is done.
func PipeResult(ctx context.Context, r io.Reader, chunkSize int, c chan<- ImageChunk) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	reader := bufio.NewReaderSize(r, chunkSize)

	for {
		chunk := make([]byte, chunkSize)
		n, err := io.ReadFull(reader, chunk)
		if n > 0 {
			select {
			case c <- NewImageChunk(chunk[:n], false):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading chunk: %w", err)
		}
	}

	select {
	case c <- NewImageChunk(nil, true):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
