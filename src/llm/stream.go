package llm

import (
	"errors"
	"io"
	"strings"
)

// Stream is a lazy, finite, non-restartable sequence of completion chunks.
// Read returns io.EOF after the terminating sentinel or the end of the
// underlying byte stream.
type Stream interface {
	// Read reads the next chunk from the stream.
	Read() (*StreamChunk, error)

	// Close closes the stream.
	Close() error
}

// StreamCallback is a function called for each chunk in a stream.
type StreamCallback func(chunk *StreamChunk) error

// StreamToCallback reads a stream and calls the callback for each chunk.
func StreamToCallback(stream Stream, callback StreamCallback) error {
	defer stream.Close()

	for {
		chunk, err := stream.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if chunk == nil {
			return nil
		}

		if err := callback(chunk); err != nil {
			return err
		}
	}
}

// CollectContent reads a stream to completion and returns the concatenated
// delta text.
func CollectContent(stream Stream) (string, error) {
	var content strings.Builder

	err := StreamToCallback(stream, func(chunk *StreamChunk) error {
		content.WriteString(chunk.DeltaContent())
		return nil
	})

	return content.String(), err
}

// StreamResult represents a result from a streaming operation.
type StreamResult struct {
	Chunk *StreamChunk
	Error error
}

// IsError returns true if this result contains an error.
func (r StreamResult) IsError() bool {
	return r.Error != nil
}

// StreamToChannel converts a Stream to a Go channel. The channel is closed
// when the stream ends; a terminal error is delivered as the final result.
func StreamToChannel(stream Stream) <-chan StreamResult {
	ch := make(chan StreamResult, 1)

	go func() {
		defer close(ch)
		defer stream.Close()

		for {
			chunk, err := stream.Read()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					ch <- StreamResult{Error: err}
				}
				return
			}

			if chunk == nil {
				return
			}

			ch <- StreamResult{Chunk: chunk}
		}
	}()

	return ch
}
