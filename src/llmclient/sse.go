package llmclient

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/actionit/actionit/src/llm"
)

// doneSentinel is the literal end-of-stream marker sent after the last chunk.
const doneSentinel = "[DONE]"

// sseStream decodes newline-delimited event records into completion chunks.
// Partial lines spanning read boundaries are buffered by the underlying
// reader and only parsed once a full line is available; a trailing partial
// line is flushed and parsed at EOF.
type sseStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	logger *slog.Logger
	done   bool
}

var _ llm.Stream = (*sseStream)(nil)

func newSSEStream(body io.ReadCloser, reader *bufio.Reader, logger *slog.Logger) *sseStream {
	return &sseStream{
		body:   body,
		reader: reader,
		logger: logger.With("component", "sse_stream"),
	}
}

// Read returns the next decoded chunk, or io.EOF once the stream has ended.
// Malformed lines are logged and skipped; one corrupt delta must not lose
// the rest of the response.
func (s *sseStream) Read() (*llm.StreamChunk, error) {
	for {
		if s.done {
			return nil, io.EOF
		}

		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				s.done = true
				// Flush any buffered partial line before ending.
				if chunk := s.parseLine(line); chunk != nil {
					return chunk, nil
				}
				return nil, io.EOF
			}
			return nil, err
		}

		if chunk := s.parseLine(line); chunk != nil {
			return chunk, nil
		}
	}
}

// parseLine decodes a single event record, returning nil for blanks,
// non-data records, the end sentinel, and malformed payloads.
func (s *sseStream) parseLine(line string) *llm.StreamChunk {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if !strings.HasPrefix(line, "data:") {
		return nil
	}
	data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

	if data == doneSentinel {
		s.done = true
		return nil
	}

	var chunk llm.StreamChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		s.logger.Warn("skipping malformed stream line", "error", err)
		return nil
	}
	return &chunk
}

// Close closes the underlying response body. Buffered but unprocessed data
// is discarded.
func (s *sseStream) Close() error {
	s.done = true
	return s.body.Close()
}
