package gremlin

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
)

// Stream delivers the result items of one request as they arrive.
// Partial responses are pushed as soon as they are decoded, so callers can
// start consuming before the server finishes.
type Stream struct {
	id      uuid.UUID
	release func()

	mu     sync.Mutex
	queue  []any
	meta   map[string]any
	err    error
	done   bool
	closed bool
	notify chan struct{}
}

func newStream(id uuid.UUID, release func()) *Stream {
	return &Stream{
		id:      id,
		release: release,
		notify:  make(chan struct{}, 1),
	}
}

// RequestID returns the id of the request this stream answers.
func (s *Stream) RequestID() uuid.UUID { return s.id }

// Meta returns the metadata of the last response received.
func (s *Stream) Meta() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.meta
}

func (s *Stream) push(items []any, meta map[string]any) {
	s.mu.Lock()
	if !s.done && !s.closed {
		s.queue = append(s.queue, items...)
		if meta != nil {
			s.meta = meta
		}
	}
	s.mu.Unlock()

	s.signal()
}

// finish marks the stream complete. A nil err means the request succeeded.
func (s *Stream) finish(err error) {
	s.mu.Lock()
	if !s.done {
		s.done = true
		s.err = err
	}
	s.mu.Unlock()

	s.signal()
}

func (s *Stream) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next returns the next item. It returns io.EOF once every item has been
// read and the request succeeded, or the request's error if it failed.
// Cancelling ctx closes the stream.
func (s *Stream) Next(ctx context.Context) (any, error) {
	for {
		s.mu.Lock()

		switch {
		case s.closed:
			s.mu.Unlock()

			return nil, ErrStreamClosed
		case len(s.queue) > 0:
			item := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.mu.Unlock()

			return item, nil
		case s.done:
			err := s.err
			s.mu.Unlock()

			if err == nil {
				return nil, io.EOF
			}

			return nil, err
		}

		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-ctx.Done():
			_ = s.Close()

			return nil, ctx.Err()
		}
	}
}

// All drains the stream.
func (s *Stream) All(ctx context.Context) ([]any, error) {
	defer s.Close()

	var items []any

	for {
		item, err := s.Next(ctx)
		if err == io.EOF { //nolint:errorlint
			return items, nil
		}

		if err != nil {
			return items, err
		}

		items = append(items, item)
	}
}

// Close abandons the stream. Responses that arrive later are discarded.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return nil
	}

	s.closed = true
	s.queue = nil
	s.mu.Unlock()

	if s.release != nil {
		s.release()
	}

	s.signal()

	return nil
}
