package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

type entry struct {
	data  []byte
	alert bool
}

// sink writes log lines from a single goroutine. Every line goes to the main
// outputs; warnings and errors are copied to the alert outputs as well.
type sink struct {
	entries chan entry
	flushes chan chan error
	done    chan struct{}
	once    sync.Once

	main   []*bufio.Writer
	alerts []*bufio.Writer

	mu  sync.Mutex
	err error
}

func newSink(main, alerts []io.Writer, bufSize int) *sink {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	wrap := func(ws []io.Writer) []*bufio.Writer {
		out := make([]*bufio.Writer, 0, len(ws))
		for _, w := range ws {
			if w != nil {
				out = append(out, bufio.NewWriterSize(w, bufSize))
			}
		}
		return out
	}
	s := &sink{
		entries: make(chan entry, 256),
		flushes: make(chan chan error),
		done:    make(chan struct{}),
		main:    wrap(main),
		alerts:  wrap(alerts),
	}
	go s.loop()
	return s
}

func (s *sink) loop() {
	defer close(s.done)
	for {
		select {
		case e, ok := <-s.entries:
			if !ok {
				s.setErr(s.flush())
				return
			}
			s.setErr(s.write(e))
		case ack := <-s.flushes:
			ack <- s.flush()
		}
	}
}

// Write queues a copy of p. It blocks when the queue is full rather than drop lines.
func (s *sink) Write(p []byte, alert bool) error {
	if err := s.Err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	s.entries <- entry{data: append([]byte(nil), p...), alert: alert}
	return nil
}

// Flush waits until every queued line reached the outputs.
func (s *sink) Flush() error {
	ack := make(chan error, 1)
	select {
	case s.flushes <- ack:
		return <-ack
	case <-s.done:
		return s.Err()
	}
}

// Close drains the queue and returns the first write error.
func (s *sink) Close() error {
	s.once.Do(func() { close(s.entries) })
	<-s.done
	return s.Err()
}

// Err returns the first write error seen so far.
func (s *sink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *sink) setErr(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *sink) write(e entry) error {
	targets := s.main
	if e.alert {
		targets = append(append([]*bufio.Writer(nil), s.main...), s.alerts...)
	}
	for _, w := range targets {
		if _, err := w.Write(e.data); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (s *sink) flush() error {
	var errs []error
	for _, w := range append(append([]*bufio.Writer(nil), s.main...), s.alerts...) {
		if err := w.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
