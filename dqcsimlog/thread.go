package dqcsimlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Record is one log message, as produced by the core or by a plugin
// relaying its own log output through the logger endpoint.
type Record struct {
	Level     Level
	Source    string
	Message   string
	Timestamp time.Time
}

// TeeFile additionally mirrors records at or above Filter to a file.
type TeeFile struct {
	Path   string
	Filter Level
}

// Thread is the async log sink described in spec.md §5: the host thread
// enqueues Records non-blockingly; one goroutine drains them and fans out
// to stderr (at StderrLevel) and any configured tee files.
type Thread struct {
	records     chan Record
	done        chan struct{}
	stderr      zerolog.Logger
	stderrLevel Level
	tees        []teeSink
}

type teeSink struct {
	logger zerolog.Logger
	file   *os.File
	filter Level
}

// Option configures a Thread at construction time.
type Option func(*Thread) error

// WithStderrLevel sets the verbosity written to stderr.
func WithStderrLevel(l Level) Option {
	return func(t *Thread) error {
		t.stderrLevel = l
		return nil
	}
}

// WithTeeFile additionally mirrors records at or above tee.Filter to a
// file, truncating it if it already exists.
func WithTeeFile(tee TeeFile) Option {
	return func(t *Thread) error {
		f, err := os.Create(tee.Path)
		if err != nil {
			return err
		}
		t.tees = append(t.tees, teeSink{
			logger: zerolog.New(f).With().Timestamp().Logger(),
			file:   f,
			filter: tee.Filter,
		})
		return nil
	}
}

// New starts a log thread. Call Close to drain pending records and stop the
// background goroutine.
func New(opts ...Option) (*Thread, error) {
	t := &Thread{
		records:     make(chan Record, 1024),
		done:        make(chan struct{}),
		stderr:      zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger(),
		stderrLevel: Info,
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	go t.run()
	return t, nil
}

// Log enqueues a record without blocking the caller. If the internal buffer
// is full the record is dropped rather than stalling the host thread — the
// sink is best-effort, matching spec.md §5's "writes non-blockingly".
func (t *Thread) Log(level Level, source, message string) {
	rec := Record{Level: level, Source: source, Message: message, Timestamp: time.Now()}
	select {
	case t.records <- rec:
	default:
	}
}

func (t *Thread) run() {
	defer close(t.done)
	for rec := range t.records {
		t.emit(t.stderr, t.stderrLevel, rec)
		for _, tee := range t.tees {
			t.emit(tee.logger, tee.filter, rec)
		}
	}
}

func (t *Thread) emit(logger zerolog.Logger, threshold Level, rec Record) {
	if !Enables(threshold, rec.Level) {
		return
	}
	logger.WithLevel(rec.Level.zerologLevel()).
		Str("source", rec.Source).
		Str("dqcsim_level", rec.Level.String()).
		Msg(rec.Message)
}

// Close stops accepting new records, drains what's queued, and closes any
// tee files. Calling Close again after it has returned is a no-op.
func (t *Thread) Close() error {
	select {
	case <-t.done:
		return nil
	default:
	}
	close(t.records)
	<-t.done
	var firstErr error
	for _, tee := range t.tees {
		if err := tee.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ io.Closer = (*Thread)(nil)
