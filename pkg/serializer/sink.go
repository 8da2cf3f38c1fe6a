package serializer

import (
	"context"

	"github.com/askiada/go-tipping-ensemble/pkg/ensemble"
)

// Sink receives every member of an ensemble.
//
// Write may be called with members in any order. Close checks the ensemble is complete and
// flushes the temporary output; Commit then moves it into place. Abort discards the output at
// any point before Commit.
type Sink interface {
	Name() string
	Path() string
	Write(ctx context.Context, m ensemble.Member) error
	Close() error
	Commit() error
	Abort() error
}

// Set commits several sinks together.
type Set []Sink

// Commit closes every sink, then moves every output into place. If a sink cannot be closed no
// output is moved.
func (s Set) Commit() error {
	for _, sink := range s {
		err := sink.Close()
		if err != nil {
			_ = s.Abort()

			return err
		}
	}

	for _, sink := range s {
		err := sink.Commit()
		if err != nil {
			_ = s.Abort()

			return err
		}
	}

	return nil
}

// Abort discards every output not yet committed and returns the first failure.
func (s Set) Abort() error {
	var first error

	for _, sink := range s {
		err := sink.Abort()
		if err != nil && first == nil {
			first = err
		}
	}

	return first
}

// Paths lists the destinations of the sinks.
func (s Set) Paths() []string {
	out := make([]string, 0, len(s))
	for _, sink := range s {
		out = append(out, sink.Path())
	}

	return out
}
