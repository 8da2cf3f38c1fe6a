package serializer

import (
	"bufio"
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-tipping-ensemble/pkg/ensemble"
	"github.com/askiada/go-tipping-ensemble/pkg/schema"
)

type sinkState int

const (
	stateOpen sinkState = iota
	stateClosed
	stateDone
)

// textSink writes one line per member to a temporary file.
type textSink struct {
	mu     sync.Mutex
	name   string
	size   int
	file   *atomicFile
	buf    *bufio.Writer
	order  *reorder
	format func(ensemble.Member) string
	state  sinkState
}

func newTextSink(name, path string, size int, header string, format func(ensemble.Member) string) (*textSink, error) {
	if size < 0 {
		return nil, ensemble.NewConfigurationError("new "+name+" sink", errors.Errorf("ensemble size %d is negative", size))
	}

	file, err := createAtomic(path)
	if err != nil {
		return nil, err
	}

	s := &textSink{
		name:   name,
		size:   size,
		file:   file,
		buf:    bufio.NewWriter(file.tmp),
		format: format,
	}
	s.order = newReorder(s.writeLine)

	if header != "" {
		_, err = s.buf.WriteString(header + "\n")
		if err != nil {
			_ = file.remove()

			return nil, newIOError("write", path, err)
		}
	}

	return s, nil
}

func (s *textSink) writeLine(_ context.Context, m ensemble.Member) error {
	_, err := s.buf.WriteString(s.format(m) + "\n")
	if err != nil {
		return newIOError("write", s.file.path, err)
	}

	return nil
}

func (s *textSink) Name() string {
	return s.name
}

func (s *textSink) Path() string {
	return s.file.path
}

func (s *textSink) Write(ctx context.Context, m ensemble.Member) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateOpen {
		return errors.Wrap(ErrClosed, s.name)
	}

	if m.Index < 0 || m.Index >= s.size {
		return errors.Wrapf(ensemble.ErrIndexOutOfRange, "%s: index %d, ensemble size %d", s.name, m.Index, s.size)
	}

	return s.order.push(ctx, m)
}

func (s *textSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateOpen {
		return errors.Wrap(ErrClosed, s.name)
	}

	err := s.order.done()
	if err != nil {
		return errors.Wrap(err, s.name)
	}

	if s.order.written() != s.size {
		return errors.Wrapf(ErrMissingMember, "%s: wrote %d of %d members", s.name, s.order.written(), s.size)
	}

	err = s.buf.Flush()
	if err != nil {
		return newIOError("write", s.file.path, err)
	}

	err = s.file.close()
	if err != nil {
		return err
	}

	s.state = stateClosed

	return nil
}

func (s *textSink) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateClosed {
		return errors.Wrapf(ErrClosed, "%s must be closed before commit", s.name)
	}

	err := s.file.rename()
	if err != nil {
		return err
	}

	s.state = stateDone

	return nil
}

func (s *textSink) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateDone {
		return nil
	}

	s.state = stateDone

	return s.file.remove()
}

// NewCommandSink writes the launch command of every member, one line each.
func NewCommandSink(name, path string, size int) (Sink, error) {
	s, err := newTextSink(name, path, size, "", func(m ensemble.Member) string {
		return m.Command
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// NewValuesSink writes a tab separated table: a header with run_id and the slot names of sch,
// then one row of values per member.
func NewValuesSink(path string, sch *schema.Schema, size int) (Sink, error) {
	if sch == nil {
		return nil, ensemble.NewConfigurationError("new values sink", errors.New("schema must be set"))
	}

	header := "run_id\t" + strings.Join(sch.Names(), "\t")

	s, err := newTextSink("values", path, size, header, func(m ensemble.Member) string {
		var b strings.Builder

		b.WriteString(m.RunID)

		for _, v := range m.Values {
			b.WriteByte('\t')
			b.WriteString(ensemble.FormatValue(v))
		}

		return b.String()
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}
