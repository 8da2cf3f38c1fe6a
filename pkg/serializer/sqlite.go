package serializer

import (
	"context"
	"database/sql"
	"os"
	"sync"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/askiada/go-tipping-ensemble/pkg/ensemble"
	"github.com/askiada/go-tipping-ensemble/pkg/schema"
)

const sqliteSchema = `
CREATE TABLE slots (
	position    INTEGER PRIMARY KEY,
	name        TEXT    NOT NULL UNIQUE,
	role        TEXT    NOT NULL,
	lower       REAL    NOT NULL,
	upper       REAL    NOT NULL,
	sampled     INTEGER NOT NULL,
	sample_dim  INTEGER,
	fixed_value REAL
);
CREATE TABLE members (
	idx     INTEGER PRIMARY KEY,
	run_id  TEXT NOT NULL UNIQUE,
	command TEXT NOT NULL
);
CREATE TABLE member_values (
	member_idx INTEGER NOT NULL REFERENCES members(idx),
	position   INTEGER NOT NULL REFERENCES slots(position),
	value      REAL    NOT NULL,
	PRIMARY KEY (member_idx, position)
);`

// SQLiteSink stores the schema and every member in an SQLite database.
type SQLiteSink struct {
	mu           sync.Mutex
	size         int
	file         *atomicFile
	db           *sql.DB
	tx           *sql.Tx
	insertMember *sql.Stmt
	insertValue  *sql.Stmt
	order        *reorder
	state        sinkState
}

// NewSQLiteSink creates the database in a temporary file next to path and stores the slots of
// sch. Members are inserted in one transaction committed by Close.
func NewSQLiteSink(ctx context.Context, path string, sch *schema.Schema, size int) (*SQLiteSink, error) {
	if sch == nil {
		return nil, ensemble.NewConfigurationError("new sqlite sink", errors.New("schema must be set"))
	}

	if size < 0 {
		return nil, ensemble.NewConfigurationError("new sqlite sink", errors.Errorf("ensemble size %d is negative", size))
	}

	file, err := createAtomic(path)
	if err != nil {
		return nil, err
	}

	// the driver opens the file by name
	_ = file.tmp.Close()

	s := &SQLiteSink{
		size: size,
		file: file,
	}
	s.order = newReorder(s.insert)

	err = s.open(ctx, sch)
	if err != nil {
		_ = s.Abort()

		return nil, err
	}

	return s, nil
}

func (s *SQLiteSink) open(ctx context.Context, sch *schema.Schema) error {
	db, err := sql.Open("sqlite", s.file.tmpName())
	if err != nil {
		return newIOError("open sqlite", s.file.path, err)
	}

	db.SetMaxOpenConns(1)
	s.db = db

	_, err = db.ExecContext(ctx, sqliteSchema)
	if err != nil {
		return newIOError("create tables", s.file.path, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return newIOError("begin", s.file.path, err)
	}

	s.tx = tx

	for pos, slot := range sch.Slots() {
		var dim any
		if slot.Sampled {
			dim = slot.SampleDim
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO slots(position, name, role, lower, upper, sampled, sample_dim, fixed_value) VALUES(?,?,?,?,?,?,?,?)`,
			pos, slot.Name, string(slot.Role), slot.Range.Lower, slot.Range.Upper, slot.Sampled, dim, slot.FixedValue,
		)
		if err != nil {
			return newIOError("insert slot "+slot.Name, s.file.path, err)
		}
	}

	s.insertMember, err = tx.PrepareContext(ctx, `INSERT INTO members(idx, run_id, command) VALUES(?,?,?)`)
	if err != nil {
		return newIOError("prepare", s.file.path, err)
	}

	s.insertValue, err = tx.PrepareContext(ctx, `INSERT INTO member_values(member_idx, position, value) VALUES(?,?,?)`)
	if err != nil {
		return newIOError("prepare", s.file.path, err)
	}

	return nil
}

func (s *SQLiteSink) insert(ctx context.Context, m ensemble.Member) error {
	_, err := s.insertMember.ExecContext(ctx, m.Index, m.RunID, m.Command)
	if err != nil {
		return newIOError("insert member "+m.RunID, s.file.path, err)
	}

	for pos, v := range m.Values {
		_, err = s.insertValue.ExecContext(ctx, m.Index, pos, v)
		if err != nil {
			return newIOError("insert value "+m.RunID, s.file.path, err)
		}
	}

	return nil
}

func (s *SQLiteSink) Name() string {
	return "sqlite"
}

func (s *SQLiteSink) Path() string {
	return s.file.path
}

func (s *SQLiteSink) Write(ctx context.Context, m ensemble.Member) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateOpen {
		return errors.Wrap(ErrClosed, "sqlite")
	}

	if m.Index < 0 || m.Index >= s.size {
		return errors.Wrapf(ensemble.ErrIndexOutOfRange, "sqlite: index %d, ensemble size %d", m.Index, s.size)
	}

	return s.order.push(ctx, m)
}

// Close commits the transaction and closes the database.
func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateOpen {
		return errors.Wrap(ErrClosed, "sqlite")
	}

	err := s.order.done()
	if err != nil {
		return errors.Wrap(err, "sqlite")
	}

	if s.order.written() != s.size {
		return errors.Wrapf(ErrMissingMember, "sqlite: wrote %d of %d members", s.order.written(), s.size)
	}

	s.closeStatements()

	err = s.tx.Commit()
	s.tx = nil

	if err != nil {
		return newIOError("commit", s.file.path, err)
	}

	err = s.db.Close()
	s.db = nil

	if err != nil {
		return newIOError("close sqlite", s.file.path, err)
	}

	err = os.Chmod(s.file.tmpName(), filePerm)
	if err != nil {
		return newIOError("chmod", s.file.path, err)
	}

	s.state = stateClosed

	return nil
}

func (s *SQLiteSink) closeStatements() {
	for _, stmt := range []*sql.Stmt{s.insertMember, s.insertValue} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}

	s.insertMember = nil
	s.insertValue = nil
}

func (s *SQLiteSink) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateClosed {
		return errors.Wrap(ErrClosed, "sqlite must be closed before commit")
	}

	err := s.file.rename()
	if err != nil {
		return err
	}

	s.state = stateDone

	return nil
}

// Abort rolls back and removes the temporary database.
func (s *SQLiteSink) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateDone {
		return nil
	}

	s.state = stateDone
	s.closeStatements()

	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}

	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}

	err := os.Remove(s.file.tmpName() + "-journal")
	if err != nil && !os.IsNotExist(err) {
		return newIOError("remove", s.file.tmpName()+"-journal", err)
	}

	return s.file.remove()
}
