package serializer_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-tipping-ensemble/pkg/ensemble"
	"github.com/askiada/go-tipping-ensemble/pkg/schema"
	"github.com/askiada/go-tipping-ensemble/pkg/serializer"
)

func members(t *testing.T, sch *schema.Schema, n int) []ensemble.Member {
	t.Helper()

	asm, err := ensemble.NewAssembler(sch, sch.Dims(), n)
	require.NoError(t, err)

	out := make([]ensemble.Member, 0, n)

	for i := range n {
		coords := make([]float64, sch.Dims())
		for d := range coords {
			coords[d] = float64(i) / float64(n)
		}

		m, err := asm.Member(ensemble.SamplePoint{Index: i, Coords: coords})
		require.NoError(t, err)

		out = append(out, m)
	}

	return out
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}

	return names
}

func TestCommandSinkWritesInIndexOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "lhs_no-nino_3.txt")
	ms := members(t, schema.Reference(), 3)

	sink, err := serializer.NewCommandSink("commands", path, 3)
	require.NoError(t, err)
	assert.Equal(t, path, sink.Path())

	for _, idx := range []int{2, 0, 1} {
		require.NoError(t, sink.Write(t.Context(), ms[idx]))
	}

	// nothing visible before commit
	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Commit())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 3)

	for i, line := range lines {
		assert.Equal(t, ms[i].Command, line)
	}

	assert.Equal(t, []string{"lhs_no-nino_3.txt"}, listDir(t, dir))
}

func TestCommandSinkOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, serializer.LegacyCommandFile)
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o600))

	ms := members(t, schema.Reference(), 1)

	sink, err := serializer.NewCommandSink("legacy", path, 1)
	require.NoError(t, err)
	require.NoError(t, sink.Write(t.Context(), ms[0]))
	require.NoError(t, serializer.Set{sink}.Commit())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ms[0].Command+"\n", string(data))
}

func TestSinkIncompleteEnsemble(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	ms := members(t, schema.Reference(), 3)

	sink, err := serializer.NewCommandSink("commands", path, 3)
	require.NoError(t, err)

	require.NoError(t, sink.Write(t.Context(), ms[0]))
	require.NoError(t, sink.Write(t.Context(), ms[2]))

	err = serializer.Set{sink}.Commit()
	require.ErrorIs(t, err, serializer.ErrMissingMember)

	assert.Empty(t, listDir(t, dir))
}

func TestSinkRejectsBadMembers(t *testing.T) {
	t.Parallel()

	ms := members(t, schema.Reference(), 2)

	sink, err := serializer.NewCommandSink("commands", filepath.Join(t.TempDir(), "out.txt"), 1)
	require.NoError(t, err)

	t.Cleanup(func() { _ = sink.Abort() })

	require.ErrorIs(t, sink.Write(t.Context(), ms[1]), ensemble.ErrIndexOutOfRange)
	require.NoError(t, sink.Write(t.Context(), ms[0]))
	require.ErrorIs(t, sink.Write(t.Context(), ms[0]), serializer.ErrDuplicate)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.ErrorIs(t, sink.Write(ctx, ms[0]), context.Canceled)

	require.ErrorIs(t, sink.Commit(), serializer.ErrClosed)
}

func TestSetAbortLeavesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sch := schema.Reference()
	ms := members(t, sch, 4)

	commands, err := serializer.NewCommandSink("commands", filepath.Join(dir, "a.txt"), 4)
	require.NoError(t, err)

	values, err := serializer.NewValuesSink(filepath.Join(dir, "values.tsv"), sch, 4)
	require.NoError(t, err)

	db, err := serializer.NewSQLiteSink(t.Context(), filepath.Join(dir, "ensemble.db"), sch, 4)
	require.NoError(t, err)

	set := serializer.Set{commands, values, db}
	assert.Equal(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "values.tsv"),
		filepath.Join(dir, "ensemble.db"),
	}, set.Paths())

	for _, sink := range set {
		require.NoError(t, sink.Write(t.Context(), ms[1]))
	}

	require.NoError(t, set.Abort())
	assert.Empty(t, listDir(t, dir))

	// abort twice is harmless
	require.NoError(t, set.Abort())
}

func TestValuesSink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "values.tsv")
	sch := schema.Reference()
	ms := members(t, sch, 2)

	sink, err := serializer.NewValuesSink(path, sch, 2)
	require.NoError(t, err)

	require.NoError(t, sink.Write(t.Context(), ms[1]))
	require.NoError(t, sink.Write(t.Context(), ms[0]))
	require.NoError(t, serializer.Set{sink}.Commit())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 3)

	header := strings.Split(lines[0], "\t")
	require.Len(t, header, 23)
	assert.Equal(t, "run_id", header[0])
	assert.Equal(t, "threshold:GIS", header[1])
	assert.Equal(t, "timescale:AMAZ", header[22])

	row := strings.Split(lines[2], "\t")
	require.Len(t, row, 23)
	assert.Equal(t, "0001", row[0])
	assert.Equal(t, ensemble.FormatValue(ms[1].Values[0]), row[1])
	// threshold:NINO is fixed
	assert.Equal(t, "1", row[5])
}

func TestSQLiteSink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ensemble.db")
	sch := schema.Reference()
	ms := members(t, sch, 5)

	sink, err := serializer.NewSQLiteSink(t.Context(), path, sch, 5)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", sink.Name())

	for _, idx := range []int{3, 1, 0, 4, 2} {
		require.NoError(t, sink.Write(t.Context(), ms[idx]))
	}

	require.NoError(t, serializer.Set{sink}.Commit())
	assert.Equal(t, []string{"ensemble.db"}, listDir(t, dir))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	var slots, sampled int
	require.NoError(t, db.QueryRowContext(t.Context(), `SELECT COUNT(*), SUM(sampled) FROM slots`).Scan(&slots, &sampled))
	assert.Equal(t, 22, slots)
	assert.Equal(t, 15, sampled)

	var name string
	require.NoError(t, db.QueryRowContext(t.Context(), `SELECT name FROM slots WHERE sample_dim IS NULL ORDER BY position LIMIT 1`).Scan(&name))
	assert.Equal(t, "threshold:NINO", name)

	rows, err := db.QueryContext(t.Context(), `SELECT idx, run_id, command FROM members ORDER BY rowid`)
	require.NoError(t, err)

	t.Cleanup(func() { _ = rows.Close() })

	idx := 0

	for rows.Next() {
		var (
			gotIdx         int
			runID, command string
		)

		require.NoError(t, rows.Scan(&gotIdx, &runID, &command))
		assert.Equal(t, idx, gotIdx)
		assert.Equal(t, ms[idx].RunID, runID)
		assert.Equal(t, ms[idx].Command, command)

		idx++
	}

	require.NoError(t, rows.Err())
	assert.Equal(t, 5, idx)

	var value float64
	require.NoError(t, db.QueryRowContext(t.Context(), `SELECT value FROM member_values WHERE member_idx = 3 AND position = 0`).Scan(&value))
	assert.InDelta(t, ms[3].Values[0], value, 1e-12)

	var count int
	require.NoError(t, db.QueryRowContext(t.Context(), `SELECT COUNT(*) FROM member_values`).Scan(&count))
	assert.Equal(t, 5*22, count)
}

func TestEmptyEnsemble(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sch := schema.Reference()

	commands, err := serializer.NewCommandSink("commands", filepath.Join(dir, "lhs_no-nino_0.txt"), 0)
	require.NoError(t, err)

	db, err := serializer.NewSQLiteSink(t.Context(), filepath.Join(dir, "ensemble.db"), sch, 0)
	require.NoError(t, err)

	require.NoError(t, serializer.Set{commands, db}.Commit())

	data, err := os.ReadFile(filepath.Join(dir, "lhs_no-nino_0.txt"))
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.ElementsMatch(t, []string{"lhs_no-nino_0.txt", "ensemble.db"}, listDir(t, dir))
}

func TestNewSinkErrors(t *testing.T) {
	t.Parallel()

	_, err := serializer.NewValuesSink(filepath.Join(t.TempDir(), "v.tsv"), nil, 1)
	assert.True(t, ensemble.IsConfigurationError(err))

	_, err = serializer.NewCommandSink("commands", filepath.Join(t.TempDir(), "c.txt"), -1)
	assert.True(t, ensemble.IsConfigurationError(err))

	// a regular file where the directory should be
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, err = serializer.NewCommandSink("commands", filepath.Join(blocker, "c.txt"), 1)
	require.Error(t, err)
	assert.True(t, serializer.IsIOError(err))

	var ioErr *serializer.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, blocker+string(filepath.Separator), ioErr.Path)
}

func TestCommandFileName(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		excluded []schema.Element
		size     int
		expected string
	}{
		"reference":    {excluded: []schema.Element{schema.NINO}, size: 1000, expected: "lhs_no-nino_1000.txt"},
		"none":         {size: 3, expected: "lhs_3.txt"},
		"two excluded": {excluded: []schema.Element{schema.NINO, schema.AMAZ}, size: 10, expected: "lhs_no-nino-amaz_10.txt"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, serializer.CommandFileName(tc.excluded, tc.size))
		})
	}

	assert.Equal(t, []string{"lhs_no-nino_1000.txt", "latin_sh_file.txt"}, serializer.DefaultCommandFiles([]schema.Element{schema.NINO}, 1000))
}
