package generate_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/askiada/go-tipping-ensemble/internal/config"
	"github.com/askiada/go-tipping-ensemble/internal/generate"
	"github.com/askiada/go-tipping-ensemble/pkg/ensemble"
	"github.com/askiada/go-tipping-ensemble/pkg/schema"
	"github.com/askiada/go-tipping-ensemble/pkg/serializer"
)

func testConfig(t *testing.T, samples int) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Samples = samples
	cfg.Seed = 1234
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")

	return cfg
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	if len(data) == 0 {
		return nil
	}

	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func assertNoOutput(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return
	}

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunReferenceThreeMembers(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 3)

	summary, err := generate.Run(t.Context(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Members)
	assert.Equal(t, 22, summary.Slots)
	assert.Equal(t, 15, summary.Dims)
	assert.Equal(t, []schema.Element{schema.NINO}, summary.Excluded)
	assert.Equal(t, []string{
		filepath.Join(cfg.Output.Dir, "lhs_no-nino_3.txt"),
		filepath.Join(cfg.Output.Dir, "latin_sh_file.txt"),
	}, summary.Files)

	lines := readLines(t, summary.Files[0])
	require.Len(t, lines, 3)

	prefixFields := len(strings.Fields(ensemble.DefaultLaunchPrefix))

	for i, line := range lines {
		assert.True(t, strings.HasPrefix(line, ensemble.DefaultLaunchPrefix+" "))

		fields := strings.Fields(line)
		require.Len(t, fields, prefixFields+22+1)
		assert.Equal(t, ensemble.FormatRunID(i, 4), fields[len(fields)-1])

		gis, err := strconv.ParseFloat(fields[prefixFields], 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, gis, 0.8)
		assert.LessOrEqual(t, gis, 3.0)

		// every slot touching NINO carries the fixed value
		sch := schema.Reference()
		for _, pos := range sch.FixedSlots() {
			assert.Equal(t, "1", fields[prefixFields+pos])
		}
	}

	assert.Equal(t, readFile(t, summary.Files[0]), readFile(t, summary.Files[1]))
}

func TestRunIsReproducible(t *testing.T) {
	t.Parallel()

	first := testConfig(t, 50)
	second := testConfig(t, 50)

	s1, err := generate.Run(t.Context(), first, zaptest.NewLogger(t))
	require.NoError(t, err)

	s2, err := generate.Run(t.Context(), second, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, readFile(t, s1.Files[0]), readFile(t, s2.Files[0]))

	other := testConfig(t, 50)
	other.Seed = 99

	s3, err := generate.Run(t.Context(), other, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NotEqual(t, readFile(t, s1.Files[0]), readFile(t, s3.Files[0]))
}

func TestRunConcurrencyDoesNotChangeOutput(t *testing.T) {
	t.Parallel()

	outputs := map[int][]string{}

	for _, concurrency := range []int{1, 3, 16} {
		cfg := testConfig(t, 200)
		cfg.Concurrency = concurrency
		cfg.Output.Values = "values.tsv"

		summary, err := generate.Run(t.Context(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.Len(t, summary.Files, 3)

		contents := []string{}
		for _, path := range summary.Files {
			contents = append(contents, readFile(t, path))
		}

		outputs[concurrency] = contents
	}

	assert.Equal(t, outputs[1], outputs[3])
	assert.Equal(t, outputs[1], outputs[16])

	lines := strings.Split(strings.TrimSuffix(outputs[1][0], "\n"), "\n")
	require.Len(t, lines, 200)
	assert.True(t, strings.HasSuffix(lines[199], " 0199"))
}

func TestRunAllOutputs(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 20)
	cfg.Concurrency = 4
	cfg.Output.Values = "values.tsv"
	cfg.Output.SQLite = "ensemble.db"
	cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "ensemble.prom")
	cfg.Draw = filepath.Join(t.TempDir(), "pipeline.dot")

	summary, err := generate.Run(t.Context(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, summary.Files, 4)

	values := readLines(t, filepath.Join(cfg.Output.Dir, "values.tsv"))
	require.Len(t, values, 21)
	assert.True(t, strings.HasPrefix(values[0], "run_id\tthreshold:GIS"))

	db, err := sql.Open("sqlite", filepath.Join(cfg.Output.Dir, "ensemble.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	var count int
	require.NoError(t, db.QueryRowContext(t.Context(), `SELECT COUNT(*) FROM members`).Scan(&count))
	assert.Equal(t, 20, count)

	metrics := readFile(t, cfg.Metrics.Textfile)
	assert.Contains(t, metrics, "ensemble_pipeline_step_elements_total")
	assert.Contains(t, metrics, `step="assemble"`)

	dot := readFile(t, cfg.Draw)
	assert.Contains(t, dot, "digraph")
	assert.Contains(t, dot, "assemble")
	assert.Contains(t, dot, "sqlite")
	assert.Contains(t, dot, "latin_sh_file.txt")
}

func TestRunEmptyEnsemble(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 0)

	summary, err := generate.Run(t.Context(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Members)

	for _, path := range summary.Files {
		assert.Empty(t, readLines(t, path))
	}

	assert.Equal(t, "lhs_no-nino_0.txt", filepath.Base(summary.Files[0]))
}

func TestRunConfigurationErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		edit         func(cfg *config.Config)
		expected     error
		expectedSlot string
	}{
		"unknown excluded element": {
			edit:     func(cfg *config.Config) { cfg.Schema.Exclude = []string{"PERMAFROST"} },
			expected: schema.ErrUnknownElement,
		},
		"inverted range": {
			edit: func(cfg *config.Config) {
				cfg.Schema.Ranges = map[string]schema.Range{"coupling:THC->GIS": {Lower: 1, Upper: -1}}
			},
			expected:     schema.ErrInvalidRange,
			expectedSlot: "coupling:THC->GIS",
		},
		"every element excluded": {
			edit: func(cfg *config.Config) {
				cfg.Schema.Exclude = []string{"GIS", "THC", "WAIS", "AMAZ", "NINO"}
			},
		},
		"negative samples": {
			edit: func(cfg *config.Config) { cfg.Samples = -3 },
		},
		"unknown sampler": {
			edit: func(cfg *config.Config) { cfg.Sampler = "halton" },
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t, 10)
			tc.edit(cfg)

			_, err := generate.Run(t.Context(), cfg, zaptest.NewLogger(t))
			require.Error(t, err)
			assert.True(t, ensemble.IsConfigurationError(err), err.Error())

			if tc.expected != nil {
				require.ErrorIs(t, err, tc.expected)
			}

			if tc.expectedSlot != "" {
				var cfgErr *ensemble.ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, tc.expectedSlot, cfgErr.Slot)
			}

			assertNoOutput(t, cfg.Output.Dir)
		})
	}
}

func TestRunCancelledLeavesNoFiles(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 500)
	cfg.Output.SQLite = "ensemble.db"

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := generate.Run(ctx, cfg, zaptest.NewLogger(t))
	require.ErrorIs(t, err, context.Canceled)
	assertNoOutput(t, cfg.Output.Dir)
}

func TestRunUnwritableOutput(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 5)

	// a regular file where the output directory should be
	require.NoError(t, os.WriteFile(cfg.Output.Dir, nil, 0o600))

	_, err := generate.Run(t.Context(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.True(t, serializer.IsIOError(err))
}

func TestRunCustomFiles(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 4)
	cfg.Output.Files = []string{"commands.txt"}
	cfg.LaunchPrefix = "srun ./model"
	cfg.RunIDWidth = 6

	summary, err := generate.Run(t.Context(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(cfg.Output.Dir, "commands.txt")}, summary.Files)

	lines := readLines(t, summary.Files[0])
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[3], "srun ./model "))
	assert.True(t, strings.HasSuffix(lines[3], " 000003"))
}
