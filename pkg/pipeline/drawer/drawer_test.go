package drawer_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-tipping-ensemble/pkg/pipeline/drawer"
	"github.com/askiada/go-tipping-ensemble/pkg/pipeline/measure"
	"github.com/askiada/go-tipping-ensemble/pkg/pipeline/model"
)

func TestGradient(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		fraction float64
		expected string
	}{
		"fastest":   {fraction: 0, expected: "#0000f0"},
		"slowest":   {fraction: 1, expected: "#f00000"},
		"half":      {fraction: 0.5, expected: "#780078"},
		"below":     {fraction: -2, expected: "#0000f0"},
		"above one": {fraction: 3, expected: "#f00000"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := drawer.Gradient(tc.fraction)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestDOT(t *testing.T) {
	t.Parallel()

	g := graph.New(graph.StringHash, graph.Directed())
	require.NoError(t, g.AddVertex("THC", graph.VertexAttribute("xlabel", "[1.4, 8]")))
	require.NoError(t, g.AddVertex("GIS"))
	require.NoError(t, g.AddEdge("GIS", "THC", graph.EdgeAttribute("label", "[0.1, 1]")))

	var first, second bytes.Buffer
	require.NoError(t, drawer.DOT(g, &first))
	require.NoError(t, drawer.DOT(g, &second))

	out := first.String()
	assert.Equal(t, out, second.String())
	assert.Contains(t, out, "strict digraph {")
	assert.Contains(t, out, `"GIS" -> "THC" [ label="[0.1, 1]", weight=0 ];`)
	assert.Contains(t, out, `<FONT POINT-SIZE="12">[1.4, 8]</FONT>`)
	assert.Less(t, bytes.Index(first.Bytes(), []byte(`"GIS" [`)), bytes.Index(first.Bytes(), []byte(`"THC" [`)))
}

func TestPipelineDrawer(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pipeline.dot")

	msr := measure.NewDefaultMeasure()
	msrOpt := measure.PipelineMeasure(msr)
	opt := drawer.PipelineDrawer(drawer.NewDOTDrawer(path), msr)

	sample := &model.StepInfo{Name: "sample", Concurrent: 1}
	assemble := &model.StepInfo{Name: "assemble", Concurrent: 1}
	sink := &model.StepInfo{Name: "table", Concurrent: 1}

	for _, o := range []model.PipelineOption{msrOpt, opt} {
		require.NoError(t, o.New())
		require.NoError(t, o.PrepareStep(model.StartStep.Details, sample))
		require.NoError(t, o.PrepareStep(sample, assemble))
		require.NoError(t, o.PrepareSink(assemble, sink))
	}

	require.NoError(t, msrOpt.OnStepOutput(sample, assemble, time.Millisecond, 2*time.Millisecond))
	require.NoError(t, msrOpt.OnSinkOutput(assemble, sink, 5*time.Millisecond, time.Millisecond))
	require.NoError(t, msrOpt.AfterSink(sink, time.Second))
	require.NoError(t, opt.Finish())

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(content)
	assert.Contains(t, out, `rankdir="LR"`)
	assert.Contains(t, out, `"start" -> "sample"`)
	assert.Contains(t, out, `"table" -> "end"`)
	assert.Contains(t, out, `color="#f00000"`)
	assert.Contains(t, out, `label="5ms"`)
}
