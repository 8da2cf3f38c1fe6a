// Package generate builds an ensemble from a configuration and writes it to disk.
//
// Sample points flow through a pipeline: the root step emits the rows of the sample matrix,
// a step assembles members concurrently, and a splitter copies every member to each output.
// Outputs are committed only once the whole pipeline succeeded.
package generate

import (
	"context"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/go-tipping-ensemble/internal/config"
	"github.com/askiada/go-tipping-ensemble/pkg/ensemble"
	"github.com/askiada/go-tipping-ensemble/pkg/pipeline"
	"github.com/askiada/go-tipping-ensemble/pkg/pipeline/drawer"
	"github.com/askiada/go-tipping-ensemble/pkg/pipeline/logger"
	"github.com/askiada/go-tipping-ensemble/pkg/pipeline/measure"
	"github.com/askiada/go-tipping-ensemble/pkg/pipeline/model"
	"github.com/askiada/go-tipping-ensemble/pkg/sampler"
	"github.com/askiada/go-tipping-ensemble/pkg/schema"
	"github.com/askiada/go-tipping-ensemble/pkg/serializer"
)

// Summary describes a written ensemble.
type Summary struct {
	Members  int
	Slots    int
	Dims     int
	Excluded []schema.Element
	Files    []string
	Duration time.Duration
}

// design is everything needed to produce the members, checked before any output exists.
type design struct {
	schema    *schema.Schema
	assembler *ensemble.Assembler
	matrix    [][]float64
}

// configError turns err into a ConfigurationError naming the slot involved, if any.
func configError(op string, err error) error {
	if ensemble.IsConfigurationError(err) {
		return err
	}

	cfgErr := ensemble.NewConfigurationError(op, err)

	var slotErr *schema.SlotError
	if errors.As(err, &slotErr) {
		cfgErr.Slot = slotErr.Slot
	}

	return cfgErr
}

func prepare(cfg *config.Config) (*design, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	def, err := cfg.Definition()
	if err != nil {
		return nil, err
	}

	sch, err := schema.Build(def)
	if err != nil {
		return nil, configError("build schema", err)
	}

	opts := []ensemble.Option{ensemble.WithLaunchPrefix(cfg.LaunchPrefix)}
	if cfg.RunIDWidth > 0 {
		opts = append(opts, ensemble.WithRunIDWidth(cfg.RunIDWidth))
	}

	asm, err := ensemble.NewAssembler(sch, sch.Dims(), cfg.Samples, opts...)
	if err != nil {
		return nil, err
	}

	d := &design{schema: sch, assembler: asm}

	// an empty ensemble needs no sample matrix
	if cfg.Samples == 0 {
		return d, nil
	}

	mode, err := sampler.ParseMode(cfg.Sampler)
	if err != nil {
		return nil, configError("sampler", err)
	}

	d.matrix, err = sampler.New(cfg.Seed, mode).Sample(cfg.Samples, sch.Dims())
	if err != nil {
		return nil, configError("sample", err)
	}

	return d, nil
}

func openSinks(ctx context.Context, cfg *config.Config, sch *schema.Schema) (serializer.Set, error) {
	set := serializer.Set{}

	fail := func(err error) (serializer.Set, error) {
		_ = set.Abort()

		return nil, err
	}

	for _, path := range cfg.CommandPaths(sch.Excluded()) {
		sink, err := serializer.NewCommandSink(filepath.Base(path), path, cfg.Samples)
		if err != nil {
			return fail(err)
		}

		set = append(set, sink)
	}

	if path := cfg.ValuesPath(); path != "" {
		sink, err := serializer.NewValuesSink(path, sch, cfg.Samples)
		if err != nil {
			return fail(err)
		}

		set = append(set, sink)
	}

	if path := cfg.SQLitePath(); path != "" {
		sink, err := serializer.NewSQLiteSink(ctx, path, sch, cfg.Samples)
		if err != nil {
			return fail(err)
		}

		set = append(set, sink)
	}

	return set, nil
}

func progressEvery(samples int) int64 {
	every := int64(samples / 10)
	if every < 1 {
		every = 1
	}

	return every
}

func buildPipeline(ctx context.Context, cfg *config.Config, log *zap.Logger, d *design, set serializer.Set, msr measure.Measure) (*pipeline.Pipeline, error) {
	opts := []model.PipelineOption{
		measure.PipelineMeasure(msr),
		logger.PipelineLogger(log, progressEvery(cfg.Samples)),
	}

	if cfg.Draw != "" {
		opts = append(opts, drawer.PipelineDrawer(drawer.NewDOTDrawer(cfg.Draw), msr))
	}

	p, err := pipeline.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	points := ensemble.Points(d.matrix)

	root, err := pipeline.AddRootStep(p, "sample", func(ctx context.Context, rootChan chan<- ensemble.SamplePoint) error {
		for _, pt := range points {
			err := pipeline.Emit(ctx, rootChan, pt)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	assemble, err := pipeline.AddStepOneToOne(p, "assemble", root, func(_ context.Context, pt ensemble.SamplePoint) (ensemble.Member, error) {
		return d.assembler.Member(pt)
	}, pipeline.StepConcurrency[ensemble.Member](cfg.Concurrency))
	if err != nil {
		return nil, err
	}

	if len(set) == 1 {
		err = pipeline.AddSink(p, set[0].Name(), assemble, set[0].Write)
		if err != nil {
			return nil, err
		}

		return p, nil
	}

	splitter, err := pipeline.AddSplitter(p, "write", assemble, len(set), pipeline.SplitterBufferSize[ensemble.Member](cfg.Concurrency))
	if err != nil {
		return nil, err
	}

	for _, sink := range set {
		branch, ok := splitter.Get()
		if !ok {
			return nil, errors.Errorf("no splitter branch left for %s", sink.Name())
		}

		err = pipeline.AddSink(p, sink.Name(), branch, sink.Write)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Run generates the ensemble described by cfg. Either every output is written or none is.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger) (Summary, error) {
	start := time.Now()

	d, err := prepare(cfg)
	if err != nil {
		return Summary{}, err
	}

	log.Info("design ready",
		zap.Int("members", cfg.Samples),
		zap.Int("slots", d.schema.Len()),
		zap.Int("dims", d.schema.Dims()),
		zap.Int64("seed", cfg.Seed),
		zap.String("sampler", cfg.Sampler),
	)

	set, err := openSinks(ctx, cfg, d.schema)
	if err != nil {
		return Summary{}, err
	}

	msr := measure.NewDefaultMeasure()

	// stops the stages already started when the pipeline cannot be completed
	pipeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p, err := buildPipeline(pipeCtx, cfg, log, d, set, msr)
	if err != nil {
		_ = set.Abort()

		return Summary{}, errors.Wrap(err, "unable to build pipeline")
	}

	err = p.Run()
	if err != nil {
		_ = set.Abort()

		return Summary{}, errors.Wrap(err, "pipeline failed")
	}

	err = set.Commit()
	if err != nil {
		return Summary{}, errors.Wrap(err, "unable to commit outputs")
	}

	if cfg.Metrics.Textfile != "" {
		err = measure.WriteTextfile(cfg.Metrics.Textfile, msr)
		if err != nil {
			// the ensemble itself is already committed
			log.Warn("unable to write metrics", zap.String("path", cfg.Metrics.Textfile), zap.Error(err))
		}
	}

	summary := Summary{
		Members:  cfg.Samples,
		Slots:    d.schema.Len(),
		Dims:     d.schema.Dims(),
		Excluded: d.schema.Excluded(),
		Files:    set.Paths(),
		Duration: time.Since(start),
	}

	log.Info("ensemble written",
		zap.Int("members", summary.Members),
		zap.Strings("files", summary.Files),
		zap.Duration("duration", summary.Duration),
	)

	return summary, nil
}
