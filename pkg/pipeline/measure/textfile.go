package measure

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ensemble"

// Register exposes the metrics of msr as gauges on reg.
func Register(reg prometheus.Registerer, msr Measure) error {
	elements := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "step_elements_total",
		Help:      "Elements processed by a pipeline step.",
	}, []string{"step"})
	avg := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "step_avg_seconds",
		Help:      "Mean computation time per element of a pipeline step.",
	}, []string{"step"})
	wait := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "step_avg_wait_seconds",
		Help:      "Mean time a step waited for an element of its input.",
	}, []string{"step", "input"})
	total := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "step_end_seconds",
		Help:      "Time from pipeline creation until a sink step finished.",
	}, []string{"step"})

	for _, c := range []prometheus.Collector{elements, avg, wait, total} {
		err := reg.Register(c)
		if err != nil {
			return errors.Wrap(err, "unable to register collector")
		}
	}

	for name, mt := range msr.AllMetrics() {
		elements.WithLabelValues(name).Set(float64(mt.Count()))
		avg.WithLabelValues(name).Set(mt.AVGDuration().Seconds())

		if end := mt.GetTotalDuration(); end > 0 {
			total.WithLabelValues(name).Set(end.Seconds())
		}

		for input, elapsed := range mt.AVGTransportDuration() {
			wait.WithLabelValues(name, input).Set(elapsed.Seconds())
		}
	}

	return nil
}

// WriteTextfile writes the metrics of msr in the Prometheus text format, for the node exporter
// textfile collector.
func WriteTextfile(path string, msr Measure) error {
	reg := prometheus.NewRegistry()

	err := Register(reg, msr)
	if err != nil {
		return err
	}

	err = prometheus.WriteToTextfile(path, reg)
	if err != nil {
		return errors.Wrapf(err, "unable to write metrics to %s", path)
	}

	return nil
}
