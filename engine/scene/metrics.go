package scene

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/Carmen-Shannon/oxy-tracker/engine/scene"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Attribute options are built once; the hot path passes them without allocating.
var (
	aircraftDropped = []metric.AddOption{metric.WithAttributeSet(attribute.NewSet(attribute.String("generator", "aircraft")))}
	labelDropped    = []metric.AddOption{metric.WithAttributeSet(attribute.NewSet(attribute.String("generator", "label")))}
	aircraftBuffer  = []metric.ObserveOption{metric.WithAttributeSet(attribute.NewSet(attribute.String("buffer", "aircraft")))}
	trailBuffer     = []metric.ObserveOption{metric.WithAttributeSet(attribute.NewSet(attribute.String("buffer", "trail")))}
	labelBuffer     = []metric.ObserveOption{metric.WithAttributeSet(attribute.NewSet(attribute.String("buffer", "label")))}
)

// frameMetrics holds the OTel instruments of a scene. The global meter is a no-op
// unless the application installs a provider.
type frameMetrics struct {
	published metric.Int64Counter
	skipped   metric.Int64Counter
	dropped   metric.Int64Counter
	grows     metric.Int64Counter
	duration  metric.Float64Histogram
	instances metric.Int64ObservableGauge
	reg       metric.Registration

	aircraft atomic.Int64
	trail    atomic.Int64
	labels   atomic.Int64
}

func newFrameMetrics() (*frameMetrics, error) {
	m := meter()
	fm := &frameMetrics{}

	var err error
	fm.published, err = m.Int64Counter(
		"scene.frames.published",
		metric.WithDescription("Frames published to the render pass"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating published counter: %w", err)
	}

	fm.skipped, err = m.Int64Counter(
		"scene.frames.skipped",
		metric.WithDescription("Frames skipped because no buffer bank was free"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}

	fm.dropped, err = m.Int64Counter(
		"scene.entities.dropped",
		metric.WithDescription("Entities omitted from a frame, by generator"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	fm.grows, err = m.Int64Counter(
		"scene.buffer.reallocations",
		metric.WithDescription("Host buffer reallocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating reallocation counter: %w", err)
	}

	fm.duration, err = m.Float64Histogram(
		"scene.frame.duration",
		metric.WithDescription("Time to generate and publish one frame"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frame duration histogram: %w", err)
	}

	fm.instances, err = m.Int64ObservableGauge(
		"scene.instances",
		metric.WithDescription("Records in the latest published frame, by buffer"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating instance gauge: %w", err)
	}

	fm.reg, err = m.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			o.ObserveInt64(fm.instances, fm.aircraft.Load(), aircraftBuffer...)
			o.ObserveInt64(fm.instances, fm.trail.Load(), trailBuffer...)
			o.ObserveInt64(fm.instances, fm.labels.Load(), labelBuffer...)
			return nil
		},
		fm.instances,
	)
	if err != nil {
		return nil, fmt.Errorf("registering instance callback: %w", err)
	}

	return fm, nil
}

func (fm *frameMetrics) record(ctx context.Context, st Stats, grows int) {
	fm.published.Add(ctx, 1)
	if st.Skipped > 0 {
		fm.dropped.Add(ctx, int64(st.Skipped), aircraftDropped...)
	}
	if st.Culled > 0 {
		fm.dropped.Add(ctx, int64(st.Culled), labelDropped...)
	}
	if grows > 0 {
		fm.grows.Add(ctx, int64(grows))
	}
	fm.duration.Record(ctx, float64(st.Duration)/float64(time.Millisecond))

	fm.aircraft.Store(int64(st.Aircraft))
	fm.trail.Store(int64(st.TrailVertices))
	fm.labels.Store(int64(st.Labels))
}

func (fm *frameMetrics) skip(ctx context.Context) {
	fm.skipped.Add(ctx, 1)
}

// close unregisters the instance gauge callback from the meter.
func (fm *frameMetrics) close() error {
	if fm.reg == nil {
		return nil
	}
	err := fm.reg.Unregister()
	fm.reg = nil
	return err
}
