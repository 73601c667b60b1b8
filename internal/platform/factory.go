package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/dusk/pkg/core"
	"github.com/aretw0/dusk/pkg/filler"
	"github.com/aretw0/dusk/pkg/metrics"
	"github.com/aretw0/dusk/pkg/resonance"
	"github.com/aretw0/dusk/pkg/store"
)

// New opens the storage at uri and wires a service around it.
//
//	svc, err := platform.New(".dusk", platform.WithAdapter("sqlite"))
func New(ctx context.Context, uri string, opts ...Option) (*core.Service, error) {
	o := defaultOptions().apply(opts)

	if err := o.schedule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule: %w", err)
	}
	if o.retention < 0 {
		return nil, fmt.Errorf("invalid retention: %s", o.retention)
	}

	storage, err := openStorage(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	m := metrics.New(o.registerer)

	storeOpts := []store.Option{
		store.WithClock(o.clock),
		store.WithLogger(o.logger),
		store.WithMetrics(m),
	}
	if o.capacity > 0 {
		storeOpts = append(storeOpts, store.WithBoardCapacity(o.capacity))
	}
	records := store.New(storage, storeOpts...)

	fillerOpts := []filler.Option{filler.WithClock(o.clock)}
	if o.seed != nil {
		fillerOpts = append(fillerOpts, filler.WithSeed(*o.seed))
	}

	c := core.Components{
		Records: records,
		Reactor: resonance.NewTracker(records,
			resonance.WithLogger(o.logger),
			resonance.WithMetrics(m),
		),
		Oracle:      o.schedule,
		Filler:      filler.New(fillerOpts...),
		Clock:       o.clock,
		Logger:      o.logger,
		FillerCount: fillerCount(o.fillerCount),
		FeedLimit:   orDefault(o.feedLimit, filler.FeedLimit),
		Retention:   orDefault(o.retention, store.RetentionHorizon),
		Closer:      storage,
	}
	if w, ok := storage.(core.Watchable); ok {
		c.Events = w
	}

	o.logger.Debug("service ready",
		"adapter", adapterName(storage, o),
		"schedule", o.schedule.String(),
		"capacity", records.Capacity(),
	)
	return core.NewService(c), nil
}

func fillerCount(n int) int {
	switch {
	case n < 0:
		return 0
	case n == 0:
		return filler.DefaultCount
	default:
		return n
	}
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

type componentTyper interface {
	ComponentType() string
}

func adapterName(s core.Storage, o *options) string {
	if c, ok := s.(componentTyper); ok {
		return c.ComponentType()
	}
	return o.adapter
}
