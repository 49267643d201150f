// Package tasksys provides the scheduling strategies behind ports.TaskSystem:
// a serial baseline, a spawn-per-call baseline, a spinning pool and the
// sleeping pool that tracks dependencies between task groups.
package tasksys

import (
	"fmt"
	"strings"
	"sync/atomic"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/taskgraph/internal/adapters/workerpool"
	"github.com/ZanzyTHEbar/taskgraph/internal/domain"
	"github.com/ZanzyTHEbar/taskgraph/internal/ports"
)

// Kind selects a strategy in New.
type Kind string

const (
	KindSerial Kind = "serial"
	KindSpawn  Kind = "spawn"
	KindSpin   Kind = "spin"
	KindSleep  Kind = "sleep"
)

// Kinds lists every strategy in the order benchmarks report them.
func Kinds() []Kind {
	return []Kind{KindSerial, KindSpawn, KindSpin, KindSleep}
}

// ParseKind resolves a strategy name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("unknown strategy %q (want one of serial, spawn, spin, sleep)", s))
}

type options struct {
	logger zerolog.Logger
	bus    domain.EventBus
	stats  *domain.StatsCollector
}

// Option configures a strategy built by New or NewSleeping.
type Option func(*options)

// WithLogger sets the logger used by the strategy and its worker pool.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithEventBus publishes group lifecycle events to bus. Only the sleeping
// strategy tracks groups, so the others ignore it.
func WithEventBus(bus domain.EventBus) Option {
	return func(o *options) { o.bus = bus }
}

// WithStats records group statistics into stats. Sleeping strategy only.
func WithStats(stats *domain.StatsCollector) Option {
	return func(o *options) { o.stats = stats }
}

func buildOptions(opts []Option) options {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New builds the strategy named by kind with the given worker count.
func New(kind Kind, workers int, opts ...Option) (ports.TaskSystem, error) {
	if _, err := workerpool.ResolveWorkers(workers); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	var (
		ts  ports.TaskSystem
		err error
	)
	switch kind {
	case KindSerial:
		ts = NewSerial()
	case KindSpawn:
		ts, err = asTaskSystem(NewSpawn(workers, o.logger))
	case KindSpin:
		ts, err = asTaskSystem(NewSpinning(workers, o.logger))
	case KindSleep:
		ts, err = asTaskSystem(NewSleeping(workers, opts...))
	default:
		err = errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown strategy %q", kind))
	}
	if err != nil {
		return nil, err
	}
	o.logger.Debug().Str("strategy", ts.Name()).Msg("task system created")
	return ts, nil
}

// asTaskSystem keeps a typed nil out of the returned interface.
func asTaskSystem[T ports.TaskSystem](ts T, err error) (ports.TaskSystem, error) {
	if err != nil {
		return nil, err
	}
	return ts, nil
}

// idSource hands out ids for strategies that run async launches inline.
type idSource struct {
	last atomic.Int64
}

func (s *idSource) next() domain.TaskID {
	return domain.TaskID(s.last.Add(1))
}
