package validate

import (
	"time"

	"github.com/himanishpuri/TempoBench/internal/artifact"
	"github.com/himanishpuri/TempoBench/pkg/logger"
)

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type config struct {
	sink        artifact.Sink
	log         Logger
	caseTimeout time.Duration
	estimate    Estimate
	observer    Observer
	now         func() time.Time
	runID       string
}

type Option func(*config)

func defaultConfig() config {
	return config{
		sink:     artifact.Nop(),
		log:      logger.GetLogger().With("validate"),
		estimate: EstimateMode,
		now:      time.Now,
	}
}

// WithSink routes detector flux curves into sink. nil disables diagnostics.
func WithSink(sink artifact.Sink) Option {
	return func(c *config) {
		if sink == nil {
			sink = artifact.Nop()
		}
		c.sink = sink
	}
}

func WithLogger(log Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithCaseTimeout fails a case whose detector has not completed within d.
// Zero waits forever.
func WithCaseTimeout(d time.Duration) Option {
	return func(c *config) {
		c.caseTimeout = d
	}
}

func WithEstimate(e Estimate) Option {
	return func(c *config) {
		if e != "" {
			c.estimate = e
		}
	}
}

func WithObserver(fn Observer) Option {
	return func(c *config) {
		c.observer = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

func WithRunID(id string) Option {
	return func(c *config) {
		c.runID = id
	}
}
