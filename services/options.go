package services

import (
	"context"
	"time"

	"surveyhub/internal/logger"
)

const (
	defaultFetchLimit int64 = 100
	defaultTimeout          = 10 * time.Second
)

// Options carries the knobs shared by every store adapter.
type Options struct {
	FetchLimit int64
	Timeout    time.Duration
	Logger     *logger.Logger
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.FetchLimit <= 0 {
		o.FetchLimit = defaultFetchLimit
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

func (o Options) limit(requested int64) int64 {
	if requested <= 0 || requested > o.FetchLimit {
		return o.FetchLimit
	}
	return requested
}

func (o Options) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, o.Timeout)
}
