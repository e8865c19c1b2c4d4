// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package hostmetrics // import "go.opentelemetry.io/host-metrics"

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"go.opentelemetry.io/host-metrics/sampler"
)

// defaultFreshness bounds how long a raw sample may be shared between
// instrument callbacks. It has to be shorter than the collection interval
// of the reader, otherwise consecutive passes observe the same sample and
// derive empty deltas from it.
const defaultFreshness = 400 * time.Millisecond

// config holds the settable attributes of a HostMetrics instance.
type config struct {
	provider  metric.MeterProvider
	sampler   sampler.Sampler
	freshness time.Duration
}

func defaultConfig() *config {
	return &config{
		provider:  otel.GetMeterProvider(),
		freshness: defaultFreshness,
	}
}

type Option interface {
	applyOption(*config) *config
}
type metricsOptionFunc func(*config) *config

func (f metricsOptionFunc) applyOption(c *config) *config {
	return f(c)
}

// WithMeterProvider sets the provider the instruments are created on.
// This defaults to the global provider.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return metricsOptionFunc(func(c *config) *config {
		c.provider = provider
		return c
	})
}

// WithSampler sets a custom source of raw resource samples.
// This defaults to a [sampler.SystemSampler] reading from the running
// kernel.
func WithSampler(smp sampler.Sampler) Option {
	return metricsOptionFunc(func(c *config) *config {
		c.sampler = smp
		return c
	})
}

// WithFreshness sets the window within which the callbacks of one
// collection pass share a raw sample. Values of zero or below keep the
// default.
func WithFreshness(d time.Duration) Option {
	return metricsOptionFunc(func(c *config) *config {
		if d > 0 {
			c.freshness = d
		}
		return c
	})
}
