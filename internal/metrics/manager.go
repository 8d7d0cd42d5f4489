// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metrics exposes Prometheus instrumentation for upstream calls, enrichment,
// direct-link resolution and the response cache.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "streamhub"

// Manager owns the registry and every collector. It satisfies the observer interfaces
// of the tmdb, watchmode, catalog and cache packages.
type Manager struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	enrichments      *prometheus.CounterVec
	directLinks      *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	cacheEntries     prometheus.Gauge
}

func NewMetricsManager() *Manager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Manager{
		registry: registry,
		upstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream provider requests by provider and HTTP status (0 on transport failure)",
		}, []string{"provider", "status"}),
		upstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream provider request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		enrichments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_total",
			Help:      "Watch provider enrichment attempts by outcome",
		}, []string{"outcome"}),
		directLinks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "direct_links_total",
			Help:      "Direct link resolutions by outcome",
		}, []string{"outcome"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_lookups_total",
			Help:      "Response cache lookups by result",
		}, []string{"result"}),
		cacheEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "response_cache_entries",
			Help:      "Entries currently held by the response cache",
		}),
	}
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Manager) ObserveUpstream(provider string, status int, elapsed time.Duration) {
	m.upstreamRequests.WithLabelValues(provider, strconv.Itoa(status)).Inc()
	m.upstreamDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Manager) ObserveEnrichment(outcome string) {
	m.enrichments.WithLabelValues(outcome).Inc()
}

func (m *Manager) ObserveDirectLinks(outcome string) {
	m.directLinks.WithLabelValues(outcome).Inc()
}

// ObserveCache records one lookup and the cache size after it.
func (m *Manager) ObserveCache(hit bool, entries int) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheEntries.Set(float64(entries))
}
