package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/traderjoe-xyz/auto-pool-token-farm/core/events"
)

// FarmMetrics aggregates the ledger activity counters exposed on /metrics.
type FarmMetrics struct {
	Events        *prometheus.CounterVec
	PoolsCreated  prometheus.Counter
	RewardersMade prometheus.Counter
}

var (
	farmMetricsOnce sync.Once
	farmRegistry    *FarmMetrics
)

// Farm returns the lazily-initialised farm metrics registry, registered with
// the default prometheus registerer on first use.
func Farm() *FarmMetrics {
	farmMetricsOnce.Do(func() {
		farmRegistry = &FarmMetrics{
			Events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "farm",
				Subsystem: "ledger",
				Name:      "events_total",
				Help:      "Ledger and rewarder events segmented by event type.",
			}, []string{"type"}),
			PoolsCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "farm",
				Subsystem: "ledger",
				Name:      "pools_created_total",
				Help:      "Staking pools registered since process start.",
			}),
			RewardersMade: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "farm",
				Subsystem: "factory",
				Name:      "rewarders_created_total",
				Help:      "Rewarder instances provisioned since process start.",
			}),
		}
		prometheus.MustRegister(farmRegistry.Events, farmRegistry.PoolsCreated, farmRegistry.RewardersMade)
	})
	return farmRegistry
}

// MetricsEmitter counts every emitted event and forwards it to the next
// emitter in the chain. Engines stay free of prometheus imports.
type MetricsEmitter struct {
	Metrics *FarmMetrics
	Next    events.Emitter
}

// Emit implements the events.Emitter interface.
func (m MetricsEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	if m.Metrics != nil {
		m.Metrics.Events.WithLabelValues(evt.EventType()).Inc()
		switch evt.EventType() {
		case events.TypeFarmPoolCreated:
			m.Metrics.PoolsCreated.Inc()
		case events.TypeRewarderCreated:
			m.Metrics.RewardersMade.Inc()
		}
	}
	if m.Next != nil {
		m.Next.Emit(evt)
	}
}
