// Package metrics exposes engine activity as Prometheus collectors fed by lifecycle hooks.
package metrics

import (
	"context"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine collectors.
type Metrics struct {
	NodeVisits   *prometheus.CounterVec
	NodeStatuses *prometheus.CounterVec
	SyncWaits    prometheus.Counter
	SyncMatches  prometheus.Counter
	SyncTimeouts prometheus.Counter
	Syncing      prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardflow_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"type"},
		),
		NodeStatuses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardflow_node_status_total",
				Help: "Node status transitions by node type and reached status",
			},
			[]string{"type", "status"},
		),
		SyncWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cardflow_sync_waits_total",
			Help: "Worktask waits registered",
		}),
		SyncMatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cardflow_sync_matches_total",
			Help: "Worktask waits resolved by a notification",
		}),
		SyncTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cardflow_sync_timeouts_total",
			Help: "Worktask waits that passed their deadline",
		}),
		Syncing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cardflow_nodes_syncing",
			Help: "Worktask nodes currently parked in syncing",
		}),
	}
	reg.MustRegister(m.NodeVisits, m.NodeStatuses, m.SyncWaits, m.SyncMatches, m.SyncTimeouts, m.Syncing)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(string(e.NodeType)).Inc()
		},
		OnNodeStatus: func(ctx context.Context, e *domain.NodeEvent) {
			m.NodeStatuses.WithLabelValues(string(e.NodeType), string(e.Status)).Inc()
			if e.Status == domain.StatusSyncing {
				m.Syncing.Inc()
			}
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			if e.NodeType == domain.NodeTypeWorkTask {
				m.Syncing.Dec()
			}
		},
		OnSync: func(ctx context.Context, e *domain.SyncEvent) {
			switch {
			case e.Matched:
				m.SyncMatches.Inc()
			case e.TimedOut:
				m.SyncTimeouts.Inc()
			default:
				m.SyncWaits.Inc()
			}
		},
	}
}
