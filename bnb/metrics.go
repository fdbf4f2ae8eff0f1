// SPDX-License-Identifier: MIT

package bnb

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Node outcomes, used as metric labels and in Stats.
const (
	outcomeInfeasible = "infeasible"
	outcomeBound      = "bound"
	outcomeAccepted   = "accepted"
	outcomeBranched   = "branched"
)

var (
	// nodesTotal counts evaluated nodes by outcome
	nodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diagsel_bnb_nodes_total",
		Help: "Search nodes evaluated, by outcome",
	}, []string{"strategy", "outcome"})

	// oracleDuration tracks relaxation latency
	oracleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "diagsel_bnb_oracle_duration_seconds",
		Help:    "Oracle call duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
	})

	oracleErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diagsel_bnb_oracle_errors_total",
		Help: "Oracle calls that returned an error",
	})

	incumbentUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diagsel_bnb_incumbent_updates_total",
		Help: "Incumbent improvements installed",
	})

	restartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "diagsel_bnb_restarts_total",
		Help: "Random restarts taken by the recursive strategy",
	})

	// frontierSize is the current size of the parallel frontier
	frontierSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "diagsel_bnb_frontier_size",
		Help: "Nodes waiting on the parallel best-first frontier",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diagsel_bnb_runs_total",
		Help: "Completed engine runs by result",
	}, []string{"strategy", "result"})
)

// Stats is a snapshot of one run's counters.
type Stats struct {
	Nodes            int64
	Infeasible       int64
	BoundPruned      int64
	Accepted         int64
	Branched         int64
	IncumbentUpdates int64
	Restarts         int64
	MaxDepth         int64
	MaxFrontier      int64
}

// counters are the live, concurrently updated form of Stats.
type counters struct {
	nodes, infeasible, bound, accepted, branched atomic.Int64
	updates, restarts                             atomic.Int64
	maxDepth, maxFrontier                         atomic.Int64
}

func (c *counters) node(strategy, outcome string, depth int) {
	c.nodes.Add(1)
	switch outcome {
	case outcomeInfeasible:
		c.infeasible.Add(1)
	case outcomeBound:
		c.bound.Add(1)
	case outcomeAccepted:
		c.accepted.Add(1)
	case outcomeBranched:
		c.branched.Add(1)
	}
	storeMax(&c.maxDepth, int64(depth))
	nodesTotal.WithLabelValues(strategy, outcome).Inc()
}

func (c *counters) snapshot() Stats {
	return Stats{
		Nodes:            c.nodes.Load(),
		Infeasible:       c.infeasible.Load(),
		BoundPruned:      c.bound.Load(),
		Accepted:         c.accepted.Load(),
		Branched:         c.branched.Load(),
		IncumbentUpdates: c.updates.Load(),
		Restarts:         c.restarts.Load(),
		MaxDepth:         c.maxDepth.Load(),
		MaxFrontier:      c.maxFrontier.Load(),
	}
}

func storeMax(v *atomic.Int64, x int64) {
	for {
		cur := v.Load()
		if x <= cur || v.CompareAndSwap(cur, x) {
			return
		}
	}
}
