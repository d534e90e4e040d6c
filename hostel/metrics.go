// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostel

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports allocation results to Prometheus. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	students *prometheus.GaugeVec
	unfilled *prometheus.GaugeVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the allocation metrics with reg, or with the default
// registerer when reg is nil. namespace defaults to "roomalloc".
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "roomalloc"
	}

	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed allocation runs by mode.",
		}, []string{"mode"}),
		students: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "students",
			Help:      "Students of the last run by building, mode and outcome (preference, backfill, unplaced).",
		}, []string{"building", "mode", "outcome"}),
		unfilled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unfilled_rooms",
			Help:      "Rooms left with spare seats by the last run.",
		}, []string{"building", "mode"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time spent computing one allocation.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"mode"}),
	}

	for _, c := range []prometheus.Collector{m.runs, m.students, m.unfilled, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(r *Result) {
	if m == nil {
		return
	}
	summ := r.Summary

	m.runs.WithLabelValues(r.Mode).Inc()
	m.students.WithLabelValues(r.Building, r.Mode, "preference").Set(float64(summ.ByPreference))
	m.students.WithLabelValues(r.Building, r.Mode, "backfill").Set(float64(summ.Backfilled))
	m.students.WithLabelValues(r.Building, r.Mode, "unplaced").Set(float64(summ.Unplaced))
	m.unfilled.WithLabelValues(r.Building, r.Mode).Set(float64(summ.UnfilledRooms))
	m.duration.WithLabelValues(r.Mode).Observe(summ.Elapsed.Seconds())
}
