// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package metrics exposes the result of an audit run as Prometheus gauges.
//
// Each [Metrics] owns its own registry, so several runs in one process (or
// parallel tests) never collide on the default registerer. The registry is
// meant to be exported with [Metrics.WriteTextfile] for the node_exporter
// textfile collector.
package metrics

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/audit"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/verify"
)

const namespace = "certtree"

var verdicts = []verify.Verdict{verify.VerdictOK, verify.VerdictNG, verify.VerdictInsufficient}

// Metrics holds the gauges of one audit run.
type Metrics struct {
	registry *prometheus.Registry

	serverUnits       *prometheus.GaugeVec
	probeErrors       *prometheus.GaugeVec
	certificateExpiry *prometheus.GaugeVec
	lastRun           prometheus.Gauge
}

// New creates the gauges and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		serverUnits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_units",
			Help:      "Server units by tree and verdict.",
		}, []string{"tree", "verdict"}),
		probeErrors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "probe_errors",
			Help:      "Files or directories that could not be probed, by tree.",
		}, []string{"tree"}),
		certificateExpiry: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "certificate_expiry_timestamp_seconds",
			Help:      "NotAfter of each certificate file as a Unix timestamp.",
		}, []string{"tree", "org", "server", "file"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last audit run finished.",
		}),
	}

	m.registry.MustRegister(m.serverUnits, m.probeErrors, m.certificateExpiry, m.lastRun)
	return m
}

// Registry returns the registry holding the gauges.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Observe replaces the gauge values with those of rep. Missing trees produce
// no series.
func (m *Metrics) Observe(rep *audit.Report) {
	m.serverUnits.Reset()
	m.probeErrors.Reset()
	m.certificateExpiry.Reset()

	for _, tree := range rep.Trees {
		if tree.Missing {
			continue
		}

		counts := make(map[verify.Verdict]int, len(verdicts))
		errs := 0
		for _, org := range tree.Orgs {
			errs += len(org.Errors)
			for _, s := range org.Servers {
				counts[s.Summary.Verdict]++
				errs += len(s.Errors)
				for _, c := range s.Certificates {
					m.observeExpiry(tree.Name, org.Name, s.Name, c)
				}
				for _, c := range s.ChainMaterial {
					m.observeExpiry(tree.Name, org.Name, s.Name, c)
				}
			}
		}

		for _, v := range verdicts {
			m.serverUnits.WithLabelValues(tree.Name, v.String()).Set(float64(counts[v]))
		}
		m.probeErrors.WithLabelValues(tree.Name).Set(float64(errs))
	}

	if !rep.FinishedAt.IsZero() {
		m.lastRun.Set(float64(rep.FinishedAt.Unix()))
	}
}

func (m *Metrics) observeExpiry(tree, org, server string, c audit.CertificateReport) {
	if c.NotAfter.IsZero() {
		return
	}
	m.certificateExpiry.WithLabelValues(tree, org, server, filepath.Base(c.Path)).Set(float64(c.NotAfter.Unix()))
}

// WriteTextfile writes the registry in the text exposition format. The file is
// replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
