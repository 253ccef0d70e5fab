// Package metric provides Prometheus-based metrics collection and HTTP server
// for monitoring the dual-store write path.
//
// The package offers a centralized metrics registry managing both core
// write-path metrics (write outcomes, compensations, store health) and
// custom component metrics. It includes an HTTP server exposing metrics
// in Prometheus format.
//
// # Basic Usage
//
// Setting up metrics collection and HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil && err != http.ErrServerClosed {
//	        log.Printf("Metrics server error: %v", err)
//	    }
//	}()
//
//	core := registry.CoreMetrics()
//	core.RecordWrite("genre", "create", metric.OutcomeApplied, elapsed)
//	core.SetStoreUp("mongodb", true)
//
// Components register their own metrics through the MetricsRegistrar
// interface, keeping a single /metrics endpoint for the whole process.
package metric
