package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for a harvest run.
type Metrics struct {
	// Discovery
	ScrollPolls    atomic.Int64
	CardsRendered  atomic.Int64
	CardsProcessed atomic.Int64
	CardsSkipped   atomic.Int64

	// Extraction
	AIExtractions        atomic.Int64
	HeuristicExtractions atomic.Int64
	ResolverLookups      atomic.Int64
	ResolverHits         atomic.Int64

	// Accumulation
	DuplicatesSuppressed atomic.Int64
	RecordsAccumulated   atomic.Int64
	RecordsStored        atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		mtype string
		help  string
		value int64
	}{
		{"mapstalk_scroll_polls_total", "counter", "Total discovery polls", m.ScrollPolls.Load()},
		{"mapstalk_cards_rendered", "gauge", "Distinct cards discovered in the results list", m.CardsRendered.Load()},
		{"mapstalk_cards_processed_total", "counter", "Total cards sent to extraction", m.CardsProcessed.Load()},
		{"mapstalk_cards_skipped_total", "counter", "Total cards skipped on item-level failure", m.CardsSkipped.Load()},
		{"mapstalk_ai_extractions_total", "counter", "Total AI-sourced extractions", m.AIExtractions.Load()},
		{"mapstalk_heuristic_extractions_total", "counter", "Total heuristic-sourced extractions", m.HeuristicExtractions.Load()},
		{"mapstalk_resolver_lookups_total", "counter", "Total secondary-site email lookups", m.ResolverLookups.Load()},
		{"mapstalk_resolver_hits_total", "counter", "Total email lookups that found an address", m.ResolverHits.Load()},
		{"mapstalk_duplicates_suppressed_total", "counter", "Total records suppressed by dedup", m.DuplicatesSuppressed.Load()},
		{"mapstalk_records_accumulated_total", "counter", "Total records accumulated", m.RecordsAccumulated.Load()},
		{"mapstalk_records_stored_total", "counter", "Total records handed to storage", m.RecordsStored.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.mtype)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all counters as a map for the end-of-run summary.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"scroll_polls":          m.ScrollPolls.Load(),
		"cards_rendered":        m.CardsRendered.Load(),
		"cards_processed":       m.CardsProcessed.Load(),
		"cards_skipped":         m.CardsSkipped.Load(),
		"ai_extractions":        m.AIExtractions.Load(),
		"heuristic_extractions": m.HeuristicExtractions.Load(),
		"resolver_lookups":      m.ResolverLookups.Load(),
		"resolver_hits":         m.ResolverHits.Load(),
		"duplicates_suppressed": m.DuplicatesSuppressed.Load(),
		"records_accumulated":   m.RecordsAccumulated.Load(),
		"records_stored":        m.RecordsStored.Load(),
	}
}
