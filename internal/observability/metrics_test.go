package observability

import (
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics(testLogger)
	m.ScrollPolls.Add(4)
	m.CardsRendered.Store(25)
	m.AIExtractions.Add(20)
	m.HeuristicExtractions.Add(5)
	m.DuplicatesSuppressed.Add(2)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"mapstalk_scroll_polls_total 4",
		"mapstalk_cards_rendered 25",
		"mapstalk_ai_extractions_total 20",
		"mapstalk_heuristic_extractions_total 5",
		"mapstalk_duplicates_suppressed_total 2",
		"# TYPE mapstalk_scroll_polls_total counter",
		"# TYPE mapstalk_cards_rendered gauge",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
	if strings.Contains(body, "mapstalk_cards_rendered_total") {
		t.Error("gauge must not carry the _total suffix")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics(testLogger)
	m.RecordsAccumulated.Add(7)
	m.RecordsStored.Add(7)

	snap := m.Snapshot()
	if snap["records_accumulated"] != 7 || snap["records_stored"] != 7 {
		t.Errorf("snapshot = %v", snap)
	}
	if _, ok := snap["resolver_hits"]; !ok {
		t.Error("snapshot missing resolver_hits")
	}
}
