package types

import "testing"

func TestRecordKeyCaseInsensitive(t *testing.T) {
	a := BusinessRecord{Name: "Acme Cafe", Address: "1 Main St", Phone: "(555) 123-4567"}
	b := BusinessRecord{Name: "ACME CAFE", Address: "1 MAIN ST", Phone: "(555) 123-4567"}

	if a.Key() != b.Key() {
		t.Errorf("keys differ for case-variant records: %q vs %q", a.Key(), b.Key())
	}
}

func TestRecordKeyDistinguishesFields(t *testing.T) {
	// The separator must keep adjacent fields from bleeding into each other.
	a := BusinessRecord{Name: "ab", BusinessType: "c"}
	b := BusinessRecord{Name: "a", BusinessType: "bc"}

	if a.Key() == b.Key() {
		t.Error("different records produced the same key")
	}
}

func TestIsEmpty(t *testing.T) {
	if !(BusinessRecord{}).IsEmpty() {
		t.Error("zero record should be empty")
	}
	if (BusinessRecord{Website: "https://acme.example"}).IsEmpty() {
		t.Error("record with a website should not be empty")
	}
}

func TestStopSignalLevels(t *testing.T) {
	var s StopSignal

	if s.StopScrolling() || s.StopAll() {
		t.Fatal("fresh signal should be clear")
	}

	s.RequestStopScrolling()
	if !s.StopScrolling() {
		t.Error("stop-scrolling not observed")
	}
	if s.StopAll() {
		t.Error("stop-scrolling must not imply stop-all")
	}

	s.RequestStopAll()
	if !s.StopAll() || !s.StopScrolling() {
		t.Error("stop-all must imply both levels")
	}

	s.Reset()
	if s.StopScrolling() || s.StopAll() {
		t.Error("reset did not clear the signal")
	}
}
