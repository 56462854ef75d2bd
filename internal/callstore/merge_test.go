package callstore

import (
	"testing"
	"time"
)

func TestMerge_EmptyFieldsAreNoOps(t *testing.T) {
	now := time.Unix(1700000000, 0)
	dst := CallRecord{
		CallID: "c1", Name: "Asha", PhoneNumber: "+919812345678", Language: "ta",
		Status: "in-progress", DurationSeconds: 12, CallStartTime: "2023-11-14 10:00:00",
		Cost: 0.04,
	}
	Merge(&dst, CallRecord{Status: "ringing"}, now)

	if dst.Name != "Asha" || dst.DurationSeconds != 12 || dst.Cost != 0.04 {
		t.Fatalf("merge erased previously set fields: %+v", dst)
	}
	if dst.CallStartTime != "2023-11-14 10:00:00" {
		t.Fatalf("merge erased start time: %q", dst.CallStartTime)
	}
	if dst.Status != "ringing" {
		t.Fatalf("expected status overwrite, got %q", dst.Status)
	}
}

func TestMerge_TerminalStatusIsMonotonic(t *testing.T) {
	now := time.Unix(1700000000, 0)
	dst := CallRecord{CallID: "c1", Status: StatusCompleted}

	Merge(&dst, CallRecord{Status: "in-progress"}, now)
	if dst.Status != StatusCompleted {
		t.Fatalf("non-terminal overwrote terminal: %q", dst.Status)
	}

	// A later terminal value wins (last-committed-wins between terminals).
	Merge(&dst, CallRecord{Status: "voicemail"}, now)
	if dst.Status != "voicemail" {
		t.Fatalf("expected terminal-to-terminal overwrite, got %q", dst.Status)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	now := time.Unix(1700000000, 0)
	terminal := CallRecord{
		CallID: "c1", Status: StatusCompleted, DurationSeconds: 42,
		CallStartTime: "2023-11-14 10:00:00", CallEndTime: "2023-11-14 10:00:42",
		Cost: 0.12,
	}

	a := CallRecord{CallID: "c1", Status: "in-progress"}
	b := a
	Merge(&a, terminal, now)
	Merge(&b, terminal, now)
	Merge(&b, terminal, now)
	if a != b {
		t.Fatalf("terminal upsert not idempotent:\nonce:  %+v\ntwice: %+v", a, b)
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []string{"ended", "completed", "failed", "not-answered",
		"customer-did-not-answer", "voicemail", "customer-busy", "polling-timeout"} {
		if !IsTerminal(s) {
			t.Fatalf("expected %q terminal", s)
		}
	}
	for _, s := range []string{"", "queued", "ringing", "in-progress", StatusInitiated, StatusEnding} {
		if IsTerminal(s) {
			t.Fatalf("expected %q non-terminal", s)
		}
	}
}

func TestNormalizeTime(t *testing.T) {
	got := NormalizeTime("2023-11-14T22:13:20Z")
	want := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC).Local().Format("2006-01-02 15:04:05")
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got := NormalizeTime("not-a-time"); got != "not-a-time" {
		t.Fatalf("unparseable input should pass through, got %q", got)
	}
	if got := NormalizeTime("  "); got != "" {
		t.Fatalf("blank input should normalize to empty, got %q", got)
	}
}
