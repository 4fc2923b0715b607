package log

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTally(t *testing.T) {
	t.Parallel()

	tally := NewTally()
	tally.add("transport")
	tally.add("transport")
	tally.add("schema")

	if got := tally.Count("transport"); got != 2 {
		t.Errorf("expected 2 transport failures, got %d", got)
	}
	if got := tally.Count("schema"); got != 1 {
		t.Errorf("expected 1 schema failure, got %d", got)
	}
	if got := tally.Count("identity"); got != 0 {
		t.Errorf("expected 0 identity failures, got %d", got)
	}
	if got := tally.Total(); got != 3 {
		t.Errorf("expected 3 total failures, got %d", got)
	}
	if diff := cmp.Diff([]string{"schema", "transport"}, tally.Categories()); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestTallyConcurrent(t *testing.T) {
	t.Parallel()

	tally := NewTally()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tally.add("transport")
			}
		}()
	}
	wg.Wait()

	if got := tally.Count("transport"); got != 1000 {
		t.Errorf("expected 1000, got %d", got)
	}
}

func TestTallyHandlerCountsReasonRecords(t *testing.T) {
	t.Parallel()

	logger, tally := NewLogger(&bytes.Buffer{}, true)

	logger.Debug("crawl job failed", "domain", "a.example", ReasonKey, "transport")
	logger.Debug("crawl job failed", "domain", "b.example", ReasonKey, "transport")
	logger.Debug("crawl job failed", "domain", "c.example", ReasonKey, "policy")
	logger.Debug("worker claimed job", "domain", "d.example")
	logger.Info("version gate derived", "minimum", "0.18.3")

	if got := tally.Count("transport"); got != 2 {
		t.Errorf("expected 2 transport failures, got %d", got)
	}
	if got := tally.Count("policy"); got != 1 {
		t.Errorf("expected 1 policy failure, got %d", got)
	}
	if got := tally.Total(); got != 3 {
		t.Errorf("records without a reason attribute must not be counted, total %d", got)
	}
}

func TestTallyHandlerCountsSuppressedRecords(t *testing.T) {
	t.Parallel()

	// Non-verbose logging suppresses debug output, but the tally must
	// still see the failure records flowing past.
	var buf bytes.Buffer
	logger, tally := NewLogger(&buf, false)

	logger.Debug("crawl job failed", "domain", "a.example", ReasonKey, "schema")

	if got := tally.Count("schema"); got != 1 {
		t.Errorf("suppressed debug record not tallied, count %d", got)
	}
	if buf.Len() != 0 {
		t.Errorf("debug record leaked to non-verbose output: %q", buf.String())
	}
}

func TestTallyHandlerSharedAcrossDerivedLoggers(t *testing.T) {
	t.Parallel()

	logger, tally := NewLogger(&bytes.Buffer{}, true)
	derived := logger.With("worker", 3).WithGroup("crawl")

	derived.Debug("crawl job failed", ReasonKey, "identity")

	if got := tally.Count("identity"); got != 1 {
		t.Errorf("derived logger record not tallied, count %d", got)
	}
}

func TestNewLoggerVerbosity(t *testing.T) {
	t.Parallel()

	t.Run("verbose emits debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger, _ := NewLogger(&buf, true)
		logger.Debug("visible")
		if !strings.Contains(buf.String(), "visible") {
			t.Error("verbose logger suppressed a debug record")
		}
	})

	t.Run("quiet suppresses info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger, _ := NewLogger(&buf, false)
		logger.Info("hidden")
		logger.Warn("shown")
		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Error("quiet logger emitted an info record")
		}
		if !strings.Contains(out, "shown") {
			t.Error("quiet logger suppressed a warning")
		}
	})
}
