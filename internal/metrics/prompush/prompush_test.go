package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"doc2db/internal/metrics"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func summaryCount(t *testing.T, v *prometheus.SummaryVec, step, status string) (uint64, float64) {
	t.Helper()
	var m dto.Metric
	if err := v.WithLabelValues(step, status).(prometheus.Metric).Write(&m); err != nil {
		t.Fatalf("write summary: %v", err)
	}
	return m.GetSummary().GetSampleCount(), m.GetSummary().GetSampleSum()
}

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := NewBackend("", "http://pushgateway.invalid")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	return b
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend("doc2db", ""); err == nil {
		t.Fatal("missing gateway URL: want error")
	}

	b := newTestBackend(t)
	if b.jobName != DefaultJob {
		t.Fatalf("jobName=%q; want %q", b.jobName, DefaultJob)
	}

	named, err := NewBackend("nightly", "http://gw:9091")
	if err != nil || named.jobName != "nightly" || named.gatewayURL != "http://gw:9091" {
		t.Fatalf("NewBackend(nightly)=%+v, %v", named, err)
	}
}

func TestIncCounter_Routing(t *testing.T) {
	t.Parallel()

	b := newTestBackend(t)
	b.IncCounter(metrics.StepTotal, 2, metrics.Labels{"step": "oracle", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 9, metrics.Labels{"kind": "inserted"})
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": "skipped"})
	b.IncCounter(metrics.StatementsTotal, 2, metrics.Labels{"kind": "executed"})
	b.IncCounter(metrics.StatementsTotal, 0.5, metrics.Labels{"kind": "executed"})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"kind": "inserted"})

	checks := []struct {
		name string
		c    prometheus.Counter
		want float64
	}{
		{"step oracle/success", b.stepCounter.WithLabelValues("oracle", "success"), 2},
		{"rows inserted", b.rowCounter.WithLabelValues("inserted"), 9},
		{"rows skipped", b.rowCounter.WithLabelValues("skipped"), 1},
		{"statements executed", b.statementCounter.WithLabelValues("executed"), 2.5},
		{"statements failed", b.statementCounter.WithLabelValues("failed"), 0},
	}
	for _, c := range checks {
		if got := counterValue(t, c.c); got != c.want {
			t.Errorf("%s = %v; want %v", c.name, got, c.want)
		}
	}
}

func TestZeroBackendIsSafe(t *testing.T) {
	t.Parallel()

	var b Backend
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "s", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": "inserted"})
	b.IncCounter(metrics.StatementsTotal, 1, metrics.Labels{"kind": "failed"})
	b.ObserveHistogram(metrics.StepDuration, 1, metrics.Labels{"step": "s", "status": "success"})
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b := newTestBackend(t)
	lbls := metrics.Labels{"step": "ingest", "status": "success"}
	b.ObserveHistogram(metrics.StepDuration, 1.5, lbls)
	b.ObserveHistogram("other_metric", 2, lbls)

	n, sum := summaryCount(t, b.stepDuration, "ingest", "success")
	if n != 1 || sum != 1.5 {
		t.Fatalf("summary count=%d sum=%v; want 1/1.5", n, sum)
	}
}

func TestFlush_PushesRegistry(t *testing.T) {
	t.Parallel()

	type pushed struct {
		method, path, body string
	}
	got := make(chan pushed, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- pushed{r.Method, r.URL.Path, string(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	b, err := NewBackend("doc2db-test", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter(metrics.RowsTotal, 3, metrics.Labels{"kind": "inserted"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	select {
	case p := <-got:
		if p.method != http.MethodPut {
			t.Errorf("method=%s; want PUT", p.method)
		}
		if !strings.Contains(p.path, "/job/doc2db-test") {
			t.Errorf("path=%s; want job grouping", p.path)
		}
		if len(p.body) == 0 {
			t.Error("empty push body")
		}
	default:
		t.Fatal("Flush did not reach the gateway")
	}
}

func BenchmarkIncCounterRows(b *testing.B) {
	backend, err := NewBackend("doc2db", "http://pushgateway.invalid")
	if err != nil {
		b.Fatalf("NewBackend: %v", err)
	}
	lbls := metrics.Labels{"kind": "inserted"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backend.IncCounter(metrics.RowsTotal, 1, lbls)
	}
}
