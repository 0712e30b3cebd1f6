package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reqlint/reqlint/internal/coverage"
)

var httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "reqlint_http_requests_total",
	Help: "API requests by method and status code.",
}, []string{"method", "code"})

// MetricsHandler exposes the default registry.
func MetricsHandler() http.Handler { return promhttp.Handler() }

// RegisterStoreMetrics publishes gauges derived from the run store at scrape
// time. Calling it again keeps the collector already registered.
func RegisterStoreMetrics(db Store) {
	c := &storeCollector{
		db: db,
		runs: prometheus.NewDesc("reqlint_runs_stored",
			"Stored analysis runs, capped at 1000.", nil, nil),
		issues: prometheus.NewDesc("reqlint_latest_run_issues",
			"Issues in the most recent run, by severity.", []string{"severity"}, nil),
		corpus: prometheus.NewDesc("reqlint_latest_run_corpus",
			"Corpus entity counts of the most recent run.", []string{"kind"}, nil),
	}
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			panic(err)
		}
	}
}

type storeCollector struct {
	db     Store
	runs   *prometheus.Desc
	issues *prometheus.Desc
	corpus *prometheus.Desc
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.runs
	ch <- c.issues
	ch <- c.corpus
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	rows, err := c.db.ListRuns(1000, 0)
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.runs, prometheus.GaugeValue, float64(len(rows)))

	run, err := c.db.LoadLatestRun()
	if err != nil {
		return
	}
	bySev := map[string]int{"CRITICAL": 0, "MAJOR": 0, "MINOR": 0}
	for _, iss := range run.Issues {
		bySev[string(iss.Severity)]++
	}
	for sev, n := range bySev {
		ch <- prometheus.MustNewConstMetric(c.issues, prometheus.GaugeValue, float64(n), sev)
	}

	st := coverage.Collect(run.Corpus)
	for kind, n := range map[string]int{
		"documents":      st.Documents,
		"objectives":     st.Objectives,
		"requirements":   st.Requirements,
		"glossary_terms": st.GlossaryTerms,
	} {
		ch <- prometheus.MustNewConstMetric(c.corpus, prometheus.GaugeValue, float64(n), kind)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument counts every request that passes through the mux.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.code)).Inc()
	})
}
