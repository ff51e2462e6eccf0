package main

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const (
	requestDurationName = "http_request_duration_ms"
	requestsTotalName   = "http_requests_total"
	totalRequestsName   = "total_requests"

	// abortedStatus labels requests whose handler panicked out before
	// committing a response.
	abortedStatus = "aborted"
)

var requestDurationBuckets = []float64{0.10, 5, 15, 50, 100, 200, 300, 400, 500}

var errMetricsDisabled = errors.New("metrics collection is not enabled")

// instrumentation is the request-metrics pipeline used by the router. It is
// resolved once at startup to either *Metrics or noopInstrumentation.
type instrumentation interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
	Render() (text string, contentType string, err error)
	TotalRequests() float64
	Enabled() bool
}

var (
	_ instrumentation = (*Metrics)(nil)
	_ instrumentation = noopInstrumentation{}
)

// familyInfo remembers a custom metric family so it can be rendered before
// any of its label combinations exist.
type familyInfo struct {
	name string
	help string
	typ  dto.MetricType
}

func (f familyInfo) stub() *dto.MetricFamily {
	name, help, typ := f.name, f.help, f.typ
	return &dto.MetricFamily{Name: &name, Help: &help, Type: &typ}
}

// Metrics is the Prometheus-backed instrumentation. It owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	totalRequests   prometheus.Counter

	families []familyInfo
	declared map[string]bool
}

// NewMetrics registers the default runtime collectors and the request
// instruments with reg. It fails if any name is already registered.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		return nil, errors.New("nil registry")
	}
	if err := collectDefaultMetrics(reg); err != nil {
		return nil, err
	}

	m := &Metrics{
		registry: reg,
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    requestDurationName,
				Help:    "Duration of HTTP requests in ms",
				Buckets: requestDurationBuckets,
			},
			[]string{"route"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: requestsTotalName,
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "status"},
		),
		totalRequests: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: totalRequestsName,
				Help: "Total number of requests received",
			},
		),
		declared: make(map[string]bool),
	}

	if err := m.register(m.requestDuration, requestDurationName, "Duration of HTTP requests in ms", dto.MetricType_HISTOGRAM); err != nil {
		return nil, err
	}
	if err := m.register(m.requestsTotal, requestsTotalName, "Total number of HTTP requests", dto.MetricType_COUNTER); err != nil {
		return nil, err
	}
	if err := m.register(m.totalRequests, totalRequestsName, "Total number of requests received", dto.MetricType_COUNTER); err != nil {
		return nil, err
	}
	return m, nil
}

// collectDefaultMetrics registers Go runtime and process collectors. Both are
// evaluated lazily on every gather.
func collectDefaultMetrics(reg prometheus.Registerer) error {
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return fmt.Errorf("register go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return fmt.Errorf("register process collector: %w", err)
	}
	return nil
}

func (m *Metrics) register(c prometheus.Collector, name, help string, typ dto.MetricType) error {
	if err := m.registry.Register(c); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	m.families = append(m.families, familyInfo{name: name, help: help, typ: typ})
	m.declared[name] = true
	return nil
}

// Middleware counts the request before calling next and records its duration
// and final status once next returns.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.totalRequests.Inc()
		route := r.URL.Path

		rw := newResponseWriter(w)
		completed := false
		defer func() {
			elapsed := float64(time.Since(start)) / float64(time.Millisecond)
			m.requestDuration.WithLabelValues(route).Observe(elapsed)
			status := strconv.Itoa(rw.statusCode)
			if !completed && !rw.written {
				// Aborted before anything reached the client.
				status = abortedStatus
			}
			m.requestsTotal.WithLabelValues(route, status).Inc()
		}()
		next.ServeHTTP(rw, r)
		completed = true
	})
}

// Handler serves the registry in the exposition format negotiated from the
// Accept header, gzip-compressed when the client allows it.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := expfmt.Negotiate(r.Header)
		var buf bytes.Buffer
		if err := m.writeExposition(&buf, format); err != nil {
			log.Printf("Error generating metrics: %v", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   "Failed to generate metrics",
				Message: err.Error(),
			})
			return
		}
		w.Header().Set("Content-Type", string(format))
		w.Header().Add("Vary", "Accept-Encoding")
		if acceptsGzip(r.Header) {
			w.Header().Set("Content-Encoding", "gzip")
			w.WriteHeader(http.StatusOK)
			gz := gzip.NewWriter(w)
			if _, err := gz.Write(buf.Bytes()); err != nil {
				log.Printf("Error writing metrics: %v", err)
			}
			if err := gz.Close(); err != nil {
				log.Printf("Error writing metrics: %v", err)
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(buf.Bytes()); err != nil {
			log.Printf("Error writing metrics: %v", err)
		}
	})
}

// acceptsGzip reports whether the Accept-Encoding header allows gzip.
func acceptsGzip(h http.Header) bool {
	for _, value := range h.Values("Accept-Encoding") {
		for _, part := range strings.Split(value, ",") {
			coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
			if !strings.EqualFold(strings.TrimSpace(coding), "gzip") {
				continue
			}
			key, val, ok := strings.Cut(strings.TrimSpace(params), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(key), "q") {
				return true
			}
			q, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			return err == nil && q > 0
		}
	}
	return false
}

// Render returns the current snapshot in the Prometheus text format.
func (m *Metrics) Render() (string, string, error) {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	var buf bytes.Buffer
	if err := m.writeExposition(&buf, format); err != nil {
		return "", "", err
	}
	return buf.String(), string(format), nil
}

// TotalRequests reads the unlabeled request counter.
func (m *Metrics) TotalRequests() float64 {
	var pb dto.Metric
	if err := m.totalRequests.Write(&pb); err != nil {
		return 0
	}
	return pb.GetCounter().GetValue()
}

func (m *Metrics) Enabled() bool { return true }

// writeExposition gathers the registry and encodes it. Families owned by other
// collectors come first in name order, followed by the request instruments in
// registration order. A request instrument without label combinations yet is
// written as its HELP and TYPE lines only.
func (m *Metrics) writeExposition(w io.Writer, format expfmt.Format) error {
	mfs, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	gathered := make(map[string]*dto.MetricFamily, len(mfs))
	ordered := make([]*dto.MetricFamily, 0, len(mfs)+len(m.families))
	for _, mf := range mfs {
		if m.declared[mf.GetName()] {
			gathered[mf.GetName()] = mf
			continue
		}
		ordered = append(ordered, mf)
	}
	for _, f := range m.families {
		if mf, ok := gathered[f.name]; ok {
			ordered = append(ordered, mf)
			continue
		}
		ordered = append(ordered, f.stub())
	}

	text := format.FormatType() == expfmt.TypeTextPlain
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range ordered {
		if text && len(mf.GetMetric()) == 0 {
			if err := writeTextHeader(w, mf); err != nil {
				return fmt.Errorf("encode %s: %w", mf.GetName(), err)
			}
			continue
		}
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	if closer, ok := enc.(expfmt.Closer); ok {
		return closer.Close()
	}
	return nil
}

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

func writeTextHeader(w io.Writer, mf *dto.MetricFamily) error {
	name := mf.GetName()
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n",
		name, helpEscaper.Replace(mf.GetHelp()),
		name, strings.ToLower(mf.GetType().String()))
	return err
}

// noopInstrumentation stands in when metrics could not be initialized.
type noopInstrumentation struct{}

func (noopInstrumentation) Middleware(next http.Handler) http.Handler { return next }

func (noopInstrumentation) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("Prometheus registry not available")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Metrics collection is not enabled"})
	})
}

func (noopInstrumentation) Render() (string, string, error) { return "", "", errMetricsDisabled }

func (noopInstrumentation) TotalRequests() float64 { return 0 }

func (noopInstrumentation) Enabled() bool { return false }

// newInstrumentation decides once whether requests are instrumented. Any
// registration failure disables metrics instead of stopping the server.
func newInstrumentation(enabled bool, reg *prometheus.Registry) instrumentation {
	if !enabled {
		log.Printf("Metrics collection disabled by configuration")
		return noopInstrumentation{}
	}
	m, err := NewMetrics(reg)
	if err != nil {
		log.Printf("Failed to initialize metrics, continuing without them: %v", err)
		return noopInstrumentation{}
	}
	log.Printf("Prometheus registry created with default and request metrics")
	return m
}
