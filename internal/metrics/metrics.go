// Package metrics instruments remote task operations with Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/oauth2"

	"todo/internal/service"
)

const namespace = "todo"

// Metrics groups the Prometheus instruments for remote calls.
type Metrics struct {
	Registry *prometheus.Registry

	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

// New creates instruments registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Remote task operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_ms",
			Help:      "Remote task operation latency in milliseconds.",
			Buckets:   []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"op"}),
	}
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = service.KindOf(err).String()
	}
	m.Requests.WithLabelValues(op, outcome).Inc()
	m.Latency.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
}

// WriteTextfile writes all instruments to path in the Prometheus text format,
// for pickup by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

// Wrap returns a service.Service that records every call made to svc.
func (m *Metrics) Wrap(svc service.Service) service.Service {
	return &instrumented{next: svc, m: m}
}

type instrumented struct {
	next service.Service
	m    *Metrics
}

func (i *instrumented) ListTasks(ctx context.Context, tok *oauth2.Token) ([]service.Task, error) {
	start := time.Now()
	tasks, err := i.next.ListTasks(ctx, tok)
	i.m.observe("list", start, err)
	return tasks, err
}

func (i *instrumented) CreateTask(ctx context.Context, tok *oauth2.Token, title, details string) (service.Task, error) {
	start := time.Now()
	t, err := i.next.CreateTask(ctx, tok, title, details)
	i.m.observe("create", start, err)
	return t, err
}

func (i *instrumented) UpdateTask(ctx context.Context, tok *oauth2.Token, id service.ID, title, details string) (service.Task, error) {
	start := time.Now()
	t, err := i.next.UpdateTask(ctx, tok, id, title, details)
	i.m.observe("update", start, err)
	return t, err
}

func (i *instrumented) DeleteTask(ctx context.Context, tok *oauth2.Token, id service.ID) error {
	start := time.Now()
	err := i.next.DeleteTask(ctx, tok, id)
	i.m.observe("delete", start, err)
	return err
}

func (i *instrumented) ToggleTask(ctx context.Context, tok *oauth2.Token, id service.ID, current bool) (service.Task, error) {
	start := time.Now()
	t, err := i.next.ToggleTask(ctx, tok, id, current)
	i.m.observe("toggle", start, err)
	return t, err
}
