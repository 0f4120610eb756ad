package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/crewhub/crewhub/pkg/metrics"
)

type Metrics struct {
	apiResponseTime   *prometheus.HistogramVec
	apiErrorCounter   *prometheus.CounterVec
	transitionCounter *prometheus.CounterVec
	notifyFanoutTime  *prometheus.HistogramVec
	reconcileCounter  *prometheus.CounterVec
}

func NewMetrics(ns, system string) *Metrics {
	// setup metric
	metrics.SetupMetricsManager(ns, system, prometheus.DefaultRegisterer.(*prometheus.Registry))

	m := &Metrics{
		apiResponseTime:   metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter:   metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		transitionCounter: metrics.NewCounterVec("request_transition", []string{"direction", "action", "result"}),
		notifyFanoutTime:  metrics.NewHistogramVec("notification_fanout_time", nil),
		reconcileCounter:  metrics.NewCounterVec("accepting_reconcile", []string{"result"}),
	}

	return m
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) TransitionInc(direction, action, result string) {
	m.transitionCounter.WithLabelValues(direction, action, result).Inc()
}

func (m *Metrics) NotifyFanoutTimer() *prometheus.Timer {
	return prometheus.NewTimer(m.notifyFanoutTime.WithLabelValues())
}

func (m *Metrics) ReconcileInc(result string) {
	m.reconcileCounter.WithLabelValues(result).Inc()
}
