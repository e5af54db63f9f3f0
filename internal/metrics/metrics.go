package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Исходы редиректа
const (
	OutcomeRedirected = "redirected"
	OutcomeMissing    = "missing"
	OutcomeDisabled   = "disabled"
	OutcomeError      = "error"
)

// Metrics счётчики трекинга. Методы безопасны для nil-получателя.
type Metrics struct {
	redirects     *prometheus.CounterVec
	clickWrites   *prometheus.CounterVec
	clickOverflow prometheus.Counter
	events        *prometheus.CounterVec
	eventErrors   prometheus.Counter
	rateLimited   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "redirects_total",
			Help:      "Short link resolutions by outcome.",
		}, []string{"outcome"}),
		clickWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "click_writes_total",
			Help:      "Background click writes by result.",
		}, []string{"result"}),
		clickOverflow: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "click_queue_overflow_total",
			Help:      "Clicks written outside the worker pool because the queue was full.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "analytics_events_total",
			Help:      "Recorded analytics events by correlation state.",
		}, []string{"linked"}),
		eventErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "analytics_event_errors_total",
			Help:      "Analytics events dropped because of storage errors.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}

	reg.MustRegister(m.redirects, m.clickWrites, m.clickOverflow, m.events, m.eventErrors, m.rateLimited)
	return m
}

func (m *Metrics) Redirect(outcome string) {
	if m == nil {
		return
	}
	m.redirects.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ClickWrite(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.clickWrites.WithLabelValues("error").Inc()
		return
	}
	m.clickWrites.WithLabelValues("ok").Inc()
}

func (m *Metrics) ClickOverflow() {
	if m == nil {
		return
	}
	m.clickOverflow.Inc()
}

func (m *Metrics) EventRecorded(linked bool) {
	if m == nil {
		return
	}
	if linked {
		m.events.WithLabelValues("true").Inc()
		return
	}
	m.events.WithLabelValues("false").Inc()
}

func (m *Metrics) EventFailed() {
	if m == nil {
		return
	}
	m.eventErrors.Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

