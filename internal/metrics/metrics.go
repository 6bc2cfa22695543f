// metrics - prometheus-метрики blog-admin.
// Экземпляр регистрируется в переданном Registerer (в main это prometheus.DefaultRegisterer,
// в тестах - отдельный prometheus.NewRegistry()).
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "blog_admin"

// Результаты входа для blog_admin_login_total{result}.
const (
	LoginSuccess     = "success"
	LoginRejected    = "rejected"
	LoginNoSession   = "no_session"
	LoginInvalid     = "invalid"
	LoginRateLimited = "rate_limited"
	LoginError       = "error"
)

// Metrics - набор коллекторов. Методы безопасны для nil-получателя,
// чтобы компоненты работали без метрик в тестах.
type Metrics struct {
	guardDecisions *prometheus.CounterVec
	logins         *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New создаёт и регистрирует коллекторы.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Session guard decisions by final state.",
		}, []string{"state"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status.",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	for _, c := range []prometheus.Collector{m.guardDecisions, m.logins, m.httpRequests, m.httpDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// MustNew - паника при ошибке регистрации.
func MustNew(reg prometheus.Registerer) *Metrics {
	m, err := New(reg)
	if err != nil {
		panic(err)
	}

	return m
}

// GuardDecision учитывает итоговое состояние гарда.
func (m *Metrics) GuardDecision(state string) {
	if m == nil {
		return
	}

	m.guardDecisions.WithLabelValues(state).Inc()
}

// Login учитывает попытку входа.
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}

	m.logins.WithLabelValues(result).Inc()
}

// HTTPRequest учитывает обработанный запрос.
func (m *Metrics) HTTPRequest(method string, status int, dur time.Duration) {
	if m == nil {
		return
	}

	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(dur.Seconds())
}
