package metrics

import "github.com/prometheus/client_golang/prometheus"

// SafetyMetrics exposes counters for SMS sends & SOS alerts.
type SafetyMetrics struct {
	smsAttempts *prometheus.CounterVec
	sosAlerts   *prometheus.CounterVec
}

func NewSafetyMetrics(reg prometheus.Registerer) *SafetyMetrics {
	m := &SafetyMetrics{
		smsAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raksha",
			Name:      "sms_attempts_total",
			Help:      "Total SMS send attempts by outcome",
		}, []string{"status"}),
		sosAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raksha",
			Name:      "sos_alerts_total",
			Help:      "Total SOS alert requests by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.smsAttempts, m.sosAlerts)
	return m
}

// ObserveSMSAttempt status is one of sent|failed|simulated
func (m *SafetyMetrics) ObserveSMSAttempt(status string) {
	if m == nil {
		return
	}
	m.smsAttempts.WithLabelValues(status).Inc()
}

func (m *SafetyMetrics) ObserveSOSAlert(outcome string) {
	if m == nil {
		return
	}
	m.sosAlerts.WithLabelValues(outcome).Inc()
}
