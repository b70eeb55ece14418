package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flows.
type BookingMetrics struct {
	slotQueries       *prometheus.CounterVec
	slotsEmitted      prometheus.Histogram
	appointmentsTotal *prometheus.CounterVec
	emailsTotal       *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		slotQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "schedule",
			Name:      "slot_queries_total",
			Help:      "Total availability queries",
		}, []string{"status"}),
		slotsEmitted: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "schedule",
			Name:      "slots_emitted",
			Help:      "Available slots returned per query",
			Buckets:   []float64{0, 1, 2, 5, 10, 15, 20},
		}),
		appointmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "transitions_total",
			Help:      "Appointment lifecycle transitions",
		}, []string{"status"}),
		emailsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "mail",
			Name:      "sent_total",
			Help:      "Outbound emails by template and outcome",
		}, []string{"template", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.slotQueries, m.slotsEmitted, m.appointmentsTotal, m.emailsTotal)
	return m
}

func (m *BookingMetrics) ObserveSlotQuery(status string, slots int) {
	if m == nil {
		return
	}
	m.slotQueries.WithLabelValues(status).Inc()
	if status == "ok" {
		m.slotsEmitted.Observe(float64(slots))
	}
}

func (m *BookingMetrics) ObserveAppointment(status string) {
	if m == nil {
		return
	}
	m.appointmentsTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveEmail(template, outcome string) {
	if m == nil {
		return
	}
	m.emailsTotal.WithLabelValues(template, outcome).Inc()
}
