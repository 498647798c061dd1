package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	LifecycleTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "raceday_event_transitions_total", Help: "Event lifecycle transitions by action"},
		[]string{"action"},
	)
	RegistrationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "raceday_registrations_total", Help: "Registrations created"},
	)
	CheckInsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "raceday_checkins_total", Help: "Check-in outcomes recorded"},
	)
	InspectionsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "raceday_inspections_total", Help: "Technical inspection outcomes recorded"},
	)
	WeightChecksRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "raceday_weight_checks_total", Help: "Weight control readings recorded"},
	)
	SSESubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "raceday_sse_subscribers", Help: "Currently connected SSE subscribers"},
	)
	DroppedNotifications = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "raceday_notifications_dropped_total", Help: "Notifications dropped because no subscriber could take them"},
	)
)

func Register() {
	prometheus.MustRegister(
		LifecycleTransitions,
		RegistrationsCreated,
		CheckInsRecorded,
		InspectionsRecorded,
		WeightChecksRecorded,
		SSESubscribers,
		DroppedNotifications,
	)
}
