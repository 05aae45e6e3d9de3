package recording

import "github.com/prometheus/client_golang/prometheus"

var (
	startsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recording_starts_total",
			Help: "Start requests by outcome",
		},
		[]string{"outcome"}, // created, already_recording, failed
	)
	stopsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recording_stops_total",
			Help: "Stop requests by outcome",
		},
		[]string{"outcome"}, // stopped, async_sent, finalizing, already_ended, failed
	)
	sweepStopsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recording_sweep_stops_total",
			Help: "Recordings stopped by the cleanup sweep, by reason",
		},
		[]string{"reason"}, // max_duration, empty_room
	)
)

func init() {
	prometheus.MustRegister(startsTotal, stopsTotal, sweepStopsTotal)
}
