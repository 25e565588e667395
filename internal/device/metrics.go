package device

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	devicesCommanded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wled_commands_total",
		Help: "The total number of segment commands sent to the WLED device",
	}, []string{"effect", "result"})

	connectionTests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wled_connection_tests_total",
		Help: "The total number of WLED connection tests",
	}, []string{"result"})
)
