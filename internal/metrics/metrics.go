package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all service metrics
const namespace = "localevents"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo is a gauge that exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date", "storage"},
)

// HealthCheckStatus tracks individual readiness check results
// Values: 0 = fail, 2 = pass
var HealthCheckStatus = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "health_check_status",
		Help:      "Individual health check status (0=fail, 2=pass)",
	},
	[]string{"check"},
)

// RSVPOperations counts roster operations by outcome.
// operation: add|cancel, outcome: ok|already_rsvped|full|not_rsvped|not_found|error
var RSVPOperations = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rsvp_operations_total",
		Help:      "Total number of RSVP operations by outcome",
	},
	[]string{"operation", "outcome"},
)

// EventMutations counts organizer writes by operation and outcome.
var EventMutations = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_mutations_total",
		Help:      "Total number of event create/update/delete operations",
	},
	[]string{"operation", "outcome"},
)

// AuthAttempts counts register and login attempts by outcome.
var AuthAttempts = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of register/login attempts",
	},
	[]string{"operation", "outcome"},
)

// Init registers runtime collectors and sets version information
func Init(version, commit, buildDate, storage string) {
	// Register default Go metrics (memory, goroutines, GC, etc.)
	Registry.MustRegister(collectors.NewGoCollector())

	// Register process metrics (CPU, memory, file descriptors)
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	AppInfo.WithLabelValues(version, commit, buildDate, storage).Set(1)
}
