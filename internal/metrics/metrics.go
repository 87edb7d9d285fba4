// Package metrics expone contadores Prometheus de la API: peticiones por
// operación/estado, rechazos de la cadena de políticas por motivo y facturas
// creadas. Se sirve en GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Motivos de rechazo de la cadena de políticas (labels de PolicyRejections).
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonForbidden       = "forbidden"
	ReasonRateLimited     = "rate_limited"
	ReasonInvalidArgument = "invalid_argument"
)

// Metrics agrupa los colectores de la aplicación.
type Metrics struct {
	Requests         *prometheus.CounterVec
	PolicyRejections *prometheus.CounterVec
	BillsCreated     prometheus.Counter
}

// New crea los colectores y los registra en el registry dado.
// Pasar prometheus.NewRegistry() en tests para aislar estado.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "firmbill",
			Name:      "requests_total",
			Help:      "Peticiones HTTP por operación y código de estado.",
		}, []string{"operation", "status"}),
		PolicyRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "firmbill",
			Name:      "policy_rejections_total",
			Help:      "Rechazos de la cadena de políticas por operación y motivo.",
		}, []string{"operation", "reason"}),
		BillsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "firmbill",
			Name:      "bills_created_total",
			Help:      "Facturas creadas con éxito.",
		}),
	}
	reg.MustRegister(m.Requests, m.PolicyRejections, m.BillsCreated)
	return m
}
