package smtpclient

import (
	"net/http"

	"blitiri.com.ar/go/smtpclient/internal/expvarom"
)

// Counters mirroring the teacher's outbound courier metrics
// (internal/courier/smtp.go's tlsCount), broken down the same way: TLS
// outcomes and AUTH result per dial, response code per send.
var (
	dialAttempts = expvarom.NewInt("smtpclient/dial/attempts",
		"Count of Dial calls, regardless of outcome.")
	tlsCount = expvarom.NewMap("smtpclient/dial/tlsCount", "status",
		"Count of TLS decisions made during Dial, by status.")
	responseCodeCount = expvarom.NewMap("smtpclient/send/responseCodeCount", "code",
		"Count of SMTP response codes seen while running a command chain.")
	authResultCount = expvarom.NewMap("smtpclient/send/authResultCount", "result",
		"Count of AUTH attempts during Dial, by result.")
)

// MetricsHandler serves every counter above in Prometheus text exposition
// format. Callers embedding this library in their own server can mount it
// directly, the way chasquid mounts expvarom.MetricsHandler at "/metrics"
// in monitoring.go.
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	expvarom.MetricsHandler(w, r)
}
