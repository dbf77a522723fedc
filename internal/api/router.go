package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter wires the gateway's HTTP surface: the inbound webhook receiver,
// protocol classification, DLQ administration, health and metrics.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", h.HealthCheckHandler).Methods("GET")

	r.Handle("/classify", otelhttp.NewHandler(http.HandlerFunc(h.ClassifyHandler), "classify")).Methods("POST")
	r.Handle("/webhooks/merchant", otelhttp.NewHandler(http.HandlerFunc(h.ReceiveWebhookHandler), "webhook-receive")).Methods("POST")

	r.Handle("/dlq", otelhttp.NewHandler(http.HandlerFunc(h.ListDeadLettersHandler), "dlq-list")).Methods("GET")
	r.Handle("/dlq/{id}", otelhttp.NewHandler(http.HandlerFunc(h.GetDeadLetterHandler), "dlq-get")).Methods("GET")
	r.Handle("/dlq/{id}/retry", otelhttp.NewHandler(http.HandlerFunc(h.RetryDeadLetterHandler), "dlq-retry")).Methods("POST")
	r.Handle("/dlq/{id}", otelhttp.NewHandler(http.HandlerFunc(h.DeleteDeadLetterHandler), "dlq-delete")).Methods("DELETE")

	return r
}
