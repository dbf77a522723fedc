package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/dlq"
	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/protocol"
	"github.com/AnthonyGillesRudolfo/Agentic-Payment-Gateway/internal/webhook"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)

// errorBody follows the ACP error envelope: a coarse type plus a stable
// machine-readable code.
type errorBody struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type Handler struct {
	detector   *protocol.Detector
	store      dlq.Store
	replayer   *dlq.Replayer
	merchantID string
	secret     []byte
}

func NewHandler(detector *protocol.Detector, store dlq.Store, replayer *dlq.Replayer, merchantID string, secret []byte) *Handler {
	return &Handler{
		detector:   detector,
		store:      store,
		replayer:   replayer,
		merchantID: merchantID,
		secret:     secret,
	}
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ClassifyHandler classifies a request the way the gateway's router would.
// The target path being classified is passed as the `path` query parameter;
// headers and body come from the request itself.
func (h *Handler) ClassifyHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/classify"))
	defer timer.ObserveDuration()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/classify", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "processing_error", "read_failed", "could not read request body")
		return
	}

	detected := h.detector.Detect(r.Header, r.URL.Query().Get("path"), body)
	httpRequestsTotal.WithLabelValues("POST", "/classify", "200").Inc()
	respondWithJSON(w, http.StatusOK, map[string]string{
		"protocol": string(detected),
		"resolved": string(protocol.Resolve(detected)),
	})
}

// ReceiveWebhookHandler is the inbound half of webhook signing: it verifies
// the Merchant-Signature header before the payload is looked at. An invalid
// or missing signature is rejected with 401 and the payload is never
// processed.
func (h *Handler) ReceiveWebhookHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/webhooks/merchant"))
	defer timer.ObserveDuration()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/webhooks/merchant", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "processing_error", "read_failed", "could not read request body")
		return
	}

	header := r.Header.Get("Merchant-Signature")
	prefix := h.merchantID + "-"
	if !strings.HasPrefix(header, prefix) {
		httpRequestsTotal.WithLabelValues("POST", "/webhooks/merchant", "401").Inc()
		respondWithError(w, http.StatusUnauthorized, "invalid_request", "invalid_signature", "signature verification failed")
		return
	}
	if !webhook.VerifySignature(h.secret, body, strings.TrimPrefix(header, prefix)) {
		httpRequestsTotal.WithLabelValues("POST", "/webhooks/merchant", "401").Inc()
		respondWithError(w, http.StatusUnauthorized, "invalid_request", "invalid_signature", "signature verification failed")
		return
	}

	var payload struct {
		Type string `json:"type"`
		Data struct {
			CheckoutSessionID string `json:"checkout_session_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/webhooks/merchant", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "invalid_request", "malformed_body", "malformed JSON body")
		return
	}

	httpRequestsTotal.WithLabelValues("POST", "/webhooks/merchant", "200").Inc()
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":              "accepted",
		"type":                payload.Type,
		"checkout_session_id": payload.Data.CheckoutSessionID,
	})
}

func (h *Handler) ListDeadLettersHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	entries, err := h.store.List(r.Context(), limit, offset)
	if err != nil {
		httpRequestsTotal.WithLabelValues("GET", "/dlq", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "processing_error", "dlq_unavailable", "could not list dead letters")
		return
	}

	httpRequestsTotal.WithLabelValues("GET", "/dlq", "200").Inc()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (h *Handler) GetDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	entry, err := h.store.Get(r.Context(), id)
	if errors.Is(err, dlq.ErrEntryNotFound) {
		httpRequestsTotal.WithLabelValues("GET", "/dlq/{id}", "404").Inc()
		respondWithError(w, http.StatusNotFound, "invalid_request", "entry_not_found", "dead letter entry not found")
		return
	}
	if err != nil {
		httpRequestsTotal.WithLabelValues("GET", "/dlq/{id}", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "processing_error", "dlq_unavailable", "could not load dead letter")
		return
	}

	httpRequestsTotal.WithLabelValues("GET", "/dlq/{id}", "200").Inc()
	respondWithJSON(w, http.StatusOK, entry)
}

// RetryDeadLetterHandler re-enqueues the entry's event with a fresh attempt
// count and removes the record.
func (h *Handler) RetryDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.replayer.Retry(r.Context(), id)
	switch {
	case errors.Is(err, dlq.ErrEntryNotFound):
		httpRequestsTotal.WithLabelValues("POST", "/dlq/{id}/retry", "404").Inc()
		respondWithError(w, http.StatusNotFound, "invalid_request", "entry_not_found", "dead letter entry not found")
	case errors.Is(err, webhook.ErrQueueFull):
		httpRequestsTotal.WithLabelValues("POST", "/dlq/{id}/retry", "503").Inc()
		respondWithError(w, http.StatusServiceUnavailable, "processing_error", "queue_full", "delivery queue is full, entry kept")
	case err != nil:
		httpRequestsTotal.WithLabelValues("POST", "/dlq/{id}/retry", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "processing_error", "retry_failed", "could not replay dead letter")
	default:
		httpRequestsTotal.WithLabelValues("POST", "/dlq/{id}/retry", "202").Inc()
		respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "requeued", "id": id})
	}
}

func (h *Handler) DeleteDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.store.Delete(r.Context(), id)
	switch {
	case errors.Is(err, dlq.ErrEntryNotFound):
		httpRequestsTotal.WithLabelValues("DELETE", "/dlq/{id}", "404").Inc()
		respondWithError(w, http.StatusNotFound, "invalid_request", "entry_not_found", "dead letter entry not found")
	case err != nil:
		httpRequestsTotal.WithLabelValues("DELETE", "/dlq/{id}", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "processing_error", "delete_failed", "could not delete dead letter")
	default:
		httpRequestsTotal.WithLabelValues("DELETE", "/dlq/{id}", "204").Inc()
		w.WriteHeader(http.StatusNoContent)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func respondWithError(w http.ResponseWriter, code int, errType, errCode, message string) {
	respondWithJSON(w, code, map[string]errorBody{"error": {Type: errType, Code: errCode, Message: message}})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
