package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-correction-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/sse"
	"github.com/go-chi/jwtauth/v5"
)

const keepaliveInterval = 30 * time.Second

type StreamHandler interface {
	GetSSEToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type streamHandlerImpl struct {
	hub        *sse.Hub
	jwtService jwt.Service
	keepalive  time.Duration
}

func NewStreamHandler(hub *sse.Hub, jwtService jwt.Service) StreamHandler {
	return &streamHandlerImpl{
		hub:        hub,
		jwtService: jwtService,
		keepalive:  keepaliveInterval,
	}
}

// getEmployeeIDFromContext extracts employee_id from JWT context
func getEmployeeIDFromContext(r *http.Request) string {
	_, claims, _ := jwtauth.FromContext(r.Context())
	if employeeID, ok := claims["employee_id"].(string); ok {
		return employeeID
	}
	return ""
}

// GetSSEToken generates a short-lived token for SSE connections
func (h *streamHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	employeeID := getEmployeeIDFromContext(r)
	if employeeID == "" {
		response.HandleError(w, correction.ErrEmployeeIDRequired)
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(employeeID)
	if err != nil {
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, correction.SSETokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream pushes submission results and refreshed attendance to the employee
func (h *streamHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// EventSource cannot send headers, so the token comes in the query
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	employeeID, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(employeeID)
	defer cleanup()

	connected, _ := json.Marshal(map[string]string{"status": "connected", "employee_id": employeeID})
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", connected)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
