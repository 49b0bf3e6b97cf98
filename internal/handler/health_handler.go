package handler

import (
	"context"
	"net/http"
	"time"
)

const readyTimeout = 5 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// BrokerStatus is satisfied by *messaging.RabbitMQ.
type BrokerStatus interface {
	IsClosed() bool
}

// HealthResponse is the body of both health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health reports that the process is alive.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready checks the database and, when configured, the broker in parallel.
// broker may be nil when the server runs without an events bus.
func Ready(db Pinger, broker BrokerStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		dbResult := make(chan string, 1)
		go func() {
			dbResult <- checkDatabase(ctx, db)
		}()

		checks := map[string]string{"rabbitmq": checkBroker(broker)}
		checks["database"] = <-dbResult

		resp := HealthResponse{Status: "ready", Checks: checks}
		status := http.StatusOK
		for _, result := range checks {
			if result != "up" && result != "disabled" {
				resp.Status = "not_ready"
				status = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, status, resp)
	}
}

func checkDatabase(ctx context.Context, db Pinger) string {
	if err := db.PingContext(ctx); err != nil {
		return "down: " + err.Error()
	}
	return "up"
}

func checkBroker(broker BrokerStatus) string {
	if broker == nil {
		return "disabled"
	}
	if broker.IsClosed() {
		return "down: connection closed"
	}
	return "up"
}
