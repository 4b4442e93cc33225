package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const sseKeepAlive = 25 * time.Second

// streamSSE writes each snapshot from updates as a server-sent event until the
// client disconnects or the stream ends.
func streamSSE[T any](w http.ResponseWriter, r *http.Request, event string, updates <-chan T, render func(T) any) {
	rc := http.NewResponseController(w)

	// Streams outlive the server's write timeout
	err := rc.SetWriteDeadline(time.Time{})
	if err != nil {
		slog.Debug("could not clear write deadline", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	err = rc.Flush()
	if err != nil {
		slog.Error("streaming unsupported", "error", err, "path", r.URL.Path)
		return
	}

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			_, err = fmt.Fprint(w, ": ping\n\n")
		case v, ok := <-updates:
			if !ok {
				return
			}

			data, merr := json.Marshal(render(v))
			if merr != nil {
				slog.Error("failed to encode event", "error", merr, "event", event)
				return
			}
			_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		}

		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			return
		}
	}
}
