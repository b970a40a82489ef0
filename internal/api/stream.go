package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// streamEvents writes every value from ch as a server-sent event until the
// channel closes, which happens when the request context ends. A nil
// render sends values as they are.
func streamEvents[T any](w http.ResponseWriter, r *http.Request, ch <-chan T, render func(T) any) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		logger(r).WithError(err).Debug("clear write deadline")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for v := range ch {
		var payload any = v
		if render != nil {
			payload = render(v)
		}
		data, err := json.Marshal(payload)
		if err != nil {
			logger(r).WithError(err).Warn("encode event")
			return
		}
		if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
