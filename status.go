package ticktock

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// StatusHandler returns an [http.Handler] that reports the suite's
// [Snapshot] at the suite clock's current time. It answers GET and HEAD
// with 200 OK and a JSON body; other methods get 405 Method Not Allowed.
func StatusHandler(s *Suite) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			writer.Header().Set("Allow", "GET, HEAD")
			http.Error(writer, "method not allowed", http.StatusMethodNotAllowed)

			return
		}

		snap := s.Snapshot(s.clock.Now())

		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusOK)

		if req.Method == http.MethodHead {
			return
		}

		//nolint:errcheck // best-effort JSON encoding to HTTP response
		_ = json.NewEncoder(writer).Encode(snap)
	})
}
