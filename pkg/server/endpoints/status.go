package endpoints

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/complyhub/complyd/pkg/server"
)

// RegisterStatusEndpoints registers the status page (no auth required).
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/", handleStatus()).Methods("GET")
}

func handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := os.Getenv("COMPLYD_VERSION_DISPLAY")
		if version == "" {
			version = "0.1.0"
		}

		accept := r.Header.Get("Accept")
		format := r.URL.Query().Get("format")
		if format == "json" || strings.Contains(accept, "application/json") {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"version": version})
			return
		}

		html := `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>complyd Status</title>
  </head>
  <body>
    <h1>Status</h1>
    <p>Your complyd server is running!</p>
    <dl>
      <dt>Version</dt>
      <dd>` + version + `</dd>
    </dl>
  </body>
</html>
`

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}
}
