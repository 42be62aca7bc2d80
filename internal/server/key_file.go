package server

import (
	"net/http"
)

// keyFileHandler serves the key as text/plain so engines can verify ownership.
// Everything else falls through to 404.
func (s *Server) keyFileHandler(w http.ResponseWriter, r *http.Request) {
	o := s.currentOwnership()
	if o == nil || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		http.NotFound(w, r)
		return
	}

	for _, path := range keyFilePaths(o) {
		if r.URL.Path == path {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			if r.Method == http.MethodGet {
				_, _ = w.Write([]byte(o.Key))
			}
			return
		}
	}

	http.NotFound(w, r)
}
