package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dvcrn/indexnow/indexnow"
	"github.com/dvcrn/indexnow/internal/logger"
	"github.com/dvcrn/indexnow/internal/ownership"
)

// adminMiddleware checks for a valid admin API key from either
// 'Authorization: Bearer <key>' or 'X-API-Key: <key>' headers.
func (s *Server) adminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.For("admin")

		if s.cfg.AdminAPIKey == "" {
			log.Error().Msg("ADMIN_API_KEY environment variable not set")
			http.Error(w, "Admin API not configured", http.StatusInternalServerError)
			return
		}

		var providedToken string
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				log.Warn().Str("path", r.URL.Path).Str("remote_addr", r.RemoteAddr).Msg("Invalid Authorization header format")
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}
			providedToken = parts[1]
		} else {
			providedToken = r.Header.Get("X-API-Key")
		}

		if providedToken == "" || subtle.ConstantTimeCompare([]byte(providedToken), []byte(s.cfg.AdminAPIKey)) != 1 {
			log.Warn().Str("path", r.URL.Path).Str("remote_addr", r.RemoteAddr).Msg("Unauthorized admin request")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

type keyRequest struct {
	Key         string `json:"key"`
	KeyLocation string `json:"keyLocation"`
}

// keyHandler handles POST /admin/key. An empty key generates a fresh one.
func (s *Server) keyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Get().Error().Err(err).Msg("Failed to decode key request")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	o := &indexnow.Ownership{Key: strings.TrimSpace(req.Key), KeyLocation: strings.TrimSpace(req.KeyLocation)}
	if o.Key == "" {
		o.Key = indexnow.GenerateKey()
	}

	if err := s.provider.SaveOwnership(o); err != nil {
		logger.Get().Error().Err(err).Msg("Failed to save IndexNow key")
		status := http.StatusInternalServerError
		if errors.Is(err, ownership.ErrReadOnly) {
			status = http.StatusConflict
		}
		http.Error(w, "Failed to save key: "+err.Error(), status)
		return
	}
	s.setOwnership(o)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"key":         o.Key,
		"keyLocation": o.KeyLocation,
		"keyFiles":    keyFilePaths(o),
	})
}

// keyStatusHandler handles GET /admin/key/status
func (s *Server) keyStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"provider": s.provider.Name(),
		"engines":  s.cfg.Engines,
		"hasKey":   false,
	}

	if o := s.currentOwnership(); o != nil {
		response["hasKey"] = true
		response["key"] = o.Key
		response["keyFiles"] = keyFilePaths(o)
		if o.KeyLocation != "" {
			response["keyLocation"] = o.KeyLocation
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Get().Error().Err(err).Msg("Failed to write JSON response")
	}
}
