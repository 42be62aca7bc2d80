package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dvcrn/indexnow/indexnow"
	"github.com/dvcrn/indexnow/internal/logger"
)

// SubmitRequest is the body of POST /v1/submit. Either URL or URLList is set.
type SubmitRequest struct {
	URL     string   `json:"url,omitempty"`
	Host    string   `json:"host,omitempty"`
	URLList []string `json:"urlList,omitempty"`
}

// EngineResult reports the outcome of one engine submission
type EngineResult struct {
	Engine  string `json:"engine"`
	Success bool   `json:"success"`
	Status  int    `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SubmitResponse is the reply of POST /v1/submit
type SubmitResponse struct {
	Success bool           `json:"success"`
	Results []EngineResult `json:"results"`
}

// submitHandler handles POST /v1/submit, forwarding the request to every
// configured engine in order.
func (s *Server) submitHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.For("submit")

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Failed to decode submit request")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" && req.URLList == nil {
		http.Error(w, "Request must contain url or urlList", http.StatusBadRequest)
		return
	}

	o := s.currentOwnership()
	if o == nil {
		http.Error(w, "IndexNow key not configured", http.StatusServiceUnavailable)
		return
	}

	host := req.Host
	if host == "" {
		host = s.cfg.Host
	}

	if len(s.cfg.Engines) == 0 {
		http.Error(w, "No search engines configured", http.StatusServiceUnavailable)
		return
	}

	// build every client and check the batch before anything is sent, so a
	// bad request never reaches only some of the engines
	clients := make([]*indexnow.Client, 0, len(s.cfg.Engines))
	for _, engine := range s.cfg.Engines {
		client, err := indexnow.New(engine, o.Key,
			indexnow.WithKeyLocation(o.KeyLocation),
			indexnow.WithHTTPClient(s.httpClient),
		)
		if err != nil {
			log.Error().Err(err).Str("engine", engine).Msg("Invalid search engine configuration")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		clients = append(clients, client)
	}
	if req.URL == "" {
		if err := indexnow.ValidateURLList(req.URLList); err != nil {
			log.Warn().Err(err).Msg("Rejected invalid submission")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	response := SubmitResponse{Success: true, Results: []EngineResult{}}
	for _, client := range clients {
		var err error
		if req.URL != "" {
			err = client.SubmitURL(r.Context(), req.URL)
		} else {
			err = client.SubmitURLs(r.Context(), host, req.URLList)
		}

		result := resultFor(client.Engine(), err)
		event := log.Info()
		if !result.Success {
			response.Success = false
			event = log.Warn().Err(err)
		}
		event.Str("engine", client.Engine()).
			Str("url", req.URL).
			Int("url_count", len(req.URLList)).
			Int("status", result.Status).
			Msg("Submitted to IndexNow")

		response.Results = append(response.Results, result)
	}

	status := http.StatusOK
	if !response.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, response)
}

func resultFor(engine string, err error) EngineResult {
	if err == nil {
		return EngineResult{Engine: engine, Success: true, Status: http.StatusOK}
	}

	result := EngineResult{Engine: engine, Error: err.Error()}
	var submissionErr *indexnow.SubmissionError
	if errors.As(err, &submissionErr) {
		result.Status = submissionErr.StatusCode
	}
	return result
}
