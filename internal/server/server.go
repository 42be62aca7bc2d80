package server

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/dvcrn/indexnow/indexnow"
	"github.com/dvcrn/indexnow/internal/env"
	serverhttp "github.com/dvcrn/indexnow/internal/http"
	"github.com/dvcrn/indexnow/internal/logger"
	"github.com/dvcrn/indexnow/internal/ownership"
)

// Config holds the settings the server reads from the environment
type Config struct {
	// Engines are resolved IndexNow endpoints, submitted to in order
	Engines []string

	// Host is used for batch submissions that do not name one
	Host string

	AdminAPIKey string
	HTTPClient  serverhttp.HTTPClient
}

// ConfigFromEnv builds a Config from INDEXNOW_ENGINES, INDEXNOW_HOST and ADMIN_API_KEY
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Host:        env.GetOrDefault("INDEXNOW_HOST", ""),
		AdminAPIKey: env.GetOrDefault("ADMIN_API_KEY", ""),
	}

	for _, name := range env.GetList("INDEXNOW_ENGINES", []string{"bing"}) {
		engine, ok := indexnow.LookupEngine(name)
		if !ok {
			return Config{}, fmt.Errorf("unknown search engine %q in INDEXNOW_ENGINES", name)
		}
		if err := indexnow.ValidateEngine(engine); err != nil {
			return Config{}, fmt.Errorf("INDEXNOW_ENGINES: %w", err)
		}
		cfg.Engines = append(cfg.Engines, engine)
	}

	return cfg, nil
}

// Server submits URLs to the configured engines and hosts the key file
type Server struct {
	cfg        Config
	httpClient serverhttp.HTTPClient
	provider   ownership.Provider
	mux        *http.ServeMux
	handler    http.Handler

	mu    sync.RWMutex
	owner *indexnow.Ownership
}

// NewServer creates a new server instance with the given key provider
func NewServer(provider ownership.Provider, cfg Config) *Server {
	s := &Server{
		cfg:        cfg,
		httpClient: cfg.HTTPClient,
		provider:   provider,
		mux:        http.NewServeMux(),
	}
	if s.httpClient == nil {
		s.httpClient = serverhttp.NewHTTPClient()
	}
	s.setupRoutes()
	s.handler = loggingMiddleware(s.mux)

	return s
}

// Start loads the key and serves on addr
func (s *Server) Start(addr string) error {
	if err := s.LoadOwnership(); err != nil {
		logger.Get().Error().Err(err).Msg("Failed to load IndexNow key")
		logger.Get().Warn().Msg("The server will run but submissions fail until a key is set via /admin/key")
	}

	logger.Get().Info().Strs("engines", s.cfg.Engines).Msgf("Starting IndexNow server on %s", addr)
	return http.ListenAndServe(addr, s)
}

// LoadOwnership reads the key from the provider, generating one if none is stored
func (s *Server) LoadOwnership() error {
	o, err := ownership.EnsureOwnership(s.provider)
	if err != nil {
		return err
	}

	s.setOwnership(o)
	logger.Get().Info().
		Str("provider", s.provider.Name()).
		Str("key_file", "/"+o.Key+".txt").
		Msg("Loaded IndexNow key")
	return nil
}

func (s *Server) currentOwnership() *indexnow.Ownership {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

func (s *Server) setOwnership(o *indexnow.Ownership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = o
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/admin/key", s.adminMiddleware(s.keyHandler))
	s.mux.HandleFunc("/admin/key/status", s.adminMiddleware(s.keyStatusHandler))
	s.mux.HandleFunc("/v1/submit", s.adminMiddleware(s.submitHandler))
	s.mux.HandleFunc("/", s.keyFileHandler)
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// keyFilePaths lists the paths the key is served under: /{key}.txt and the path
// of the key location, if one is set.
func keyFilePaths(o *indexnow.Ownership) []string {
	paths := []string{"/" + o.Key + ".txt"}
	if o.KeyLocation == "" {
		return paths
	}
	if u, err := url.Parse(o.KeyLocation); err == nil && u.Path != "" && u.Path != "/" && u.Path != paths[0] {
		paths = append(paths, u.Path)
	}
	return paths
}
