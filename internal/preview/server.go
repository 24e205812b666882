package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

// Server serves the build output with live reload, metrics and health endpoints.
type Server struct {
	root     string
	hub      *Hub
	registry *prom.Registry
	status   *buildStatus

	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a server for the directory root. A nil hub disables live reload.
func NewServer(root string, hub *Hub, reg *prom.Registry, status *buildStatus) *Server {
	if status == nil {
		status = &buildStatus{}
	}
	return &Server{root: root, hub: hub, registry: reg, status: status}
}

// Handler returns the routing tree without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	var site http.Handler = noCache(s.serveOutput())
	if s.hub != nil {
		mux.Handle("/livereload", s.hub)
		mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			if _, err := w.Write([]byte(Script)); err != nil {
				slog.Error("failed to write livereload script", "error", err)
			}
		})
		site = injectLiveReload(site)
	}
	mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	mux.HandleFunc("/healthz", s.health)
	mux.Handle("/", site)
	return mux
}

// Start binds port (0 picks a free one) and serves in the background.
func (s *Server) Start(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return errors.WrapError(err, errors.CategoryServe, "bind preview port").
			WithContext("port", port).
			Fatal().
			Build()
	}
	s.listener = ln
	// No write timeout: live reload connections are long lived.
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       300 * time.Second,
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("preview server error", "error", err)
		}
	}()
	return nil
}

// URL is the address browsers should open.
func (s *Server) URL() string {
	if s.listener == nil {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d/", s.listener.Addr().(*net.TCPAddr).Port)
}

// Stop disconnects live reload clients and shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Shutdown()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// serveOutput serves files from root. Directories without index.html are
// 404 rather than listings.
func (s *Server) serveOutput() http.Handler {
	files := http.FileServer(http.Dir(s.root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		full := filepath.Join(s.root, filepath.FromSlash(clean))
		fi, err := os.Stat(full)
		if err == nil && fi.IsDir() {
			if _, err := os.Stat(filepath.Join(full, "index.html")); err != nil {
				http.NotFound(w, r)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		r.Header.Del("If-Modified-Since")
		next.ServeHTTP(w, r)
	})
}

type healthResponse struct {
	Status    string `json:"status"`
	LastBuild string `json:"last_build,omitempty"`
	LastError string `json:"last_error,omitempty"`
	Clients   int    `json:"livereload_clients"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	hasErr, err, good, buildID := s.status.get()
	resp := healthResponse{Status: "ok", LastBuild: buildID}
	code := http.StatusOK
	switch {
	case !good:
		resp.Status = "unavailable"
		code = http.StatusServiceUnavailable
	case hasErr:
		resp.Status = "degraded"
	}
	if err != nil {
		resp.LastError = err.Error()
	}
	if s.hub != nil {
		resp.Clients = s.hub.Clients()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		slog.Debug("healthz encode", "error", encErr)
	}
}
