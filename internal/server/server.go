package server

import (
	"context"
	"net/http"

	"github.com/sw33tLie/exifscope/internal/utils"
	"github.com/sw33tLie/exifscope/pkg/pick"
	"github.com/sw33tLie/exifscope/pkg/storage"
)

// RunFunc executes one filter-and-copy request.
type RunFunc func(ctx context.Context, req pick.Request) (*pick.Report, error)

type Server struct {
	DB       *storage.DB
	Run      RunFunc
	Username string
	Password string
}

func New(db *storage.DB, run RunFunc, user, pass string) *Server {
	return &Server{
		DB:       db,
		Run:      run,
		Username: user,
		Password: pass,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/filter", s.basicAuth(s.handleFilter))
	mux.HandleFunc("GET /api/runs", s.basicAuth(s.handleRuns))
	mux.HandleFunc("GET /api/runs/{id}", s.basicAuth(s.handleRun))
	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))

	return mux
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
