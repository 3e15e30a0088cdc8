package guardian

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// request limits
const (
	generalLimit = 5000
	routeLimit   = 500
	timePeriod   = time.Minute
)

const errTooManyRequests = `{"error": "too many requests to route"}`

// Server is a guardian node's HTTP server.
type Server struct {
	Logger     *zap.Logger
	HttpServer *http.Server
	Router     chi.Router
	State      *Switch
}

// New creates a guardian server around an initialized state switch.
func New(state *Switch, logger *zap.Logger) *Server {
	s := &Server{
		Logger: logger,
		Router: chi.NewRouter(),
		State:  state,
	}
	RegisterRoutes(s)
	return s
}

// Start listens for consortium requests at the given port.
func (s *Server) Start(port uint16) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", port),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.HttpServer = srv
	s.Logger.Info("guardian is listening for incoming requests", zap.Uint16("port", port))
	return s.HttpServer.ListenAndServe()
}

// Stop shuts the server down.
func (s *Server) Stop() error {
	if s.HttpServer == nil {
		return nil
	}
	return s.HttpServer.Close()
}
