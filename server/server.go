package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/savendebyc-boop/sgo-telma/auth"
	"github.com/savendebyc-boop/sgo-telma/gateway"
	"github.com/savendebyc-boop/sgo-telma/internal/config"
)

type Server struct {
	env         string // Environment (e.g., "DEV", "PROD")
	mux         *http.ServeMux
	handler     http.Handler // mux behind CORS
	routes      []string
	config      config.Config
	auth        *auth.AuthorizationService
	gateway     *gateway.Service
	repos       auth.Repos
	metrics     *Metrics
	frontendURL string
}

func New(config config.Config, repos auth.Repos, authService *auth.AuthorizationService, gatewayService *gateway.Service) (*Server, error) {
	if authService == nil {
		return nil, fmt.Errorf("[Server New] authorization service is required")
	}
	if gatewayService == nil {
		return nil, fmt.Errorf("[Server New] gateway service is required")
	}
	if repos.Sessions == nil || repos.AuthFlows == nil {
		return nil, fmt.Errorf("[Server New] session and auth flow repos are required")
	}

	s := &Server{
		env:         config.GetEnv(),
		mux:         http.NewServeMux(),
		config:      config,
		auth:        authService,
		gateway:     gatewayService,
		repos:       repos,
		frontendURL: config.GetFrontendURL(),
	}
	s.metrics = NewMetrics(repos.Sessions.Len, repos.AuthFlows.Len)

	s.handler = cors.New(cors.Options{
		AllowedOrigins: config.GetAllowedOrigins().List(),
		AllowedMethods: config.GetAllowedMethods(),
		AllowedHeaders: config.GetAllowedHeaders(),
		ExposedHeaders: []string{HeaderRequestID},
	}).Handler(s.mux)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

// Routes returns the registered route patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Info().Msgf("[%s] %s", color+paddedMethod+ResetColor, path)
}
