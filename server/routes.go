package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	authLimit := s.RateLimitMiddleware(s.config.GetAuthRateLimit(), time.Minute)

	// OAUTH
	s.RegisterRouteFunc("GET "+RouteAuthAirtable, ChainMiddleware(s.BeginAuthHandler(), authLimit))
	s.RegisterRouteFunc("GET "+RouteAuthCallback, s.AuthCallbackHandler())

	// SCHEMA
	s.RegisterRouteFunc("GET "+RouteAPIBases, s.ListBasesHandler())
	s.RegisterRouteFunc("GET "+RouteAPITables, s.ListTablesHandler())
	s.RegisterRouteFunc("GET "+RouteAPIFields, s.TableFieldsHandler())

	// FORM CONFIGS
	s.RegisterRouteFunc("POST "+RouteAPIFormConfig, s.SaveFormConfigHandler())
	s.RegisterRouteFunc("GET "+RouteAPIFormConfigs, s.ListFormConfigsHandler())
	s.RegisterRouteFunc("GET "+RouteAPIFormConfigByTable, s.GetFormConfigHandler())

	// PUBLIC SUBMISSIONS
	s.RegisterRouteFunc("POST "+RouteAPISubmit, ChainMiddleware(s.SubmitHandler(), s.RateLimitMiddleware(s.config.GetSubmitRateLimit(), time.Minute)))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	if s.services.Gatherer != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.services.Gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
