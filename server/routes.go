package server

func (s *Server) initRoutes() {
	// LOGIN
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.PasswordLoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteFederatedLogin, ChainMiddleware(s.FederatedLoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteFederatedCallback, ChainMiddleware(s.FederatedCallbackHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteFederatedRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware(s.RequireSession())...))

	// Session scoped reads
	s.RegisterRouteHandler("GET "+RouteUser, ChainMiddleware(s.UserHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("GET "+RouteDiary, ChainMiddleware(s.DiaryHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("GET "+RouteGrades, ChainMiddleware(s.GradesHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("GET "+RouteSchedule, ChainMiddleware(s.ScheduleHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("GET "+RouteHomework, ChainMiddleware(s.HomeworkHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("GET "+RouteTotalMarks, ChainMiddleware(s.TotalMarksHandler(), s.APIMiddleware(s.RequireSession())...))

	// LOGOUT
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.RecoverMiddleware))
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
}
