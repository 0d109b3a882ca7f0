package server

// Route path constants
// All relay routes are defined here to ensure consistency and prevent typos
const (
	// Password login
	RouteLogin = "/api/login"

	// Identity provider login
	RouteFederatedLogin    = "/api/auth/esia/login"
	RouteFederatedCallback = "/api/auth/esia/callback"
	RouteFederatedRefresh  = "/api/auth/refresh"

	// Session scoped data
	RouteUser       = "/api/user"
	RouteDiary      = "/api/diary"
	RouteGrades     = "/api/grades"
	RouteSchedule   = "/api/schedule"
	RouteHomework   = "/api/homework"
	RouteTotalMarks = "/api/total-marks"

	RouteLogout = "/api/logout"

	// Operations
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"
)
