package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// OAuth Routes
	RouteAuthAirtable = "/auth/airtable"
	RouteAuthCallback = "/auth/callback"

	// Schema Routes
	RouteAPIBases  = "/api/bases/{userId}"
	RouteAPITables = "/api/tables/{userId}/{baseId}"
	RouteAPIFields = "/api/fields/{userId}/{baseId}/{tableId}"

	// Form Config Routes
	RouteAPIFormConfig        = "/api/form-config"
	RouteAPIFormConfigs       = "/api/form-configs/{userId}"
	RouteAPIFormConfigByTable = "/api/form-config/{userId}/{baseId}/{tableId}"

	// Public Submission Route
	RouteAPISubmit = "/api/submit/{userId}/{baseId}/{tableId}"

	// Operational Routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)

// Frontend paths the OAuth callback redirects to
const (
	frontendBuilderPath = "/builder"
	frontendHomePath    = "/"
)
