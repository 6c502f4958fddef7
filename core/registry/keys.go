package registry

// Core keys for GlobalRegistry.
const (
	// Extension registries (cron, routes, commands) stored in GlobalRegistry
	KeyRegistryCron   = "registry:cron"
	KeyRegistryRoutes = "registry:routes"
	KeyRegistryCmd    = "registry:cmd"
)
