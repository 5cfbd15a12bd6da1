package api

// Route path constants
// All API endpoint paths are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteAuthLogin   = "/auth/login"
	RouteAuthLogout  = "/auth/logout"
	RouteAuthRefresh = "/auth/refresh-token"

	// Catalog Routes
	RouteProducts   = "/products"
	RouteCategories = "/categories"

	// Order Routes
	RouteOrders = "/orders"

	// Payment Routes
	RoutePaymentMethods = "/payment-methods"

	// Role & Permission Routes
	RouteRoles       = "/roles"
	RoutePermissions = "/permissions"

	// User Routes
	RouteProfile = "/users/me"

	// Cart Routes
	RouteCart = "/cart"
)
