package httpapi

import (
	"net/http"

	"coffeeshop-backend/internal/model"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Validator TokenValidator
	Auth      *AuthHandlers
	Users     *UserHandlers
	Products  *ProductHandlers
	Orders    *OrderHandlers

	// CORSOrigins are the allowed browser origins; empty disables CORS headers.
	CORSOrigins []string
}

// NewRouter builds the full route table. Route-level middleware is composed
// here so each handler stays gate-free.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	authed := RequireAuth(deps.Validator)
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return authed(RequireRole(model.RoleAdmin)(h))
	}
	userOnly := func(h http.HandlerFunc) http.Handler {
		return authed(h)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth.
	mux.HandleFunc("POST /api/auth/register", deps.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", deps.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", deps.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/logout", deps.Auth.Logout)

	// Users (admin only).
	mux.Handle("POST /api/users", adminOnly(deps.Users.Create))
	mux.Handle("GET /api/users", adminOnly(deps.Users.List))
	mux.Handle("GET /api/users/{id}", adminOnly(deps.Users.Get))
	mux.Handle("PATCH /api/users/{id}", adminOnly(deps.Users.Update))
	mux.Handle("DELETE /api/users/{id}", adminOnly(deps.Users.Delete))

	// Products (public reads, admin writes).
	mux.HandleFunc("GET /api/products", deps.Products.List)
	mux.HandleFunc("GET /api/products/{id}", deps.Products.Get)
	mux.Handle("POST /api/products", adminOnly(deps.Products.Create))
	mux.Handle("PATCH /api/products/{id}", adminOnly(deps.Products.Update))
	mux.Handle("DELETE /api/products/{id}", adminOnly(deps.Products.Delete))

	// Orders. "my" routes must be registered alongside "{id}" routes; the
	// ServeMux prefers the literal segment.
	mux.Handle("POST /api/orders", userOnly(deps.Orders.Create))
	mux.Handle("GET /api/orders/my", userOnly(deps.Orders.ListMine))
	mux.Handle("GET /api/orders/my/{id}", userOnly(deps.Orders.GetMine))
	mux.Handle("GET /api/orders", adminOnly(deps.Orders.List))
	mux.Handle("GET /api/orders/{id}", adminOnly(deps.Orders.Get))
	mux.Handle("PATCH /api/orders/{id}", adminOnly(deps.Orders.Update))
	mux.Handle("DELETE /api/orders/{id}", adminOnly(deps.Orders.Delete))

	var handler http.Handler = mux
	if len(deps.CORSOrigins) > 0 {
		handler = CORS(deps.CORSOrigins)(handler)
	}
	return handler
}
