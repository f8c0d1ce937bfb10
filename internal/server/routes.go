// AngelaMos | 2026
// routes.go

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/coursemarket/internal/admin"
	"github.com/carterperez-dev/coursemarket/internal/auth"
	"github.com/carterperez-dev/coursemarket/internal/course"
	"github.com/carterperez-dev/coursemarket/internal/middleware"
	"github.com/carterperez-dev/coursemarket/internal/user"
)

// API groups the handlers served under /api/v1. Admin and AuthLimiter
// may be nil.
type API struct {
	Auth          *auth.Handler
	Users         *user.Handler
	Courses       *course.Handler
	Admin         *admin.Handler
	Authenticator func(http.Handler) http.Handler
	AuthLimiter   func(http.Handler) http.Handler
}

func MountAPI(r chi.Router, api API) {
	adminOnly := middleware.RequireAdmin

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			api.Auth.RegisterRoutes(r, api.Authenticator, api.AuthLimiter)
			api.Users.RegisterSelfRoutes(r, api.Authenticator)
			api.Users.RegisterAdminRoutes(r, api.Authenticator, adminOnly)
		})

		api.Courses.RegisterRoutes(r, api.Authenticator)

		if api.Admin != nil {
			api.Admin.RegisterRoutes(r, api.Authenticator, adminOnly)
		}
	})
}
