package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// NewRouter wires the auth subtree under basePath, the admin page and its
// scripts, and the health endpoint.
func NewRouter(basePath string, auth *AuthHandlers, admin *AdminHandlers) http.Handler {
	r := chi.NewRouter()
	r.Use(NewLoggerMiddleware("http"), NewRecoverMiddleware("http"))

	r.Method(http.MethodGet, "/healthz", NewHealthHandler())

	authRouter := chi.NewRouter()
	authRouter.Get("/", auth.RootHandler)
	authRouter.Get("/auth", auth.AuthorizeHandler)
	authRouter.Get("/callback", auth.CallbackHandler)
	authRouter.NotFound(auth.NotFoundHandler)
	r.Mount(basePath, ChainMiddleware(authRouter, NewCORSMiddleware()))

	if admin != nil {
		r.Get(admin.adminPath, admin.PageHandler)
		r.Get(admin.InitScriptPath(), admin.InitScriptHandler)
		r.Get(admin.BootScriptPath(), admin.BootScriptHandler)
		if bare := strings.TrimSuffix(admin.adminPath, "/"); bare != "" {
			r.Get(bare, func(w http.ResponseWriter, req *http.Request) {
				http.Redirect(w, req, admin.adminPath, http.StatusMovedPermanently)
			})
		}
	}

	return r
}
