package http

import (
	"net/http"

	"stash/internal/account"
	"stash/internal/auth"
	"stash/internal/config"
	"stash/internal/http/handler"
	mw "stash/internal/http/middleware"
	"stash/internal/resource"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.AccessLog(log))
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	tokens := &auth.Tokens{DB: db, JWT: jwtSvc}
	requireAuth := auth.RequireAuth(tokens)

	accounts := account.NewService(db)
	resources := &resource.Service{DB: db}

	ah := handler.NewAuthHandler(tokens, accounts, log)
	r.Post("/auth-token", ah.Token)
	r.With(requireAuth).Delete("/auth-token", ah.Revoke)
	if cfg.RegistrationEnabled {
		r.Post("/auth/register", ah.Register)
	}

	me := &handler.MeHandler{}
	r.With(requireAuth).Get("/me", me.Me)

	uh := handler.NewUserHandler(accounts, log)
	r.Route("/users", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(auth.RequireSuperUser)

		r.Get("/", uh.List)
		r.Post("/", uh.Create)

		r.Get("/{email}", uh.Get)
		r.Put("/{email}", uh.Update)
		r.Delete("/{email}", uh.Delete)
	})

	rh := handler.NewResourceHandler(resources, log)
	r.Route("/resources", func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/", rh.List)
		r.Post("/", rh.Create)

		r.Get("/{id}", rh.Get)
		r.Delete("/{id}", rh.Delete)
	})

	return r
}
