package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	appLogger "github.com/FACorreiaa/shophub-api/app/logger"
	appMiddleware "github.com/FACorreiaa/shophub-api/app/middleware"
	"github.com/FACorreiaa/shophub-api/internal/api"
	"github.com/FACorreiaa/shophub-api/internal/api/auth"
	"github.com/FACorreiaa/shophub-api/internal/api/products"
	"github.com/FACorreiaa/shophub-api/internal/api/upload"
)

const Version = "1.0.0"

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler            *auth.HandlerImpl
	ProductHandler         *products.ProductHandler
	UploadHandler          *upload.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
	AllowedOrigins         []string
	RequestTimeout         time.Duration
	Logger                 *slog.Logger
}

// SetupRouter builds the complete HTTP handler: server-wide middleware, the
// /api routes, their unprefixed aliases and the service endpoints.
func SetupRouter(cfg *Config) chi.Router {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(appMiddleware.Recoverer(cfg.Logger))
	r.Use(appMiddleware.HTTPMetrics)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5, "application/json"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusNotFound, "Route not found")
	})

	r.Get("/", index)
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", authRoutes(cfg))
		r.Route("/products", productRoutes(cfg))
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Post("/upload", cfg.UploadHandler.UploadImage)
			// legacy clients post to the doubled path
			r.Post("/upload/upload", cfg.UploadHandler.UploadImage)
		})
	})
	r.Route("/auth", authRoutes(cfg))

	return r
}

func authRoutes(cfg *Config) func(r chi.Router) {
	return func(r chi.Router) {
		r.Post("/signup", cfg.AuthHandler.Signup)
		r.Post("/login", cfg.AuthHandler.Login)
		r.With(cfg.AuthenticateMiddleware).Get("/profile", cfg.AuthHandler.Profile)
	}
}

func productRoutes(cfg *Config) func(r chi.Router) {
	return func(r chi.Router) {
		r.Get("/", cfg.ProductHandler.ListProducts)
		r.Get("/categories", cfg.ProductHandler.ListCategories)
		r.Get("/category/{category}", cfg.ProductHandler.ListByCategory)
		r.Get("/{id}", cfg.ProductHandler.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Post("/", cfg.ProductHandler.CreateProduct)
			r.Put("/{id}", cfg.ProductHandler.ReplaceProduct)
			r.Patch("/{id}", cfg.ProductHandler.PatchProduct)
			r.Delete("/{id}", cfg.ProductHandler.DeleteProduct)
		})
	}
}

type indexResponse struct {
	Message   string                       `json:"message"`
	Version   string                       `json:"version"`
	Endpoints map[string]map[string]string `json:"endpoints"`
}

func index(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, indexResponse{
		Message: "ShopHub API",
		Version: Version,
		Endpoints: map[string]map[string]string{
			"auth": {
				"signup":  "POST /api/auth/signup",
				"login":   "POST /api/auth/login",
				"profile": "GET /api/auth/profile (Protected)",
			},
			"products": {
				"getAll":        "GET /api/products",
				"getById":       "GET /api/products/:id",
				"getByCategory": "GET /api/products/category/:category",
				"getCategories": "GET /api/products/categories",
				"create":        "POST /api/products (Protected)",
				"update":        "PUT /api/products/:id (Protected)",
				"patch":         "PATCH /api/products/:id (Protected)",
				"delete":        "DELETE /api/products/:id (Protected)",
			},
			"upload": {
				"image": "POST /api/upload (Protected)",
			},
		},
	})
}
