package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/hris-correction-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Env         string
	LogLevel    slog.Level
	FrontendURL string
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, correctionHandler CorrectionHandler, streamHandler StreamHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       opts.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-correction"),
		slog.String("version", "v1.0.0"),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.FrontendURL},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1/corrections", func(r chi.Router) {
		// EventSource cannot send an Authorization header; the stream
		// authenticates with its own short-lived token.
		r.Get("/stream", streamHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RequireEmployee)
			r.Use(middleware.ForwardBearer)
			r.Use(chiMiddleware.AllowContentType("application/json"))

			r.Post("/stream-token", streamHandler.GetSSEToken)

			r.Route("/draft", func(r chi.Router) {
				r.Get("/", correctionHandler.GetDraft)
				r.Delete("/", correctionHandler.Reset)
				r.Put("/dates", correctionHandler.SetDates)
				r.Patch("/broadcast", correctionHandler.SetBroadcastField)
				r.Patch("/entries/{date}", correctionHandler.SetEntryField)
				r.Post("/apply-broadcast", correctionHandler.ApplyBroadcastToAll)
				r.Post("/validate", correctionHandler.Validate)
			})

			r.Post("/submit", correctionHandler.Submit)
			r.Get("/available-dates", correctionHandler.AvailableDates)
			r.Get("/overview", correctionHandler.Overview)
			r.Get("/submissions", correctionHandler.ListSubmissions)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})
	return r
}
