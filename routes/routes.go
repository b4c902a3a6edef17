package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/LegalDragon/Pickleball-Community-sub007/docs"
	"github.com/LegalDragon/Pickleball-Community-sub007/handlers"
	"github.com/LegalDragon/Pickleball-Community-sub007/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Units     *handlers.UnitHandler
	Drawing   *handlers.DrawingHandler
	Schedule  *handlers.ScheduleHandler
	Tracker   *handlers.TrackerHandler
	WebSocket *handlers.WebSocketHandler
	Metrics   http.Handler
	// Health reports whether the process can serve traffic, typically a database ping.
	Health func(ctx context.Context) error
}

func SetupRoutes(router chi.Router, h Handlers, auth *middleware.Authenticator, allowedOrigins []string, logger *slog.Logger) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.OperatorHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if h.Health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := h.Health(ctx); err != nil {
				logger.Warn("Health check failed", slog.Any("error", err))
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("ok"))
	})
	if h.Metrics != nil {
		router.Handle("/metrics", h.Metrics)
	}
	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(docs.OpenAPI)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Get("/ws/divisions/{divisionID}", h.WebSocket.ServeWs)

	router.Route("/api/v1/divisions/{divisionID}", func(r chi.Router) {
		r.Get("/", h.Units.Summary)
		r.Get("/units/{unitID}", h.Units.Get)
		r.Get("/drawing", h.Drawing.State)
		r.Get("/schedule", h.Schedule.Get)
		r.Get("/standings", h.Schedule.Standings)
		r.Get("/matches/{matchID}", h.Schedule.MatchScore)
		r.Get("/courts", h.Tracker.ListCourts)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Put("/registration", h.Units.SetRegistration)
			r.Delete("/registration/me", h.Units.Unregister)

			r.Post("/units", h.Units.Register)
			r.Route("/units/{unitID}", func(r chi.Router) {
				r.Post("/invite", h.Units.RespondToInvite)
				r.Post("/join-requests", h.Units.RequestToJoin)
				r.Post("/leave", h.Units.Leave)
				r.Put("/captain", h.Units.TransferCaptaincy)
				r.Post("/break", h.Units.Break)
				r.Post("/merge", h.Units.Merge)
				r.Put("/members/{userID}/payment", h.Units.RecordPayment)
				r.Post("/promote", h.Units.Promote)
				r.Post("/cancel", h.Units.Cancel)
				r.Post("/check-in", h.Units.CheckIn)
			})
			r.Post("/join-requests/{requestID}/respond", h.Units.RespondToJoinRequest)
			r.Delete("/join-requests/{requestID}", h.Units.CancelJoinRequest)

			r.Post("/drawing/start", h.Drawing.Start)
			r.Post("/drawing/next", h.Drawing.Next)
			r.Post("/drawing/complete", h.Drawing.Complete)
			r.Post("/drawing/cancel", h.Drawing.Cancel)
			r.Post("/unit-numbers", h.Drawing.AssignNumbers)

			r.Post("/schedule", h.Schedule.Generate)
			r.Delete("/schedule", h.Schedule.Clear)
			r.Post("/schedule/finalize", h.Schedule.Finalize)
			r.Post("/schedule/playoff", h.Schedule.SeedPlayoff)
			r.Put("/matches/{matchID}/units", h.Schedule.AssignMatchUnits)

			r.Post("/courts", h.Tracker.CreateCourt)
			r.Route("/games/{gameID}", func(r chi.Router) {
				r.Post("/queue", h.Tracker.Queue)
				r.Post("/start", h.Tracker.Start)
				r.Post("/score", h.Tracker.SubmitScore)
				r.Post("/confirm", h.Tracker.ConfirmScore)
				r.Post("/dispute", h.Tracker.DisputeScore)
				r.Post("/resolve", h.Tracker.ResolveDispute)
			})
		})
	})
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
			)
		})
	}
}
