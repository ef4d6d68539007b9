package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dubinc/partner-integrity/internal/application"
)

// Handler is the HTTP adapter entrypoint. Only the application service is
// reachable from here, keeping adapter boundaries clean.
type Handler struct {
	service       *application.Service
	internalToken string
	readyCheck    func(context.Context) error
}

type HandlerConfig struct {
	Service       *application.Service
	InternalToken string
	// ReadyCheck gates /readyz; usually a database ping.
	ReadyCheck func(context.Context) error
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		service:       cfg.Service,
		internalToken: cfg.InternalToken,
		readyCheck:    cfg.ReadyCheck,
	}
}

// NewRouter registers routes and the middleware stack. Delivery queue
// callbacks stay outside the internal-token group since the queue calls them
// directly.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/postbacks/callbacks/success", handler.deliveryCallback(true))
		r.Post("/postbacks/callbacks/failure", handler.deliveryCallback(false))

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Post("/postbacks", handler.createPostback)
			r.Get("/postbacks", handler.listPostbacks)
			r.Post("/postbacks/{postback_id}/disable", handler.disablePostback)
			r.Post("/postbacks/{postback_id}/enable", handler.enablePostback)
			r.Get("/fraud-events", handler.listFraudEvents)
			r.Post("/enrollments/{partner_id}/{program_id}/trust", handler.trustEnrollment)
			r.Post("/enrollments/{partner_id}/{program_id}/untrust", handler.untrustEnrollment)
		})
	})

	return r
}
