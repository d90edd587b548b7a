package v1

import (
	"context"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kurochkinivan/shipment_tracker/internal/config"
)

type Server struct {
	httpServer *http.Server
}

func NewServer(
	cfg config.HTTP,
	shipments ShipmentsRepository,
	importService ImportService,
	runs ImportRunsRepository,
	maxUploadBytes int64,
) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	sh := NewShipmentHandler(shipments)
	ih := NewImportHandler(importService, runs, maxUploadBytes)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Identity)

		r.Route("/shipments", func(r chi.Router) {
			r.Get("/", sh.ListShipments)
			r.Post("/", sh.CreateShipment)
			r.Put("/{shipment_id}", sh.UpdateShipment)
			r.Delete("/{shipment_id}", sh.DeleteShipment)

			r.Post("/import", ih.Import)
			r.Get("/import/template", ih.ImportTemplate)
		})

		r.Route("/imports", func(r chi.Router) {
			r.Get("/", ih.ListRuns)
			r.Get("/{run_id}/errors", ih.RunErrors)
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
			Handler:      r,
		},
	}
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
