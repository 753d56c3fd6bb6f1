package webd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/olahol/melody"
	"github.com/rotblauer/gneiss/api"
	"github.com/rotblauer/gneiss/params"
)

type WebDaemon struct {
	Config *params.WebDaemonConfig
	Rides  *api.Rides

	logger         *slog.Logger
	melodyInstance *melody.Melody
	unsubscribe    func()
	closeRides     func() error
	started        time.Time
}

// NewWebDaemon serves rides. When rides is nil the live services
// are opened over the configured data directory.
func NewWebDaemon(config *params.WebDaemonConfig, rides *api.Rides) (*WebDaemon, error) {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	d := &WebDaemon{
		Config:  config,
		Rides:   rides,
		logger:  slog.With("d", "web"),
		started: time.Now(),
	}
	if rides == nil {
		r, closer, err := api.Open(config.DataDir, config.Enrich)
		if err != nil {
			return nil, err
		}
		d.Rides, d.closeRides = r, closer
	}
	return d, nil
}

// Run serves HTTP until ctx is canceled.
func (s *WebDaemon) Run(ctx context.Context) error {
	listener, err := net.Listen(s.Config.Network, s.Config.Address)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler:           s.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	defer s.Close()

	errs := make(chan error, 1)
	go func() {
		errs <- server.Serve(listener)
	}()
	s.logger.Info("Web daemon listening", "network", s.Config.Network, "address", listener.Addr())

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops websocket broadcasting and releases services opened by NewWebDaemon.
func (s *WebDaemon) Close() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.melodyInstance != nil && !s.melodyInstance.IsClosed() {
		_ = s.melodyInstance.Close()
	}
	if s.closeRides != nil {
		err := s.closeRides()
		s.closeRides = nil
		return err
	}
	return nil
}

func (s *WebDaemon) NewRouter() *mux.Router {
	s.initMelody()

	router := mux.NewRouter().StrictSlash(false)
	router.Use(loggingMiddleware)

	router.Path("/ws").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = s.melodyInstance.HandleRequest(w, r)
	})

	apiRoutes := router.NewRoute().Subrouter()

	// All API routes use permissive CORS settings.
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiJSONRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)
	apiJSONRoutes.Path("/rides").HandlerFunc(s.handleListRides).Methods(http.MethodGet)
	apiJSONRoutes.Path("/rides/{ride}").HandlerFunc(s.handleGetRide).Methods(http.MethodGet)
	apiJSONRoutes.Path("/rides/{ride}/fossils").HandlerFunc(s.handleRideFossils).Methods(http.MethodGet)
	apiJSONRoutes.Path("/rides/{ride}/density").HandlerFunc(s.handleRideDensity).Methods(http.MethodGet)
	apiJSONRoutes.Path("/fossils").HandlerFunc(s.handleFossils).Methods(http.MethodGet)

	uploadRoutes := apiJSONRoutes.NewRoute().Subrouter()
	uploadRoutes.Use(tokenAuthenticationMiddleware)
	uploadRoutes.Path("/rides").HandlerFunc(s.handleUploadRide).Methods(http.MethodPost)

	return router
}
