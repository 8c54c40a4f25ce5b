// Package fujisuite wires a tracking session to its history store and
// geocoding and routing providers from a loaded configuration.
package fujisuite

import (
	"context"
	"fmt"
	"sync"

	"github.com/nwah/fujisuite-tracker/config"
	"github.com/nwah/fujisuite-tracker/history"
	"github.com/nwah/fujisuite-tracker/internal/monitoring"
	"github.com/nwah/fujisuite-tracker/nav"
	"github.com/nwah/fujisuite-tracker/tracking"
)

// Engine owns a Session and the history store behind it.
type Engine struct {
	Session *tracking.Session
	History history.Store

	request   tracking.LocationRequest
	closeOnce sync.Once
	closeErr  error
}

// Open builds an engine from cfg. The host supplies the map canvas and,
// optionally, a notifier for user-visible reports.
func Open(cfg *config.Config, canvas tracking.MapCanvas, notifier tracking.Notifier) (*Engine, error) {
	store, err := openStore(cfg.History)
	if err != nil {
		return nil, err
	}

	router, err := nav.NewRouter(cfg.Nav)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("router: %w", err)
	}

	session, err := tracking.New(tracking.Deps{
		Canvas:   canvas,
		Geocoder: nav.NewNominatim(cfg.Nav),
		Router:   router,
		History:  store,
		Notifier: notifier,
	}, cfg.SessionOptions())
	if err != nil {
		store.Close()
		return nil, err
	}

	monitoring.Logf("Opened %s history at %s, routing via %s", cfg.History.Backend, cfg.History.Path, cfg.Nav.Router)
	return &Engine{
		Session: session,
		History: store,
		request: cfg.LocationRequest(),
	}, nil
}

func openStore(hc config.HistoryConfig) (history.Store, error) {
	switch hc.Backend {
	case config.BackendSQLite:
		return history.OpenSQLiteStore(hc.Path)
	case config.BackendFile, "":
		return history.OpenFileStore(hc.Path)
	default:
		return nil, fmt.Errorf("unknown history backend %q", hc.Backend)
	}
}

// LocationRequest is the fix cadence to hand to the platform provider.
func (e *Engine) LocationRequest() tracking.LocationRequest { return e.request }

// Run runs the session until ctx is done, then closes the history store.
func (e *Engine) Run(ctx context.Context) error {
	err := e.Session.Run(ctx)
	if cerr := e.Close(); cerr != nil {
		monitoring.Logf("closing history: %v", cerr)
	}
	return err
}

// Track feeds fixes from src into the session using the configured request.
func (e *Engine) Track(ctx context.Context, src tracking.FixSource) error {
	return e.Session.Track(ctx, src, e.request)
}

// ExportGPX renders the stored history as a GPX track.
func (e *Engine) ExportGPX(name string) ([]byte, error) {
	entries, err := e.History.LoadAll()
	if err != nil {
		return nil, err
	}
	return history.ExportGPX(name, entries)
}

// ExportGeoJSON renders the stored history as a GeoJSON feature collection.
func (e *Engine) ExportGeoJSON() ([]byte, error) {
	entries, err := e.History.LoadAll()
	if err != nil {
		return nil, err
	}
	return history.ExportGeoJSON(entries)
}

// Close releases the history store. It is safe to call more than once; call
// it only after Run has returned or when Run was never started.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closeErr = e.History.Close()
	})
	return e.closeErr
}
