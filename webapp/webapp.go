// Package webapp serves the read-only league night API: leaderboards,
// payout sheets, cards, putt-offs, and a long-poll listener for
// scoreboard displays.  All writes go through leagueadmin.
package webapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ts4z/puttleague/app/handlers"
	"github.com/ts4z/puttleague/dep"
	"github.com/ts4z/puttleague/he"
	"github.com/ts4z/puttleague/league"
	"github.com/ts4z/puttleague/middleware"
	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/protocol"
	"github.com/ts4z/puttleague/scoring"
	"github.com/ts4z/puttleague/urlpath"
	"github.com/ts4z/puttleague/varz"
)

var (
	clientClosedWhileListening    = varz.NewInt("clientClosedWhileListening")
	timedOutWhileListening        = varz.NewInt("timedOutWhileListening")
	errorListening                = varz.NewInt("errorListening")
	listenNotifiedClient          = varz.NewInt("listenNotifiedClient")
	errorWhileMarshalingForListen = varz.NewInt("errorWhileMarshalingForListen")
)

type clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	After(d time.Duration) <-chan time.Time
}

// NightListener is the part of gossip.NightGossiper the listen endpoint
// needs.
type NightListener interface {
	ListenNightVersion(ctx context.Context, id string, version int64, errCh chan<- error, eventCh chan<- *model.NightEvent)
}

// Config holds the configuration for creating a new App.
type Config struct {
	League   *league.Manager
	Listener NightListener
	Clock    clock

	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
	// ListenTimeout bounds a long poll.
	ListenTimeout time.Duration
	// RotationMaxAge is the Cache-Control max-age for /api/rotation.
	RotationMaxAge time.Duration
}

// App is the main web application.
type App struct {
	// dependencies
	league   *league.Manager
	listener NightListener
	clock    clock

	listenTimeout  time.Duration
	rotationMaxAge time.Duration

	// internals
	mux     *http.ServeMux
	handler http.Handler
}

// New creates a new App with the given configuration.
func New(config *Config) *App {
	app := &App{
		league:         dep.Required(config.League, "League"),
		listener:       dep.Required(config.Listener, "Listener"),
		clock:          dep.Required(config.Clock, "Clock"),
		listenTimeout:  config.ListenTimeout,
		rotationMaxAge: config.RotationMaxAge,
		mux:            http.NewServeMux(),
	}
	if app.listenTimeout <= 0 {
		app.listenTimeout = time.Minute
	}

	// Stack the handlers together.  Everything but the rotation table is
	// live data.
	noStore := middleware.NewCacheHeaderAdder(&middleware.CacheHeaderAdderConfig{
		Maybe: func(r *http.Request) bool { return r.URL.Path != "/api/rotation" },
		Next:  app.mux,
	})
	logger := middleware.NewRequestLogger(noStore, app.clock)
	origins := config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	for _, origin := range origins {
		zap.S().Infof("CORS allowing origin %s", origin)
	}
	corsMW := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet},
	})
	app.handler = corsMW.Handler(logger)

	app.InstallHandlers()

	return app
}

// Handler returns the configured HTTP handler.
func (app *App) Handler() http.Handler {
	return app.handler
}

// Handle adds a handler to the app's mux, for things like /metrics that
// live beside the API.
func (app *App) Handle(pattern string, h http.Handler) {
	app.mux.Handle(pattern, h)
}

func (app *App) handleFunc(pattern string, handler func(context.Context, http.ResponseWriter, *http.Request)) {
	app.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		handler(r.Context(), w, r)
	})
}

func (app *App) handleFuncTakingID(pattern string, handler func(context.Context, string, http.ResponseWriter, *http.Request)) {
	app.handleFunc(pattern, func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		id, err := urlpath.IDPathValue(w, r)
		if err != nil {
			return
		}
		handler(ctx, id, w, r)
	})
}

// handleNightQuery serves the JSON result of a read against one night.
func handleNightQuery[T any](app *App, pattern, what string, query func(ctx context.Context, id string) (T, error)) {
	app.handleFuncTakingID(pattern, func(ctx context.Context, id string, w http.ResponseWriter, r *http.Request) {
		v, err := query(ctx, id)
		if err != nil {
			he.SendErrorToHTTPClient(w, "get "+what, err)
			return
		}
		writeJSON(w, v)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		he.SendErrorToHTTPClient(w, "marshal model", he.New(500, err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writ, err := w.Write(bytes)
	if err != nil {
		zap.S().Infof("error writing model to client: %v", err)
	} else if writ != len(bytes) {
		zap.S().Infof("short write to client")
	}
}

func (app *App) handleNights(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	nights, err := app.league.Nights(ctx)
	if err != nil {
		he.SendErrorToHTTPClient(w, "list nights", err)
		return
	}
	writeJSON(w, nights)
}

// handleListen answers when the night moves past ?version=.  A missing
// version means "I have nothing", which answers right away.
func (app *App) handleListen(ctx context.Context, id string, w http.ResponseWriter, r *http.Request) {
	w.Header().Set(protocol.Header, strconv.Itoa(protocol.Version))
	q := r.URL.Query()
	version := int64(-1)
	if v := q.Get("version"); v != "" {
		var err error
		if version, err = strconv.ParseInt(v, 10, 64); err != nil {
			he.SendErrorToHTTPClient(w, "parse version", he.ValidationErrorf("bad version %q", v))
			return
		}
	}
	if p := q.Get("protocol"); p != "" && p != strconv.Itoa(protocol.Version) {
		// Trash the version; the client needs an answer now so it reloads.
		version = -1
	}

	errCh := make(chan error, 1)
	eventCh := make(chan *model.NightEvent, 1)
	timeoutCh := app.clock.After(app.listenTimeout)
	go app.listener.ListenNightVersion(ctx, id, version, errCh, eventCh)
	select {
	case err := <-errCh:
		errorListening.Add(1)
		he.SendErrorToHTTPClient(w, "listen for night version change", err)
	case ev := <-eventCh:
		bytes, err := json.Marshal(ev)
		if err != nil {
			errorWhileMarshalingForListen.Add(1)
			he.SendErrorToHTTPClient(w, "marshal event", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(bytes)
		listenNotifiedClient.Add(1)
	case <-timeoutCh:
		timedOutWhileListening.Add(1)
		he.SendErrorToHTTPClient(w, "wait for night update",
			he.HTTPCodedErrorf(http.StatusGatewayTimeout, "timeout"))
	case <-ctx.Done():
		clientClosedWhileListening.Add(1)
		zap.S().Debugf("client closed connection while listening for night %s", id)
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
	}
}

// Rotation is one answer from /api/rotation.
type Rotation struct {
	Station int
	Round   int
	Holes   int
	Hole    int
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, he.ValidationErrorf("bad %s %q", key, v)
	}
	return n, nil
}

func (app *App) handleRotation(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	rot := &Rotation{}
	for _, q := range []struct {
		key string
		dst *int
	}{{"station", &rot.Station}, {"round", &rot.Round}, {"holes", &rot.Holes}} {
		n, err := queryInt(r, q.key)
		if err != nil {
			he.SendErrorToHTTPClient(w, "parse rotation", err)
			return
		}
		*q.dst = n
	}
	if rot.Holes < 1 {
		he.SendErrorToHTTPClient(w, "parse rotation", he.ValidationErrorf("holes must be at least 1"))
		return
	}
	rot.Hole = scoring.StationHole(rot.Station, rot.Round, rot.Holes)
	writeJSON(w, rot)
}

// InstallHandlers registers every route.
func (app *App) InstallHandlers() {
	app.handleFunc("GET /robots.txt", handlers.HandleRobotsTXT)
	app.handleFunc("GET /healthz", handlers.HandleHealthz)

	app.handleFunc("GET /api/nights", app.handleNights)
	handleNightQuery(app, "GET /api/nights/{id}", "night", app.league.Night)
	handleNightQuery(app, "GET /api/nights/{id}/check-ins", "check-ins", app.league.CheckIns)
	handleNightQuery(app, "GET /api/nights/{id}/totals", "totals", app.league.Totals)
	handleNightQuery(app, "GET /api/nights/{id}/ties", "ties", app.league.DetectTies)
	handleNightQuery(app, "GET /api/nights/{id}/payouts", "payouts", app.league.Payouts)
	handleNightQuery(app, "GET /api/nights/{id}/cards", "cards", app.league.Cards)
	handleNightQuery(app, "GET /api/nights/{id}/putt-offs", "putt-offs", app.league.PuttOffs)
	app.handleFuncTakingID("GET /api/nights/{id}/listen", app.handleListen)

	app.mux.Handle("GET /api/rotation", middleware.NewCacheHeaderAdder(&middleware.CacheHeaderAdderConfig{
		Next: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			app.handleRotation(r.Context(), w, r)
		}),
		MaxAge: app.rotationMaxAge,
	}))
}

// Wrapper to just return the input context.
func contextualizer(ctx context.Context) func(net.Listener) context.Context {
	return func(_ net.Listener) context.Context {
		return ctx
	}
}

// Serve starts the HTTP server on the given listen address and shuts it
// down when ctx ends.
func (app *App) Serve(ctx context.Context, listenAddress string) error {
	wg := sync.WaitGroup{}

	type result struct {
		name string
		err  error
	}

	ch := make(chan *result)

	server := &http.Server{
		Addr:         listenAddress,
		Handler:      app.handler,
		BaseContext:  contextualizer(ctx),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: app.listenTimeout + 30*time.Second,
		IdleTimeout:  12 * time.Hour,
	}

	wg.Add(1)
	go func() {
		ch <- &result{"http", server.ListenAndServe()}
		wg.Done()
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	go func() {
		wg.Wait()
		close(ch)
	}()

	errors := []error{}
	for res := range ch {
		if res.err != nil && res.err != http.ErrServerClosed {
			zap.S().Errorf("server %s exited: %v", res.name, res.err)
			errors = append(errors, res.err)
		}
	}
	if len(errors) == 0 {
		return nil
	}
	return fmt.Errorf("servers exited: %v", errors)
}
