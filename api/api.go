// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/BricklayerDAO/mrtr-token/api/accounts"
	"github.com/BricklayerDAO/mrtr-token/api/doc"
	"github.com/BricklayerDAO/mrtr-token/api/events"
	"github.com/BricklayerDAO/mrtr-token/api/middleware"
	"github.com/BricklayerDAO/mrtr-token/api/staking"
	"github.com/BricklayerDAO/mrtr-token/api/subscriptions"
	"github.com/BricklayerDAO/mrtr-token/log"
	"github.com/BricklayerDAO/mrtr-token/node"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	PprofOn         bool
	EnableReqLogger bool
	EnableMetrics   bool
	EventsLimit     uint64
}

// New builds the HTTP handler serving the ledger. The returned close
// function terminates active subscriptions; websocket connections are
// hijacked and outlive server shutdown otherwise.
func New(ledger *node.Ledger, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	// serve the Open API spec
	router.PathPrefix("/doc").Handler(
		http.StripPrefix("/doc/", http.FileServer(http.FS(doc.FS))),
	)
	router.Path("/").HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "doc/mrtr.yaml", http.StatusTemporaryRedirect)
		})

	staking.New(ledger).
		Mount(router, "/staking")
	accounts.New(ledger).
		Mount(router, "/accounts")
	events.New(ledger.EventDB(), opts.EventsLimit).
		Mount(router, "/events")
	subs := subscriptions.New(ledger.EventDB())
	subs.Mount(router, "/subscriptions")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", "x-genesis-id"}),
		handlers.ExposedHeaders([]string{"x-genesis-id"}),
	)(handler)

	if opts.EnableReqLogger {
		enabled := new(atomic.Bool)
		enabled.Store(true)
		handler = middleware.RequestLoggerMiddleware(logger, enabled, 0)(handler)
	}

	return handler.ServeHTTP, subs.Close
}
