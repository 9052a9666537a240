// Package httpapi exposes the store, importer, ledger, and friend services
// over a JSON HTTP API.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/paybackapp/payback/internal/auth"
	"github.com/paybackapp/payback/internal/invites"
	"github.com/paybackapp/payback/internal/metrics"
	"github.com/paybackapp/payback/internal/service"
	"github.com/paybackapp/payback/internal/store"
)

// API bundles everything the handlers need.
type API struct {
	store     *store.MemoryStore
	persister service.Persister
	imports   *service.ImportService
	friendSvc *service.FriendService
	auth      auth.Authenticator
	tokens    *auth.TokenManager
	invites   *invites.Validator
	inviteTTL time.Duration
	metrics   *metrics.Metrics
	rpm       int
}

// Options configures New.
type Options struct {
	Store     *store.MemoryStore
	Persister service.Persister // may be nil
	Imports   *service.ImportService
	Friends   *service.FriendService
	Auth      auth.Authenticator
	Tokens    *auth.TokenManager
	Invites   *invites.Validator
	InviteTTL time.Duration
	Metrics   *metrics.Metrics

	// RequestsPerMinute caps each client IP; zero disables the limiter.
	RequestsPerMinute int
}

// New creates the API.
func New(opts Options) *API {
	return &API{
		store:     opts.Store,
		persister: opts.Persister,
		imports:   opts.Imports,
		friendSvc: opts.Friends,
		auth:      opts.Auth,
		tokens:    opts.Tokens,
		invites:   opts.Invites,
		inviteTTL: opts.InviteTTL,
		metrics:   opts.Metrics,
		rpm:       opts.RequestsPerMinute,
	}
}

// Router builds the chi router with middleware and all routes.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	r.Use(RecordDuration(a.metrics))
	if a.rpm > 0 {
		r.Use(httprate.LimitByIP(a.rpm, time.Minute))
	}

	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/register", a.handleRegister)
		r.Post("/auth/login", a.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(a.tokens))

			r.Post("/import", a.handleImport)

			r.Get("/groups", a.handleListGroups)
			r.Post("/groups", a.handleCreateGroup)
			r.Get("/groups/{groupID}/balances", a.handleGroupBalances)

			r.Post("/expenses", a.handleCreateExpense)
			r.Get("/balance", a.handleOverallBalance)

			r.Get("/friends", a.handleListFriends)
			r.Post("/friends/sync", a.handleSyncFriends)
			r.Post("/friends/confirm-link", a.handleConfirmLink)
			r.Get("/friends/link-failures", a.handleLinkFailures)

			r.Post("/invites", a.handleCreateInvite)
			r.Post("/invites/validate", a.handleValidateInvite)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
