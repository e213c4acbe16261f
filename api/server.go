/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: One structured log line per request
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for the web client

ROUTE GROUPS:
  /api/summary, /api/accounts, /api/people, /api/categories, /api/goal
  /api/transactions/*   Record, edit, delete, receipts
  /api/loans/*          Outstanding loans, settlement, statements
  /api/charts/*         Expense breakdowns
  /api/export/*         CSV and XLSX history
  /api/scenarios/*      Demo data sets
  /api/assistant/*      Questions and proposal confirmation
  /api/reset            Back to the default ledger

SECURITY NOTE:
  No authentication middleware. The ledger belongs to a single user and
  the server is meant to listen locally.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/moneyflow/ledger-engine/logging"
)

// DefaultAllowedOrigins are used when none are configured.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string, log logging.Logger) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", h.GetSummary)
		r.Post("/reset", h.Reset)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.AddAccount)
			r.Delete("/{name}", h.RemoveAccount)
		})
		r.Route("/people", func(r chi.Router) {
			r.Get("/", h.ListPeople)
			r.Post("/", h.AddPerson)
			r.Delete("/{name}", h.RemovePerson)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.AddCategory)
			r.Delete("/{name}", h.RemoveCategory)
		})
		r.Route("/goal", func(r chi.Router) {
			r.Get("/", h.GetGoal)
			r.Put("/", h.SetGoal)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/", h.CreateTransaction)
			r.Get("/{id}", h.GetTransaction)
			r.Put("/{id}", h.EditTransaction)
			r.Delete("/{id}", h.DeleteTransaction)
			r.Get("/{id}/receipt", h.TransactionReceipt)
		})

		r.Route("/loans", func(r chi.Router) {
			r.Get("/", h.ListLoans)
			r.Post("/settle", h.SettleLoan)
			r.Get("/{kind}/{person}/receipt", h.LoanReceipt)
		})

		r.Get("/charts/expenses", h.ExpenseChart)
		r.Get("/export/transactions.csv", h.ExportCSV)
		r.Get("/export/transactions.xlsx", h.ExportXLSX)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		r.Route("/assistant", func(r chi.Router) {
			r.Get("/context", h.AssistantContext)
			r.Post("/ask", h.Ask)
			r.Post("/proposals/{id}/confirm", h.ConfirmProposal)
			r.Delete("/proposals/{id}", h.DiscardProposal)
		})
	})

	return r
}

// ShutdownTimeout bounds how long Run waits for active requests.
const ShutdownTimeout = 30 * time.Second

// Run serves handler on port until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, port int, handler http.Handler, log logging.Logger) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", logging.F("addr", fmt.Sprintf("http://localhost:%d/api", port)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
