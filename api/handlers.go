/*
handlers.go - HTTP API handlers for the MoneyFlow ledger

PURPOSE:
  Exposes the ledger processor, its read views and the assistant via a
  REST API. Handles HTTP request/response and JSON serialization, and
  delegates everything else to the ledger, query, report and assistant
  packages.

REQUEST FLOW:
  1. Parse HTTP request
  2. Call the processor (commands) or a query view (reads)
  3. Serialize response
  4. Map errors to a status

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed input
  - 404: Transaction, account, person, loan or proposal not found
  - 422: Insufficient funds, settlement larger than the balance
  - 503: Assistant not configured
  - 500: Internal errors (store failures)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/moneyflow/ledger-engine/assistant"
	"github.com/moneyflow/ledger-engine/ledger"
	"github.com/moneyflow/ledger-engine/logging"
	"github.com/moneyflow/ledger-engine/query"
	"github.com/moneyflow/ledger-engine/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Processor *ledger.Processor
	// Coach is nil when the assistant is disabled.
	Coach *assistant.Coach
	Money query.Money
	Log   logging.Logger

	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over p. coach may be nil.
func NewHandler(p *ledger.Processor, coach *assistant.Coach, money query.Money, log logging.Logger) *Handler {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Handler{Processor: p, Coach: coach, Money: money, Log: log}
}

// =============================================================================
// SUMMARY & SETUP
// =============================================================================

// GetSummary returns the dashboard totals.
// GET /api/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, query.Summarize(h.Processor.Snapshot()))
}

// Reset replaces the ledger with the defaults.
// POST /api/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()
	if err := h.Processor.Reset(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, query.Summarize(h.Processor.Snapshot()))
}

// GET /api/accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, query.Summarize(h.Processor.Snapshot()).Accounts)
}

// POST /api/accounts
func (h *Handler) AddAccount(w http.ResponseWriter, r *http.Request) {
	h.addName(w, r, h.Processor.AddAccount)
}

// DELETE /api/accounts/{name}
func (h *Handler) RemoveAccount(w http.ResponseWriter, r *http.Request) {
	h.removeName(w, r, h.Processor.RemoveAccount)
}

// GET /api/people
func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Processor.Snapshot().People)
}

// POST /api/people
func (h *Handler) AddPerson(w http.ResponseWriter, r *http.Request) {
	h.addName(w, r, h.Processor.AddPerson)
}

// DELETE /api/people/{name}
func (h *Handler) RemovePerson(w http.ResponseWriter, r *http.Request) {
	h.removeName(w, r, h.Processor.RemovePerson)
}

// GET /api/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Processor.Snapshot().Categories)
}

// POST /api/categories
func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	h.addName(w, r, h.Processor.AddCategory)
}

// DELETE /api/categories/{name}
func (h *Handler) RemoveCategory(w http.ResponseWriter, r *http.Request) {
	h.removeName(w, r, h.Processor.RemoveCategory)
}

func (h *Handler) addName(w http.ResponseWriter, r *http.Request, add func(ctx context.Context, name string) error) {
	var req NameRequest
	if !decode(w, r, &req) {
		return
	}
	if err := add(r.Context(), req.Name); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) removeName(w http.ResponseWriter, r *http.Request, remove func(ctx context.Context, name string) error) {
	if err := remove(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/goal
func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, query.GoalProgress(h.Processor.Snapshot()))
}

// SetGoal updates the goal; omitted fields are kept.
// PUT /api/goal
func (h *Handler) SetGoal(w http.ResponseWriter, r *http.Request) {
	var patch ledger.GoalPatch
	if !decode(w, r, &patch) {
		return
	}
	if _, err := h.Processor.SetGoal(r.Context(), patch); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, query.GoalProgress(h.Processor.Snapshot()))
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// ListTransactions returns the filtered history.
// GET /api/transactions?kind=&category=&q=&sort=&limit=
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.history(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

// POST /api/transactions
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var cmd ledger.Command
	if !decode(w, r, &cmd) {
		return
	}
	id, err := h.Processor.CreateTransaction(r.Context(), cmd)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeTransaction(w, http.StatusCreated, id)
}

// GET /api/transactions/{id}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	h.writeTransaction(w, http.StatusOK, id)
}

// PUT /api/transactions/{id}
func (h *Handler) EditTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	var cmd ledger.Command
	if !decode(w, r, &cmd) {
		return
	}
	if err := h.Processor.EditTransaction(r.Context(), id, cmd); err != nil {
		h.fail(w, err)
		return
	}
	h.writeTransaction(w, http.StatusOK, id)
}

// DELETE /api/transactions/{id}
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	if err := h.Processor.DeleteTransaction(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TransactionReceipt returns the receipt as JSON, or as plain text with
// ?format=text.
// GET /api/transactions/{id}/receipt
func (h *Handler) TransactionReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	rc, err := query.TransactionReceipt(h.Processor.Snapshot(), id, h.Processor.Now())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeReceipt(w, r, rc)
}

func (h *Handler) writeTransaction(w http.ResponseWriter, status, id int) {
	tx, ok := h.Processor.Snapshot().Transaction(id)
	if !ok {
		h.fail(w, &ledger.NotFoundError{What: "transaction", Key: strconv.Itoa(id)})
		return
	}
	writeJSON(w, status, toTransactionDTO(tx))
}

// =============================================================================
// LOANS
// =============================================================================

// GET /api/loans
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, query.Loans(h.Processor.Snapshot()))
}

// POST /api/loans/settle
func (h *Handler) SettleLoan(w http.ResponseWriter, r *http.Request) {
	var cmd ledger.SettleCommand
	if !decode(w, r, &cmd) {
		return
	}
	id, err := h.Processor.Settle(r.Context(), cmd)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeTransaction(w, http.StatusCreated, id)
}

// GET /api/loans/{kind}/{person}/receipt
func (h *Handler) LoanReceipt(w http.ResponseWriter, r *http.Request) {
	kind := ledger.LoanKind(chi.URLParam(r, "kind"))
	rc, err := query.LoanReceipt(h.Processor.Snapshot(), kind, chi.URLParam(r, "person"), h.Processor.Now())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeReceipt(w, r, rc)
}

func (h *Handler) writeReceipt(w http.ResponseWriter, r *http.Request, rc query.Receipt) {
	if r.URL.Query().Get("format") != "text" {
		writeJSON(w, http.StatusOK, rc)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := report.RenderReceipt(w, rc, h.Money); err != nil {
		h.Log.WithError(err).Warn("failed to write receipt")
	}
}

// =============================================================================
// CHARTS & EXPORT
// =============================================================================

// GET /api/charts/expenses?window=&groupBy=&date=
func (h *Handler) ExpenseChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	b, err := query.ExpenseBreakdown(h.Processor.Snapshot(), query.ChartQuery{
		Window:  query.Window(q.Get("window")),
		GroupBy: query.GroupBy(q.Get("groupBy")),
		Date:    q.Get("date"),
	}, h.Processor.Now())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ExportCSV takes the same filters as ListTransactions.
// GET /api/export/transactions.csv
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.history(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteHistoryCSV(&buf, txs); err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	_, _ = w.Write(buf.Bytes())
}

// GET /api/export/transactions.xlsx
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.history(w, r)
	if !ok {
		return
	}
	data, err := report.HistoryXLSX(h.Processor.Snapshot(), txs)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.xlsx"`)
	_, _ = w.Write(data)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) ([]ledger.Transaction, bool) {
	q := r.URL.Query()
	hq := query.HistoryQuery{
		Kind:     ledger.Kind(q.Get("kind")),
		Category: q.Get("category"),
		Search:   q.Get("q"),
		Sort:     query.SortOrder(q.Get("sort")),
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.fail(w, &ledger.ValidationError{Field: "limit", Reason: fmt.Sprintf("expected a non-negative integer, got %q", s)})
			return nil, false
		}
		hq.Limit = n
	}
	txs, err := query.History(h.Processor.Snapshot(), hq)
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	return txs, true
}

// =============================================================================
// ASSISTANT
// =============================================================================

// GET /api/assistant/context
func (h *Handler) AssistantContext(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ContextDTO{Context: query.AssistantContext(h.Processor.Snapshot(), h.Money)})
}

// POST /api/assistant/ask
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	if !h.coachReady(w) {
		return
	}
	var req AskRequest
	if !decode(w, r, &req) {
		return
	}
	ans, err := h.Coach.Ask(r.Context(), req.Question, req.Language)
	if err != nil {
		if ledger.IsClientError(err) {
			h.fail(w, err)
			return
		}
		writeError(w, http.StatusBadGateway, "Assistant unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

// POST /api/assistant/proposals/{id}/confirm
func (h *Handler) ConfirmProposal(w http.ResponseWriter, r *http.Request) {
	if !h.coachReady(w) {
		return
	}
	res, err := h.Coach.Confirm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DELETE /api/assistant/proposals/{id}
func (h *Handler) DiscardProposal(w http.ResponseWriter, r *http.Request) {
	if !h.coachReady(w) {
		return
	}
	if err := h.Coach.Discard(chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) coachReady(w http.ResponseWriter) bool {
	if h.Coach == nil {
		writeError(w, http.StatusServiceUnavailable, "Assistant is not configured", nil)
		return false
	}
	return true
}

// =============================================================================
// HELPERS
// =============================================================================

func transactionID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction id", fmt.Errorf("%q is not a number", raw))
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// clientErrors maps ledger errors to HTTP status codes.
var clientErrors = []struct {
	sentinel error
	status   int
}{
	{ledger.ErrValidation, http.StatusBadRequest},
	{ledger.ErrNotFound, http.StatusNotFound},
	{ledger.ErrInsufficientFunds, http.StatusUnprocessableEntity},
	{ledger.ErrOverSettlement, http.StatusUnprocessableEntity},
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	for _, ce := range clientErrors {
		if errors.Is(err, ce.sentinel) {
			resp := ErrorResponse{Error: ce.sentinel.Error(), Details: err.Error()}
			var ve *ledger.ValidationError
			if errors.As(err, &ve) {
				resp.Field = ve.Field
			}
			writeJSON(w, ce.status, resp)
			return
		}
	}
	h.Log.WithError(err).Error("request failed")
	writeError(w, http.StatusInternalServerError, "Internal error", err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
