/*
handlers_test.go - HTTP surface tests

Tests for:
- Transaction create/get/edit/delete round trips
- Error status mapping (400, 404, 422, 503)
- Loans, settlement and receipts
- Charts, exports and the assistant endpoints
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneyflow/ledger-engine/assistant"
	"github.com/moneyflow/ledger-engine/ledger"
	"github.com/moneyflow/ledger-engine/ledger/store"
	"github.com/moneyflow/ledger-engine/logging"
	"github.com/moneyflow/ledger-engine/query"
)

var testNow = time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)

type cannedModel struct{ reply string }

func (m cannedModel) Generate(context.Context, string, string) (string, error) { return m.reply, nil }

type testServer struct {
	t      *testing.T
	router http.Handler
	proc   *ledger.Processor
	mem    *store.Memory
}

func newTestServer(t *testing.T, model assistant.Model) *testServer {
	t.Helper()
	st := ledger.DefaultState()
	st.Accounts["Cash"] = ledger.NewAmount(10000)
	st.Accounts["Bank"] = ledger.NewAmount(0)

	next := 100000
	mem := store.NewMemory()
	p := ledger.NewProcessor(mem, st,
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithIDSource(ledger.IDFunc(func() int { next++; return next })),
	)
	var coach *assistant.Coach
	if model != nil {
		coach = assistant.NewCoach(model, p)
	}
	h := NewHandler(p, coach, query.NewMoney(""), logging.NewDiscard())
	return &testServer{t: t, router: NewRouter(h, nil, logging.NewDiscard()), proc: p, mem: mem}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestCreateAndGetTransaction(t *testing.T) {
	s := newTestServer(t, nil)

	// GIVEN: an expense command
	rec := s.do(http.MethodPost, "/api/transactions", `{"kind":"expense","amount":"250","account":"Cash","category":"Food","comment":"lunch"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// THEN: the transaction is returned with a title rendered from its fields
	created := decodeBody[TransactionDTO](t, rec)
	assert.Equal(t, 100001, created.ID)
	assert.Equal(t, "Food", created.Title)
	assert.Equal(t, "lunch", created.Comment)

	rec = s.do(http.MethodGet, "/api/transactions/100001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[TransactionDTO](t, rec)
	assert.Equal(t, created.ID, got.ID)

	assert.Equal(t, 1, s.mem.Saves())
	assert.True(t, ledger.NewAmount(9750).Equal(s.proc.Snapshot().Accounts["Cash"]))
}

func TestEditAndDeleteTransaction(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(http.MethodPost, "/api/transactions", ledger.Command{Kind: ledger.KindDeposit, Amount: ledger.NewAmount(500), Account: "Bank"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPut, "/api/transactions/100001", ledger.Command{Kind: ledger.KindDeposit, Amount: ledger.NewAmount(800), Account: "Bank"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, ledger.NewAmount(800).Equal(s.proc.Snapshot().Accounts["Bank"]))

	rec = s.do(http.MethodDelete, "/api/transactions/100001", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, s.proc.Snapshot().Accounts["Bank"].IsZero())

	rec = s.do(http.MethodDelete, "/api/transactions/100001", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		field  string
	}{
		{"malformed json", http.MethodPost, "/api/transactions", `{"kind":`, http.StatusBadRequest, ""},
		{"validation", http.MethodPost, "/api/transactions", `{"kind":"expense","amount":0,"account":"Cash","category":"Food"}`, http.StatusBadRequest, "amount"},
		{"unknown kind", http.MethodPost, "/api/transactions", `{"kind":"refund","amount":5,"account":"Cash"}`, http.StatusBadRequest, "kind"},
		{"insufficient funds", http.MethodPost, "/api/transactions", `{"kind":"expense","amount":99999,"account":"Cash","category":"Food"}`, http.StatusUnprocessableEntity, ""},
		{"bad id", http.MethodGet, "/api/transactions/abc", nil, http.StatusBadRequest, ""},
		{"missing transaction", http.MethodGet, "/api/transactions/123456", nil, http.StatusNotFound, ""},
		{"over settlement", http.MethodPost, "/api/loans/settle", `{"kind":"in-loan","person":"Friend","account":"Cash","amount":10}`, http.StatusUnprocessableEntity, ""},
		{"unknown person", http.MethodPost, "/api/loans/settle", `{"kind":"in-loan","person":"Nobody","account":"Cash","amount":10}`, http.StatusNotFound, ""},
		{"bad history sort", http.MethodGet, "/api/transactions?sort=random", nil, http.StatusBadRequest, "sort"},
		{"bad limit", http.MethodGet, "/api/transactions?limit=-1", nil, http.StatusBadRequest, "limit"},
		{"assistant disabled", http.MethodPost, "/api/assistant/ask", `{"question":"hi"}`, http.StatusServiceUnavailable, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decodeBody[ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
			if tt.field != "" {
				assert.Equal(t, tt.field, resp.Field)
			}
		})
	}
	assert.Equal(t, 0, s.mem.Saves(), "no failed command is persisted")
}

func TestStoreFailureIs500(t *testing.T) {
	s := newTestServer(t, nil)
	s.mem.FailSaves(assert.AnError)

	rec := s.do(http.MethodPost, "/api/transactions", ledger.Command{Kind: ledger.KindDeposit, Amount: ledger.NewAmount(1), Account: "Cash"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, s.proc.Snapshot().Transactions)
}

func TestListTransactionsFilters(t *testing.T) {
	s := newTestServer(t, nil)
	for _, cmd := range []ledger.Command{
		{Kind: ledger.KindExpense, Amount: ledger.NewAmount(100), Account: "Cash", Category: "Food"},
		{Kind: ledger.KindExpense, Amount: ledger.NewAmount(300), Account: "Cash", Category: "Bills"},
		{Kind: ledger.KindDeposit, Amount: ledger.NewAmount(50), Account: "Bank"},
	} {
		require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/transactions", cmd).Code)
	}

	rec := s.do(http.MethodGet, "/api/transactions?kind=expense&sort=highest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	txs := decodeBody[[]TransactionDTO](t, rec)
	require.Len(t, txs, 2)
	assert.Equal(t, "Bills", txs[0].Title)

	rec = s.do(http.MethodGet, "/api/transactions?category=Food", nil)
	assert.Len(t, decodeBody[[]TransactionDTO](t, rec), 1)

	rec = s.do(http.MethodGet, "/api/transactions?limit=1&sort=oldest", nil)
	txs = decodeBody[[]TransactionDTO](t, rec)
	require.Len(t, txs, 1)
	assert.Equal(t, 100001, txs[0].ID)
}

// =============================================================================
// SETUP ENDPOINTS
// =============================================================================

func TestAccountsPeopleCategories(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/accounts", NameRequest{Name: "Savings"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/accounts", NameRequest{Name: "Savings"}).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/accounts/Savings", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/accounts/Savings", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/api/accounts/Cash", nil).Code)

	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/people", NameRequest{Name: "Rahim"}).Code)
	people := decodeBody[[]string](t, s.do(http.MethodGet, "/api/people", nil))
	assert.Contains(t, people, "Rahim")

	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/categories", NameRequest{Name: "Rent"}).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/categories/Rent", nil).Code)

	accounts := decodeBody[[]query.AccountBalance](t, s.do(http.MethodGet, "/api/accounts", nil))
	assert.Equal(t, "Cash", accounts[0].Name)
}

func TestGoal(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPut, "/api/goal", `{"name":"Laptop","target":"20000","linkedAccount":"Cash"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	g := decodeBody[query.GoalStatus](t, rec)
	assert.Equal(t, "Laptop", g.Name)
	assert.Equal(t, 50, g.Percent)

	rec = s.do(http.MethodPut, "/api/goal", `{"linkedAccount":"Nowhere"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryAndReset(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/transactions", ledger.Command{
		Kind: ledger.KindGetLoan, Amount: ledger.NewAmount(700), Account: "Cash", Person: "Friend",
	}).Code)

	sum := decodeBody[query.Summary](t, s.do(http.MethodGet, "/api/summary", nil))
	assert.True(t, ledger.NewAmount(10700).Equal(sum.TotalBalance))
	assert.True(t, ledger.NewAmount(700).Equal(sum.TotalPayable))
	assert.True(t, ledger.NewAmount(-700).Equal(sum.NetPosition), "only loans count toward net position")

	rec := s.do(http.MethodPost, "/api/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sum = decodeBody[query.Summary](t, rec)
	assert.Equal(t, 0, sum.TransactionCount)
	assert.True(t, sum.TotalBalance.IsZero())
}

// =============================================================================
// LOANS & RECEIPTS
// =============================================================================

func TestSettleLoanFlow(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/transactions", ledger.Command{
		Kind: ledger.KindGiveLoan, Amount: ledger.NewAmount(1000), Account: "Cash", Person: "Friend",
	}).Code)

	rec := s.do(http.MethodPost, "/api/loans/settle", `{"kind":"in-loan","person":"Friend","account":"Cash","amount":1500}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPost, "/api/loans/settle", `{"kind":"in-loan","person":"Friend","account":"Cash","amount":400}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tx := decodeBody[TransactionDTO](t, rec)
	assert.Equal(t, "Repayment from Friend", tx.Title)
	assert.Equal(t, ledger.SubKindSettlement, tx.SubKind)

	book := decodeBody[query.LoanBook](t, s.do(http.MethodGet, "/api/loans", nil))
	require.Len(t, book.OwedToUser, 1)
	assert.True(t, ledger.NewAmount(600).Equal(book.OwedToUser[0].Amount))

	rec = s.do(http.MethodGet, "/api/loans/in-loan/Friend/receipt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rc := decodeBody[query.Receipt](t, rec)
	assert.Equal(t, "Loan Statement", rc.Title)

	rec = s.do(http.MethodGet, "/api/loans/liability/Friend/receipt", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionReceiptText(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/transactions", ledger.Command{
		Kind: ledger.KindDeposit, Amount: ledger.NewAmount(12500), Account: "Cash",
	}).Code)

	rec := s.do(http.MethodGet, "/api/transactions/100001/receipt?format=text", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "#100001")
	assert.Contains(t, rec.Body.String(), "BDT 12,500")
}

// =============================================================================
// CHARTS & EXPORT
// =============================================================================

func TestExpenseChartAndExports(t *testing.T) {
	s := newTestServer(t, nil)
	for _, n := range []int64{100, 200} {
		require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/transactions", ledger.Command{
			Kind: ledger.KindExpense, Amount: ledger.NewAmount(n), Account: "Cash", Category: "Food",
		}).Code)
	}

	rec := s.do(http.MethodGet, "/api/charts/expenses?window=today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	b := decodeBody[query.Breakdown](t, rec)
	require.Len(t, b.Points, 1)
	assert.True(t, ledger.NewAmount(300).Equal(b.Total))

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/charts/expenses?window=year", nil).Code)

	rec = s.do(http.MethodGet, "/api/export/transactions.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3, "header plus two rows")

	rec = s.do(http.MethodGet, "/api/export/transactions.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

// =============================================================================
// ASSISTANT
// =============================================================================

func TestAssistantEndpoints(t *testing.T) {
	s := newTestServer(t, cannedModel{reply: "Noted.\n<<<ACTION>>>{\"command\":\"add_transaction\",\"params\":{\"type\":\"deposit\",\"amount\":300,\"account\":\"Bank\"}}"})

	ctxResp := decodeBody[ContextDTO](t, s.do(http.MethodGet, "/api/assistant/context", nil))
	assert.Contains(t, ctxResp.Context, "Current Balances:")

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/assistant/ask", AskRequest{}).Code)

	rec := s.do(http.MethodPost, "/api/assistant/ask", AskRequest{Question: "I got 300 in my bank"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ans := decodeBody[assistant.Answer](t, rec)
	assert.Equal(t, "Noted.", ans.Text)
	require.NotNil(t, ans.Proposal)
	assert.Empty(t, s.proc.Snapshot().Transactions)

	rec = s.do(http.MethodPost, "/api/assistant/proposals/"+ans.Proposal.ID+"/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, ledger.NewAmount(300).Equal(s.proc.Snapshot().Accounts["Bank"]))

	rec = s.do(http.MethodPost, "/api/assistant/ask", AskRequest{Question: "again"})
	ans = decodeBody[assistant.Answer](t, rec)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/assistant/proposals/"+ans.Proposal.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/assistant/proposals/"+ans.Proposal.ID+"/confirm", nil).Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/summary", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
