/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the ledger with realistic
	data for demos. Each scenario records deposits, expenses, transfers
	and loans dated over the last few weeks.

AVAILABLE SCENARIOS:

	monthly-budget:   Salary, a wallet top-up and everyday spending
	lending:          Money lent and borrowed, partly settled
	savings-goal:     Regular transfers into a savings wallet toward a goal

HOW SCENARIOS WORK:
 1. Reset the ledger (default accounts, people, categories)
 2. Replay the scenario's commands through the processor
 3. Optionally set the goal

Every step goes through the same validation as user input, so a scenario
that breaks an invariant fails to load.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "lending"}

ADDING NEW SCENARIOS:
 1. Add to 'Scenarios' with ID, name, description and loader

NOTE:

	Scenarios reset the ledger. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Reset handler
  - cmd/manage/demo.go: CLI loader
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/moneyflow/ledger-engine/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// Scenario is a named demo data set.
type Scenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`

	load func(ctx context.Context, p *ledger.Processor) error
}

// Scenarios lists the available demo data sets.
var Scenarios = []Scenario{
	{
		ID:          "monthly-budget",
		Name:        "Monthly Budget",
		Description: "Salary into Cash, a bKash top-up and a month of everyday spending",
		Category:    "spending",
		load:        loadMonthlyBudget,
	},
	{
		ID:          "lending",
		Name:        "Lending & Borrowing",
		Description: "A loan to a friend and one from family, each partly repaid",
		Category:    "loans",
		load:        loadLending,
	},
	{
		ID:          "savings-goal",
		Name:        "Savings Goal",
		Description: "Transfers into Rocket toward a laptop fund",
		Category:    "savings",
		load:        loadSavingsGoal,
	},
}

// LoadScenario resets the ledger and records scenario id.
func LoadScenario(ctx context.Context, p *ledger.Processor, id string) error {
	for _, s := range Scenarios {
		if s.ID != id {
			continue
		}
		if err := p.Reset(ctx); err != nil {
			return err
		}
		if err := s.load(ctx, p); err != nil {
			return fmt.Errorf("load scenario %s: %w", id, err)
		}
		return nil
	}
	return &ledger.NotFoundError{What: "scenario", Key: id}
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Scenarios)
}

// GetCurrentScenario returns the scenario loaded since the last reset,
// or null.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	for _, s := range Scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if !decode(w, r, &req) {
		return
	}

	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()
	h.currentScenario = ""
	if err := LoadScenario(r.Context(), h.Processor, req.ScenarioID); err != nil {
		h.fail(w, err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// daysAgo formats the calendar day n days before the processor's now.
func daysAgo(p *ledger.Processor, n int) string {
	if n == 0 {
		return ""
	}
	return p.Now().AddDate(0, 0, -n).Format("2006-01-02")
}

func record(ctx context.Context, p *ledger.Processor, cmds ...ledger.Command) error {
	for _, cmd := range cmds {
		if _, err := p.CreateTransaction(ctx, cmd); err != nil {
			return fmt.Errorf("%s %s: %w", cmd.Kind, cmd.Amount, err)
		}
	}
	return nil
}

func loadMonthlyBudget(ctx context.Context, p *ledger.Processor) error {
	return record(ctx, p,
		ledger.Command{Kind: ledger.KindDeposit, Amount: ledger.NewAmount(40000), Account: "Cash",
			Person: "Employer", Comment: "Salary", Date: daysAgo(p, 20)},
		ledger.Command{Kind: ledger.KindTransfer, Amount: ledger.NewAmount(15000), Fee: ledger.NewAmount(20),
			Account: "Cash", ToAccount: "bKash", Date: daysAgo(p, 19)},
		ledger.Command{Kind: ledger.KindExpense, Amount: ledger.NewAmount(2500), Account: "bKash",
			Category: "Bills", Comment: "Electricity", Date: daysAgo(p, 15)},
		ledger.Command{Kind: ledger.KindExpense, Amount: ledger.NewAmount(350), Account: "Cash",
			Category: "Food", Date: daysAgo(p, 10)},
		ledger.Command{Kind: ledger.KindExpense, Amount: ledger.NewAmount(120), Account: "Cash",
			Category: "Transport", Date: daysAgo(p, 6)},
		ledger.Command{Kind: ledger.KindExpense, Amount: ledger.NewAmount(1800), Account: "Cash",
			Category: "Shopping", Date: daysAgo(p, 3)},
		ledger.Command{Kind: ledger.KindExpense, Amount: ledger.NewAmount(600), Account: "Cash",
			Category: "Entertainment", Comment: "Cinema", Date: daysAgo(p, 0)},
	)
}

func loadLending(ctx context.Context, p *ledger.Processor) error {
	err := record(ctx, p,
		ledger.Command{Kind: ledger.KindDeposit, Amount: ledger.NewAmount(10000), Account: "Cash",
			Person: "Employer", Date: daysAgo(p, 14)},
		ledger.Command{Kind: ledger.KindGiveLoan, Amount: ledger.NewAmount(3000), Account: "Cash",
			Person: "Friend", Comment: "Rent help", Date: daysAgo(p, 12)},
		ledger.Command{Kind: ledger.KindGetLoan, Amount: ledger.NewAmount(5000), Account: "Nagad",
			Person: "Family", Date: daysAgo(p, 9)},
	)
	if err != nil {
		return err
	}
	settlements := []ledger.SettleCommand{
		{Kind: ledger.LoanInLoan, Person: "Friend", Account: "Cash", Amount: ledger.NewAmount(1000), Date: daysAgo(p, 5)},
		{Kind: ledger.LoanLiability, Person: "Family", Account: "Nagad", Amount: ledger.NewAmount(2000), Date: daysAgo(p, 2)},
	}
	for _, s := range settlements {
		if _, err := p.Settle(ctx, s); err != nil {
			return fmt.Errorf("settle %s: %w", s.Person, err)
		}
	}
	return nil
}

func loadSavingsGoal(ctx context.Context, p *ledger.Processor) error {
	err := record(ctx, p,
		ledger.Command{Kind: ledger.KindDeposit, Amount: ledger.NewAmount(60000), Account: "Cash",
			Person: "Employer", Comment: "Salary", Date: daysAgo(p, 25)},
		ledger.Command{Kind: ledger.KindTransfer, Amount: ledger.NewAmount(25000), Account: "Cash",
			ToAccount: "Rocket", Date: daysAgo(p, 24)},
		ledger.Command{Kind: ledger.KindTransfer, Amount: ledger.NewAmount(5000), Fee: ledger.NewAmount(25),
			Account: "Cash", ToAccount: "bKash", Date: daysAgo(p, 20)},
		ledger.Command{Kind: ledger.KindExpense, Amount: ledger.NewAmount(1200), Account: "bKash",
			Category: "Health", Date: daysAgo(p, 8)},
		ledger.Command{Kind: ledger.KindTransfer, Amount: ledger.NewAmount(10000), Account: "Cash",
			ToAccount: "Rocket", Date: daysAgo(p, 1)},
	)
	if err != nil {
		return err
	}
	target := ledger.NewAmount(80000)
	_, err = p.SetGoal(ctx, ledger.GoalPatch{Name: "New Laptop", Target: &target, LinkedAccount: "Rocket"})
	return err
}
