package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneyflow/ledger-engine/app"
	"github.com/moneyflow/ledger-engine/cmd/root"
	"github.com/moneyflow/ledger-engine/ledger"
)

var recordedID = regexp.MustCompile(`Recorded #(\d+)`)

// useLedger points the CLI at a fresh file store for one test.
func useLedger(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moneyflow.json")
	t.Setenv("MONEYFLOW_STORAGE_DRIVER", "file")
	t.Setenv("MONEYFLOW_STORAGE_PATH", path)
	t.Setenv("MONEYFLOW_LOG_LEVEL", "error")
	t.Setenv("MONEYFLOW_AI_ENABLED", "false")
	root.ContainerOptions = nil
	t.Cleanup(func() { root.ContainerOptions = nil })
	return path
}

// resetFlags clears values left behind by an earlier Execute.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(root.Cmd)
	var out bytes.Buffer
	root.Cmd.SetOut(&out)
	root.Cmd.SetErr(&out)
	root.Cmd.SetArgs(args)
	err := root.Cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, out)
	return out
}

func recorded(t *testing.T, out string) string {
	t.Helper()
	m := recordedID.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	return m[1]
}

func TestCLI_RecordAndList(t *testing.T) {
	useLedger(t)

	out := mustRun(t, "tx", "add", "deposit", "--amount", "5000", "--person", "Employer")
	assert.Contains(t, out, "Deposit from Employer BDT 5,000")

	out = mustRun(t, "tx", "add", "expense", "-a", "250", "--category", "Food")
	assert.Contains(t, out, "Food BDT 250")

	out = mustRun(t, "tx", "list", "--kind", "expense")
	assert.Contains(t, out, "Food")
	assert.NotContains(t, out, "Deposit from Employer")

	out = mustRun(t, "summary")
	assert.Contains(t, out, "Cash: BDT 4,750")
	assert.Contains(t, out, "Transactions: 2")
}

func TestCLI_EditKeepsUnsetFields(t *testing.T) {
	useLedger(t)
	mustRun(t, "tx", "add", "deposit", "--amount", "1000")
	id := recorded(t, mustRun(t, "tx", "add", "expense", "--amount", "300", "--category", "Transport", "-m", "bus"))

	// WHEN only the amount is changed
	out := mustRun(t, "tx", "edit", id, "--amount", "200")
	assert.Contains(t, out, "Updated #"+id+" Transport BDT 200")

	// THEN category and comment survive
	out = mustRun(t, "receipt", id)
	assert.Contains(t, out, "bus")
	assert.Contains(t, out, "BDT 200")
	assert.Contains(t, mustRun(t, "summary"), "Cash: BDT 800")

	mustRun(t, "tx", "delete", id)
	assert.Contains(t, mustRun(t, "summary"), "Cash: BDT 1,000")
}

func TestCLI_LoanSettlement(t *testing.T) {
	useLedger(t)
	mustRun(t, "tx", "add", "deposit", "--amount", "2000")
	mustRun(t, "tx", "add", "give-loan", "--amount", "1000", "--person", "Friend")

	out := mustRun(t, "loan", "settle", "--person", "Friend", "--amount", "400")
	assert.Contains(t, out, "BDT 600 outstanding with Friend")

	out = mustRun(t, "loan", "list")
	assert.Contains(t, out, "Friend: BDT 600")

	out = mustRun(t, "receipt", "--loan", "in-loan", "--person", "Friend")
	assert.Contains(t, out, "Loan Statement")
	assert.Contains(t, out, "BDT 600")

	_, err := run(t, "loan", "settle", "--person", "Friend", "--amount", "700")
	assert.ErrorIs(t, err, ledger.ErrOverSettlement)
}

func TestCLI_ErrorsSurface(t *testing.T) {
	useLedger(t)

	_, err := run(t, "tx", "delete", "999999")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = run(t, "tx", "add", "expense", "--amount", "100", "--category", "Food")
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	_, err = run(t, "tx", "edit", "abc", "--amount", "1")
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = run(t, "tx", "add", "expense")
	assert.Error(t, err, "amount is required")
}

func TestCLI_ManageNamesAndGoal(t *testing.T) {
	useLedger(t)

	mustRun(t, "account", "add", "Bank")
	assert.Contains(t, mustRun(t, "account"), "Bank")
	mustRun(t, "account", "remove", "Bank")
	assert.NotContains(t, mustRun(t, "account"), "Bank")

	mustRun(t, "person", "add", "Rahim")
	assert.Contains(t, mustRun(t, "person"), "Rahim")

	mustRun(t, "category", "add", "Rent")
	assert.Contains(t, mustRun(t, "category"), "Rent")

	out := mustRun(t, "goal", "--target", "5000")
	assert.Contains(t, out, "Emergency Fund: BDT 0 of BDT 5,000 saved in Cash (0%)")
}

func TestCLI_Demo(t *testing.T) {
	useLedger(t)
	assert.Contains(t, mustRun(t, "demo"), "monthly-budget")

	out := mustRun(t, "demo", "lending")
	assert.Contains(t, out, "Loaded scenario lending (5 transactions)")
	assert.Contains(t, mustRun(t, "loan", "list"), "Family: BDT 3,000")

	_, err := run(t, "demo", "nope")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestCLI_Export(t *testing.T) {
	useLedger(t)
	mustRun(t, "tx", "add", "deposit", "--amount", "700")
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "history.csv")
	out := mustRun(t, "export", "-f", "csv", "-o", csvPath)
	assert.Contains(t, out, "Exported 1 transactions")
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("id,date,type")))

	xlsxPath := filepath.Join(dir, "history.xlsx")
	mustRun(t, "export", "--format", "xlsx", "--output", xlsxPath)
	data, err = os.ReadFile(xlsxPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))

	_, err = run(t, "export", "--format", "pdf")
	assert.Error(t, err)
}

type scriptedModel struct{ reply string }

func (m scriptedModel) Generate(context.Context, string, string) (string, error) {
	return m.reply, nil
}

func TestCLI_AskOnlyAppliesWithConfirmation(t *testing.T) {
	useLedger(t)
	mustRun(t, "tx", "add", "deposit", "--amount", "1000")
	root.ContainerOptions = []app.Option{app.WithModel(scriptedModel{reply: "Logging your lunch.\n" +
		`<<<ACTION>>> {"command":"add_transaction","params":{"type":"expense","amount":250,"account":"Cash","category":"Food"}}`}),
	}

	out := mustRun(t, "ask", "I", "spent", "250", "on", "lunch")
	assert.Contains(t, out, "Logging your lunch.")
	assert.Contains(t, out, "Not applied")
	assert.Contains(t, mustRun(t, "summary"), "Cash: BDT 1,000")

	out = mustRun(t, "ask", "--yes", "I spent 250 on lunch")
	assert.Contains(t, out, "Applied add_transaction")
	assert.Contains(t, mustRun(t, "summary"), "Cash: BDT 750")
}

func TestCLI_AskWithoutAssistant(t *testing.T) {
	useLedger(t)
	_, err := run(t, "ask", "how am I doing?")
	assert.ErrorContains(t, err, "assistant is disabled")
}
