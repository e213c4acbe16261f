package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneyflow/ledger-engine/ledger"
	"github.com/moneyflow/ledger-engine/store/file"
)

func sampleState() *ledger.State {
	s := ledger.DefaultState()
	s.Accounts["Cash"] = ledger.NewAmount(750)
	s.OwedToUser["Friend"] = ledger.NewAmount(250)
	net := ledger.NewAmount(100)
	s.Transactions = append(s.Transactions,
		ledger.Transaction{
			ID: 123456, Timestamp: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Kind: ledger.KindGiveLoan, SubKind: ledger.SubKindRegular,
			Amount: ledger.NewAmount(250), Account: "Cash", Counterparty: "Friend", Title: "Loan to Friend",
		},
		ledger.Transaction{
			ID: 654321, Timestamp: time.Date(2025, 3, 2, 9, 15, 0, 0, time.UTC),
			Kind: ledger.KindTransfer, SubKind: ledger.SubKindRegular,
			Amount: ledger.NewAmount(105), NetAmount: &net, Account: "Cash", ToAccount: "bKash", Title: "Transfer to bKash",
		},
	)
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	for _, name := range []string{"ledger.json", "ledger.yaml", "ledger.yml"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "nested", name)
			s, err := file.New(path)
			require.NoError(t, err)

			_, err = s.Load(ctx)
			assert.ErrorIs(t, err, ledger.ErrNoState)

			want := sampleState()
			require.NoError(t, s.Save(ctx, want))
			got, err := s.Load(ctx)
			require.NoError(t, err)

			assert.True(t, ledger.NewAmount(750).Equal(got.Accounts["Cash"]))
			assert.True(t, ledger.NewAmount(250).Equal(got.OwedToUser["Friend"]))
			assert.Equal(t, want.People, got.People)
			assert.Equal(t, want.Goal.Name, got.Goal.Name)
			assert.True(t, want.Goal.Target.Equal(got.Goal.Target))
			require.Len(t, got.Transactions, 2)
			assert.Equal(t, 123456, got.Transactions[0].ID)
			assert.True(t, want.Transactions[0].Timestamp.Equal(got.Transactions[0].Timestamp))
			assert.Equal(t, "Friend", got.Transactions[0].Counterparty)
			require.NotNil(t, got.Transactions[1].NetAmount)
			assert.True(t, ledger.NewAmount(5).Equal(got.Transactions[1].Fee()))

			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temp files are cleaned up")
		})
	}
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	s, err := file.New(path)
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, ledger.ErrCorruptState)
}

func TestStore_EmptyFileHasNoState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))
	s, err := file.New(path)
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, ledger.ErrNoState)
}

func TestNew_RejectsUnknownExtension(t *testing.T) {
	_, err := file.New("ledger.txt")
	assert.Error(t, err)
}

func TestStore_WorksWithProcessor(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	s, err := file.New(path)
	require.NoError(t, err)

	p, err := ledger.Open(ctx, s)
	require.NoError(t, err)
	_, err = p.CreateTransaction(ctx, ledger.Command{Kind: ledger.KindDeposit, Amount: ledger.NewAmount(90), Account: "Nagad"})
	require.NoError(t, err)

	reopened, err := ledger.Open(ctx, s)
	require.NoError(t, err)
	assert.True(t, ledger.NewAmount(90).Equal(reopened.Snapshot().Accounts["Nagad"]))
}
