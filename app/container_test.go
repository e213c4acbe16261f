package app_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneyflow/ledger-engine/app"
	"github.com/moneyflow/ledger-engine/config"
	"github.com/moneyflow/ledger-engine/ledger"
	"github.com/moneyflow/ledger-engine/logging"
)

func testConfig(driver, path string) *config.Config {
	cfg := &config.Config{}
	cfg.Log.Level = "debug"
	cfg.Log.Format = "text"
	cfg.Server.Port = 8080
	cfg.Storage.Driver = driver
	cfg.Storage.Path = path
	cfg.Storage.RetainVersions = 3
	cfg.Ledger.Currency = "BDT"
	cfg.Ledger.Timezone = "UTC"
	cfg.AI.Model = "test-model"
	cfg.AI.TimeoutSeconds = 5
	cfg.AI.ProposalTTLMinutes = 1
	return cfg
}

type echoModel struct{}

func (echoModel) Generate(context.Context, string, string) (string, error) { return "fine", nil }

func TestNewContainer_Memory(t *testing.T) {
	log := logging.NewRecorder()
	c, err := app.NewContainer(context.Background(), testConfig(config.DriverMemory, ""), app.WithLogger(log))
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Processor())
	assert.Nil(t, c.Coach(), "assistant is off unless enabled")
	assert.Equal(t, "BDT", c.Money().Currency)
	assert.True(t, log.HasEntry("INFO", "no saved ledger, starting from defaults"))
	assert.True(t, log.HasEntry("INFO", "AI assistant disabled"))
}

func TestNewContainer_SQLitePersistsAcrossRestarts(t *testing.T) {
	cfg := testConfig(config.DriverSQLite, filepath.Join(t.TempDir(), "ledger.db"))
	ctx := context.Background()

	c, err := app.NewContainer(ctx, cfg, app.WithLogger(logging.NewDiscard()))
	require.NoError(t, err)
	id, err := c.Processor().CreateTransaction(ctx, ledger.Command{
		Kind: ledger.KindDeposit, Amount: ledger.NewAmount(900), Account: "Cash",
	})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	// WHEN the container is rebuilt over the same database
	c, err = app.NewContainer(ctx, cfg, app.WithLogger(logging.NewDiscard()))
	require.NoError(t, err)
	defer c.Close()

	// THEN the deposit is still there
	snap := c.Processor().Snapshot()
	_, ok := snap.Transaction(id)
	assert.True(t, ok)
	assert.True(t, ledger.NewAmount(900).Equal(snap.Accounts["Cash"]))
}

func TestNewContainer_FileStoreAndClock(t *testing.T) {
	fixed := time.Date(2025, time.March, 15, 20, 0, 0, 0, time.UTC)
	cfg := testConfig(config.DriverFile, filepath.Join(t.TempDir(), "ledger.yaml"))
	cfg.Ledger.Timezone = "Asia/Dhaka"

	c, err := app.NewContainer(context.Background(), cfg,
		app.WithLogger(logging.NewDiscard()),
		app.WithClock(func() time.Time { return fixed }),
	)
	require.NoError(t, err)

	assert.Equal(t, "Asia/Dhaka", c.Processor().Now().Location().String())
	assert.Equal(t, 16, c.Processor().Now().Day(), "20:00 UTC is past midnight in Dhaka")
}

func TestNewContainer_WithModelEnablesCoach(t *testing.T) {
	c, err := app.NewContainer(context.Background(), testConfig(config.DriverMemory, ""),
		app.WithLogger(logging.NewDiscard()),
		app.WithModel(echoModel{}),
	)
	require.NoError(t, err)

	require.NotNil(t, c.Coach())
	ans, err := c.Coach().Ask(context.Background(), "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "fine", ans.Text)
}

func TestNewContainer_Errors(t *testing.T) {
	_, err := app.NewContainer(context.Background(), nil)
	assert.Error(t, err)

	_, err = app.NewContainer(context.Background(), testConfig("mongo", ""), app.WithLogger(logging.NewDiscard()))
	assert.ErrorContains(t, err, "unknown storage driver")
}
