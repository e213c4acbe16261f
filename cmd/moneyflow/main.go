package main

import (
	"os"

	"github.com/moneyflow/ledger-engine/cmd/ask"
	"github.com/moneyflow/ledger-engine/cmd/loan"
	"github.com/moneyflow/ledger-engine/cmd/manage"
	"github.com/moneyflow/ledger-engine/cmd/report"
	"github.com/moneyflow/ledger-engine/cmd/root"
	"github.com/moneyflow/ledger-engine/cmd/serve"
	"github.com/moneyflow/ledger-engine/cmd/transaction"
)

func init() {
	root.Cmd.AddCommand(transaction.Cmd)
	root.Cmd.AddCommand(loan.Cmd)
	root.Cmd.AddCommand(manage.AccountCmd)
	root.Cmd.AddCommand(manage.PersonCmd)
	root.Cmd.AddCommand(manage.CategoryCmd)
	root.Cmd.AddCommand(manage.GoalCmd)
	root.Cmd.AddCommand(manage.DemoCmd)
	root.Cmd.AddCommand(report.SummaryCmd)
	root.Cmd.AddCommand(report.ChartCmd)
	root.Cmd.AddCommand(report.ReceiptCmd)
	root.Cmd.AddCommand(report.ExportCmd)
	root.Cmd.AddCommand(ask.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
