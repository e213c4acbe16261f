package report

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/xuri/excelize/v2"

	"github.com/moneyflow/ledger-engine/ledger"
	"github.com/moneyflow/ledger-engine/query"
)

const (
	SheetTransactions = "Transactions"
	SheetBalances     = "Balances"
)

var historyHeader = []string{"ID", "Date", "Type", "Title", "Account", "To", "Person", "Category", "Amount", "Fee", "Comment"}

// HistoryXLSX builds a workbook with txs on one sheet and the balances of s
// on another.
func HistoryXLSX(s *ledger.State, txs []ledger.Transaction) ([]byte, error) {
	xlsx := excelize.NewFile()
	defer func() { _ = xlsx.Close() }()

	_ = xlsx.SetAppProps(&excelize.AppProperties{Application: "MoneyFlow"})

	first := xlsx.GetSheetName(xlsx.GetActiveSheetIndex())
	if err := xlsx.SetSheetName(first, SheetTransactions); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := xlsx.NewSheet(SheetBalances); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	writeTransactions(xlsx, txs)
	writeBalances(xlsx, s)

	buf, err := xlsx.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTransactions(xlsx *excelize.File, txs []ledger.Transaction) {
	sheet := SheetTransactions
	_ = xlsx.SetColWidth(sheet, "A", "A", 10)
	_ = xlsx.SetColWidth(sheet, "B", "B", 20)
	_ = xlsx.SetColWidth(sheet, "C", "H", 16)
	_ = xlsx.SetColWidth(sheet, "I", "J", 12)
	_ = xlsx.SetColWidth(sheet, "K", "K", 40)

	for i, h := range historyHeader {
		_ = xlsx.SetCellValue(sheet, cell(rune('A'+i), 1), h)
	}
	style, _ := xlsx.NewStyle(mergeStyles(fontBold(), thinBorder("bottom")))
	_ = xlsx.SetCellStyle(sheet, "A1", cell('K', 1), style)

	money, _ := xlsx.NewStyle(numberFormat())
	for i, row := range historyRows(txs) {
		r := i + 2
		_ = xlsx.SetCellInt(sheet, cell('A', r), row.ID)
		_ = xlsx.SetCellValue(sheet, cell('B', r), row.Date)
		_ = xlsx.SetCellValue(sheet, cell('C', r), row.Type)
		_ = xlsx.SetCellValue(sheet, cell('D', r), row.Title)
		_ = xlsx.SetCellValue(sheet, cell('E', r), row.Account)
		_ = xlsx.SetCellValue(sheet, cell('F', r), row.To)
		_ = xlsx.SetCellValue(sheet, cell('G', r), row.Person)
		_ = xlsx.SetCellValue(sheet, cell('H', r), row.Category)
		_ = xlsx.SetCellValue(sheet, cell('I', r), txs[i].Amount.Value.InexactFloat64())
		if fee := txs[i].Fee(); fee.IsPositive() {
			_ = xlsx.SetCellValue(sheet, cell('J', r), fee.Value.InexactFloat64())
		}
		_ = xlsx.SetCellValue(sheet, cell('K', r), row.Comment)
		_ = xlsx.SetCellStyle(sheet, cell('I', r), cell('J', r), money)
	}
}

func writeBalances(xlsx *excelize.File, s *ledger.State) {
	sheet := SheetBalances
	_ = xlsx.SetColWidth(sheet, "A", "A", 24)
	_ = xlsx.SetColWidth(sheet, "B", "B", 16)

	bold, _ := xlsx.NewStyle(mergeStyles(fontBold(), thinBorder("bottom")))
	money, _ := xlsx.NewStyle(numberFormat())
	total, _ := xlsx.NewStyle(mergeStyles(fontBold(), numberFormat(), thinBorder("top")))

	row := 1
	heading := func(title string) {
		_ = xlsx.SetCellValue(sheet, cell('A', row), title)
		_ = xlsx.SetCellStyle(sheet, cell('A', row), cell('B', row), bold)
		row++
	}
	line := func(name string, a ledger.Amount, style int) {
		_ = xlsx.SetCellValue(sheet, cell('A', row), name)
		_ = xlsx.SetCellValue(sheet, cell('B', row), a.Value.InexactFloat64())
		_ = xlsx.SetCellStyle(sheet, cell('B', row), cell('B', row), style)
		row++
	}

	sum := query.Summarize(s)
	heading("Accounts")
	for _, a := range sum.Accounts {
		line(a.Name, a.Balance, money)
	}
	line("Total", sum.TotalBalance, total)
	row++

	book := query.Loans(s)
	heading("Owed to you")
	for _, e := range book.OwedToUser {
		line(e.Person, e.Amount, money)
	}
	line("Total", book.TotalOwedToUser, total)
	row++

	heading("You owe")
	for _, e := range book.OwedByUser {
		line(e.Person, e.Amount, money)
	}
	line("Total", book.TotalOwedByUser, total)
	row++

	line("Net position", sum.NetPosition, total)
}

// =============================================================================
// STYLES
// =============================================================================

func cell(col rune, row int) string {
	return fmt.Sprintf("%c%d", col, row)
}

func fontBold() *excelize.Style {
	return &excelize.Style{Font: &excelize.Font{Bold: true}}
}

func numberFormat() *excelize.Style {
	f := "#,##0"
	return &excelize.Style{CustomNumFmt: &f}
}

func thinBorder(side string) *excelize.Style {
	return &excelize.Style{Border: []excelize.Border{{Type: side, Color: "000000", Style: 1}}}
}

func mergeStyles(ext ...*excelize.Style) *excelize.Style {
	if len(ext) == 0 {
		return nil
	}
	for _, e := range ext[1:] {
		_ = mergo.Merge(ext[0], e, mergo.WithOverride)
	}
	return ext[0]
}
