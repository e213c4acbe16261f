package query

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/moneyflow/ledger-engine/ledger"
)

// DefaultCurrency is the ISO code money is shown in.
const DefaultCurrency = "BDT"

// Money renders amounts as whole units with digit grouping and a
// currency code, e.g. "BDT 12,500".
type Money struct {
	Currency string
	printer  *message.Printer
}

func NewMoney(currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Currency: currency, printer: message.NewPrinter(language.English)}
}

func (m Money) Format(a ledger.Amount) string {
	p := m.printer
	if p == nil {
		p = message.NewPrinter(language.English)
	}
	v := a.Value.Round(0).IntPart()
	if v < 0 {
		return p.Sprintf("-%s %d", m.Currency, -v)
	}
	return p.Sprintf("%s %d", m.Currency, v)
}
