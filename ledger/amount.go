/*
Package ledger provides the personal finance ledger engine.

PURPOSE:
  This package owns the ledger state (accounts, loans, liabilities, goal,
  transaction log) and the only code allowed to mutate it. Every change is
  expressed as a Command, turned into an Effect (a list of balance deltas),
  checked on a scratch copy, and committed to a Store exactly once.

KEY CONCEPTS IN THIS FILE (amount.go):
  - Amount: A money value in whole currency units

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal, never float64 arithmetic
  2. Reversibility: Every recorded transaction carries enough structure
     to undo its effect exactly
  3. Atomicity: A command either commits fully or leaves nothing behind

USAGE:
  p, err := ledger.Open(ctx, store)
  id, err := p.CreateTransaction(ctx, ledger.Command{
      Kind:    ledger.KindDeposit,
      Amount:  ledger.NewAmount(500),
      Account: "Cash",
      Person:  "Friend",
  })

SEE ALSO:
  - transaction.go: Transaction model and labels
  - effect.go: Transaction to balance delta mapping
  - processor.go: Command validation and commit
*/
package ledger

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// AMOUNT - Money in whole currency units
// =============================================================================

type Amount struct {
	Value decimal.Decimal
}

func NewAmount(value int64) Amount {
	return Amount{Value: decimal.NewFromInt(value)}
}

func NewAmountFromDecimal(d decimal.Decimal) Amount {
	return Amount{Value: d}
}

// ParseAmount parses a decimal string such as "1500" or "12.5".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{Value: d}, nil
}

func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Neg() Amount               { return Amount{Value: a.Value.Neg()} }
func (a Amount) Abs() Amount               { return Amount{Value: a.Value.Abs()} }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) IsPositive() bool          { return a.Value.IsPositive() }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) Equal(b Amount) bool       { return a.Value.Equal(b.Value) }
func (a Amount) LessThan(b Amount) bool    { return a.Value.LessThan(b.Value) }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) Cmp(b Amount) int          { return a.Value.Cmp(b.Value) }
func (a Amount) IntPart() int64            { return a.Value.IntPart() }
func (a Amount) String() string            { return a.Value.String() }

// IsWhole reports whether a has no fractional part.
func (a Amount) IsWhole() bool {
	return a.Value.Equal(a.Value.Truncate(0))
}

// =============================================================================
// ENCODING - Amounts are bare numbers on the wire
// =============================================================================

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Value.String()), nil
}

// UnmarshalJSON accepts both 500 and "500".
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		a.Value = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", data, err)
	}
	a.Value = d
	return nil
}

func (a Amount) MarshalYAML() (interface{}, error) {
	tag := "!!int"
	if !a.IsWhole() {
		tag = "!!float"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: a.Value.String()}, nil
}

func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("amount: expected scalar, got kind %d at line %d", node.Kind, node.Line)
	}
	if node.Value == "" || node.Tag == "!!null" {
		a.Value = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(node.Value)
	if err != nil {
		return fmt.Errorf("invalid amount %q at line %d: %w", node.Value, node.Line, err)
	}
	a.Value = d
	return nil
}
