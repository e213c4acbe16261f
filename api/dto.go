/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Ledger commands
  (ledger.Command, ledger.SettleCommand, ledger.GoalPatch) and query views
  already carry JSON tags and are used as-is; the types here cover what
  the API adds on top.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done by the ledger, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/command.go: Command payloads
*/
package api

import (
	"time"

	"github.com/moneyflow/ledger-engine/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// TransactionDTO represents a recorded transaction in API responses.
type TransactionDTO struct {
	ID        int            `json:"id"`
	Date      string         `json:"date"`
	Type      ledger.Kind    `json:"type"`
	SubKind   ledger.SubKind `json:"subKind"`
	Title     string         `json:"title"`
	Amount    ledger.Amount  `json:"amount"`
	NetAmount *ledger.Amount `json:"netAmount,omitempty"`
	Fee       *ledger.Amount `json:"fee,omitempty"`
	Account   string         `json:"account"`
	ToAccount string         `json:"toAccount,omitempty"`
	Person    string         `json:"person,omitempty"`
	Category  string         `json:"category,omitempty"`
	Comment   string         `json:"comment"`
}

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:        tx.ID,
		Date:      tx.Timestamp.Format(time.RFC3339),
		Type:      tx.Kind,
		SubKind:   tx.SubKind,
		Title:     tx.Label(),
		Amount:    tx.Amount,
		NetAmount: tx.NetAmount,
		Account:   tx.Account,
		ToAccount: tx.ToAccount,
		Person:    tx.Counterparty,
		Category:  tx.Category,
		Comment:   tx.Comment,
	}
	if fee := tx.Fee(); fee.IsPositive() {
		dto.Fee = &fee
	}
	return dto
}

func toTransactionDTOs(txs []ledger.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

// NameRequest adds an account, person or category.
type NameRequest struct {
	Name string `json:"name"`
}

// AskRequest is a question for the assistant.
type AskRequest struct {
	Question string `json:"question"`
	Language string `json:"language,omitempty"`
}

// ContextDTO is the text the assistant sees.
type ContextDTO struct {
	Context string `json:"context"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
}
