/*
Package assistant answers questions about the ledger with a language model.

PURPOSE:
  The coach sends the user's question together with a plain-text snapshot
  of their finances to a Model. The model may append a proposed change;
  proposals are parked in a ProposalBook and only reach the ledger when
  the user confirms them.

SEE ALSO:
  - query/context.go: The snapshot text given to the model
  - ledger/processor.go: Where confirmed proposals are executed
*/
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/moneyflow/ledger-engine/ledger"
	"github.com/moneyflow/ledger-engine/logging"
	"github.com/moneyflow/ledger-engine/query"
)

// Command names a model may propose.
const (
	CommandAddTransaction  = "add_transaction"
	CommandEditTransaction = "edit_transaction"
	CommandSettleLoan      = "settle_loan"
)

const settleComment = "Settled via AI Coach"

// Answer is the coach's reply to one question.
type Answer struct {
	Text     string    `json:"text"`
	Proposal *Proposal `json:"proposal,omitempty"`
}

// Result describes what a confirmed proposal did.
type Result struct {
	Command       string `json:"command"`
	TransactionID int    `json:"transactionId"`
}

type Coach struct {
	model     Model
	processor *ledger.Processor
	book      *ProposalBook
	money     query.Money
	log       logging.Logger
	language  string
	timeout   time.Duration
}

type Option func(*Coach)

func WithLogger(log logging.Logger) Option { return func(c *Coach) { c.log = log } }

func WithMoney(m query.Money) Option { return func(c *Coach) { c.money = m } }

// WithLanguage sets the answer language used when Ask gets none.
func WithLanguage(lang string) Option { return func(c *Coach) { c.language = lang } }

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Option { return func(c *Coach) { c.timeout = d } }

func WithProposalBook(b *ProposalBook) Option { return func(c *Coach) { c.book = b } }

func NewCoach(model Model, processor *ledger.Processor, opts ...Option) *Coach {
	c := &Coach{
		model:     model,
		processor: processor,
		money:     query.NewMoney(""),
		log:       logging.NewDiscard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.book == nil {
		c.book = NewProposalBook(DefaultProposalTTL, processor.Now)
	}
	return c
}

// Context returns the text the model sees for the current ledger.
func (c *Coach) Context() string {
	return query.AssistantContext(c.processor.Snapshot(), c.money)
}

// Ask sends question to the model. The ledger lock is not held during the
// call; any proposed action is stored, never applied.
func (c *Coach) Ask(ctx context.Context, question, language string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, &ledger.ValidationError{Field: "question", Reason: "required"}
	}
	if language == "" {
		language = c.language
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	raw, err := c.model.Generate(ctx, buildSystemPrompt(language), buildUserMessage(c.Context(), question))
	if err != nil {
		c.log.WithError(err).Warn("assistant call failed")
		return Answer{}, fmt.Errorf("ask assistant: %w", err)
	}

	text, action, malformed := parseReply(raw)
	if malformed {
		c.log.Warn("assistant returned an unreadable action")
	}
	ans := Answer{Text: text}
	if action != nil {
		p := c.book.Add(*action)
		ans.Proposal = &p
		c.log.Info("assistant proposed an action",
			logging.F(logging.FieldProposalID, p.ID),
			logging.F(logging.FieldOperation, action.Command))
	}
	return ans, nil
}

// Discard drops a pending proposal.
func (c *Coach) Discard(id string) error {
	if !c.book.Drop(id) {
		return &ledger.NotFoundError{What: "proposal", Key: id}
	}
	return nil
}

// Confirm executes proposal id through the processor. The proposal is
// consumed even when the command is rejected.
func (c *Coach) Confirm(ctx context.Context, id string) (Result, error) {
	p, err := c.book.Take(id)
	if err != nil {
		return Result{}, err
	}
	res := Result{Command: p.Action.Command}
	switch p.Action.Command {
	case CommandAddTransaction:
		var params transactionParams
		if err := decodeParams(p.Action.Params, &params); err != nil {
			return res, err
		}
		res.TransactionID, err = c.processor.CreateTransaction(ctx, params.command())
	case CommandEditTransaction:
		res.TransactionID, err = c.edit(ctx, p.Action.Params)
	case CommandSettleLoan:
		var params settleParams
		if err := decodeParams(p.Action.Params, &params); err != nil {
			return res, err
		}
		res.TransactionID, err = c.processor.Settle(ctx, ledger.SettleCommand{
			Kind:    params.Type,
			Person:  params.Person,
			Account: params.Account,
			Amount:  params.Amount,
			Comment: settleComment,
		})
	default:
		err = &ledger.ValidationError{Field: "command", Reason: fmt.Sprintf("unknown command %q", p.Action.Command)}
	}
	if err != nil {
		return res, err
	}
	c.log.Info("assistant proposal confirmed",
		logging.F(logging.FieldProposalID, id),
		logging.F(logging.FieldTransactionID, res.TransactionID))
	return res, nil
}

// edit overlays the proposed fields on the stored record.
func (c *Coach) edit(ctx context.Context, raw json.RawMessage) (int, error) {
	var params transactionParams
	if err := decodeParams(raw, &params); err != nil {
		return 0, err
	}
	if params.ID == 0 {
		return 0, &ledger.ValidationError{Field: "id", Reason: "required"}
	}
	tx, ok := c.processor.Snapshot().Transaction(params.ID)
	if !ok {
		return 0, &ledger.NotFoundError{What: "transaction", Key: fmt.Sprint(params.ID)}
	}
	cmd := params.overlay(ledger.CommandOf(tx))
	return params.ID, c.processor.EditTransaction(ctx, params.ID, cmd)
}

// =============================================================================
// PARAMETERS
// =============================================================================

type transactionParams struct {
	ID          int            `json:"id"`
	Type        ledger.Kind    `json:"type"`
	Amount      *ledger.Amount `json:"amount"`
	Account     string         `json:"account"`
	FromAccount string         `json:"fromAccount"`
	ToAccount   string         `json:"toAccount"`
	Fee         *ledger.Amount `json:"fee"`
	Person      string         `json:"person"`
	Category    string         `json:"category"`
	Comment     string         `json:"comment"`
	Date        string         `json:"date"`
}

func (p transactionParams) command() ledger.Command {
	return p.overlay(ledger.Command{})
}

func (p transactionParams) overlay(cmd ledger.Command) ledger.Command {
	if p.Type != "" {
		cmd.Kind = p.Type
	}
	if p.Amount != nil {
		cmd.Amount = *p.Amount
	}
	if p.Fee != nil {
		cmd.Fee = *p.Fee
	}
	for dst, src := range map[*string]string{
		&cmd.Account:     p.Account,
		&cmd.FromAccount: p.FromAccount,
		&cmd.ToAccount:   p.ToAccount,
		&cmd.Person:      p.Person,
		&cmd.Category:    p.Category,
		&cmd.Comment:     p.Comment,
		&cmd.Date:        p.Date,
	} {
		if src != "" {
			*dst = src
		}
	}
	return cmd
}

type settleParams struct {
	Person  string          `json:"person"`
	Type    ledger.LoanKind `json:"type"`
	Amount  ledger.Amount   `json:"amount"`
	Account string          `json:"account"`
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return &ledger.ValidationError{Field: "params", Reason: "missing"}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &ledger.ValidationError{Field: "params", Reason: err.Error()}
	}
	return nil
}
