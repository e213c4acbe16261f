package logging

// Standardized field names for structured logging.
const (
	FieldOperation     = "operation"
	FieldTransactionID = "transaction_id"
	FieldKind          = "kind"
	FieldAccount       = "account"
	FieldPerson        = "person"
	FieldAmount        = "amount"
	FieldReason        = "reason"
	FieldStatus        = "status"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldRequestID     = "request_id"
	FieldDuration      = "duration_ms"
	FieldCount         = "count"
	FieldStore         = "store"
	FieldModel         = "model"
	FieldProposalID    = "proposal_id"
)
