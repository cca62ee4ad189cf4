package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"

	FieldUserID      = "user_id"
	FieldBudgetID    = "budget_id"
	FieldTxnID       = "transaction_id"
	FieldExternalID  = "external_id"
	FieldAmount      = "amount"
	FieldCurrency    = "currency"
	FieldCategory    = "category"
	FieldPeriodStart = "period_start"
	FieldPeriodEnd   = "period_end"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentBudget  = "budget"
	ComponentTxn     = "transaction"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentAI      = "ai"
	ComponentAuth    = "auth"
)
