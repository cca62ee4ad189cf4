package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"kosht/internal/core"
)

type createTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
}

type transactionResponse struct {
	ID              int64           `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Bucket          string          `json:"bucket,omitempty"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	IsAICategorized bool            `json:"is_ai_categorized"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toTransactionResponse(t *core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:              t.ID,
		Amount:          t.Amount,
		Currency:        t.Currency,
		Description:     t.Description,
		Category:        string(t.Category),
		Type:            string(t.Type),
		Source:          string(t.Source),
		IsAICategorized: t.IsAICategorized,
		CreatedAt:       t.CreatedAt,
	}
	if bucket, ok := t.Category.Bucket(); ok {
		resp.Bucket = string(bucket)
	}
	return resp
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := userIDFrom(r)
	txn, err := s.transactions.Create(r.Context(), userID,
		req.Amount, req.Currency, req.Description,
		core.Category(req.Category), core.TransactionType(req.Type))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateOverview(userID)
	writeJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

// handleListTransactions returns the user's non-deleted transactions in
// [from, to]. Both bounds default to the current month.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	from, to := core.CurrentMonthPeriod()
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		to = parsed
	}

	txns, err := s.transactions.List(r.Context(), userIDFrom(r), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		resp = append(resp, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	userID := userIDFrom(r)
	if err := s.transactions.SoftDelete(r.Context(), userID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateOverview(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestoreTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	userID := userIDFrom(r)
	if err := s.transactions.Restore(r.Context(), userID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateOverview(userID)
	w.WriteHeader(http.StatusNoContent)
}

type recategorizeRequest struct {
	Category string `json:"category"`
}

func (s *Server) handleRecategorizeTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req recategorizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := userIDFrom(r)
	txn, err := s.transactions.Recategorize(r.Context(), userID, id, core.Category(req.Category))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateOverview(userID)
	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}
