package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"kosht/internal/core"
	"kosht/internal/services"
)

type createBudgetRequest struct {
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	Year          int             `json:"year"`
	Month         int             `json:"month"`
}

type budgetResponse struct {
	ID            int64           `json:"id"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	PeriodStart   string          `json:"period_start"`
	PeriodEnd     string          `json:"period_end"`
	Needs         decimal.Decimal `json:"needs_allocation"`
	Wants         decimal.Decimal `json:"wants_allocation"`
	Savings       decimal.Decimal `json:"savings_allocation"`
}

func toBudgetResponse(b *core.Budget) budgetResponse {
	return budgetResponse{
		ID:            b.ID,
		MonthlyIncome: b.MonthlyIncome,
		PeriodStart:   b.PeriodStart.Format("2006-01-02"),
		PeriodEnd:     b.PeriodEnd.Format("2006-01-02"),
		Needs:         b.Needs,
		Wants:         b.Wants,
		Savings:       b.Savings,
	}
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Month < 1 || req.Month > 12 {
		writeError(w, http.StatusBadRequest, "month must be 1..12")
		return
	}
	if req.Year < 2000 || req.Year > 2200 {
		writeError(w, http.StatusBadRequest, "year out of range")
		return
	}

	userID := userIDFrom(r)
	budget, err := s.budgets.CreatePlan(r.Context(), userID, req.MonthlyIncome, req.Year, time.Month(req.Month))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateOverview(userID)
	writeJSON(w, http.StatusCreated, toBudgetResponse(budget))
}

type bucketReportResponse struct {
	Bucket      string          `json:"bucket"`
	Allocated   decimal.Decimal `json:"allocated"`
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	Overspent   bool            `json:"overspent"`
	Progress    decimal.Decimal `json:"progress_percentage"`
	SafeToSpend decimal.Decimal `json:"safe_to_spend_daily"`
}

type overviewResponse struct {
	Budget   budgetResponse         `json:"budget"`
	Date     string                 `json:"date"`
	DaysLeft int                    `json:"days_left"`
	Buckets  []bucketReportResponse `json:"buckets"`
}

// handleBudgetOverview reports the budget state at a date. The date query
// parameter defaults to today.
func (s *Server) handleBudgetOverview(w http.ResponseWriter, r *http.Request) {
	ref := time.Now().UTC()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		ref = parsed
	}

	userID := userIDFrom(r)
	day := ref.Format("2006-01-02")
	if cached, ok := s.overviewCache.Get(overviewCacheKey(userID)); ok && cached.date == day {
		writeJSON(w, http.StatusOK, cached.resp)
		return
	}

	overview, err := s.budgets.Overview(r.Context(), userID, ref)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := overviewResponse{
		Budget:   toBudgetResponse(overview.Budget),
		Date:     day,
		DaysLeft: overview.DaysLeft,
	}
	for _, b := range overview.Buckets {
		resp.Buckets = append(resp.Buckets, toBucketReportResponse(b))
	}

	s.overviewCache.Set(overviewCacheKey(userID), cachedOverview{date: day, resp: resp})
	writeJSON(w, http.StatusOK, resp)
}

func overviewCacheKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (s *Server) invalidateOverview(userID int64) {
	s.overviewCache.Delete(overviewCacheKey(userID))
}

func toBucketReportResponse(b services.BucketReport) bucketReportResponse {
	return bucketReportResponse{
		Bucket:      string(b.Bucket),
		Allocated:   b.Allocated,
		Spent:       b.Spent,
		Remaining:   b.Remaining,
		Overspent:   b.Overspent,
		Progress:    b.Progress,
		SafeToSpend: b.SafeToSpend,
	}
}
