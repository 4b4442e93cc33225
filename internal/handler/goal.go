package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennypet/server/internal/ctxkeys"
	"github.com/pennypet/server/internal/model"
	"github.com/pennypet/server/internal/schedule"
	"github.com/pennypet/server/internal/service"
)

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

type goalRequest struct {
	Name            string          `json:"name"`
	TargetAmount    decimal.Decimal `json:"target_amount"`
	Interval        string          `json:"interval"`
	Duration        int             `json:"duration"`
	MaxContribution decimal.Decimal `json:"max_contribution"`
	Category        string          `json:"category"`
}

type goalUpdateRequest struct {
	Name         *string          `json:"name"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	Category     *string          `json:"category"`
	Paused       *bool            `json:"paused"`
}

// amountRequest keeps the raw amount so that values decimal cannot represent,
// like "NaN", are reported as invalid amounts instead of malformed bodies.
type amountRequest struct {
	Amount json.RawMessage `json:"amount"`
}

func (req amountRequest) amount() (decimal.Decimal, error) {
	raw := strings.Trim(strings.TrimSpace(string(req.Amount)), `"`)

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a number", service.ErrInvalidAmount, raw)
	}
	return amount, nil
}

type windowResponse struct {
	CanContribute    bool      `json:"can_contribute"`
	NextEligibleAt   time.Time `json:"next_eligible_at"`
	SecondsUntilNext int64     `json:"seconds_until_next"`
}

type scheduleResponse struct {
	CurrentIndex       int `json:"current_index"`
	TotalIntervals     int `json:"total_intervals"`
	IntervalsRemaining int `json:"intervals_remaining"`
	DaysLeft           int `json:"days_left"`
}

type goalDetailResponse struct {
	Goal           *model.Goal       `json:"goal"`
	Window         windowResponse    `json:"window"`
	Schedule       *scheduleResponse `json:"schedule"`
	IntervalStatus string            `json:"interval_status"`
	Completed      bool              `json:"completed"`
	Remaining      decimal.Decimal   `json:"remaining"`
}

type shortfallResponse struct {
	MissedIntervals   int             `json:"missed_intervals"`
	UnderContribution decimal.Decimal `json:"under_contribution"`
	Delta             decimal.Decimal `json:"delta"`
}

type contributionResponse struct {
	Contribution *model.Contribution `json:"contribution"`
	Goal         *model.Goal         `json:"goal"`
	Shortfall    shortfallResponse   `json:"shortfall"`
	CoinsAwarded int64               `json:"coins_awarded"`
	RewardError  string              `json:"reward_error,omitempty"`
}

func newGoalDetailResponse(d *service.GoalDetail) goalDetailResponse {
	resp := goalDetailResponse{
		Goal:           d.Goal,
		Window:         newWindowResponse(d.Window),
		IntervalStatus: d.IntervalStatus,
		Completed:      d.Completed,
		Remaining:      d.Goal.Remaining(),
	}
	if d.Schedule != nil {
		resp.Schedule = &scheduleResponse{
			CurrentIndex:       d.Schedule.CurrentIndex,
			TotalIntervals:     d.Schedule.TotalIntervals,
			IntervalsRemaining: d.Schedule.IntervalsRemaining,
			DaysLeft:           d.Schedule.DaysLeft,
		}
	}
	return resp
}

func newWindowResponse(w schedule.Window) windowResponse {
	until := int64(w.UntilNext / time.Second)
	if until < 0 {
		until = 0
	}
	return windowResponse{
		CanContribute:    w.CanContribute,
		NextEligibleAt:   w.NextEligibleAt.UTC(),
		SecondsUntilNext: until,
	}
}

func sortParam(r *http.Request) string {
	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = "recent"
	}
	return sortBy
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	goals, err := h.goalService.Goals(r.Context(), userID, sortParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	goal, err := h.goalService.Create(r.Context(), userID, service.GoalInput{
		Name:            req.Name,
		TargetAmount:    req.TargetAmount,
		Interval:        req.Interval,
		Duration:        req.Duration,
		MaxContribution: req.MaxContribution,
		Category:        req.Category,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	detail, err := h.goalService.Detail(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newGoalDetailResponse(detail))
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var req goalUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	goal, err := h.goalService.Update(r.Context(), userID, r.PathValue("id"), service.GoalUpdate{
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		Category:     req.Category,
		Paused:       req.Paused,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	err := h.goalService.Delete(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, model.ContributionTypeContribution)
}

func (h *GoalHandler) Amend(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, model.ContributionTypeAmendment)
}

func (h *GoalHandler) record(w http.ResponseWriter, r *http.Request, kind model.ContributionType) {
	userID := ctxkeys.UserID(r.Context())

	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	amount, err := req.amount()
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.goalService.RecordContribution(r.Context(), userID, r.PathValue("id"), amount, kind)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := contributionResponse{
		Contribution: result.Contribution,
		Goal:         result.Goal,
		Shortfall: shortfallResponse{
			MissedIntervals:   result.Shortfall.MissedIntervals,
			UnderContribution: result.Shortfall.UnderContribution,
			Delta:             result.Shortfall.Delta,
		},
		CoinsAwarded: result.CoinsAwarded,
	}
	if result.RewardErr != nil {
		resp.RewardError = "coins could not be awarded"
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *GoalHandler) Contributions(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	contributions, err := h.goalService.Contributions(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contributions)
}

func (h *GoalHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	goals, err := h.goalService.Goals(r.Context(), userID, "")
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=goals-export.json")

	err = json.NewEncoder(w).Encode(goals)
	if err != nil {
		slog.Error("failed to encode goals", "error", err, "user_id", userID)
	}
}

func (h *GoalHandler) StreamGoals(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	updates, err := h.goalService.WatchGoals(r.Context(), userID, sortParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	streamSSE(w, r, "goals", updates, func(goals []*model.Goal) any { return goals })
}

func (h *GoalHandler) StreamGoal(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	updates, err := h.goalService.WatchGoal(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	streamSSE(w, r, "goal", updates, func(d *service.GoalDetail) any { return newGoalDetailResponse(d) })
}

func (h *GoalHandler) StreamContributions(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	updates, err := h.goalService.WatchContributions(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	streamSSE(w, r, "contributions", updates, func(c []*model.Contribution) any { return c })
}
