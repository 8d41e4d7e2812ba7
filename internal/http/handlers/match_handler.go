// README: Match handler for ranked group recommendations.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"campusride/internal/modules/matching"
	"campusride/internal/modules/records"
	"campusride/internal/types"
)

type Matcher interface {
	Find(ctx context.Context, req matching.Request) ([]matching.Result, error)
}

type MatchHandler struct {
	matcher Matcher
}

func NewMatchHandler(m Matcher) *MatchHandler {
	RegisterValidators()
	return &MatchHandler{matcher: m}
}

type findGroupsReq struct {
	UID               *string `json:"uid"`
	Start             string  `json:"start"`
	Dest              string  `json:"dest"`
	DepartureDate     string  `json:"departure_date"`
	TimeWindowMinutes flexInt `json:"time_window_minutes"`
	MaxGroupSize      flexInt `json:"max_group_size"`
	PrefInput         string  `json:"pref_input" binding:"omitempty,preference"`
	Mode              string  `json:"mode"`
	TopK              flexInt `json:"top_k"`
}

type findGroupsResp struct {
	UID             *string           `json:"uid"`
	Recommendations []matching.Result `json:"recommendations"`
}

func (h *MatchHandler) Find(c *gin.Context) {
	var req findGroupsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	mode, ok := matching.ParseMode(req.Mode)
	if !ok {
		writeError(c, http.StatusBadRequest, "mode must be discovery or strict")
		return
	}

	mreq := matching.Request{
		Origin:      req.Start,
		Destination: req.Dest,
		Departure:   records.ParseTimePtr(req.DepartureDate),
		Preference:  types.ParsePreference(req.PrefInput),
		Mode:        mode,
	}
	if req.UID != nil {
		mreq.RequesterID = types.ParseID(*req.UID)
	}
	if req.TimeWindowMinutes.Set && req.TimeWindowMinutes.Value >= 0 {
		mreq.WindowMinutes = req.TimeWindowMinutes.Ptr()
	}
	if req.MaxGroupSize.Set && req.MaxGroupSize.Value > 0 {
		mreq.MaxGroupSize = req.MaxGroupSize.Ptr()
	}
	if req.TopK.Set {
		mreq.TopK = req.TopK.Value
	}

	results, err := h.matcher.Find(c.Request.Context(), mreq)
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, findGroupsResp{UID: req.UID, Recommendations: results})
}
