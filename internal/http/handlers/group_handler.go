// README: Group handlers for list/create/join.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campusride/internal/modules/group"
	"campusride/internal/modules/records"
	"campusride/internal/types"
)

// GroupService is the subset of *group.Service the handlers use.
type GroupService interface {
	List(ctx context.Context) ([]records.Group, error)
	Create(ctx context.Context, cmd group.CreateCommand) (types.ID, error)
	Join(ctx context.Context, cmd group.JoinCommand) (group.JoinResult, error)
}

type GroupHandler struct {
	groups GroupService
}

func NewGroupHandler(svc GroupService) *GroupHandler {
	RegisterValidators()
	return &GroupHandler{groups: svc}
}

type createGroupReq struct {
	CreatorUID    string     `json:"creator_uid"`
	Start         string     `json:"start" binding:"required"`
	Dest          string     `json:"dest" binding:"required"`
	Stops         stopsField `json:"stops"`
	Capacity      flexInt    `json:"capacity"`
	Preference    string     `json:"preference" binding:"omitempty,preference"`
	DepartureDate string     `json:"departure_date"`
	Fare          flexInt    `json:"fare"`
}

type createGroupResp struct {
	Message string   `json:"message"`
	GroupID types.ID `json:"gid"`
}

type joinGroupReq struct {
	UID string `json:"uid"`
	GID string `json:"gid"`
}

func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		writeGroupError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, groups)
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req createGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	id, err := h.groups.Create(c.Request.Context(), group.CreateCommand{
		CreatorID:  types.ParseID(req.CreatorUID),
		Start:      strings.TrimSpace(req.Start),
		Dest:       strings.TrimSpace(req.Dest),
		Stops:      []string(req.Stops),
		Capacity:   req.Capacity.Ptr(),
		Preference: types.ParsePreference(req.Preference),
		Departure:  records.ParseTimePtr(req.DepartureDate),
		Fare:       int64(req.Fare.Value),
	})
	if err != nil {
		writeGroupError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, createGroupResp{Message: "Group created", GroupID: id})
}

func (h *GroupHandler) Join(c *gin.Context) {
	var req joinGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	uid, gid := types.ParseID(req.UID), types.ParseID(req.GID)
	if uid.Empty() || gid.Empty() {
		writeError(c, http.StatusBadRequest, "Missing uid or gid")
		return
	}
	res, err := h.groups.Join(c.Request.Context(), group.JoinCommand{GroupID: gid, UserID: uid})
	if err != nil {
		writeGroupError(c, err)
		return
	}
	if !res.Joined {
		writeJSON(c, http.StatusOK, messageResponse{Message: fmt.Sprintf("User %s already in %s", uid, gid)})
		return
	}
	writeJSON(c, http.StatusOK, messageResponse{Message: fmt.Sprintf("User %s successfully joined %s", uid, gid)})
}
