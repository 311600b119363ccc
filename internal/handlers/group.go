package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"group-service/internal/models"
	"group-service/internal/services"
	"group-service/internal/telemetry"
	"group-service/internal/ws"
)

// GroupHandler manages group and membership endpoints.
type GroupHandler struct {
	membership *services.MembershipService
	admin      *services.AdminService
	postMod    *services.PostModerationService
	userClient services.UserDirectory
	hub        *ws.Hub
	audit      *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(membership *services.MembershipService, admin *services.AdminService, postMod *services.PostModerationService, userClient services.UserDirectory, hub *ws.Hub, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{
		membership: membership,
		admin:      admin,
		postMod:    postMod,
		userClient: userClient,
		hub:        hub,
		audit:      audit,
	}
}

// CreateGroup handles POST /groups.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Closed      bool   `json:"closed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.membership.CreateGroup(c.Request.Context(), req.Name, req.Description, req.Closed, userID)
	if err != nil {
		h.emitAudit(c, "ERROR", "could not create group")
		abortWithError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Group created")
	c.JSON(http.StatusCreated, group)
}

// ListGroups returns all groups with members preloaded.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.membership.ListGroups(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load groups"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// GetGroup returns a single group with its id sets.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	group, err := h.membership.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// JoinGroup handles POST /groups/:group_id/join. Open groups admit the
// caller immediately; closed groups queue a request.
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	status, err := h.membership.RequestJoin(c.Request.Context(), groupID, userID)
	if err != nil {
		h.emitAudit(c, "ERROR", "join failed")
		abortWithError(c, err)
		return
	}

	if status == models.JoinStatusJoined {
		h.broadcast(groupID, models.GroupEvent{Type: "member_joined", UserID: userID})
	}
	h.emitAudit(c, "INFO", "Join requested")
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// ApproveMember handles POST /groups/:group_id/approve (admin only).
func (h *GroupHandler) ApproveMember(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	var req struct {
		UserID  int  `json:"user_id" binding:"required"`
		Approve bool `json:"approve"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requesterID := c.GetInt("userID")
	if err := h.membership.ApproveMembership(c.Request.Context(), groupID, req.UserID, requesterID, req.Approve); err != nil {
		h.emitAudit(c, "ERROR", "membership approval failed")
		abortWithError(c, err)
		return
	}

	if req.Approve {
		h.broadcast(groupID, models.GroupEvent{Type: "member_joined", UserID: req.UserID})
	}
	h.emitAudit(c, "INFO", "Membership request handled")
	c.Status(http.StatusOK)
}

// LeaveGroup handles POST /groups/:group_id/leave.
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	if err := h.membership.LeaveGroup(c.Request.Context(), groupID, userID); err != nil {
		abortWithError(c, err)
		return
	}

	h.broadcast(groupID, models.GroupEvent{Type: "member_left", UserID: userID})
	h.emitAudit(c, "INFO", "Group left")
	c.Status(http.StatusOK)
}

// GetMembers returns the group's members with usernames resolved through the
// user-service.
func (h *GroupHandler) GetMembers(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	memberIDs, err := h.membership.GetMemberIDs(c.Request.Context(), groupID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	usernameByID := map[int]string{}
	if len(memberIDs) > 0 {
		users, err := h.userClient.BulkUsers(c.Request.Context(), memberIDs)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load members"})
			return
		}
		for _, u := range users {
			usernameByID[int(u.Id)] = u.Username
		}
	}

	type memberResponse struct {
		ID       int    `json:"id"`
		Username string `json:"username,omitempty"`
	}

	resp := make([]memberResponse, 0, len(memberIDs))
	for _, id := range memberIDs {
		resp = append(resp, memberResponse{ID: id, Username: usernameByID[id]})
	}

	c.JSON(http.StatusOK, gin.H{"members": resp})
}

// ListJoinRequests returns pending join-request user ids (admin only).
func (h *GroupHandler) ListJoinRequests(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	requesterID := c.GetInt("userID")
	ids, err := h.membership.ListJoinRequestIDs(c.Request.Context(), groupID, requesterID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"join_requests": ids})
}

// ListAdmins returns admin user ids (members only).
func (h *GroupHandler) ListAdmins(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	requesterID := c.GetInt("userID")
	ids, err := h.membership.ListAdminIDs(c.Request.Context(), groupID, requesterID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admins": ids})
}

// PromoteAdmin handles POST /groups/:group_id/admins.
func (h *GroupHandler) PromoteAdmin(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	var req struct {
		UserID int `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requesterID := c.GetInt("userID")
	if err := h.admin.PromoteToAdmin(c.Request.Context(), groupID, req.UserID, requesterID); err != nil {
		h.emitAudit(c, "ERROR", "promotion failed")
		abortWithError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Member promoted to admin")
	c.Status(http.StatusOK)
}

// DemoteAdmin handles DELETE /groups/:group_id/admins/:user_id.
func (h *GroupHandler) DemoteAdmin(c *gin.Context) {
	groupID, userID, ok := parseGroupAndUserIDs(c)
	if !ok {
		return
	}

	requesterID := c.GetInt("userID")
	if err := h.admin.DemoteAdmin(c.Request.Context(), groupID, userID, requesterID); err != nil {
		h.emitAudit(c, "ERROR", "demotion failed")
		abortWithError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Admin demoted")
	c.Status(http.StatusNoContent)
}

// RemoveMember handles DELETE /groups/:group_id/members/:user_id.
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	groupID, userID, ok := parseGroupAndUserIDs(c)
	if !ok {
		return
	}

	requesterID := c.GetInt("userID")
	if err := h.admin.RemoveMember(c.Request.Context(), groupID, userID, requesterID); err != nil {
		h.emitAudit(c, "ERROR", "member removal failed")
		abortWithError(c, err)
		return
	}

	h.broadcast(groupID, models.GroupEvent{Type: "member_left", UserID: userID})
	h.emitAudit(c, "INFO", "Member removed")
	c.Status(http.StatusNoContent)
}

// UpdateGroup handles PUT /groups/:group_id (admin only).
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Closed      bool   `json:"closed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requesterID := c.GetInt("userID")
	group, err := h.admin.UpdateGroup(c.Request.Context(), groupID, requesterID, req.Name, req.Description, req.Closed)
	if err != nil {
		h.emitAudit(c, "ERROR", "group update failed")
		abortWithError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Group updated")
	c.JSON(http.StatusOK, group)
}

// DeleteGroup handles DELETE /groups/:group_id (admin only). Posts go with
// the group.
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	requesterID := c.GetInt("userID")
	if err := h.admin.DeleteGroup(c.Request.Context(), groupID, requesterID); err != nil {
		h.emitAudit(c, "ERROR", "group deletion failed")
		abortWithError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Group deleted")
	c.Status(http.StatusNoContent)
}

// RemovePost handles DELETE /groups/:group_id/posts/:post_id (admin only).
func (h *GroupHandler) RemovePost(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	postID, err := strconv.Atoi(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	requesterID := c.GetInt("userID")
	if err := h.postMod.RemovePost(c.Request.Context(), groupID, postID, requesterID); err != nil {
		h.emitAudit(c, "ERROR", "post removal failed")
		abortWithError(c, err)
		return
	}

	h.broadcast(groupID, models.GroupEvent{Type: "post_removed", PostID: postID})
	h.emitAudit(c, "INFO", "Post removed")
	c.Status(http.StatusOK)
}

func (h *GroupHandler) broadcast(groupID int, event models.GroupEvent) {
	if h.hub == nil {
		return
	}
	h.hub.BroadcastGroupEvent(groupID, event)
}

func (h *GroupHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

func parseGroupID(c *gin.Context) (int, bool) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return 0, false
	}
	return groupID, true
}

func parseGroupAndUserIDs(c *gin.Context) (int, int, bool) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return 0, 0, false
	}
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, 0, false
	}
	return groupID, userID, true
}
