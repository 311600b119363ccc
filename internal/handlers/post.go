package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"group-service/internal/models"
	"group-service/internal/repositories"
	"group-service/internal/services"
	"group-service/internal/telemetry"
)

// PostHandler manages group-scoped post endpoints. Posting and reading are
// member-gated; removal lives on GroupHandler because it is an admin action.
type PostHandler struct {
	membership *services.MembershipService
	postRepo   repositories.PostRepository
	userClient services.UserDirectory
	audit      *telemetry.AuditEmitter
}

// NewPostHandler constructs a PostHandler.
func NewPostHandler(membership *services.MembershipService, postRepo repositories.PostRepository, userClient services.UserDirectory, audit *telemetry.AuditEmitter) *PostHandler {
	return &PostHandler{
		membership: membership,
		postRepo:   postRepo,
		userClient: userClient,
		audit:      audit,
	}
}

// CreatePost handles POST /groups/:group_id/posts.
func (h *PostHandler) CreatePost(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	if !h.requireMember(c, groupID, userID) {
		return
	}

	var req struct {
		Content  string `json:"content" binding:"required"`
		Link     string `json:"link"`
		ImageURL string `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.postRepo.CreatePost(c.Request.Context(), groupID, userID, req.Content, req.Link, req.ImageURL)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store post"})
		return
	}

	h.emitAudit(c, "INFO", "Group post created")
	c.JSON(http.StatusCreated, post)
}

// ListPosts handles GET /groups/:group_id/posts, with author usernames
// resolved through the user-service.
func (h *PostHandler) ListPosts(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	if !h.requireMember(c, groupID, userID) {
		return
	}

	posts, err := h.postRepo.ListGroupPosts(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load posts"})
		return
	}

	authorIDs := make([]int, 0, len(posts))
	seen := map[int]struct{}{}
	for _, p := range posts {
		if _, ok := seen[p.AuthorID]; !ok {
			seen[p.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}

	usernameByID := map[int]string{}
	if len(authorIDs) > 0 {
		users, err := h.userClient.BulkUsers(c.Request.Context(), authorIDs)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load authors"})
			return
		}
		for _, u := range users {
			usernameByID[int(u.Id)] = u.Username
		}
	}

	type postResponse struct {
		models.Post
		AuthorUsername string `json:"author_username,omitempty"`
	}

	resp := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, postResponse{Post: p, AuthorUsername: usernameByID[p.AuthorID]})
	}

	c.JSON(http.StatusOK, gin.H{"posts": resp})
}

func (h *PostHandler) requireMember(c *gin.Context, groupID, userID int) bool {
	member, err := h.membership.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return false
	}
	if !member {
		h.emitAudit(c, "ERROR", "not allowed")
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return false
	}
	return true
}

func (h *PostHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
