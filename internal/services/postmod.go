package services

import "context"

// PostModerationService names post removal as its own capability, separate
// from generic group administration. Authority and deletion semantics are
// AdminService's.
type PostModerationService struct {
	admin *AdminService
}

// NewPostModerationService constructs a PostModerationService.
func NewPostModerationService(admin *AdminService) *PostModerationService {
	return &PostModerationService{admin: admin}
}

// RemovePost deletes a post belonging to the group on behalf of an admin.
func (s *PostModerationService) RemovePost(ctx context.Context, groupID int, postID int, requesterID int) error {
	return s.admin.RemovePost(ctx, groupID, postID, requesterID)
}
