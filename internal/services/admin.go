package services

import (
	"context"

	"group-service/internal/models"
	"group-service/internal/observability"
	"group-service/internal/repositories"
)

// AdminService owns promotion, demotion, removal and deletion. Every
// operation checks the requester's authority itself; handlers only translate
// errors.
type AdminService struct {
	groups repositories.GroupRepository
	posts  repositories.PostRepository
	users  UserDirectory
}

// NewAdminService constructs an AdminService.
func NewAdminService(groups repositories.GroupRepository, posts repositories.PostRepository, users UserDirectory) *AdminService {
	return &AdminService{groups: groups, posts: posts, users: users}
}

// PromoteToAdmin grants admin to an existing member.
func (s *AdminService) PromoteToAdmin(ctx context.Context, groupID int, userID int, requesterID int) error {
	if _, err := s.groups.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, groupID, requesterID); err != nil {
		return err
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return ErrInvalidOperation
	}

	member, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrInvalidOperation
	}

	if _, err := s.groups.AddAdmin(ctx, groupID, userID); err != nil {
		return err
	}
	observability.IncMembershipEvent("promoted")
	return nil
}

// DemoteAdmin revokes admin from anyone but the creator.
func (s *AdminService) DemoteAdmin(ctx context.Context, groupID int, userID int, requesterID int) error {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, groupID, requesterID); err != nil {
		return err
	}
	if userID == group.CreatorID {
		return ErrInvalidOperation
	}

	removed, err := s.groups.RemoveAdmin(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrInvalidOperation
	}
	observability.IncMembershipEvent("demoted")
	return nil
}

// RemoveMember removes a member, revoking admin implicitly. The creator
// cannot be removed.
func (s *AdminService) RemoveMember(ctx context.Context, groupID int, userID int, requesterID int) error {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, groupID, requesterID); err != nil {
		return err
	}
	if userID == group.CreatorID {
		return ErrInvalidOperation
	}

	removed, err := s.groups.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrInvalidOperation
	}
	observability.IncMembershipEvent("removed")
	return nil
}

// UpdateGroup mutates name, description and closedness; admin only.
func (s *AdminService) UpdateGroup(ctx context.Context, groupID int, requesterID int, name, description string, closed bool) (models.Group, error) {
	if _, err := s.groups.GetGroup(ctx, groupID); err != nil {
		return models.Group{}, err
	}
	if err := s.requireAdmin(ctx, groupID, requesterID); err != nil {
		return models.Group{}, err
	}
	return s.groups.UpdateGroup(ctx, groupID, name, description, closed)
}

// DeleteGroup removes the group and all of its posts; admin only.
func (s *AdminService) DeleteGroup(ctx context.Context, groupID int, requesterID int) error {
	if _, err := s.groups.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, groupID, requesterID); err != nil {
		return err
	}
	if err := s.groups.DeleteGroup(ctx, groupID); err != nil {
		return err
	}
	observability.IncMembershipEvent("group_deleted")
	return nil
}

// RemovePost deletes a post that belongs to the group; admin only.
func (s *AdminService) RemovePost(ctx context.Context, groupID int, postID int, requesterID int) error {
	if _, err := s.groups.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, groupID, requesterID); err != nil {
		return err
	}

	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.GroupID != groupID {
		return ErrInvalidOperation
	}
	return s.posts.DeletePost(ctx, postID)
}

func (s *AdminService) requireAdmin(ctx context.Context, groupID int, requesterID int) error {
	admin, err := s.groups.IsAdmin(ctx, groupID, requesterID)
	if err != nil {
		return err
	}
	if !admin {
		return ErrNotAllowed
	}
	return nil
}
