package services

import (
	"context"
	"fmt"

	"group-service/internal/models"
	"group-service/internal/notifications"
	"group-service/internal/observability"
	"group-service/internal/repositories"
)

// MembershipService owns the join/approve/leave state machine. Per (group,
// user) pair a user is a non-member, pending, or a member; admin is an
// attribute layered on membership, handled by AdminService.
type MembershipService struct {
	groups   repositories.GroupRepository
	users    UserDirectory
	notifier Notifier
}

// NewMembershipService constructs a MembershipService.
func NewMembershipService(groups repositories.GroupRepository, users UserDirectory, notifier Notifier) *MembershipService {
	return &MembershipService{groups: groups, users: users, notifier: notifier}
}

// CreateGroup creates a group with the creator as sole member and admin.
// repositories.ErrNameTaken on a duplicate name.
func (s *MembershipService) CreateGroup(ctx context.Context, name, description string, closed bool, creatorID int) (models.GroupDetails, error) {
	group, err := s.groups.CreateGroup(ctx, name, description, closed, creatorID)
	if err != nil {
		return models.GroupDetails{}, err
	}
	observability.IncMembershipEvent("group_created")
	return models.GroupDetails{
		Group:     group,
		MemberIDs: []int{creatorID},
		AdminIDs:  []int{creatorID},
	}, nil
}

// RequestJoin joins an open group immediately and queues a request on a
// closed one. Calling it again for the same user reports the existing state
// without side effects.
func (s *MembershipService) RequestJoin(ctx context.Context, groupID int, userID int) (models.JoinStatus, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return "", err
	}

	if !group.Closed {
		added, err := s.groups.AddMember(ctx, groupID, userID)
		if err != nil {
			return "", err
		}
		if added {
			observability.IncMembershipEvent("joined")
			s.notifyCreator(ctx, group, userID, notifications.EventGroupJoin, `%s joined your group %q.`)
		}
		return models.JoinStatusJoined, nil
	}

	member, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return "", err
	}
	if member {
		return models.JoinStatusJoined, nil
	}

	if _, err := s.groups.AddJoinRequest(ctx, groupID, userID); err != nil {
		return "", err
	}
	observability.IncMembershipEvent("join_requested")
	return models.JoinStatusPending, nil
}

// ApproveMembership lets an admin approve or reject a pending join request.
// Approving a user with no pending request is a no-op, not an error.
func (s *MembershipService) ApproveMembership(ctx context.Context, groupID int, userID int, requesterID int, approve bool) error {
	if _, err := s.groups.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, groupID, requesterID); err != nil {
		return err
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return ErrUserNotFound
	}

	if approve {
		approved, err := s.groups.ApproveJoinRequest(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if approved {
			observability.IncMembershipEvent("approved")
		}
		return nil
	}

	rejected, err := s.groups.RemoveJoinRequest(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if rejected {
		observability.IncMembershipEvent("rejected")
	}
	return nil
}

// LeaveGroup removes the user from the member set. Leaving a group the user
// is not a member of is a no-op. The creator cannot leave.
func (s *MembershipService) LeaveGroup(ctx context.Context, groupID int, userID int) error {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if userID == group.CreatorID {
		return ErrInvalidOperation
	}

	removed, err := s.groups.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if removed {
		observability.IncMembershipEvent("left")
		s.notifyCreator(ctx, group, userID, notifications.EventGroupLeave, `%s left your group %q.`)
	}
	return nil
}

// ListGroups returns all groups with members preloaded.
func (s *MembershipService) ListGroups(ctx context.Context) ([]models.GroupDetails, error) {
	return s.groups.ListGroups(ctx)
}

// GetGroup returns a group with its id sets.
func (s *MembershipService) GetGroup(ctx context.Context, groupID int) (models.GroupDetails, error) {
	return s.groups.GetGroupDetails(ctx, groupID)
}

// GetMemberIDs returns the member ids of a group.
func (s *MembershipService) GetMemberIDs(ctx context.Context, groupID int) ([]int, error) {
	if _, err := s.groups.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.groups.MemberIDs(ctx, groupID)
}

// ListAdminIDs returns the admin ids of a group; the requester must be a
// member.
func (s *MembershipService) ListAdminIDs(ctx context.Context, groupID int, requesterID int) ([]int, error) {
	if _, err := s.groups.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	member, err := s.groups.IsMember(ctx, groupID, requesterID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotAllowed
	}
	return s.groups.AdminIDs(ctx, groupID)
}

// ListJoinRequestIDs returns pending join-request ids; admin only.
func (s *MembershipService) ListJoinRequestIDs(ctx context.Context, groupID int, requesterID int) ([]int, error) {
	if _, err := s.groups.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, groupID, requesterID); err != nil {
		return nil, err
	}
	return s.groups.JoinRequestIDs(ctx, groupID)
}

// IsMember reports whether the user is a member of the group.
func (s *MembershipService) IsMember(ctx context.Context, groupID int, userID int) (bool, error) {
	return s.groups.IsMember(ctx, groupID, userID)
}

// IsAdmin reports whether the user is in the group's admin set. The creator
// is seeded into the set at creation and can never be demoted, so creator
// authority needs no special case.
func (s *MembershipService) IsAdmin(ctx context.Context, groupID int, userID int) (bool, error) {
	return s.groups.IsAdmin(ctx, groupID, userID)
}

func (s *MembershipService) requireAdmin(ctx context.Context, groupID int, requesterID int) error {
	admin, err := s.groups.IsAdmin(ctx, groupID, requesterID)
	if err != nil {
		return err
	}
	if !admin {
		return ErrNotAllowed
	}
	return nil
}

// notifyCreator emits a best-effort notice to the group creator, suppressed
// when the actor is the creator. Failures never reach the caller.
func (s *MembershipService) notifyCreator(ctx context.Context, group models.Group, actorID int, eventType, format string) {
	if s.notifier == nil || actorID == group.CreatorID {
		return
	}

	name := fmt.Sprintf("user %d", actorID)
	if s.users != nil {
		if u, err := s.users.GetUser(ctx, actorID); err == nil {
			name = u.Username
		}
	}
	s.notifier.Emit(eventType, actorID, group.CreatorID, fmt.Sprintf(format, name, group.Name))
}
