package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"group-service/internal/models"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrNameTaken     = errors.New("group name already taken")
)

// GroupRepository abstracts group persistence. Conditional mutations report
// whether they changed anything so callers can tell a no-op from a change.
type GroupRepository interface {
	CreateGroup(ctx context.Context, name, description string, closed bool, creatorID int) (models.Group, error)
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
	GetGroupDetails(ctx context.Context, groupID int) (models.GroupDetails, error)
	ListGroups(ctx context.Context) ([]models.GroupDetails, error)
	UpdateGroup(ctx context.Context, groupID int, name, description string, closed bool) (models.Group, error)
	DeleteGroup(ctx context.Context, groupID int) error

	IsMember(ctx context.Context, groupID int, userID int) (bool, error)
	IsAdmin(ctx context.Context, groupID int, userID int) (bool, error)
	MemberIDs(ctx context.Context, groupID int) ([]int, error)
	AdminIDs(ctx context.Context, groupID int) ([]int, error)
	JoinRequestIDs(ctx context.Context, groupID int) ([]int, error)

	AddMember(ctx context.Context, groupID int, userID int) (bool, error)
	RemoveMember(ctx context.Context, groupID int, userID int) (bool, error)
	AddJoinRequest(ctx context.Context, groupID int, userID int) (bool, error)
	RemoveJoinRequest(ctx context.Context, groupID int, userID int) (bool, error)
	ApproveJoinRequest(ctx context.Context, groupID int, userID int) (bool, error)
	AddAdmin(ctx context.Context, groupID int, userID int) (bool, error)
	RemoveAdmin(ctx context.Context, groupID int, userID int) (bool, error)
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

const groupColumns = `id, name, description, closed, creator_id, created_at`

// CreateGroup creates a group and seeds the creator as member and admin
// atomically.
func (r *GroupRepo) CreateGroup(ctx context.Context, name, description string, closed bool, creatorID int) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var group models.Group
	if err = tx.QueryRowxContext(ctx, `INSERT INTO groups (name, description, closed, creator_id) VALUES ($1, $2, $3, $4) RETURNING `+groupColumns, name, description, closed, creatorID).
		StructScan(&group); err != nil {
		if isUniqueViolation(err) {
			err = ErrNameTaken
		}
		return models.Group{}, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`, group.ID, creatorID); err != nil {
		return models.Group{}, err
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO group_admins (group_id, user_id) VALUES ($1, $2)`, group.ID, creatorID); err != nil {
		return models.Group{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT `+groupColumns+` FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// GetGroupDetails fetches a group with its member, admin and join-request
// id sets.
func (r *GroupRepo) GetGroupDetails(ctx context.Context, groupID int) (models.GroupDetails, error) {
	group, err := r.GetGroup(ctx, groupID)
	if err != nil {
		return models.GroupDetails{}, err
	}

	details := models.GroupDetails{Group: group}
	if details.MemberIDs, err = r.MemberIDs(ctx, groupID); err != nil {
		return models.GroupDetails{}, err
	}
	if details.AdminIDs, err = r.AdminIDs(ctx, groupID); err != nil {
		return models.GroupDetails{}, err
	}
	if details.JoinRequestIDs, err = r.JoinRequestIDs(ctx, groupID); err != nil {
		return models.GroupDetails{}, err
	}
	return details, nil
}

// ListGroups returns all groups with members preloaded.
func (r *GroupRepo) ListGroups(ctx context.Context) ([]models.GroupDetails, error) {
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, `SELECT `+groupColumns+` FROM groups ORDER BY created_at DESC`); err != nil {
		return nil, err
	}

	result := make([]models.GroupDetails, 0, len(groups))
	for _, g := range groups {
		memberIDs, err := r.MemberIDs(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		adminIDs, err := r.AdminIDs(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, models.GroupDetails{Group: g, MemberIDs: memberIDs, AdminIDs: adminIDs})
	}
	return result, nil
}

// UpdateGroup mutates the group's mutable fields.
func (r *GroupRepo) UpdateGroup(ctx context.Context, groupID int, name, description string, closed bool) (models.Group, error) {
	var group models.Group
	err := r.db.QueryRowxContext(ctx, `UPDATE groups SET name=$2, description=$3, closed=$4 WHERE id=$1 RETURNING `+groupColumns, groupID, name, description, closed).
		StructScan(&group)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	if isUniqueViolation(err) {
		return models.Group{}, ErrNameTaken
	}
	return group, err
}

// DeleteGroup removes the group; membership rows and posts go with it via
// ON DELETE CASCADE.
func (r *GroupRepo) DeleteGroup(ctx context.Context, groupID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id=$1`, groupID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2)`, groupID, userID)
	return exists, err
}

// IsAdmin checks membership in the admin set.
func (r *GroupRepo) IsAdmin(ctx context.Context, groupID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM group_admins WHERE group_id=$1 AND user_id=$2)`, groupID, userID)
	return exists, err
}

// MemberIDs lists member user ids.
func (r *GroupRepo) MemberIDs(ctx context.Context, groupID int) ([]int, error) {
	return r.userIDs(ctx, `SELECT user_id FROM group_members WHERE group_id=$1 ORDER BY user_id`, groupID)
}

// AdminIDs lists admin user ids.
func (r *GroupRepo) AdminIDs(ctx context.Context, groupID int) ([]int, error) {
	return r.userIDs(ctx, `SELECT user_id FROM group_admins WHERE group_id=$1 ORDER BY user_id`, groupID)
}

// JoinRequestIDs lists pending join-request user ids.
func (r *GroupRepo) JoinRequestIDs(ctx context.Context, groupID int) ([]int, error) {
	return r.userIDs(ctx, `SELECT user_id FROM group_join_requests WHERE group_id=$1 ORDER BY user_id`, groupID)
}

func (r *GroupRepo) userIDs(ctx context.Context, query string, groupID int) ([]int, error) {
	ids := []int{}
	err := r.db.SelectContext(ctx, &ids, query, groupID)
	return ids, err
}

// AddMember adds the user to the member set and drops any pending request.
// Returns false when the user already was a member.
func (r *GroupRepo) AddMember(ctx context.Context, groupID int, userID int) (added bool, err error) {
	tx, err := r.beginGroupTx(ctx, groupID)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM group_join_requests WHERE group_id=$1 AND user_id=$2`, groupID, userID); err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO group_members (group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, groupID, userID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	return count > 0, nil
}

// RemoveMember drops the user from the member and admin sets. Returns false
// when the user was not a member.
func (r *GroupRepo) RemoveMember(ctx context.Context, groupID int, userID int) (removed bool, err error) {
	tx, err := r.beginGroupTx(ctx, groupID)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM group_admins WHERE group_id=$1 AND user_id=$2`, groupID, userID); err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddJoinRequest queues a join request unless the user is already a member
// or already requesting.
func (r *GroupRepo) AddJoinRequest(ctx context.Context, groupID int, userID int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO group_join_requests (group_id, user_id)
        SELECT $1, $2 WHERE NOT EXISTS (SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2)
        ON CONFLICT DO NOTHING`, groupID, userID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RemoveJoinRequest drops a pending request. Returns false when there was none.
func (r *GroupRepo) RemoveJoinRequest(ctx context.Context, groupID int, userID int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM group_join_requests WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ApproveJoinRequest turns a pending request into a membership atomically.
// Returns false when the user had no pending request.
func (r *GroupRepo) ApproveJoinRequest(ctx context.Context, groupID int, userID int) (approved bool, err error) {
	tx, err := r.beginGroupTx(ctx, groupID)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM group_join_requests WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if count == 0 {
		err = tx.Commit()
		return false, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO group_members (group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, groupID, userID); err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// AddAdmin grants admin to an existing member. Returns false when the user
// is not a member or already an admin.
func (r *GroupRepo) AddAdmin(ctx context.Context, groupID int, userID int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO group_admins (group_id, user_id)
        SELECT $1, $2 WHERE EXISTS (SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2)
        ON CONFLICT DO NOTHING`, groupID, userID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RemoveAdmin revokes admin. Returns false when the user was not an admin.
func (r *GroupRepo) RemoveAdmin(ctx context.Context, groupID int, userID int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM group_admins WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// beginGroupTx opens a transaction holding a row lock on the group, so
// compound mutations on the same group serialize. ErrGroupNotFound when the
// group does not exist.
func (r *GroupRepo) beginGroupTx(ctx context.Context, groupID int) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	var id int
	if err := tx.GetContext(ctx, &id, `SELECT id FROM groups WHERE id=$1 FOR UPDATE`, groupID); err != nil {
		tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return tx, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
