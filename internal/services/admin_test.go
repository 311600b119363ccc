package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"group-service/internal/repositories"
)

func newAdminFixture(t *testing.T) (*AdminService, *MembershipService, *fakeStore, int) {
	t.Helper()
	store := newFakeStore()
	directory := &fakeDirectory{usernames: map[int]string{1: "alice", 2: "bob", 3: "carol"}}
	membership := NewMembershipService(store, directory, &recordingNotifier{})
	admin := NewAdminService(store, store, directory)

	group, err := membership.CreateGroup(context.Background(), "Hikers", "", false, 1)
	require.NoError(t, err)
	return admin, membership, store, group.ID
}

func TestPromoteAndDemote(t *testing.T) {
	admin, membership, store, groupID := newAdminFixture(t)
	ctx := context.Background()

	_, err := membership.RequestJoin(ctx, groupID, 2)
	require.NoError(t, err)

	require.NoError(t, admin.PromoteToAdmin(ctx, groupID, 2, 1))

	isAdmin, err := membership.IsAdmin(ctx, groupID, 2)
	require.NoError(t, err)
	require.True(t, isAdmin)

	requireInvariants(t, store)

	require.NoError(t, admin.DemoteAdmin(ctx, groupID, 2, 1))

	isAdmin, err = membership.IsAdmin(ctx, groupID, 2)
	require.NoError(t, err)
	require.False(t, isAdmin)

	// demotion keeps membership
	member, err := membership.IsMember(ctx, groupID, 2)
	require.NoError(t, err)
	require.True(t, member)
}

func TestPromoteRequiresAdmin(t *testing.T) {
	admin, membership, _, groupID := newAdminFixture(t)
	ctx := context.Background()

	_, err := membership.RequestJoin(ctx, groupID, 2)
	require.NoError(t, err)
	_, err = membership.RequestJoin(ctx, groupID, 3)
	require.NoError(t, err)

	err = admin.PromoteToAdmin(ctx, groupID, 3, 2)
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestPromoteNonMemberRejected(t *testing.T) {
	admin, _, _, groupID := newAdminFixture(t)

	err := admin.PromoteToAdmin(context.Background(), groupID, 2, 1)
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestPromoteUnknownUserRejected(t *testing.T) {
	admin, _, _, groupID := newAdminFixture(t)

	err := admin.PromoteToAdmin(context.Background(), groupID, 42, 1)
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestPromoteIsIdempotent(t *testing.T) {
	admin, membership, store, groupID := newAdminFixture(t)
	ctx := context.Background()

	_, err := membership.RequestJoin(ctx, groupID, 2)
	require.NoError(t, err)

	require.NoError(t, admin.PromoteToAdmin(ctx, groupID, 2, 1))
	require.NoError(t, admin.PromoteToAdmin(ctx, groupID, 2, 1))

	admins, err := membership.ListAdminIDs(ctx, groupID, 1)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, admins)

	requireInvariants(t, store)
}

func TestDemoteCreatorRejected(t *testing.T) {
	admin, membership, _, groupID := newAdminFixture(t)
	ctx := context.Background()

	_, err := membership.RequestJoin(ctx, groupID, 2)
	require.NoError(t, err)
	require.NoError(t, admin.PromoteToAdmin(ctx, groupID, 2, 1))

	err = admin.DemoteAdmin(ctx, groupID, 1, 2)
	require.ErrorIs(t, err, ErrInvalidOperation)

	isAdmin, err := membership.IsAdmin(ctx, groupID, 1)
	require.NoError(t, err)
	require.True(t, isAdmin)
}

func TestDemoteNonAdminRejected(t *testing.T) {
	admin, membership, _, groupID := newAdminFixture(t)
	ctx := context.Background()

	_, err := membership.RequestJoin(ctx, groupID, 2)
	require.NoError(t, err)

	err = admin.DemoteAdmin(ctx, groupID, 2, 1)
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestRemoveMemberRevokesAdmin(t *testing.T) {
	admin, membership, store, groupID := newAdminFixture(t)
	ctx := context.Background()

	_, err := membership.RequestJoin(ctx, groupID, 2)
	require.NoError(t, err)
	require.NoError(t, admin.PromoteToAdmin(ctx, groupID, 2, 1))

	require.NoError(t, admin.RemoveMember(ctx, groupID, 2, 1))

	member, err := membership.IsMember(ctx, groupID, 2)
	require.NoError(t, err)
	require.False(t, member)

	isAdmin, err := membership.IsAdmin(ctx, groupID, 2)
	require.NoError(t, err)
	require.False(t, isAdmin)

	requireInvariants(t, store)
}

func TestRemoveCreatorRejected(t *testing.T) {
	admin, membership, _, groupID := newAdminFixture(t)
	ctx := context.Background()

	_, err := membership.RequestJoin(ctx, groupID, 2)
	require.NoError(t, err)
	require.NoError(t, admin.PromoteToAdmin(ctx, groupID, 2, 1))

	err = admin.RemoveMember(ctx, groupID, 1, 2)
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestRemoveNonMemberRejected(t *testing.T) {
	admin, _, _, groupID := newAdminFixture(t)

	err := admin.RemoveMember(context.Background(), groupID, 2, 1)
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestRemoveMemberRequiresAdmin(t *testing.T) {
	admin, membership, _, groupID := newAdminFixture(t)
	ctx := context.Background()

	_, err := membership.RequestJoin(ctx, groupID, 2)
	require.NoError(t, err)
	_, err = membership.RequestJoin(ctx, groupID, 3)
	require.NoError(t, err)

	err = admin.RemoveMember(ctx, groupID, 3, 2)
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestUpdateGroup(t *testing.T) {
	admin, membership, _, groupID := newAdminFixture(t)
	ctx := context.Background()

	updated, err := admin.UpdateGroup(ctx, groupID, 1, "Trail Club", "renamed", true)
	require.NoError(t, err)
	require.Equal(t, "Trail Club", updated.Name)
	require.True(t, updated.Closed)

	// closedness now gates joining
	status, err := membership.RequestJoin(ctx, groupID, 2)
	require.NoError(t, err)
	require.Equal(t, "pending", string(status))
}

func TestUpdateGroupRequiresAdmin(t *testing.T) {
	admin, membership, _, groupID := newAdminFixture(t)
	ctx := context.Background()

	_, err := membership.RequestJoin(ctx, groupID, 2)
	require.NoError(t, err)

	_, err = admin.UpdateGroup(ctx, groupID, 2, "Hijacked", "", false)
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestDeleteGroupCascadesPosts(t *testing.T) {
	admin, _, store, groupID := newAdminFixture(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, groupID, 1, "first hike", "", "")
	require.NoError(t, err)

	require.NoError(t, admin.DeleteGroup(ctx, groupID, 1))

	_, err = store.GetGroup(ctx, groupID)
	require.ErrorIs(t, err, repositories.ErrGroupNotFound)

	_, err = store.GetPost(ctx, post.ID)
	require.ErrorIs(t, err, repositories.ErrPostNotFound)
}

func TestDeleteGroupRequiresAdmin(t *testing.T) {
	admin, membership, _, groupID := newAdminFixture(t)
	ctx := context.Background()

	_, err := membership.RequestJoin(ctx, groupID, 2)
	require.NoError(t, err)

	err = admin.DeleteGroup(ctx, groupID, 2)
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestRemovePost(t *testing.T) {
	admin, _, store, groupID := newAdminFixture(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, groupID, 2, "spam", "", "")
	require.NoError(t, err)

	require.NoError(t, admin.RemovePost(ctx, groupID, post.ID, 1))

	_, err = store.GetPost(ctx, post.ID)
	require.ErrorIs(t, err, repositories.ErrPostNotFound)
}

func TestRemovePostFromOtherGroupRejected(t *testing.T) {
	admin, membership, store, groupID := newAdminFixture(t)
	ctx := context.Background()

	other, err := membership.CreateGroup(ctx, "Board", "", true, 1)
	require.NoError(t, err)

	post, err := store.CreatePost(ctx, other.ID, 1, "minutes", "", "")
	require.NoError(t, err)

	err = admin.RemovePost(ctx, groupID, post.ID, 1)
	require.ErrorIs(t, err, ErrInvalidOperation)

	_, err = store.GetPost(ctx, post.ID)
	require.NoError(t, err, "post in the other group must survive")
}

func TestRemoveMissingPost(t *testing.T) {
	admin, _, _, groupID := newAdminFixture(t)

	err := admin.RemovePost(context.Background(), groupID, 99, 1)
	require.ErrorIs(t, err, repositories.ErrPostNotFound)
}

func TestRemovePostRequiresAdmin(t *testing.T) {
	admin, membership, store, groupID := newAdminFixture(t)
	ctx := context.Background()

	_, err := membership.RequestJoin(ctx, groupID, 2)
	require.NoError(t, err)

	post, err := store.CreatePost(ctx, groupID, 2, "mine", "", "")
	require.NoError(t, err)

	err = admin.RemovePost(ctx, groupID, post.ID, 2)
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestPostModerationDelegates(t *testing.T) {
	admin, _, store, groupID := newAdminFixture(t)
	ctx := context.Background()

	postMod := NewPostModerationService(admin)

	post, err := store.CreatePost(ctx, groupID, 1, "off topic", "", "")
	require.NoError(t, err)

	require.NoError(t, postMod.RemovePost(ctx, groupID, post.ID, 1))

	_, err = store.GetPost(ctx, post.ID)
	require.ErrorIs(t, err, repositories.ErrPostNotFound)
}
