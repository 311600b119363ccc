package services

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	userpb "github.com/wersvet/user-service/proto/user"

	"group-service/internal/models"
	"group-service/internal/repositories"
)

// fakeStore is an in-memory stand-in for the Postgres repositories, with the
// same conditional-mutation semantics (including the membership cascade on
// group deletion).
type fakeStore struct {
	mu          sync.Mutex
	nextGroupID int
	nextPostID  int
	groups      map[int]*fakeGroup
	posts       map[int]models.Post
}

type fakeGroup struct {
	group    models.Group
	members  map[int]bool
	admins   map[int]bool
	requests map[int]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextGroupID: 1,
		nextPostID:  1,
		groups:      map[int]*fakeGroup{},
		posts:       map[int]models.Post{},
	}
}

var _ repositories.GroupRepository = (*fakeStore)(nil)
var _ repositories.PostRepository = (*fakeStore)(nil)

func (f *fakeStore) CreateGroup(_ context.Context, name, description string, closed bool, creatorID int) (models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groups {
		if g.group.Name == name {
			return models.Group{}, repositories.ErrNameTaken
		}
	}
	group := models.Group{ID: f.nextGroupID, Name: name, Description: description, Closed: closed, CreatorID: creatorID}
	f.nextGroupID++
	f.groups[group.ID] = &fakeGroup{
		group:    group,
		members:  map[int]bool{creatorID: true},
		admins:   map[int]bool{creatorID: true},
		requests: map[int]bool{},
	}
	return group, nil
}

func (f *fakeStore) GetGroup(_ context.Context, groupID int) (models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return models.Group{}, repositories.ErrGroupNotFound
	}
	return g.group, nil
}

func (f *fakeStore) GetGroupDetails(ctx context.Context, groupID int) (models.GroupDetails, error) {
	group, err := f.GetGroup(ctx, groupID)
	if err != nil {
		return models.GroupDetails{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.groups[groupID]
	return models.GroupDetails{
		Group:          group,
		MemberIDs:      sortedKeys(g.members),
		AdminIDs:       sortedKeys(g.admins),
		JoinRequestIDs: sortedKeys(g.requests),
	}, nil
}

func (f *fakeStore) ListGroups(ctx context.Context) ([]models.GroupDetails, error) {
	f.mu.Lock()
	ids := make([]int, 0, len(f.groups))
	for id := range f.groups {
		ids = append(ids, id)
	}
	f.mu.Unlock()
	sort.Ints(ids)

	result := make([]models.GroupDetails, 0, len(ids))
	for _, id := range ids {
		details, err := f.GetGroupDetails(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, details)
	}
	return result, nil
}

func (f *fakeStore) UpdateGroup(_ context.Context, groupID int, name, description string, closed bool) (models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return models.Group{}, repositories.ErrGroupNotFound
	}
	for id, other := range f.groups {
		if id != groupID && other.group.Name == name {
			return models.Group{}, repositories.ErrNameTaken
		}
	}
	g.group.Name = name
	g.group.Description = description
	g.group.Closed = closed
	return g.group, nil
}

func (f *fakeStore) DeleteGroup(_ context.Context, groupID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[groupID]; !ok {
		return repositories.ErrGroupNotFound
	}
	delete(f.groups, groupID)
	for id, post := range f.posts {
		if post.GroupID == groupID {
			delete(f.posts, id)
		}
	}
	return nil
}

func (f *fakeStore) IsMember(_ context.Context, groupID int, userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	return ok && g.members[userID], nil
}

func (f *fakeStore) IsAdmin(_ context.Context, groupID int, userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	return ok && g.admins[userID], nil
}

func (f *fakeStore) MemberIDs(_ context.Context, groupID int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return nil, repositories.ErrGroupNotFound
	}
	return sortedKeys(g.members), nil
}

func (f *fakeStore) AdminIDs(_ context.Context, groupID int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return nil, repositories.ErrGroupNotFound
	}
	return sortedKeys(g.admins), nil
}

func (f *fakeStore) JoinRequestIDs(_ context.Context, groupID int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return nil, repositories.ErrGroupNotFound
	}
	return sortedKeys(g.requests), nil
}

func (f *fakeStore) AddMember(_ context.Context, groupID int, userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return false, repositories.ErrGroupNotFound
	}
	delete(g.requests, userID)
	if g.members[userID] {
		return false, nil
	}
	g.members[userID] = true
	return true, nil
}

func (f *fakeStore) RemoveMember(_ context.Context, groupID int, userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return false, repositories.ErrGroupNotFound
	}
	delete(g.admins, userID)
	if !g.members[userID] {
		return false, nil
	}
	delete(g.members, userID)
	return true, nil
}

func (f *fakeStore) AddJoinRequest(_ context.Context, groupID int, userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return false, repositories.ErrGroupNotFound
	}
	if g.members[userID] || g.requests[userID] {
		return false, nil
	}
	g.requests[userID] = true
	return true, nil
}

func (f *fakeStore) RemoveJoinRequest(_ context.Context, groupID int, userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return false, repositories.ErrGroupNotFound
	}
	if !g.requests[userID] {
		return false, nil
	}
	delete(g.requests, userID)
	return true, nil
}

func (f *fakeStore) ApproveJoinRequest(_ context.Context, groupID int, userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return false, repositories.ErrGroupNotFound
	}
	if !g.requests[userID] {
		return false, nil
	}
	delete(g.requests, userID)
	g.members[userID] = true
	return true, nil
}

func (f *fakeStore) AddAdmin(_ context.Context, groupID int, userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return false, repositories.ErrGroupNotFound
	}
	if !g.members[userID] || g.admins[userID] {
		return false, nil
	}
	g.admins[userID] = true
	return true, nil
}

func (f *fakeStore) RemoveAdmin(_ context.Context, groupID int, userID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return false, repositories.ErrGroupNotFound
	}
	if !g.admins[userID] {
		return false, nil
	}
	delete(g.admins, userID)
	return true, nil
}

func (f *fakeStore) CreatePost(_ context.Context, groupID int, authorID int, content, link, imageURL string) (models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post := models.Post{ID: f.nextPostID, GroupID: groupID, AuthorID: authorID, Content: content, Link: link, ImageURL: imageURL}
	f.nextPostID++
	f.posts[post.ID] = post
	return post, nil
}

func (f *fakeStore) ListGroupPosts(_ context.Context, groupID int) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var posts []models.Post
	for _, p := range f.posts {
		if p.GroupID == groupID {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

func (f *fakeStore) GetPost(_ context.Context, postID int) (models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[postID]
	if !ok {
		return models.Post{}, repositories.ErrPostNotFound
	}
	return post, nil
}

func (f *fakeStore) DeletePost(_ context.Context, postID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[postID]; !ok {
		return repositories.ErrPostNotFound
	}
	delete(f.posts, postID)
	return nil
}

func sortedKeys(set map[int]bool) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// fakeDirectory resolves users from a static username map.
type fakeDirectory struct {
	usernames map[int]string
}

func (d *fakeDirectory) GetUser(_ context.Context, userID int) (*userpb.GetUserResponse, error) {
	name, ok := d.usernames[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &userpb.GetUserResponse{Id: int64(userID), Username: name}, nil
}

func (d *fakeDirectory) BulkUsers(_ context.Context, ids []int) ([]*userpb.GetUserResponse, error) {
	users := make([]*userpb.GetUserResponse, 0, len(ids))
	for _, id := range ids {
		if name, ok := d.usernames[id]; ok {
			users = append(users, &userpb.GetUserResponse{Id: int64(id), Username: name})
		}
	}
	return users, nil
}

type sentNotice struct {
	eventType  string
	fromUserID int
	toUserID   int
	message    string
}

// recordingNotifier captures emitted notices synchronously.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []sentNotice
}

func (n *recordingNotifier) Emit(eventType string, fromUserID, toUserID int, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, sentNotice{eventType: eventType, fromUserID: fromUserID, toUserID: toUserID, message: message})
}

func (n *recordingNotifier) all() []sentNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotice(nil), n.notices...)
}

// requireInvariants asserts the aggregate invariants on every group: the
// creator is member and admin, admins are members, and no member has a
// pending request.
func requireInvariants(t *testing.T, store *fakeStore) {
	t.Helper()
	store.mu.Lock()
	defer store.mu.Unlock()
	for id, g := range store.groups {
		require.True(t, g.members[g.group.CreatorID], "group %d: creator must be a member", id)
		require.True(t, g.admins[g.group.CreatorID], "group %d: creator must be an admin", id)
		for admin := range g.admins {
			require.True(t, g.members[admin], "group %d: admin %d must be a member", id, admin)
		}
		for member := range g.members {
			require.False(t, g.requests[member], "group %d: member %d must not have a pending request", id, member)
		}
	}
}
