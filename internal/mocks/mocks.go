package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	userpb "github.com/wersvet/user-service/proto/user"

	"group-service/internal/models"
	"group-service/internal/repositories"
	"group-service/internal/services"
)

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, name, description string, closed bool, creatorID int) (models.Group, error) {
	args := m.Called(ctx, name, description, closed, creatorID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroupDetails(ctx context.Context, groupID int) (models.GroupDetails, error) {
	args := m.Called(ctx, groupID)
	var details models.GroupDetails
	if val := args.Get(0); val != nil {
		details = val.(models.GroupDetails)
	}
	return details, args.Error(1)
}

func (m *GroupRepositoryMock) ListGroups(ctx context.Context) ([]models.GroupDetails, error) {
	args := m.Called(ctx)
	var groups []models.GroupDetails
	if val := args.Get(0); val != nil {
		groups = val.([]models.GroupDetails)
	}
	return groups, args.Error(1)
}

func (m *GroupRepositoryMock) UpdateGroup(ctx context.Context, groupID int, name, description string, closed bool) (models.Group, error) {
	args := m.Called(ctx, groupID, name, description, closed)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) DeleteGroup(ctx context.Context, groupID int) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) IsMember(ctx context.Context, groupID int, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) IsAdmin(ctx context.Context, groupID int, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) MemberIDs(ctx context.Context, groupID int) ([]int, error) {
	args := m.Called(ctx, groupID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *GroupRepositoryMock) AdminIDs(ctx context.Context, groupID int) ([]int, error) {
	args := m.Called(ctx, groupID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *GroupRepositoryMock) JoinRequestIDs(ctx context.Context, groupID int) ([]int, error) {
	args := m.Called(ctx, groupID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *GroupRepositoryMock) AddMember(ctx context.Context, groupID int, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) RemoveMember(ctx context.Context, groupID int, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) AddJoinRequest(ctx context.Context, groupID int, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) RemoveJoinRequest(ctx context.Context, groupID int, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) ApproveJoinRequest(ctx context.Context, groupID int, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) AddAdmin(ctx context.Context, groupID int, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) RemoveAdmin(ctx context.Context, groupID int, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

type PostRepositoryMock struct {
	mock.Mock
}

func (m *PostRepositoryMock) CreatePost(ctx context.Context, groupID int, authorID int, content, link, imageURL string) (models.Post, error) {
	args := m.Called(ctx, groupID, authorID, content, link, imageURL)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostRepositoryMock) ListGroupPosts(ctx context.Context, groupID int) ([]models.Post, error) {
	args := m.Called(ctx, groupID)
	var posts []models.Post
	if val := args.Get(0); val != nil {
		posts = val.([]models.Post)
	}
	return posts, args.Error(1)
}

func (m *PostRepositoryMock) GetPost(ctx context.Context, postID int) (models.Post, error) {
	args := m.Called(ctx, postID)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostRepositoryMock) DeletePost(ctx context.Context, postID int) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

type UserClientMock struct {
	mock.Mock
}

func (m *UserClientMock) GetUser(ctx context.Context, userID int) (*userpb.GetUserResponse, error) {
	args := m.Called(ctx, userID)
	var user *userpb.GetUserResponse
	if val := args.Get(0); val != nil {
		user = val.(*userpb.GetUserResponse)
	}
	return user, args.Error(1)
}

func (m *UserClientMock) BulkUsers(ctx context.Context, ids []int) ([]*userpb.GetUserResponse, error) {
	args := m.Called(ctx, ids)
	var users []*userpb.GetUserResponse
	if val := args.Get(0); val != nil {
		users = val.([]*userpb.GetUserResponse)
	}
	return users, args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Emit(eventType string, fromUserID, toUserID int, message string) {
	m.Called(eventType, fromUserID, toUserID, message)
}

var _ repositories.GroupRepository = (*GroupRepositoryMock)(nil)
var _ repositories.PostRepository = (*PostRepositoryMock)(nil)
var _ services.UserDirectory = (*UserClientMock)(nil)
var _ services.Notifier = (*NotifierMock)(nil)
