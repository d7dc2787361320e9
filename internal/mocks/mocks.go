package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"relay-service/internal/models"
	"relay-service/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) SetConnectionID(ctx context.Context, userID, connID string) error {
	args := m.Called(ctx, userID, connID)
	return args.Error(0)
}

func (m *UserRepositoryMock) ClearConnectionID(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserRepositoryMock) ContactIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) IsActiveMember(ctx context.Context, groupID, userID string) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) ActiveMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	args := m.Called(ctx, groupID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *GroupRepositoryMock) GetMembership(ctx context.Context, groupID, userID string) (models.GroupMember, error) {
	args := m.Called(ctx, groupID, userID)
	var member models.GroupMember
	if val := args.Get(0); val != nil {
		member = val.(models.GroupMember)
	}
	return member, args.Error(1)
}

func (m *GroupRepositoryMock) MembershipsForUser(ctx context.Context, userID string) ([]models.GroupMember, error) {
	args := m.Called(ctx, userID)
	var members []models.GroupMember
	if val := args.Get(0); val != nil {
		members = val.([]models.GroupMember)
	}
	return members, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var created models.Message
	if val := args.Get(0); val != nil {
		created = val.(models.Message)
	}
	return created, args.Error(1)
}

func (m *MessageRepositoryMock) DirectHistory(ctx context.Context, userID, otherID string) ([]models.Message, error) {
	args := m.Called(ctx, userID, otherID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GroupHistory(ctx context.Context, groupID string, until *time.Time) ([]models.Message, error) {
	args := m.Called(ctx, groupID, until)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) DirectMessagesForUser(ctx context.Context, userID string) ([]models.Message, error) {
	args := m.Called(ctx, userID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GroupMessagesForGroups(ctx context.Context, groupIDs []string) ([]models.Message, error) {
	args := m.Called(ctx, groupIDs)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type ReceiptRepositoryMock struct {
	mock.Mock
}

func (m *ReceiptRepositoryMock) CreateReceipt(ctx context.Context, messageID, userID string) (models.ReadReceipt, error) {
	args := m.Called(ctx, messageID, userID)
	var receipt models.ReadReceipt
	if val := args.Get(0); val != nil {
		receipt = val.(models.ReadReceipt)
	}
	return receipt, args.Error(1)
}

type PresenceRepositoryMock struct {
	mock.Mock
}

func (m *PresenceRepositoryMock) SetOnline(ctx context.Context, userID string) (models.OnlineStatus, error) {
	args := m.Called(ctx, userID)
	var status models.OnlineStatus
	if val := args.Get(0); val != nil {
		status = val.(models.OnlineStatus)
	}
	return status, args.Error(1)
}

func (m *PresenceRepositoryMock) SetOffline(ctx context.Context, userID string, lastSeen time.Time) (models.OnlineStatus, error) {
	args := m.Called(ctx, userID, lastSeen)
	var status models.OnlineStatus
	if val := args.Get(0); val != nil {
		status = val.(models.OnlineStatus)
	}
	return status, args.Error(1)
}

func (m *PresenceRepositoryMock) GetStatus(ctx context.Context, userID string) (models.OnlineStatus, error) {
	args := m.Called(ctx, userID)
	var status models.OnlineStatus
	if val := args.Get(0); val != nil {
		status = val.(models.OnlineStatus)
	}
	return status, args.Error(1)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.GroupRepository = (*GroupRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ReceiptRepository = (*ReceiptRepositoryMock)(nil)
var _ repositories.PresenceRepository = (*PresenceRepositoryMock)(nil)
