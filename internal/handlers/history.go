package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"relay-service/internal/models"
	"relay-service/internal/repositories"
)

// HistoryHandler serves conversation history. Every read enforces the
// membership-time visibility boundary: a member who left a group sees
// nothing sent after they left.
type HistoryHandler struct {
	users    repositories.UserRepository
	groups   repositories.GroupRepository
	messages repositories.MessageRepository
}

// NewHistoryHandler builds a HistoryHandler.
func NewHistoryHandler(users repositories.UserRepository, groups repositories.GroupRepository, messages repositories.MessageRepository) *HistoryHandler {
	return &HistoryHandler{users: users, groups: groups, messages: messages}
}

// ListConversations returns the sidebar bootstrap: the latest message
// per direct counterpart and per group the caller belongs to.
func (h *HistoryHandler) ListConversations(c *gin.Context) {
	userID := c.GetString("userID")

	direct, err := h.directConversations(c, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	group, err := h.groupConversations(c, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"direct_conversations": direct,
		"group_conversations":  group,
	})
}

func (h *HistoryHandler) directConversations(c *gin.Context, userID string) ([]models.DirectConversation, error) {
	msgs, err := h.messages.DirectMessagesForUser(c.Request.Context(), userID)
	if err != nil {
		return nil, err
	}

	// Messages arrive newest first, so the first hit per counterpart
	// is the conversation's latest message.
	seen := map[string]bool{}
	conversations := make([]models.DirectConversation, 0)
	for _, msg := range msgs {
		counterpartID := msg.SenderID
		if counterpartID == userID && msg.ReceiverID != nil {
			counterpartID = *msg.ReceiverID
		}
		if seen[counterpartID] {
			continue
		}
		seen[counterpartID] = true

		counterpart, err := h.users.GetUser(c.Request.Context(), counterpartID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				continue
			}
			return nil, err
		}
		conversations = append(conversations, models.DirectConversation{
			SenderID:        msg.SenderID,
			ReceiverID:      counterpart.ID,
			ReceiverName:    counterpart.FullName,
			ReceiverAvatar:  counterpart.Avatar,
			LastMessage:     msg.Content,
			LastMessageType: msg.Type,
			LastMessageAt:   msg.SentAt,
		})
	}
	return conversations, nil
}

func (h *HistoryHandler) groupConversations(c *gin.Context, userID string) ([]models.GroupConversation, error) {
	memberships, err := h.groups.MembershipsForUser(c.Request.Context(), userID)
	if err != nil {
		return nil, err
	}

	boundaries := map[string]*time.Time{}
	groupIDs := make([]string, 0, len(memberships))
	for _, membership := range memberships {
		groupIDs = append(groupIDs, membership.GroupID)
		if membership.Status == models.MemberInactive {
			boundaries[membership.GroupID] = membership.LeftAt
		}
	}

	msgs, err := h.messages.GroupMessagesForGroups(c.Request.Context(), groupIDs)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	conversations := make([]models.GroupConversation, 0)
	for _, msg := range msgs {
		if msg.GroupID == nil || seen[*msg.GroupID] {
			continue
		}
		if boundary, left := boundaries[*msg.GroupID]; left && boundary != nil && msg.SentAt.After(*boundary) {
			// Sent after the caller left; the next older message may
			// still be visible.
			continue
		}
		seen[*msg.GroupID] = true

		group, err := h.groups.GetGroup(c.Request.Context(), *msg.GroupID)
		if err != nil {
			if errors.Is(err, repositories.ErrGroupNotFound) {
				continue
			}
			return nil, err
		}
		conversations = append(conversations, models.GroupConversation{
			GroupID:         group.ID,
			GroupName:       group.Name,
			GroupAvatar:     group.Avatar,
			LastMessage:     msg.Content,
			LastMessageType: msg.Type,
			LastMessageAt:   msg.SentAt,
		})
	}
	return conversations, nil
}

// GetDirectHistory returns the two-party conversation between the
// caller and ?user_id, oldest first.
func (h *HistoryHandler) GetDirectHistory(c *gin.Context) {
	userID := c.GetString("userID")
	otherID := c.Query("user_id")
	if uuid.Validate(otherID) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	msgs, err := h.messages.DirectHistory(c.Request.Context(), userID, otherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": h.renderMessages(c, msgs, userID)})
}

// GetGroupHistory returns the group conversation visible to the
// caller. Members who left see only messages sent at or before their
// departure.
func (h *HistoryHandler) GetGroupHistory(c *gin.Context) {
	userID := c.GetString("userID")
	groupID := c.Query("group_id")
	if uuid.Validate(groupID) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	membership, err := h.groups.GetMembership(c.Request.Context(), groupID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrMembershipNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a group member"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}

	var until *time.Time
	if membership.Status == models.MemberInactive {
		until = membership.LeftAt
	}

	msgs, err := h.messages.GroupHistory(c.Request.Context(), groupID, until)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": h.renderMessages(c, msgs, userID)})
}

func (h *HistoryHandler) renderMessages(c *gin.Context, msgs []models.Message, callerID string) []models.HistoryMessage {
	avatars := map[string]string{}
	rendered := make([]models.HistoryMessage, 0, len(msgs))
	for _, msg := range msgs {
		avatar, cached := avatars[msg.SenderID]
		if !cached {
			if sender, err := h.users.GetUser(c.Request.Context(), msg.SenderID); err == nil {
				avatar = sender.Avatar
			}
			avatars[msg.SenderID] = avatar
		}

		entry := models.HistoryMessage{
			Content:      msg.Content,
			SenderID:     msg.SenderID,
			SenderAvatar: avatar,
			Type:         msg.Type,
			SentAt:       msg.SentAt,
			SentByCaller: msg.SenderID == callerID,
		}
		if msg.ReceiverID != nil {
			entry.ReceiverID = *msg.ReceiverID
		}
		if msg.GroupID != nil {
			entry.GroupID = *msg.GroupID
		}
		rendered = append(rendered, entry)
	}
	return rendered
}
