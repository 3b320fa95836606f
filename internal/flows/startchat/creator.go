package startchat

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/zjrosen/roomflow/internal/session"
)

// ErrEmptyName is returned when a room is created without a name.
var ErrEmptyName = errors.New("room name is required")

// RoomRequest describes a room to create.
type RoomRequest struct {
	Name          string
	IsSpace       bool
	ParentSpaceID string
	AvatarPath    string
}

// RoomCreator creates rooms and spaces.
type RoomCreator interface {
	CreateRoom(ctx context.Context, req RoomRequest) (roomID string, err error)
}

// MemoryCreator creates rooms inside an in-memory session.
type MemoryCreator struct {
	Client *session.Memory
	Domain string
}

func (c MemoryCreator) CreateRoom(ctx context.Context, req RoomRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Name) == "" {
		return "", ErrEmptyName
	}
	id := "!" + uuid.NewString() + ":" + c.Domain
	c.Client.AddRoom(session.RoomInfo{
		ID:         id,
		Name:       req.Name,
		Membership: session.MembershipJoined,
		IsSpace:    req.IsSpace,
	})
	if req.ParentSpaceID != "" {
		if parent, err := c.Client.RoomSummary(ctx, req.ParentSpaceID); err == nil {
			parent.Children = append(parent.Children, id)
			c.Client.AddRoom(parent)
		}
	}
	return id, nil
}
