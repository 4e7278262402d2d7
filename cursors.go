package chatkit

import (
	"context"
	"net/http"
)

// cursorTypeRead is the only cursor type: the read position of a user in
// a room.
const cursorTypeRead = "0"

type CursorService struct {
	client *Client
}

type SetReadCursorParams struct {
	RoomID   string `json:"-"`
	UserID   string `json:"-"`
	Position *int   `json:"position"`
}

// SetReadCursor moves a user's read cursor in a room to Position,
// replacing any previous position.
func (s *CursorService) SetReadCursor(ctx context.Context, params SetReadCursorParams) (*Response, error) {
	const operation = "set read cursor"
	if params.RoomID == "" {
		return nil, missingParameter(operation, "a room id is required")
	}
	if params.UserID == "" {
		return nil, missingParameter(operation, "a user id is required")
	}
	if params.Position == nil {
		return nil, missingParameter(operation, "a position is required")
	}

	return s.client.asSu(ctx, TargetCursors, "", RequestOptions{
		Method: http.MethodPut,
		Path:   pathf("/cursors/%s/rooms/%s/users/%s", cursorTypeRead, params.RoomID, params.UserID),
		Body:   params,
	})
}

type ReadCursorParams struct {
	RoomID string
	UserID string
}

func (s *CursorService) GetReadCursor(ctx context.Context, params ReadCursorParams) (*Response, error) {
	const operation = "get read cursor"
	if params.RoomID == "" {
		return nil, missingParameter(operation, "a room id is required")
	}
	if params.UserID == "" {
		return nil, missingParameter(operation, "a user id is required")
	}

	return s.client.asSu(ctx, TargetCursors, "", RequestOptions{
		Method: http.MethodGet,
		Path:   pathf("/cursors/%s/rooms/%s/users/%s", cursorTypeRead, params.RoomID, params.UserID),
	})
}

// GetUserReadCursors lists a user's read cursors across all rooms.
func (s *CursorService) GetUserReadCursors(ctx context.Context, userID string) (*Response, error) {
	if userID == "" {
		return nil, missingParameter("get user read cursors", "a user id is required")
	}

	return s.client.asSu(ctx, TargetCursors, "", RequestOptions{
		Method: http.MethodGet,
		Path:   pathf("/cursors/%s/users/%s", cursorTypeRead, userID),
	})
}

// GetRoomReadCursors lists the read cursors of every member of a room.
func (s *CursorService) GetRoomReadCursors(ctx context.Context, roomID string) (*Response, error) {
	if roomID == "" {
		return nil, missingParameter("get room read cursors", "a room id is required")
	}

	return s.client.asSu(ctx, TargetCursors, "", RequestOptions{
		Method: http.MethodGet,
		Path:   pathf("/cursors/%s/rooms/%s", cursorTypeRead, roomID),
	})
}
