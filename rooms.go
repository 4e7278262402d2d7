package chatkit

import (
	"context"
	"net/http"

	"github.com/hilthontt/chatkit/internal/apiquery"
)

type RoomService struct {
	client *Client
}

type CreateRoomParams struct {
	// ID is generated by the server when nil.
	ID *string `json:"id,omitempty"`
	// CreatorID becomes the first member of the room. It is not part of
	// the body; the request is made on the creator's behalf.
	CreatorID  string         `json:"-"`
	Name       string         `json:"name"`
	Private    *bool          `json:"private,omitempty"`
	CustomData map[string]any `json:"custom_data,omitempty"`
	UserIDs    []string       `json:"user_ids,omitempty"`
}

func (s *RoomService) Create(ctx context.Context, params CreateRoomParams) (*Response, error) {
	if params.CreatorID == "" {
		return nil, missingParameter("create room", "a creator id is required")
	}
	if params.Name == "" {
		return nil, missingParameter("create room", "a name is required")
	}
	if params.ID != nil && *params.ID == "" {
		return nil, missingParameter("create room", "an explicit room id cannot be empty")
	}

	return s.client.asSu(ctx, TargetAPIV2, params.CreatorID, RequestOptions{
		Method: http.MethodPost,
		Path:   "/rooms",
		Body:   params,
	})
}

type UpdateRoomParams struct {
	ID         string         `json:"-"`
	Name       *string        `json:"name,omitempty"`
	Private    *bool          `json:"private,omitempty"`
	CustomData map[string]any `json:"custom_data,omitempty"`
}

func (s *RoomService) Update(ctx context.Context, params UpdateRoomParams) (*Response, error) {
	if params.ID == "" {
		return nil, missingParameter("update room", "an id is required")
	}

	return s.client.asSu(ctx, TargetAPIV2, "", RequestOptions{
		Method: http.MethodPut,
		Path:   pathf("/rooms/%s", params.ID),
		Body:   params,
	})
}

func (s *RoomService) Delete(ctx context.Context, id string) (*Response, error) {
	if id == "" {
		return nil, missingParameter("delete room", "an id is required")
	}

	return s.client.asSu(ctx, TargetAPIV2, "", RequestOptions{
		Method: http.MethodDelete,
		Path:   pathf("/rooms/%s", id),
	})
}

// AsyncDelete schedules the deletion of a room and its messages.
func (s *RoomService) AsyncDelete(ctx context.Context, id string) (*Response, error) {
	if id == "" {
		return nil, missingParameter("async delete room", "an id is required")
	}

	return s.client.asSu(ctx, TargetScheduler, "", RequestOptions{
		Method: http.MethodPut,
		Path:   pathf("/rooms/%s", id),
	})
}

func (s *RoomService) GetDeleteStatus(ctx context.Context, jobID string) (*Response, error) {
	return s.client.deleteStatus(ctx, jobID)
}

func (s *RoomService) Get(ctx context.Context, id string) (*Response, error) {
	if id == "" {
		return nil, missingParameter("get room", "an id is required")
	}

	return s.client.asSu(ctx, TargetAPIV2, "", RequestOptions{
		Method: http.MethodGet,
		Path:   pathf("/rooms/%s", id),
	})
}

type ListRoomsParams struct {
	// FromID lists rooms whose id sorts after this one.
	FromID         *string `query:"from_id"`
	IncludePrivate *bool   `query:"include_private"`
}

func (s *RoomService) List(ctx context.Context, params ListRoomsParams) (*Response, error) {
	return s.client.asSu(ctx, TargetAPIV2, "", RequestOptions{
		Method: http.MethodGet,
		Path:   "/rooms",
		Query:  apiquery.Marshal(params),
	})
}

type RoomUsersParams struct {
	RoomID  string   `json:"-"`
	UserIDs []string `json:"user_ids"`
}

func (s *RoomService) AddUsers(ctx context.Context, params RoomUsersParams) (*Response, error) {
	return s.membership(ctx, "add users to room", "add", params)
}

func (s *RoomService) RemoveUsers(ctx context.Context, params RoomUsersParams) (*Response, error) {
	return s.membership(ctx, "remove users from room", "remove", params)
}

func (s *RoomService) membership(ctx context.Context, operation, action string, params RoomUsersParams) (*Response, error) {
	if params.RoomID == "" {
		return nil, missingParameter(operation, "a room id is required")
	}
	if len(params.UserIDs) == 0 {
		return nil, missingParameter(operation, "user ids are required")
	}

	return s.client.asSu(ctx, TargetAPIV2, "", RequestOptions{
		Method: http.MethodPut,
		Path:   pathf("/rooms/%s/users/", params.RoomID) + action,
		Body:   params,
	})
}
