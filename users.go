package chatkit

import (
	"context"
	"net/http"

	"github.com/hilthontt/chatkit/internal/apiquery"
)

type UserService struct {
	client *Client
}

type CreateUserParams struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	AvatarURL  *string        `json:"avatar_url,omitempty"`
	CustomData map[string]any `json:"custom_data,omitempty"`
}

func (p CreateUserParams) validate(operation string) error {
	if p.ID == "" {
		return missingParameter(operation, "an id is required")
	}
	if p.Name == "" {
		return missingParameter(operation, "a name is required")
	}
	return nil
}

func (s *UserService) Create(ctx context.Context, params CreateUserParams) (*Response, error) {
	if err := params.validate("create user"); err != nil {
		return nil, err
	}

	return s.client.asSu(ctx, TargetAPIV2, "", RequestOptions{
		Method: http.MethodPost,
		Path:   "/users",
		Body:   params,
	})
}

type CreateUsersParams struct {
	Users []CreateUserParams `json:"users"`
}

// CreateBatch creates several users in one request.
func (s *UserService) CreateBatch(ctx context.Context, params CreateUsersParams) (*Response, error) {
	if len(params.Users) == 0 {
		return nil, missingParameter("create users", "at least one user is required")
	}
	for _, u := range params.Users {
		if err := u.validate("create users"); err != nil {
			return nil, err
		}
	}

	return s.client.asSu(ctx, TargetAPIV2, "", RequestOptions{
		Method: http.MethodPost,
		Path:   "/batch_users",
		Body:   params,
	})
}

type UpdateUserParams struct {
	ID         string         `json:"-"`
	Name       *string        `json:"name,omitempty"`
	AvatarURL  *string        `json:"avatar_url,omitempty"`
	CustomData map[string]any `json:"custom_data,omitempty"`
}

// Update changes the fields that are set on params. The request is made
// on behalf of the user being updated.
func (s *UserService) Update(ctx context.Context, params UpdateUserParams) (*Response, error) {
	if params.ID == "" {
		return nil, missingParameter("update user", "an id is required")
	}

	return s.client.asSu(ctx, TargetAPIV2, params.ID, RequestOptions{
		Method: http.MethodPut,
		Path:   pathf("/users/%s", params.ID),
		Body:   params,
	})
}

func (s *UserService) Delete(ctx context.Context, id string) (*Response, error) {
	if id == "" {
		return nil, missingParameter("delete user", "an id is required")
	}

	return s.client.asSu(ctx, TargetAPIV2, "", RequestOptions{
		Method: http.MethodDelete,
		Path:   pathf("/users/%s", id),
	})
}

// AsyncDelete schedules the deletion of a user and everything it owns.
// The body is a Job whose status is polled with GetDeleteStatus.
func (s *UserService) AsyncDelete(ctx context.Context, id string) (*Response, error) {
	if id == "" {
		return nil, missingParameter("async delete user", "an id is required")
	}

	return s.client.asSu(ctx, TargetScheduler, "", RequestOptions{
		Method: http.MethodPut,
		Path:   pathf("/users/%s", id),
	})
}

// GetDeleteStatus reports the progress of an asynchronous user or room
// deletion.
func (s *UserService) GetDeleteStatus(ctx context.Context, jobID string) (*Response, error) {
	return s.client.deleteStatus(ctx, jobID)
}

func (c *Client) deleteStatus(ctx context.Context, jobID string) (*Response, error) {
	if jobID == "" {
		return nil, missingParameter("get delete status", "a job id is required")
	}

	return c.asSu(ctx, TargetScheduler, "", RequestOptions{
		Method: http.MethodGet,
		Path:   pathf("/status/%s", jobID),
	})
}

func (s *UserService) Get(ctx context.Context, id string) (*Response, error) {
	if id == "" {
		return nil, missingParameter("get user", "an id is required")
	}

	return s.client.asSu(ctx, TargetAPIV2, "", RequestOptions{
		Method: http.MethodGet,
		Path:   pathf("/users/%s", id),
	})
}

type ListUsersParams struct {
	// FromTimestamp lists users created at or after this RFC 3339 timestamp.
	FromTimestamp *string `query:"from_ts"`
	Limit         *int    `query:"limit"`
}

func (s *UserService) List(ctx context.Context, params ListUsersParams) (*Response, error) {
	return s.client.asSu(ctx, TargetAPIV2, "", RequestOptions{
		Method: http.MethodGet,
		Path:   "/users",
		Query:  apiquery.Marshal(params),
	})
}

func (s *UserService) GetByIDs(ctx context.Context, ids []string) (*Response, error) {
	if len(ids) == 0 {
		return nil, missingParameter("get users by id", "user ids are required")
	}

	query := apiquery.Marshal(struct {
		UserIDs []string `query:"user_ids"`
	}{ids})

	return s.client.asSu(ctx, TargetAPIV2, "", RequestOptions{
		Method: http.MethodGet,
		Path:   "/users_by_ids",
		Query:  query,
	})
}

// GetRooms lists the rooms a user is a member of, with unread counts.
func (s *UserService) GetRooms(ctx context.Context, id string) (*Response, error) {
	return s.rooms(ctx, "get user rooms", id, false)
}

// GetJoinableRooms lists the public rooms a user could join.
func (s *UserService) GetJoinableRooms(ctx context.Context, id string) (*Response, error) {
	return s.rooms(ctx, "get user joinable rooms", id, true)
}

func (s *UserService) rooms(ctx context.Context, operation, id string, joinable bool) (*Response, error) {
	if id == "" {
		return nil, missingParameter(operation, "an id is required")
	}

	opts := RequestOptions{
		Method: http.MethodGet,
		Path:   pathf("/users/%s/rooms", id),
	}
	if joinable {
		opts.Query = apiquery.Marshal(struct {
			Joinable bool `query:"joinable"`
		}{true})
	}

	return s.client.asSu(ctx, TargetAPIV2, id, opts)
}
