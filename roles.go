package chatkit

import (
	"context"
	"net/http"
	"net/url"
)

type RoleService struct {
	client *Client
}

type CreateRoleParams struct {
	Name string
	// Permissions must be non-nil; an empty slice creates a role without
	// permissions.
	Permissions []string
}

func (s *RoleService) CreateRoomRole(ctx context.Context, params CreateRoleParams) (*Response, error) {
	return s.create(ctx, "create room role", ScopeRoom, params)
}

func (s *RoleService) CreateGlobalRole(ctx context.Context, params CreateRoleParams) (*Response, error) {
	return s.create(ctx, "create global role", ScopeGlobal, params)
}

func (s *RoleService) create(ctx context.Context, operation string, scope Scope, params CreateRoleParams) (*Response, error) {
	if params.Name == "" {
		return nil, missingParameter(operation, "a name is required")
	}
	if params.Permissions == nil {
		return nil, missingParameter(operation, "permissions are required")
	}

	return s.client.asSu(ctx, TargetAuthorizer, "", RequestOptions{
		Method: http.MethodPost,
		Path:   "/roles",
		Body: Role{
			Name:        params.Name,
			Scope:       scope,
			Permissions: params.Permissions,
		},
	})
}

func (s *RoleService) DeleteRoomRole(ctx context.Context, name string) (*Response, error) {
	return s.delete(ctx, "delete room role", ScopeRoom, name)
}

func (s *RoleService) DeleteGlobalRole(ctx context.Context, name string) (*Response, error) {
	return s.delete(ctx, "delete global role", ScopeGlobal, name)
}

func (s *RoleService) delete(ctx context.Context, operation string, scope Scope, name string) (*Response, error) {
	if name == "" {
		return nil, missingParameter(operation, "a role name is required")
	}

	return s.client.asSu(ctx, TargetAuthorizer, "", RequestOptions{
		Method: http.MethodDelete,
		Path:   pathf("/roles/%s/scope/%s", name, string(scope)),
	})
}

type AssignRoleParams struct {
	UserID string
	Name   string
	// RoomID is required by AssignRoomRoleToUser and ignored by
	// AssignGlobalRoleToUser.
	RoomID string
}

type assignRoleBody struct {
	Name   string `json:"name"`
	RoomID string `json:"room_id,omitempty"`
}

func (s *RoleService) AssignGlobalRoleToUser(ctx context.Context, params AssignRoleParams) (*Response, error) {
	params.RoomID = ""
	return s.assign(ctx, "assign global role to user", params)
}

func (s *RoleService) AssignRoomRoleToUser(ctx context.Context, params AssignRoleParams) (*Response, error) {
	if params.RoomID == "" {
		return nil, missingParameter("assign room role to user", "a room id is required")
	}
	return s.assign(ctx, "assign room role to user", params)
}

func (s *RoleService) assign(ctx context.Context, operation string, params AssignRoleParams) (*Response, error) {
	if params.UserID == "" {
		return nil, missingParameter(operation, "a user id is required")
	}
	if params.Name == "" {
		return nil, missingParameter(operation, "a role name is required")
	}

	return s.client.asSu(ctx, TargetAuthorizer, "", RequestOptions{
		Method: http.MethodPut,
		Path:   pathf("/users/%s/roles", params.UserID),
		Body:   assignRoleBody{Name: params.Name, RoomID: params.RoomID},
	})
}

func (s *RoleService) List(ctx context.Context) (*Response, error) {
	return s.client.asSu(ctx, TargetAuthorizer, "", RequestOptions{
		Method: http.MethodGet,
		Path:   "/roles",
	})
}

func (s *RoleService) GetUserRoles(ctx context.Context, userID string) (*Response, error) {
	if userID == "" {
		return nil, missingParameter("get user roles", "a user id is required")
	}

	return s.client.asSu(ctx, TargetAuthorizer, "", RequestOptions{
		Method: http.MethodGet,
		Path:   pathf("/users/%s/roles", userID),
	})
}

func (s *RoleService) RemoveGlobalRoleForUser(ctx context.Context, userID string) (*Response, error) {
	return s.remove(ctx, "remove global role for user", userID, "")
}

func (s *RoleService) RemoveRoomRoleForUser(ctx context.Context, userID, roomID string) (*Response, error) {
	if roomID == "" {
		return nil, missingParameter("remove room role for user", "a room id is required")
	}
	return s.remove(ctx, "remove room role for user", userID, roomID)
}

func (s *RoleService) remove(ctx context.Context, operation, userID, roomID string) (*Response, error) {
	if userID == "" {
		return nil, missingParameter(operation, "a user id is required")
	}

	opts := RequestOptions{
		Method: http.MethodDelete,
		Path:   pathf("/users/%s/roles", userID),
	}
	if roomID != "" {
		opts.Query = url.Values{"room_id": {roomID}}
	}

	return s.client.asSu(ctx, TargetAuthorizer, "", opts)
}

func (s *RoleService) GetPermissionsForGlobalRole(ctx context.Context, name string) (*Response, error) {
	return s.permissions(ctx, "get permissions for global role", ScopeGlobal, name)
}

func (s *RoleService) GetPermissionsForRoomRole(ctx context.Context, name string) (*Response, error) {
	return s.permissions(ctx, "get permissions for room role", ScopeRoom, name)
}

func (s *RoleService) permissions(ctx context.Context, operation string, scope Scope, name string) (*Response, error) {
	if name == "" {
		return nil, missingParameter(operation, "a role name is required")
	}

	return s.client.asSu(ctx, TargetAuthorizer, "", RequestOptions{
		Method: http.MethodGet,
		Path:   pathf("/roles/%s/scope/%s/permissions", name, string(scope)),
	})
}

type UpdateRolePermissionsParams struct {
	Name                string   `json:"-"`
	PermissionsToAdd    []string `json:"add_permissions,omitempty"`
	PermissionsToRemove []string `json:"remove_permissions,omitempty"`
}

func (s *RoleService) UpdatePermissionsForGlobalRole(ctx context.Context, params UpdateRolePermissionsParams) (*Response, error) {
	return s.updatePermissions(ctx, "update permissions for global role", ScopeGlobal, params)
}

func (s *RoleService) UpdatePermissionsForRoomRole(ctx context.Context, params UpdateRolePermissionsParams) (*Response, error) {
	return s.updatePermissions(ctx, "update permissions for room role", ScopeRoom, params)
}

func (s *RoleService) updatePermissions(ctx context.Context, operation string, scope Scope, params UpdateRolePermissionsParams) (*Response, error) {
	if params.Name == "" {
		return nil, missingParameter(operation, "a role name is required")
	}
	if len(params.PermissionsToAdd) == 0 && len(params.PermissionsToRemove) == 0 {
		return nil, missingParameter(operation, "permissions to add and permissions to remove cannot both be empty")
	}

	return s.client.asSu(ctx, TargetAuthorizer, "", RequestOptions{
		Method: http.MethodPut,
		Path:   pathf("/roles/%s/scope/%s/permissions", params.Name, string(scope)),
		Body:   params,
	})
}
