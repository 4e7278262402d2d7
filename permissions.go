package chatkit

import "slices"

// Scope says whether a role applies everywhere or within a single room.
type Scope string

const (
	ScopeRoom   Scope = "room"
	ScopeGlobal Scope = "global"
)

// Permission is a permission identifier as understood by the authorizer.
// The vocabulary belongs to the server; the constants below are the ones
// known to this client.
type Permission = string

const (
	PermissionRoomJoin          Permission = "room:join"
	PermissionRoomLeave         Permission = "room:leave"
	PermissionRoomMembersAdd    Permission = "room:members:add"
	PermissionRoomMembersRemove Permission = "room:members:remove"
	PermissionRoomCreate        Permission = "room:create"
	PermissionRoomDelete        Permission = "room:delete"
	PermissionRoomUpdate        Permission = "room:update"
	PermissionRoomGet           Permission = "room:get"
	PermissionRoomsGet          Permission = "rooms:get"
	PermissionRoomMessagesGet   Permission = "room:messages:get"
	PermissionRoomTypingSet     Permission = "room:typing_indicator:create"
	PermissionMessageCreate     Permission = "message:create"
	PermissionPresenceSubscribe Permission = "presence:subscribe"
	PermissionUserGet           Permission = "user:get"
	PermissionUserUpdate        Permission = "user:update"
	PermissionUserRoomsGet      Permission = "user:rooms:get"
	PermissionFileCreate        Permission = "file:create"
	PermissionFileGet           Permission = "file:get"
	PermissionCursorsReadGet    Permission = "cursors:read:get"
	PermissionCursorsReadSet    Permission = "cursors:read:set"
)

// RoomPermissions can be granted by room scoped roles.
var RoomPermissions = []Permission{
	PermissionRoomJoin,
	PermissionRoomLeave,
	PermissionRoomMembersAdd,
	PermissionRoomMembersRemove,
	PermissionRoomDelete,
	PermissionRoomUpdate,
	PermissionRoomMessagesGet,
	PermissionRoomTypingSet,
	PermissionMessageCreate,
	PermissionPresenceSubscribe,
	PermissionFileCreate,
	PermissionFileGet,
	PermissionCursorsReadGet,
	PermissionCursorsReadSet,
}

// GlobalPermissions can be granted by global roles.
var GlobalPermissions = append([]Permission{
	PermissionRoomCreate,
	PermissionRoomGet,
	PermissionRoomsGet,
	PermissionUserGet,
	PermissionUserUpdate,
	PermissionUserRoomsGet,
}, RoomPermissions...)

// ValidPermission reports whether p is a known permission for scope. Role
// operations do not call it; the server has the final say.
func ValidPermission(scope Scope, p Permission) bool {
	var known []Permission
	switch scope {
	case ScopeRoom:
		known = RoomPermissions
	case ScopeGlobal:
		known = GlobalPermissions
	default:
		return false
	}
	return slices.Contains(known, p)
}
