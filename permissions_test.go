package chatkit

import "testing"

func TestValidPermission(t *testing.T) {
	tests := []struct {
		scope Scope
		perm  Permission
		want  bool
	}{
		{ScopeRoom, PermissionMessageCreate, true},
		{ScopeGlobal, PermissionMessageCreate, true},
		{ScopeRoom, PermissionRoomCreate, false},
		{ScopeGlobal, PermissionRoomCreate, true},
		{ScopeGlobal, "room:fly", false},
		{"galaxy", PermissionMessageCreate, false},
	}

	for _, tt := range tests {
		if got := ValidPermission(tt.scope, tt.perm); got != tt.want {
			t.Errorf("ValidPermission(%s, %s) = %v, want %v", tt.scope, tt.perm, got, tt.want)
		}
	}
}
