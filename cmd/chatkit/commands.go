package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hilthontt/chatkit"
	"github.com/spf13/pflag"
)

type execFunc func(ctx context.Context, c *chatkit.Client) (any, error)

// command registers its flags on a fresh flag set and returns the function
// that runs it with the parsed values.
type command struct {
	summary string
	flags   func(fs *pflag.FlagSet) execFunc
}

func customData(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("--custom-data must be a JSON object: %w", err)
	}
	return data, nil
}

// optional returns a pointer to the flag value only when it was set.
func optional[T any](fs *pflag.FlagSet, name string, v *T) *T {
	if fs.Changed(name) {
		return v
	}
	return nil
}

var commands = map[string]command{
	"token issue": {
		summary: "mint an access token",
		flags: func(fs *pflag.FlagSet) execFunc {
			user := fs.String("user", "", "user id the token is issued for")
			su := fs.Bool("su", false, "issue a super user token")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				payload, err := c.GenerateAccessToken(ctx, chatkit.TokenOptions{UserID: *user, Su: *su})
				if err != nil {
					return nil, err
				}
				return map[string]any{"token": payload.Token, "expires_in": payload.ExpiresIn}, nil
			}
		},
	},

	"users create": {
		summary: "create a user",
		flags: func(fs *pflag.FlagSet) execFunc {
			id := fs.String("id", "", "user id, a random uuid when omitted")
			name := fs.String("name", "", "display name")
			avatar := fs.String("avatar-url", "", "avatar url")
			data := fs.String("custom-data", "", "custom data as a JSON object")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				cd, err := customData(*data)
				if err != nil {
					return nil, err
				}
				if *id == "" {
					*id = uuid.NewString()
				}
				return c.Users.Create(ctx, chatkit.CreateUserParams{
					ID:         *id,
					Name:       *name,
					AvatarURL:  optional(fs, "avatar-url", avatar),
					CustomData: cd,
				})
			}
		},
	},
	"users get": {
		summary: "show a user",
		flags: func(fs *pflag.FlagSet) execFunc {
			id := fs.String("id", "", "user id")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				return c.Users.Get(ctx, *id)
			}
		},
	},
	"users list": {
		summary: "list users in creation order",
		flags: func(fs *pflag.FlagSet) execFunc {
			from := fs.String("from-ts", "", "only users created at or after this RFC 3339 timestamp")
			limit := fs.Int("limit", 0, "maximum number of users")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				return c.Users.List(ctx, chatkit.ListUsersParams{
					FromTimestamp: optional(fs, "from-ts", from),
					Limit:         optional(fs, "limit", limit),
				})
			}
		},
	},
	"users update": {
		summary: "update a user",
		flags: func(fs *pflag.FlagSet) execFunc {
			id := fs.String("id", "", "user id")
			name := fs.String("name", "", "display name")
			avatar := fs.String("avatar-url", "", "avatar url")
			data := fs.String("custom-data", "", "custom data as a JSON object")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				cd, err := customData(*data)
				if err != nil {
					return nil, err
				}
				return c.Users.Update(ctx, chatkit.UpdateUserParams{
					ID:         *id,
					Name:       optional(fs, "name", name),
					AvatarURL:  optional(fs, "avatar-url", avatar),
					CustomData: cd,
				})
			}
		},
	},
	"users delete": {
		summary: "delete a user",
		flags: func(fs *pflag.FlagSet) execFunc {
			id := fs.String("id", "", "user id")
			async := fs.Bool("async", false, "delete through the scheduler and print the job")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				if *async {
					return c.Users.AsyncDelete(ctx, *id)
				}
				return c.Users.Delete(ctx, *id)
			}
		},
	},
	"users rooms": {
		summary: "list the rooms of a user",
		flags: func(fs *pflag.FlagSet) execFunc {
			id := fs.String("id", "", "user id")
			joinable := fs.Bool("joinable", false, "list public rooms the user could join instead")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				if *joinable {
					return c.Users.GetJoinableRooms(ctx, *id)
				}
				return c.Users.GetRooms(ctx, *id)
			}
		},
	},

	"rooms create": {
		summary: "create a room",
		flags: func(fs *pflag.FlagSet) execFunc {
			id := fs.String("id", "", "room id, generated when omitted")
			creator := fs.String("creator", "", "id of the creating user")
			name := fs.String("name", "", "room name")
			private := fs.Bool("private", false, "make the room private")
			members := fs.StringSlice("members", nil, "ids of additional members")
			data := fs.String("custom-data", "", "custom data as a JSON object")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				cd, err := customData(*data)
				if err != nil {
					return nil, err
				}
				return c.Rooms.Create(ctx, chatkit.CreateRoomParams{
					ID:         optional(fs, "id", id),
					CreatorID:  *creator,
					Name:       *name,
					Private:    optional(fs, "private", private),
					CustomData: cd,
					UserIDs:    *members,
				})
			}
		},
	},
	"rooms get": {
		summary: "show a room",
		flags: func(fs *pflag.FlagSet) execFunc {
			id := fs.String("id", "", "room id")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				return c.Rooms.Get(ctx, *id)
			}
		},
	},
	"rooms list": {
		summary: "list rooms ordered by id",
		flags: func(fs *pflag.FlagSet) execFunc {
			from := fs.String("from-id", "", "only rooms after this id")
			private := fs.Bool("include-private", false, "include private rooms")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				return c.Rooms.List(ctx, chatkit.ListRoomsParams{
					FromID:         optional(fs, "from-id", from),
					IncludePrivate: optional(fs, "include-private", private),
				})
			}
		},
	},
	"rooms delete": {
		summary: "delete a room",
		flags: func(fs *pflag.FlagSet) execFunc {
			id := fs.String("id", "", "room id")
			async := fs.Bool("async", false, "delete through the scheduler and print the job")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				if *async {
					return c.Rooms.AsyncDelete(ctx, *id)
				}
				return c.Rooms.Delete(ctx, *id)
			}
		},
	},
	"rooms add-users": {
		summary: "add members to a room",
		flags: func(fs *pflag.FlagSet) execFunc {
			room := fs.String("room", "", "room id")
			users := fs.StringSlice("users", nil, "user ids")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				return c.Rooms.AddUsers(ctx, chatkit.RoomUsersParams{RoomID: *room, UserIDs: *users})
			}
		},
	},
	"rooms remove-users": {
		summary: "remove members from a room",
		flags: func(fs *pflag.FlagSet) execFunc {
			room := fs.String("room", "", "room id")
			users := fs.StringSlice("users", nil, "user ids")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				return c.Rooms.RemoveUsers(ctx, chatkit.RoomUsersParams{RoomID: *room, UserIDs: *users})
			}
		},
	},

	"messages send": {
		summary: "send a text message",
		flags: func(fs *pflag.FlagSet) execFunc {
			room := fs.String("room", "", "room id")
			sender := fs.String("sender", "", "sender user id")
			text := fs.String("text", "", "message text")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				return c.Messages.SendSimple(ctx, chatkit.SendSimpleMessageParams{RoomID: *room, SenderID: *sender, Text: *text})
			}
		},
	},
	"messages list": {
		summary: "page through the messages of a room",
		flags: func(fs *pflag.FlagSet) execFunc {
			room := fs.String("room", "", "room id")
			initial := fs.Int("initial-id", 0, "message id to page from")
			direction := fs.String("direction", "", "older or newer")
			limit := fs.Int("limit", 0, "maximum number of messages")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				params := chatkit.ListMessagesParams{
					RoomID:    *room,
					InitialID: optional(fs, "initial-id", initial),
					Limit:     optional(fs, "limit", limit),
				}
				if fs.Changed("direction") {
					d := chatkit.Direction(*direction)
					params.Direction = &d
				}
				return c.Messages.Fetch(ctx, params)
			}
		},
	},
	"messages delete": {
		summary: "delete a message",
		flags: func(fs *pflag.FlagSet) execFunc {
			id := fs.Int("id", 0, "message id")
			room := fs.String("room", "", "room id of the message")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				return c.Messages.Delete(ctx, chatkit.DeleteMessageParams{MessageID: *id, RoomID: *room})
			}
		},
	},

	"roles create": {
		summary: "create a role",
		flags: func(fs *pflag.FlagSet) execFunc {
			name := fs.String("name", "", "role name")
			scope := fs.String("scope", string(chatkit.ScopeGlobal), "global or room")
			perms := fs.StringSlice("permissions", []string{}, "permissions granted by the role")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				params := chatkit.CreateRoleParams{Name: *name, Permissions: *perms}
				switch chatkit.Scope(*scope) {
				case chatkit.ScopeGlobal:
					return c.Roles.CreateGlobalRole(ctx, params)
				case chatkit.ScopeRoom:
					return c.Roles.CreateRoomRole(ctx, params)
				}
				return nil, fmt.Errorf("unknown scope %q", *scope)
			}
		},
	},
	"roles delete": {
		summary: "delete a role",
		flags: func(fs *pflag.FlagSet) execFunc {
			name := fs.String("name", "", "role name")
			scope := fs.String("scope", string(chatkit.ScopeGlobal), "global or room")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				switch chatkit.Scope(*scope) {
				case chatkit.ScopeGlobal:
					return c.Roles.DeleteGlobalRole(ctx, *name)
				case chatkit.ScopeRoom:
					return c.Roles.DeleteRoomRole(ctx, *name)
				}
				return nil, fmt.Errorf("unknown scope %q", *scope)
			}
		},
	},
	"roles list": {
		summary: "list roles",
		flags: func(fs *pflag.FlagSet) execFunc {
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				return c.Roles.List(ctx)
			}
		},
	},
	"roles assign": {
		summary: "assign a role to a user, in a room when --room is set",
		flags: func(fs *pflag.FlagSet) execFunc {
			user := fs.String("user", "", "user id")
			name := fs.String("name", "", "role name")
			room := fs.String("room", "", "room id for room roles")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				params := chatkit.AssignRoleParams{UserID: *user, Name: *name, RoomID: *room}
				if *room != "" {
					return c.Roles.AssignRoomRoleToUser(ctx, params)
				}
				return c.Roles.AssignGlobalRoleToUser(ctx, params)
			}
		},
	},
	"roles user": {
		summary: "list the roles of a user",
		flags: func(fs *pflag.FlagSet) execFunc {
			user := fs.String("user", "", "user id")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				return c.Roles.GetUserRoles(ctx, *user)
			}
		},
	},

	"cursors set": {
		summary: "set a read cursor",
		flags: func(fs *pflag.FlagSet) execFunc {
			room := fs.String("room", "", "room id")
			user := fs.String("user", "", "user id")
			position := fs.Int("position", 0, "id of the last read message")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				return c.Cursors.SetReadCursor(ctx, chatkit.SetReadCursorParams{
					RoomID:   *room,
					UserID:   *user,
					Position: optional(fs, "position", position),
				})
			}
		},
	},
	"cursors get": {
		summary: "show a read cursor",
		flags: func(fs *pflag.FlagSet) execFunc {
			room := fs.String("room", "", "room id")
			user := fs.String("user", "", "user id")
			return func(ctx context.Context, c *chatkit.Client) (any, error) {
				return c.Cursors.GetReadCursor(ctx, chatkit.ReadCursorParams{RoomID: *room, UserID: *user})
			}
		},
	},
}
