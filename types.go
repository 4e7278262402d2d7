package chatkit

import (
	"encoding/json"
	"time"
)

// The types below mirror the documents returned by the services. Decode a
// Response into them when typed access is more convenient than Get.

type User struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	AvatarURL  string          `json:"avatar_url,omitempty"`
	CustomData json.RawMessage `json:"custom_data,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type Room struct {
	ID            string          `json:"id"`
	CreatedByID   string          `json:"created_by_id"`
	Name          string          `json:"name"`
	Private       bool            `json:"private"`
	CustomData    json.RawMessage `json:"custom_data,omitempty"`
	MemberUserIDs []string        `json:"member_user_ids,omitempty"`
	UnreadCount   *int            `json:"unread_count,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type Message struct {
	ID         int                `json:"id"`
	UserID     string             `json:"user_id"`
	RoomID     string             `json:"room_id"`
	Text       string             `json:"text,omitempty"`
	Attachment *MessageAttachment `json:"attachment,omitempty"`
	Parts      []MessagePartView  `json:"parts,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type MessageAttachment struct {
	ResourceLink string `json:"resource_link"`
	Type         string `json:"type"`
}

// MessagePartView is a part of a fetched multipart message.
type MessagePartView struct {
	Type       string          `json:"type"`
	Content    string          `json:"content,omitempty"`
	URL        string          `json:"url,omitempty"`
	Attachment *AttachmentView `json:"attachment,omitempty"`
}

type AttachmentView struct {
	ID          string          `json:"id"`
	DownloadURL string          `json:"download_url"`
	RefreshURL  string          `json:"refresh_url,omitempty"`
	Expiration  time.Time       `json:"expiration"`
	Name        string          `json:"name,omitempty"`
	Size        int             `json:"size"`
	CustomData  json.RawMessage `json:"custom_data,omitempty"`
}

// SentMessage is the body answered by the send operations.
type SentMessage struct {
	MessageID int `json:"message_id"`
}

type Cursor struct {
	CursorType int       `json:"cursor_type"`
	Position   int       `json:"position"`
	RoomID     string    `json:"room_id"`
	UserID     string    `json:"user_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Role struct {
	Name        string   `json:"name"`
	Scope       Scope    `json:"scope"`
	Permissions []string `json:"permissions"`
}

// UserRole is a role assignment as listed for a user.
type UserRole struct {
	RoleName    string   `json:"role_name"`
	Scope       Scope    `json:"scope"`
	RoomID      string   `json:"room_id,omitempty"`
	Permissions []string `json:"permissions"`
}

// Job tracks an asynchronous deletion.
type Job struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
