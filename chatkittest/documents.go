package chatkittest

import (
	"encoding/json"
	"time"

	"github.com/tidwall/sjson"
)

// Documents are built as JSON first and then patched with sjson, so that
// optional fields are only present when they hold a value.

func appendDocument(list, doc []byte) []byte {
	out, err := sjson.SetRawBytes(list, "-1", doc)
	if err != nil {
		return list
	}
	return out
}

func documentList[T any](items []T, build func(T) []byte) []byte {
	list := []byte("[]")
	for _, item := range items {
		list = appendDocument(list, build(item))
	}
	return list
}

func withRaw(doc []byte, path string, raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return doc
	}
	out, err := sjson.SetRawBytes(doc, path, raw)
	if err != nil {
		return doc
	}
	return out
}

func with(doc []byte, path string, value any) []byte {
	out, err := sjson.SetBytes(doc, path, value)
	if err != nil {
		return doc
	}
	return out
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func userDocument(u user) []byte {
	doc := mustMarshal(struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		AvatarURL string    `json:"avatar_url,omitempty"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}{u.ID, u.Name, u.AvatarURL, u.CreatedAt, u.UpdatedAt})
	return withRaw(doc, "custom_data", u.CustomData)
}

func roomDocument(r room) []byte {
	members := r.Members
	if members == nil {
		members = []string{}
	}
	doc := mustMarshal(struct {
		ID            string    `json:"id"`
		CreatedByID   string    `json:"created_by_id"`
		Name          string    `json:"name"`
		Private       bool      `json:"private"`
		MemberUserIDs []string  `json:"member_user_ids"`
		CreatedAt     time.Time `json:"created_at"`
		UpdatedAt     time.Time `json:"updated_at"`
	}{r.ID, r.CreatedByID, r.Name, r.Private, members, r.CreatedAt, r.UpdatedAt})
	return withRaw(doc, "custom_data", r.CustomData)
}

// messageV2Document renders a message in the single text format. Messages
// sent as parts expose their first inline part as text.
func messageV2Document(m message) []byte {
	text := m.Text
	attach := m.Attachment
	for _, p := range m.Parts {
		switch {
		case p.Content != "" && text == "":
			text = p.Content
		case p.URL != "" && attach == nil:
			attach = &legacyAttachment{ResourceLink: p.URL, Type: "file"}
		}
	}

	doc := mustMarshal(struct {
		ID        int       `json:"id"`
		UserID    string    `json:"user_id"`
		RoomID    string    `json:"room_id"`
		Text      string    `json:"text"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}{m.ID, m.UserID, m.RoomID, text, m.CreatedAt, m.UpdatedAt})
	if attach != nil {
		doc = withRaw(doc, "attachment", mustMarshal(attach))
	}
	return doc
}

func (s *Server) messageV3Document(m message) []byte {
	doc := mustMarshal(struct {
		ID        int       `json:"id"`
		UserID    string    `json:"user_id"`
		RoomID    string    `json:"room_id"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}{m.ID, m.UserID, m.RoomID, m.CreatedAt, m.UpdatedAt})

	parts := m.Parts
	if len(parts) == 0 {
		parts = []storedPart{{Type: "text/plain", Content: m.Text}}
		if m.Attachment != nil {
			parts = append(parts, storedPart{Type: m.Attachment.Type, URL: m.Attachment.ResourceLink})
		}
	}

	list := []byte("[]")
	for _, p := range parts {
		part := mustMarshal(map[string]string{"type": p.Type})
		switch {
		case p.AttachmentID != "":
			part = withRaw(part, "attachment", s.attachmentDocument(p.AttachmentID))
		case p.URL != "":
			part = with(part, "url", p.URL)
		default:
			part = with(part, "content", p.Content)
		}
		list = appendDocument(list, part)
	}
	return withRaw(doc, "parts", list)
}

func (s *Server) attachmentDocument(id string) []byte {
	a, err := s.store.getAttachment(id)
	if err != nil {
		return mustMarshal(map[string]string{"id": id})
	}

	doc := mustMarshal(struct {
		ID          string    `json:"id"`
		DownloadURL string    `json:"download_url"`
		RefreshURL  string    `json:"refresh_url"`
		Expiration  time.Time `json:"expiration"`
		Size        int       `json:"size"`
	}{
		ID:          a.ID,
		DownloadURL: s.URL + "/downloads/" + a.ID,
		RefreshURL:  s.URL + "/downloads/" + a.ID,
		Expiration:  s.now().UTC().Add(time.Hour),
		Size:        a.ContentLength,
	})
	if a.Name != "" {
		doc = with(doc, "name", a.Name)
	}
	return withRaw(doc, "custom_data", a.CustomData)
}

func cursorDocument(c cursor) []byte {
	return mustMarshal(struct {
		CursorType int       `json:"cursor_type"`
		Position   int       `json:"position"`
		RoomID     string    `json:"room_id"`
		UserID     string    `json:"user_id"`
		UpdatedAt  time.Time `json:"updated_at"`
	}{0, c.Position, c.RoomID, c.UserID, c.UpdatedAt})
}
