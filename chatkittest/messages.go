package chatkittest

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"
)

const defaultMessageLimit = 20

func (s *Server) sendMessageV2(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text       string            `json:"text"`
		Attachment *legacyAttachment `json:"attachment"`
	}
	if err := readJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeBadRequest(w, "A message requires text")
		return
	}

	s.createMessage(w, message{
		RoomID:     param(r, "roomID"),
		UserID:     actingUser(r),
		Text:       req.Text,
		Attachment: req.Attachment,
	})
}

func (s *Server) sendMessageV3(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || !gjson.ValidBytes(body) {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	parts := gjson.GetBytes(body, "parts").Array()
	if len(parts) == 0 {
		writeBadRequest(w, "A message requires at least one part")
		return
	}

	stored := make([]storedPart, 0, len(parts))
	for _, p := range parts {
		part := storedPart{
			Type:         p.Get("type").String(),
			Content:      p.Get("content").String(),
			URL:          p.Get("url").String(),
			AttachmentID: p.Get("attachment.id").String(),
		}
		set := 0
		for _, field := range []string{part.Content, part.URL, part.AttachmentID} {
			if field != "" {
				set++
			}
		}
		if part.Type == "" || set != 1 {
			writeBadRequest(w, "Every part needs a type and exactly one of content, url or attachment")
			return
		}
		stored = append(stored, part)
	}

	s.createMessage(w, message{
		RoomID: param(r, "roomID"),
		UserID: actingUser(r),
		Parts:  stored,
	})
}

func (s *Server) createMessage(w http.ResponseWriter, m message) {
	id, err := s.store.createMessage(m)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"message_id": id})
}

func (s *Server) listMessagesV2(w http.ResponseWriter, r *http.Request) {
	msgs, ok := s.listMessages(w, r)
	if !ok {
		return
	}
	writeRaw(w, http.StatusOK, documentList(msgs, messageV2Document))
}

func (s *Server) listMessagesV3(w http.ResponseWriter, r *http.Request) {
	msgs, ok := s.listMessages(w, r)
	if !ok {
		return
	}
	writeRaw(w, http.StatusOK, documentList(msgs, s.messageV3Document))
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) ([]message, bool) {
	q := r.URL.Query()

	initialID := 0
	if raw := q.Get("initial_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 0 {
			writeBadRequest(w, "initial_id must be a message id")
			return nil, false
		}
		initialID = id
	}

	var newer bool
	switch q.Get("direction") {
	case "", "older":
	case "newer":
		newer = true
	default:
		writeBadRequest(w, "direction must be older or newer")
		return nil, false
	}

	limit, ok := queryLimit(w, r)
	if !ok {
		return nil, false
	}
	if limit == 0 {
		limit = defaultMessageLimit
	}

	msgs, err := s.store.listMessages(param(r, "roomID"), initialID, newer, limit)
	if err != nil {
		writeStoreError(w, err)
		return nil, false
	}
	return msgs, true
}

// deleteMessage serves both the legacy instance-wide route and the
// room-scoped one.
func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(param(r, "messageID"))
	if err != nil {
		writeBadRequest(w, "message id must be an integer")
		return
	}
	if err := s.store.deleteMessage(param(r, "roomID"), id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createAttachment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContentType   string          `json:"content_type"`
		ContentLength int             `json:"content_length"`
		Name          string          `json:"name"`
		CustomData    json.RawMessage `json:"custom_data"`
	}
	if err := readJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}
	if req.ContentType == "" || req.ContentLength <= 0 {
		writeBadRequest(w, "An attachment requires a content_type and a positive content_length")
		return
	}

	a, err := s.store.createAttachment(attachment{
		RoomID:        param(r, "roomID"),
		ContentType:   req.ContentType,
		ContentLength: req.ContentLength,
		Name:          req.Name,
		CustomData:    req.CustomData,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"attachment_id": a.ID,
		"upload_url":    s.URL + "/uploads/" + a.ID,
	})
}

func (s *Server) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.uploadStatus
	s.mu.Unlock()
	if status != 0 {
		writeError(w, status, "services/chatkit/upload_failed", "Upload rejected")
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "Could not read upload body")
		return
	}
	if err := s.store.storeUpload(param(r, "attachmentID"), data); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) downloadAttachment(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.getAttachment(param(r, "attachmentID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !a.Uploaded {
		writeStoreError(w, errAttachmentPending)
		return
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}
