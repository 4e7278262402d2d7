package chatkit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/hilthontt/chatkit/internal/apiquery"
	"go.uber.org/zap"
)

// AttachmentTypes are the accepted types of a legacy message attachment.
var AttachmentTypes = []string{"image", "video", "audio", "file"}

type Direction string

const (
	DirectionOlder Direction = "older"
	DirectionNewer Direction = "newer"
)

type MessageService struct {
	client *Client
}

type Attachment struct {
	ResourceLink string `json:"resource_link"`
	Type         string `json:"type"`
}

type SendMessageParams struct {
	RoomID     string      `json:"-"`
	SenderID   string      `json:"-"`
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Send posts a text message, optionally linking one attachment, through
// the v2 API.
func (s *MessageService) Send(ctx context.Context, params SendMessageParams) (*Response, error) {
	const operation = "send message"
	if params.RoomID == "" {
		return nil, missingParameter(operation, "a room id is required")
	}
	if params.SenderID == "" {
		return nil, missingParameter(operation, "a sender id is required")
	}
	if params.Text == "" {
		return nil, missingParameter(operation, "text is required")
	}
	if a := params.Attachment; a != nil {
		if a.ResourceLink == "" {
			return nil, missingParameter(operation, "an attachment resource link is required")
		}
		if !slices.Contains(AttachmentTypes, a.Type) {
			return nil, missingParameter(operation, "attachment type must be one of %s", strings.Join(AttachmentTypes, ", "))
		}
	}

	return s.client.asSu(ctx, TargetAPIV2, params.SenderID, RequestOptions{
		Method: http.MethodPost,
		Path:   pathf("/rooms/%s/messages", params.RoomID),
		Body:   params,
	})
}

type SendSimpleMessageParams struct {
	RoomID   string
	SenderID string
	Text     string
}

// SendSimple posts a message made of a single text/plain part.
func (s *MessageService) SendSimple(ctx context.Context, params SendSimpleMessageParams) (*Response, error) {
	const operation = "send simple message"
	if params.RoomID == "" {
		return nil, missingParameter(operation, "a room id is required")
	}
	if params.SenderID == "" {
		return nil, missingParameter(operation, "a sender id is required")
	}
	if params.Text == "" {
		return nil, missingParameter(operation, "text is required")
	}

	return s.SendMultipart(ctx, SendMultipartMessageParams{
		RoomID:   params.RoomID,
		SenderID: params.SenderID,
		Parts:    []MessagePart{InlinePart{Type: "text/plain", Content: params.Text}},
	})
}

// MessagePart is implemented by InlinePart, URLPart and AttachmentPart.
// Pointers to them are accepted too; a nil pointer is rejected as an empty
// part.
type MessagePart interface {
	isMessagePart()
}

// InlinePart carries its content in the message itself.
type InlinePart struct {
	Type    string
	Content string
}

// URLPart references content hosted elsewhere.
type URLPart struct {
	Type string
	URL  string
}

// AttachmentPart is uploaded to Chatkit's storage before the message is
// sent.
type AttachmentPart struct {
	Type       string
	File       []byte
	Name       string
	CustomData map[string]any
}

func (InlinePart) isMessagePart()     {}
func (URLPart) isMessagePart()        {}
func (AttachmentPart) isMessagePart() {}

type SendMultipartMessageParams struct {
	RoomID   string
	SenderID string
	Parts    []MessagePart
}

type wirePart struct {
	Type       string          `json:"type"`
	Content    string          `json:"content,omitempty"`
	URL        string          `json:"url,omitempty"`
	Attachment *wireAttachment `json:"attachment,omitempty"`
}

type wireAttachment struct {
	ID string `json:"id"`
}

// SendMultipart posts a message through the v3 API. Attachment parts are
// uploaded first, in order; the message is only sent once every upload
// has succeeded.
func (s *MessageService) SendMultipart(ctx context.Context, params SendMultipartMessageParams) (*Response, error) {
	const operation = "send multipart message"
	if params.RoomID == "" {
		return nil, missingParameter(operation, "a room id is required")
	}
	if params.SenderID == "" {
		return nil, missingParameter(operation, "a sender id is required")
	}
	if len(params.Parts) == 0 {
		return nil, missingParameter(operation, "at least one part is required")
	}
	resolved := make([]MessagePart, len(params.Parts))
	for i, part := range params.Parts {
		p, err := validatePart(operation, i, part)
		if err != nil {
			return nil, err
		}
		resolved[i] = p
	}

	parts := make([]wirePart, 0, len(resolved))
	for _, part := range resolved {
		switch p := part.(type) {
		case InlinePart:
			parts = append(parts, wirePart{Type: p.Type, Content: p.Content})
		case URLPart:
			parts = append(parts, wirePart{Type: p.Type, URL: p.URL})
		case AttachmentPart:
			id, err := s.upload(ctx, params.RoomID, params.SenderID, p)
			if err != nil {
				return nil, err
			}
			parts = append(parts, wirePart{Type: p.Type, Attachment: &wireAttachment{ID: id}})
		}
	}

	return s.client.asSu(ctx, TargetAPIV3, params.SenderID, RequestOptions{
		Method: http.MethodPost,
		Path:   pathf("/rooms/%s/messages", params.RoomID),
		Body:   map[string]any{"parts": parts},
	})
}

// validatePart checks one part and returns it in value form.
func validatePart(operation string, i int, part MessagePart) (MessagePart, error) {
	switch p := part.(type) {
	case *InlinePart:
		if p == nil {
			return nil, missingParameter(operation, "part %d is empty", i)
		}
		part = *p
	case *URLPart:
		if p == nil {
			return nil, missingParameter(operation, "part %d is empty", i)
		}
		part = *p
	case *AttachmentPart:
		if p == nil {
			return nil, missingParameter(operation, "part %d is empty", i)
		}
		part = *p
	}

	switch p := part.(type) {
	case nil:
		return nil, missingParameter(operation, "part %d is empty", i)
	case InlinePart:
		if p.Type == "" {
			return nil, missingParameter(operation, "part %d requires a type", i)
		}
		if p.Content == "" {
			return nil, missingParameter(operation, "part %d requires content", i)
		}
	case URLPart:
		if p.Type == "" {
			return nil, missingParameter(operation, "part %d requires a type", i)
		}
		if p.URL == "" {
			return nil, missingParameter(operation, "part %d requires a url", i)
		}
	case AttachmentPart:
		if p.Type == "" {
			return nil, missingParameter(operation, "part %d requires a type", i)
		}
		if len(p.File) == 0 {
			return nil, missingParameter(operation, "part %d requires a non-empty file", i)
		}
	default:
		return nil, missingParameter(operation, "part %d has unsupported type %T", i, part)
	}
	return part, nil
}

const (
	// maxUploadErrorBody bounds how much of a failed upload response is
	// kept on UploadError.Response.
	maxUploadErrorBody = 64 << 10
	// maxUploadErrorMessage bounds the part of it quoted in the message.
	maxUploadErrorMessage = 512
)

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

type attachmentRequest struct {
	ContentType   string         `json:"content_type"`
	ContentLength int            `json:"content_length"`
	Name          string         `json:"name,omitempty"`
	CustomData    map[string]any `json:"custom_data,omitempty"`
}

type attachmentResponse struct {
	AttachmentID string `json:"attachment_id"`
	UploadURL    string `json:"upload_url"`
}

func (s *MessageService) upload(ctx context.Context, roomID, senderID string, part AttachmentPart) (string, error) {
	res, err := s.client.asSu(ctx, TargetAPIV3, senderID, RequestOptions{
		Method: http.MethodPost,
		Path:   pathf("/rooms/%s/attachments", roomID),
		Body: attachmentRequest{
			ContentType:   part.Type,
			ContentLength: len(part.File),
			Name:          part.Name,
			CustomData:    part.CustomData,
		},
	})
	if err != nil {
		return "", err
	}

	var attachment attachmentResponse
	if err := res.Decode(&attachment); err != nil {
		return "", err
	}
	if attachment.UploadURL == "" || attachment.AttachmentID == "" {
		return "", &Error{Message: "attachment response is missing the upload url or id"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, attachment.UploadURL, bytes.NewReader(part.File))
	if err != nil {
		return "", &Error{Message: "build upload request: " + err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", part.Type)

	uploadRes, err := s.client.uploader.Do(req)
	if err != nil {
		return "", &Error{Message: "upload attachment: " + err.Error(), Err: err}
	}
	defer uploadRes.Body.Close()

	if uploadRes.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(uploadRes.Body, maxUploadErrorBody))
		uploadRes.Body = io.NopCloser(bytes.NewReader(body))

		s.client.logger.Warn("attachment upload failed",
			zap.String("room_id", roomID),
			zap.String("attachment_id", attachment.AttachmentID),
			zap.Int("status", uploadRes.StatusCode),
			zap.ByteString("body", truncate(body, maxUploadErrorMessage)),
		)

		message := fmt.Sprintf("failed to upload attachment %s: status %d", attachment.AttachmentID, uploadRes.StatusCode)
		if detail := bytes.TrimSpace(truncate(body, maxUploadErrorMessage)); len(detail) > 0 {
			message += ": " + string(detail)
		}
		return "", &UploadError{Message: message, Response: uploadRes}
	}
	_, _ = io.Copy(io.Discard, uploadRes.Body)

	return attachment.AttachmentID, nil
}

type ListMessagesParams struct {
	RoomID    string     `query:"-"`
	InitialID *int       `query:"initial_id"`
	Direction *Direction `query:"direction"`
	Limit     *int       `query:"limit"`
}

// List fetches messages in the v2 format, newest first unless Direction
// says otherwise.
func (s *MessageService) List(ctx context.Context, params ListMessagesParams) (*Response, error) {
	return s.list(ctx, "get room messages", TargetAPIV2, params)
}

// Fetch fetches messages in the multipart (v3) format.
func (s *MessageService) Fetch(ctx context.Context, params ListMessagesParams) (*Response, error) {
	return s.list(ctx, "fetch multipart messages", TargetAPIV3, params)
}

func (s *MessageService) list(ctx context.Context, operation string, target Target, params ListMessagesParams) (*Response, error) {
	if params.RoomID == "" {
		return nil, missingParameter(operation, "a room id is required")
	}

	return s.client.asSu(ctx, target, "", RequestOptions{
		Method: http.MethodGet,
		Path:   pathf("/rooms/%s/messages", params.RoomID),
		Query:  apiquery.Marshal(params),
	})
}

type DeleteMessageParams struct {
	MessageID int
	// RoomID scopes the deletion to a room through the v3 API. Without it
	// the message is deleted through the v1 API.
	RoomID string
}

func (s *MessageService) Delete(ctx context.Context, params DeleteMessageParams) (*Response, error) {
	if params.MessageID == 0 {
		return nil, missingParameter("delete message", "a message id is required")
	}

	id := strconv.Itoa(params.MessageID)
	if params.RoomID == "" {
		return s.client.asSu(ctx, TargetAPIV1, "", RequestOptions{
			Method: http.MethodDelete,
			Path:   pathf("/messages/%s", id),
		})
	}

	return s.client.asSu(ctx, TargetAPIV3, "", RequestOptions{
		Method: http.MethodDelete,
		Path:   pathf("/rooms/%s/messages/%s", params.RoomID, id),
	})
}
