package chatkittest

import (
	"encoding/json"
	"net/http"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type storeError struct {
	status      int
	errorType   string
	description string
}

func (e *storeError) Error() string {
	return e.errorType + ": " + e.description
}

var (
	errUserNotFound       = &storeError{http.StatusNotFound, "services/chatkit/not_found/user_not_found", "User not found"}
	errUserExists         = &storeError{http.StatusConflict, "services/chatkit/user_already_exists", "User with given id already exists"}
	errRoomNotFound       = &storeError{http.StatusNotFound, "services/chatkit/not_found/room_not_found", "Room not found"}
	errRoomExists         = &storeError{http.StatusConflict, "services/chatkit/room_already_exists", "Room with given id already exists"}
	errNotRoomMember      = &storeError{http.StatusForbidden, "services/chatkit/forbidden/user_not_in_room", "User is not a member of the room"}
	errMessageNotFound    = &storeError{http.StatusNotFound, "services/chatkit/not_found/message_not_found", "Message not found"}
	errAttachmentNotFound = &storeError{http.StatusNotFound, "services/chatkit/not_found/attachment_not_found", "Attachment not found"}
	errAttachmentPending  = &storeError{http.StatusBadRequest, "services/chatkit/bad_request/attachment_not_uploaded", "Attachment has not been uploaded"}
	errRoleNotFound       = &storeError{http.StatusNotFound, "services/chatkit_authorizer/not_found/role_not_found", "Role not found"}
	errRoleExists         = &storeError{http.StatusConflict, "services/chatkit_authorizer/conflict/role_already_exists", "Role with given name and scope already exists"}
	errCursorNotFound     = &storeError{http.StatusNotFound, "services/chatkit_cursors/not_found/cursor_not_found", "Cursor not found"}
	errJobNotFound        = &storeError{http.StatusNotFound, "services/chatkit_scheduler/not_found/job_not_found", "Job not found"}
)

type user struct {
	ID         string
	Name       string
	AvatarURL  string
	CustomData json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type room struct {
	ID          string
	CreatedByID string
	Name        string
	Private     bool
	CustomData  json.RawMessage
	Members     []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type legacyAttachment struct {
	ResourceLink string `json:"resource_link"`
	Type         string `json:"type"`
}

type storedPart struct {
	Type         string
	Content      string
	URL          string
	AttachmentID string
}

type message struct {
	ID         int
	RoomID     string
	UserID     string
	Text       string
	Attachment *legacyAttachment
	Parts      []storedPart
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type attachment struct {
	ID            string
	RoomID        string
	ContentType   string
	ContentLength int
	Name          string
	CustomData    json.RawMessage
	Data          []byte
	Uploaded      bool
}

type role struct {
	Name        string
	Scope       string
	Permissions []string
}

type roleAssignment struct {
	UserID   string
	RoleName string
	Scope    string
	RoomID   string
}

type cursor struct {
	RoomID    string
	UserID    string
	Position  int
	UpdatedAt time.Time
}

type job struct {
	ID     string
	Status string
}

// store is the in-memory state of one fake instance. Every method takes
// the lock itself; records handed out are copies.
type store struct {
	mu  sync.RWMutex
	now func() time.Time

	users       map[string]*user
	userOrder   []string
	rooms       map[string]*room
	roomOrder   []string
	messages    map[string][]*message
	nextMessage int
	attachments map[string]*attachment
	roles       map[string]*role
	assignments []roleAssignment
	cursors     map[string]*cursor
	jobs        map[string]*job
}

func newStore(now func() time.Time) *store {
	s := &store{now: now}
	s.reset()
	return s
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]*user)
	s.userOrder = nil
	s.rooms = make(map[string]*room)
	s.roomOrder = nil
	s.messages = make(map[string][]*message)
	s.nextMessage = 0
	s.attachments = make(map[string]*attachment)
	s.roles = make(map[string]*role)
	s.assignments = nil
	s.cursors = make(map[string]*cursor)
	s.jobs = make(map[string]*job)
}

func roleKey(name, scope string) string {
	return scope + "/" + name
}

func cursorKey(roomID, userID string) string {
	return roomID + "\x00" + userID
}

// Users

func (s *store) createUsers(users []user) ([]user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, u := range users {
		if _, exists := s.users[u.ID]; exists {
			return nil, errUserExists
		}
		for _, other := range users[:i] {
			if other.ID == u.ID {
				return nil, errUserExists
			}
		}
	}

	now := s.now().UTC()
	created := make([]user, 0, len(users))
	for _, u := range users {
		u.CreatedAt, u.UpdatedAt = now, now
		stored := u
		s.users[u.ID] = &stored
		s.userOrder = append(s.userOrder, u.ID)
		created = append(created, u)
	}
	return created, nil
}

type userUpdate struct {
	Name       *string         `json:"name"`
	AvatarURL  *string         `json:"avatar_url"`
	CustomData json.RawMessage `json:"custom_data"`
}

func (s *store) updateUser(id string, update userUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return errUserNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.AvatarURL != nil {
		u.AvatarURL = *update.AvatarURL
	}
	if len(update.CustomData) > 0 {
		u.CustomData = update.CustomData
	}
	u.UpdatedAt = s.now().UTC()
	return nil
}

func (s *store) deleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return errUserNotFound
	}
	delete(s.users, id)
	s.userOrder = slices.DeleteFunc(s.userOrder, func(other string) bool { return other == id })
	for _, r := range s.rooms {
		r.Members = slices.DeleteFunc(r.Members, func(m string) bool { return m == id })
	}
	s.assignments = slices.DeleteFunc(s.assignments, func(a roleAssignment) bool { return a.UserID == id })
	for key, c := range s.cursors {
		if c.UserID == id {
			delete(s.cursors, key)
		}
	}
	return nil
}

func (s *store) getUser(id string) (user, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user{}, errUserNotFound
	}
	return *u, nil
}

// listUsers returns users in creation order, starting at from when it is
// not zero.
func (s *store) listUsers(from time.Time, limit int) []user {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []user{}
	for _, id := range s.userOrder {
		u := s.users[id]
		if !from.IsZero() && u.CreatedAt.Before(from) {
			continue
		}
		users = append(users, *u)
		if limit > 0 && len(users) == limit {
			break
		}
	}
	return users
}

func (s *store) usersByIDs(ids []string) []user {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []user{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, *u)
		}
	}
	return users
}

// Rooms

func (s *store) createRoom(r room) (room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if _, exists := s.rooms[r.ID]; exists {
		return room{}, errRoomExists
	}
	for _, id := range r.Members {
		if _, ok := s.users[id]; !ok {
			return room{}, errUserNotFound
		}
	}

	now := s.now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	r.Members = dedupe(r.Members)
	stored := r
	s.rooms[r.ID] = &stored
	s.roomOrder = append(s.roomOrder, r.ID)
	return r, nil
}

type roomUpdate struct {
	Name       *string         `json:"name"`
	Private    *bool           `json:"private"`
	CustomData json.RawMessage `json:"custom_data"`
}

func (s *store) updateRoom(id string, update roomUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return errRoomNotFound
	}
	if update.Name != nil {
		r.Name = *update.Name
	}
	if update.Private != nil {
		r.Private = *update.Private
	}
	if len(update.CustomData) > 0 {
		r.CustomData = update.CustomData
	}
	r.UpdatedAt = s.now().UTC()
	return nil
}

func (s *store) deleteRoom(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[id]; !ok {
		return errRoomNotFound
	}
	delete(s.rooms, id)
	delete(s.messages, id)
	s.roomOrder = slices.DeleteFunc(s.roomOrder, func(other string) bool { return other == id })
	s.assignments = slices.DeleteFunc(s.assignments, func(a roleAssignment) bool { return a.RoomID == id })
	for key, c := range s.cursors {
		if c.RoomID == id {
			delete(s.cursors, key)
		}
	}
	return nil
}

func (s *store) getRoom(id string) (room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[id]
	if !ok {
		return room{}, errRoomNotFound
	}
	return copyRoom(r), nil
}

// listRooms returns rooms ordered by id, strictly after fromID.
func (s *store) listRooms(fromID string, includePrivate bool) []room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := []room{}
	for _, r := range s.rooms {
		if r.Private && !includePrivate {
			continue
		}
		if fromID != "" && r.ID <= fromID {
			continue
		}
		rooms = append(rooms, copyRoom(r))
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}

// userRooms returns, in creation order, the rooms userID belongs to or,
// when joinable is set, the public rooms it could join.
func (s *store) userRooms(userID string, joinable bool) ([]room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[userID]; !ok {
		return nil, errUserNotFound
	}

	rooms := []room{}
	for _, id := range s.roomOrder {
		r := s.rooms[id]
		member := slices.Contains(r.Members, userID)
		if joinable && (member || r.Private) {
			continue
		}
		if !joinable && !member {
			continue
		}
		rooms = append(rooms, copyRoom(r))
	}
	return rooms, nil
}

// unreadCount counts the messages in a room after the user's read cursor.
func (s *store) unreadCount(roomID, userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	position := 0
	if c, ok := s.cursors[cursorKey(roomID, userID)]; ok {
		position = c.Position
	}

	count := 0
	for _, m := range s.messages[roomID] {
		if m.ID > position {
			count++
		}
	}
	return count
}

func (s *store) addMembers(roomID string, userIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return errRoomNotFound
	}
	for _, id := range userIDs {
		if _, ok := s.users[id]; !ok {
			return errUserNotFound
		}
	}
	r.Members = dedupe(append(r.Members, userIDs...))
	r.UpdatedAt = s.now().UTC()
	return nil
}

func (s *store) removeMembers(roomID string, userIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return errRoomNotFound
	}
	r.Members = slices.DeleteFunc(r.Members, func(m string) bool { return slices.Contains(userIDs, m) })
	r.UpdatedAt = s.now().UTC()
	return nil
}

func copyRoom(r *room) room {
	c := *r
	c.Members = slices.Clone(r.Members)
	return c
}

// dedupe drops repeated ids, keeping the first occurrence.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Messages

func (s *store) createMessage(m message) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[m.RoomID]
	if !ok {
		return 0, errRoomNotFound
	}
	if _, ok := s.users[m.UserID]; !ok {
		return 0, errUserNotFound
	}
	if !slices.Contains(r.Members, m.UserID) {
		return 0, errNotRoomMember
	}
	for _, p := range m.Parts {
		if p.AttachmentID == "" {
			continue
		}
		a, ok := s.attachments[p.AttachmentID]
		if !ok || a.RoomID != m.RoomID {
			return 0, errAttachmentNotFound
		}
		if !a.Uploaded {
			return 0, errAttachmentPending
		}
	}

	s.nextMessage++
	now := s.now().UTC()
	m.ID = s.nextMessage
	m.CreatedAt, m.UpdatedAt = now, now
	stored := m
	s.messages[m.RoomID] = append(s.messages[m.RoomID], &stored)
	return m.ID, nil
}

// listMessages pages through a room. Older pages go backwards from
// initialID (exclusive), newer pages go forwards.
func (s *store) listMessages(roomID string, initialID int, newer bool, limit int) ([]message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.rooms[roomID]; !ok {
		return nil, errRoomNotFound
	}

	all := s.messages[roomID]
	out := []message{}
	if newer {
		for _, m := range all {
			if m.ID > initialID {
				out = append(out, *m)
			}
			if len(out) == limit {
				break
			}
		}
		return out, nil
	}

	for i := len(all) - 1; i >= 0; i-- {
		m := all[i]
		if initialID != 0 && m.ID >= initialID {
			continue
		}
		out = append(out, *m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// deleteMessage removes a message. An empty roomID searches every room.
func (s *store) deleteMessage(roomID string, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for rid, msgs := range s.messages {
		if roomID != "" && rid != roomID {
			continue
		}
		for i, m := range msgs {
			if m.ID == id {
				s.messages[rid] = slices.Delete(msgs, i, i+1)
				return nil
			}
		}
	}
	if roomID != "" {
		if _, ok := s.rooms[roomID]; !ok {
			return errRoomNotFound
		}
	}
	return errMessageNotFound
}

func (s *store) createAttachment(a attachment) (attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[a.RoomID]; !ok {
		return attachment{}, errRoomNotFound
	}
	a.ID = uuid.NewString()
	stored := a
	s.attachments[a.ID] = &stored
	return a, nil
}

func (s *store) storeUpload(id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attachments[id]
	if !ok {
		return errAttachmentNotFound
	}
	if len(data) != a.ContentLength {
		return &storeError{http.StatusBadRequest, "services/chatkit/bad_request/content_length_mismatch", "Uploaded body does not match the declared content length"}
	}
	a.Data = slices.Clone(data)
	a.Uploaded = true
	return nil
}

func (s *store) getAttachment(id string) (attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.attachments[id]
	if !ok {
		return attachment{}, errAttachmentNotFound
	}
	return *a, nil
}

// Roles

func (s *store) createRole(r role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := roleKey(r.Name, r.Scope)
	if _, exists := s.roles[key]; exists {
		return errRoleExists
	}
	r.Permissions = dedupe(r.Permissions)
	s.roles[key] = &r
	return nil
}

func (s *store) deleteRole(name, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := roleKey(name, scope)
	if _, ok := s.roles[key]; !ok {
		return errRoleNotFound
	}
	delete(s.roles, key)
	s.assignments = slices.DeleteFunc(s.assignments, func(a roleAssignment) bool {
		return a.RoleName == name && a.Scope == scope
	})
	return nil
}

func (s *store) listRoles() []role {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := make([]role, 0, len(s.roles))
	for _, r := range s.roles {
		c := *r
		c.Permissions = slices.Clone(r.Permissions)
		roles = append(roles, c)
	}
	sort.Slice(roles, func(i, j int) bool {
		return roleKey(roles[i].Name, roles[i].Scope) < roleKey(roles[j].Name, roles[j].Scope)
	})
	return roles
}

func (s *store) rolePermissions(name, scope string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.roles[roleKey(name, scope)]
	if !ok {
		return nil, errRoleNotFound
	}
	return slices.Clone(r.Permissions), nil
}

func (s *store) updateRolePermissions(name, scope string, add, remove []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.roles[roleKey(name, scope)]
	if !ok {
		return errRoleNotFound
	}
	perms := slices.DeleteFunc(r.Permissions, func(p string) bool { return slices.Contains(remove, p) })
	r.Permissions = dedupe(append(perms, add...))
	return nil
}

// assignRole gives a user a global role, or a room role when roomID is
// set. A user holds at most one role per scope and room.
func (s *store) assignRole(userID, name, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return errUserNotFound
	}
	scope := "global"
	if roomID != "" {
		scope = "room"
		if _, ok := s.rooms[roomID]; !ok {
			return errRoomNotFound
		}
	}
	if _, ok := s.roles[roleKey(name, scope)]; !ok {
		return errRoleNotFound
	}

	s.assignments = slices.DeleteFunc(s.assignments, func(a roleAssignment) bool {
		return a.UserID == userID && a.RoomID == roomID
	})
	s.assignments = append(s.assignments, roleAssignment{UserID: userID, RoleName: name, Scope: scope, RoomID: roomID})
	return nil
}

func (s *store) removeRole(userID, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return errUserNotFound
	}
	s.assignments = slices.DeleteFunc(s.assignments, func(a roleAssignment) bool {
		return a.UserID == userID && a.RoomID == roomID
	})
	return nil
}

type userRole struct {
	roleAssignment
	Permissions []string
}

func (s *store) userRoles(userID string) ([]userRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[userID]; !ok {
		return nil, errUserNotFound
	}

	roles := []userRole{}
	for _, a := range s.assignments {
		if a.UserID != userID {
			continue
		}
		var perms []string
		if r, ok := s.roles[roleKey(a.RoleName, a.Scope)]; ok {
			perms = slices.Clone(r.Permissions)
		}
		roles = append(roles, userRole{roleAssignment: a, Permissions: perms})
	}
	return roles, nil
}

// Cursors

func (s *store) setCursor(roomID, userID string, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return errRoomNotFound
	}
	if _, ok := s.users[userID]; !ok {
		return errUserNotFound
	}
	s.cursors[cursorKey(roomID, userID)] = &cursor{
		RoomID:    roomID,
		UserID:    userID,
		Position:  position,
		UpdatedAt: s.now().UTC(),
	}
	return nil
}

func (s *store) getCursor(roomID, userID string) (cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cursors[cursorKey(roomID, userID)]
	if !ok {
		return cursor{}, errCursorNotFound
	}
	return *c, nil
}

// findCursors returns the cursors matching match, ordered by room then user.
func (s *store) findCursors(match func(cursor) bool) []cursor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cursors := []cursor{}
	for _, c := range s.cursors {
		if match(*c) {
			cursors = append(cursors, *c)
		}
	}
	sort.Slice(cursors, func(i, j int) bool {
		return cursorKey(cursors[i].RoomID, cursors[i].UserID) < cursorKey(cursors[j].RoomID, cursors[j].UserID)
	})
	return cursors
}

// Jobs

func (s *store) putJob(status string) job {
	s.mu.Lock()
	defer s.mu.Unlock()

	j := job{ID: uuid.NewString(), Status: status}
	s.jobs[j.ID] = &j
	return j
}

func (s *store) getJob(id string) (job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return job{}, errJobNotFound
	}
	return *j, nil
}
