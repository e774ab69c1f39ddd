package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"alumniportal/internal/model"
	"alumniportal/internal/repository"
	"alumniportal/pkg/apperror"
)

// In-memory repository fakes. They enforce the same uniqueness and
// compare-and-set semantics as the real postgres-backed implementations, so
// race behavior can be tested with plain goroutines.

type passTxManager struct{}

func (passTxManager) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) add(user *model.User) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return user
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return apperror.New(409, "email already registered", apperror.ErrBadRequest)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (r *fakeUserRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.UserStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return apperror.ErrNotFound
	}
	user.Status = status
	return nil
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*model.Request
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[uuid.UUID]*model.Request)}
}

func (r *fakeRequestRepo) Create(ctx context.Context, req *model.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.requests {
		if existing.Kind == req.Kind && existing.RequesterID == req.RequesterID &&
			existing.TargetID == req.TargetID && existing.Status == model.RequestPending {
			return apperror.ErrDuplicatePendingRequest
		}
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.Status == "" {
		req.Status = model.RequestPending
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	r.requests[req.ID] = req
	return nil
}

func (r *fakeRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *fakeRequestRepo) FindPending(ctx context.Context, kind model.RequestKind, requesterID, targetID uuid.UUID) (*model.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.Kind == kind && req.RequesterID == requesterID &&
			req.TargetID == targetID && req.Status == model.RequestPending {
			copied := *req
			return &copied, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (r *fakeRequestRepo) DecidePending(ctx context.Context, id uuid.UUID, status model.RequestStatus, deciderID uuid.UUID, reason *string, decidedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return apperror.ErrNotFound
	}
	if req.Status != model.RequestPending {
		return apperror.ErrAlreadyDecided
	}
	req.Status = status
	req.DeciderID = &deciderID
	req.Reason = reason
	req.DecidedAt = &decidedAt
	return nil
}

func (r *fakeRequestRepo) ListByRequester(ctx context.Context, requesterID uuid.UUID, status model.RequestStatus, kind model.RequestKind, limit, offset int) ([]model.Request, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Request
	for _, req := range r.requests {
		if req.RequesterID != requesterID {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		if kind != "" && req.Kind != kind {
			continue
		}
		out = append(out, *req)
	}
	sortRequests(out)
	return page(out, limit, offset), int64(len(out)), nil
}

func (r *fakeRequestRepo) ListByTarget(ctx context.Context, targetIDs []uuid.UUID, status model.RequestStatus, kind model.RequestKind, limit, offset int) ([]model.Request, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	targets := make(map[uuid.UUID]bool, len(targetIDs))
	for _, id := range targetIDs {
		targets[id] = true
	}
	var out []model.Request
	for _, req := range r.requests {
		if !targets[req.TargetID] {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		if kind != "" && req.Kind != kind {
			continue
		}
		out = append(out, *req)
	}
	sortRequests(out)
	return page(out, limit, offset), int64(len(out)), nil
}

func (r *fakeRequestRepo) LatestBetween(ctx context.Context, a, b uuid.UUID) (*model.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.Request
	for _, req := range r.requests {
		if req.Kind != model.KindContact {
			continue
		}
		between := (req.RequesterID == a && req.TargetID == b) ||
			(req.RequesterID == b && req.TargetID == a)
		if !between {
			continue
		}
		if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
			latest = req
		}
	}
	if latest == nil {
		return nil, apperror.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func sortRequests(reqs []model.Request) {
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type fakeResourceRepo struct {
	mu        sync.Mutex
	resources map[uuid.UUID]*model.Resource
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{resources: make(map[uuid.UUID]*model.Resource)}
}

func (r *fakeResourceRepo) Create(ctx context.Context, res *model.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now()
	}
	r.resources[res.ID] = res
	return nil
}

func (r *fakeResourceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.resources[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	copied := *res
	return &copied, nil
}

func (r *fakeResourceRepo) Update(ctx context.Context, res *model.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.resources[res.ID]; !ok {
		return apperror.ErrNotFound
	}
	copied := *res
	r.resources[res.ID] = &copied
	return nil
}

func (r *fakeResourceRepo) TransitionFrom(ctx context.Context, id uuid.UUID, from model.ResourceStatus, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.resources[id]
	if !ok {
		return apperror.ErrNotFound
	}
	if res.Status != from {
		return apperror.ErrInvalidTransition
	}
	if v, ok := updates["status"]; ok {
		res.Status = v.(model.ResourceStatus)
	}
	if v, ok := updates["reason"]; ok {
		if v == nil {
			res.Reason = nil
		} else {
			res.Reason = v.(*string)
		}
	}
	if v, ok := updates["decider_id"]; ok {
		id := v.(uuid.UUID)
		res.DeciderID = &id
	}
	if v, ok := updates["decided_at"]; ok {
		t := v.(time.Time)
		res.DecidedAt = &t
	}
	if v, ok := updates["submitted_at"]; ok {
		t := v.(time.Time)
		res.SubmittedAt = &t
	}
	return nil
}

func (r *fakeResourceRepo) List(ctx context.Context, kind model.ResourceKind, status model.ResourceStatus, authorID uuid.UUID, limit, offset int) ([]model.Resource, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Resource
	for _, res := range r.resources {
		if kind != "" && res.Kind != kind {
			continue
		}
		if status != "" && res.Status != status {
			continue
		}
		if authorID != uuid.Nil && res.AuthorID != authorID {
			continue
		}
		out = append(out, *res)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, limit, offset), int64(len(out)), nil
}

func (r *fakeResourceRepo) IDsByAuthor(ctx context.Context, authorID uuid.UUID, kind model.ResourceKind) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for _, res := range r.resources {
		if res.AuthorID != authorID {
			continue
		}
		if kind != "" && res.Kind != kind {
			continue
		}
		ids = append(ids, res.ID)
	}
	return ids, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []*model.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.notifications {
		if existing.DedupKey == n.DedupKey {
			return apperror.ErrDispatchSkipped
		}
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *fakeNotificationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id {
			copied := *n
			return &copied, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (r *fakeNotificationRepo) ExistsByDedupKey(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.DedupKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) GetByUserID(ctx context.Context, userID uuid.UUID, status model.NotificationStatus, notifType model.NotificationType, limit, offset int) ([]model.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.notifications {
		if n.UserID != userID {
			continue
		}
		if status != "" && n.Status != status {
			continue
		}
		if notifType != "" && n.Type != notifType {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, limit, offset), int64(len(out)), nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, id, userID uuid.UUID, readAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID != id || n.UserID != userID {
			continue
		}
		if n.Status == model.NotificationUnread {
			n.Status = model.NotificationRead
			n.ReadAt = &readAt
		}
		return nil
	}
	return apperror.ErrNotFound
}

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID, readAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.UserID == userID && n.Status == model.NotificationUnread {
			n.Status = model.NotificationRead
			n.ReadAt = &readAt
		}
	}
	return nil
}

func (r *fakeNotificationRepo) Archive(ctx context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			n.Status = model.NotificationArchived
			return nil
		}
	}
	return apperror.ErrNotFound
}

func (r *fakeNotificationRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return nil
		}
	}
	return apperror.ErrNotFound
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID, category model.NotificationCategory) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.notifications {
		if n.UserID != userID || n.Status != model.NotificationUnread {
			continue
		}
		if category != "" && n.Category != category {
			continue
		}
		count++
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkEmailSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id {
			n.IsEmailSent = true
			n.EmailSentAt = &sentAt
			return nil
		}
	}
	return apperror.ErrNotFound
}

// byUser returns the stored notifications addressed to a user, newest last.
func (r *fakeNotificationRepo) byUser(userID uuid.UUID) []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out
}

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*model.Conversation
	messages      []*model.Message
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{conversations: make(map[uuid.UUID]*model.Conversation)}
}

func (r *fakeConversationRepo) Create(ctx context.Context, conv *model.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.conversations {
		if existing.UserAID == conv.UserAID && existing.UserBID == conv.UserBID {
			return repository.ErrConversationExists
		}
	}
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	r.conversations[conv.ID] = conv
	return nil
}

func (r *fakeConversationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	copied := *conv
	return &copied, nil
}

func (r *fakeConversationRepo) FindByPair(ctx context.Context, userA, userB uuid.UUID) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conv := range r.conversations {
		if conv.UserAID == userA && conv.UserBID == userB {
			copied := *conv
			return &copied, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (r *fakeConversationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Conversation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Conversation
	for _, conv := range r.conversations {
		if conv.UserAID == userID || conv.UserBID == userID {
			out = append(out, *conv)
		}
	}
	return page(out, limit, offset), int64(len(out)), nil
}

func (r *fakeConversationRepo) UpdateLastMessage(ctx context.Context, id uuid.UUID, at time.Time, preview string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return apperror.ErrNotFound
	}
	conv.LastMessageAt = &at
	conv.LastMessagePreview = preview
	return nil
}

func (r *fakeConversationRepo) CreateMessage(ctx context.Context, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *fakeConversationRepo) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]model.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Message
	for _, msg := range r.messages {
		if msg.ConversationID == conversationID {
			out = append(out, *msg)
		}
	}
	return page(out, limit, offset), int64(len(out)), nil
}

func (r *fakeConversationRepo) MarkMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.messages {
		if msg.ConversationID == conversationID && msg.SenderID != readerID {
			msg.IsRead = true
		}
	}
	return nil
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	calls int
}

func (m *fakeMailer) SendNotification(ctx context.Context, toEmail string, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail {
		return context.DeadlineExceeded
	}
	m.sent = append(m.sent, toEmail)
	return nil
}
