// Package chat is the support channel between a theater's staff and
// the super-admin console: one thread per tenant.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/models"
	"canteen-backend/internal/storage"
)

// Thread summarizes one tenant's conversation for the admin inbox.
type Thread struct {
	TenantID    string              `json:"tenantId"`
	TenantName  string              `json:"tenantName"`
	LastMessage *models.ChatMessage `json:"lastMessage,omitempty"`
	Unread      int64               `json:"unread"`
}

// Service persists messages and tracks read state. MarkRead is
// debounced per tenant because chat screens fire it on every render.
type Service struct {
	db    *gorm.DB
	store storage.Store

	mu       sync.Mutex
	lastMark map[string]markState
}

type markState struct {
	by string
	at time.Time
}

const markDebounce = 500 * time.Millisecond

func NewService(db *gorm.DB, store storage.Store) *Service {
	return &Service{db: db, store: store, lastMark: map[string]markState{}}
}

// ListThreads returns every tenant that has messages, newest activity
// first, with the admin's unread count.
func (s *Service) ListThreads() ([]Thread, error) {
	var tenants []models.Tenant
	if err := s.db.Find(&tenants).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list tenants", err)
	}

	var threads []Thread
	for i := range tenants {
		var last models.ChatMessage
		err := s.db.Where("tenant_id = ?", tenants[i].ID).
			Order("created_at DESC").First(&last).Error
		if err == gorm.ErrRecordNotFound {
			continue
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "load last message", err)
		}

		var unread int64
		if err := s.db.Model(&models.ChatMessage{}).
			Where("tenant_id = ? AND sender = ? AND read = ?", tenants[i].ID, models.ChatFromTenant, false).
			Count(&unread).Error; err != nil {
			return nil, apperr.Wrap(apperr.Internal, "count unread", err)
		}

		threads = append(threads, Thread{
			TenantID:    tenants[i].ID,
			TenantName:  tenants[i].Name,
			LastMessage: &last,
			Unread:      unread,
		})
	}

	sortThreadsByActivity(threads)
	return threads, nil
}

// GetMessages returns the tenant's thread oldest first.
func (s *Service) GetMessages(tenantID string) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	err := s.db.Where("tenant_id = ?", tenantID).Order("created_at").Find(&out).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load messages", err)
	}
	return out, nil
}

// SendText appends a text message.
func (s *Service) SendText(tenantID, sender, text string) (*models.ChatMessage, error) {
	if text == "" {
		return nil, apperr.New(apperr.Validation, "message text is required")
	}
	return s.append(&models.ChatMessage{
		TenantID: tenantID, Sender: sender, Text: text,
	})
}

// SendImage uploads the image through the storage strategy and appends
// a message carrying its URL.
func (s *Service) SendImage(tenantID, sender, filename string, data []byte) (*models.ChatMessage, error) {
	if len(data) == 0 {
		return nil, apperr.New(apperr.Validation, "image payload is empty")
	}
	url, err := s.store.Save(filename, data)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "store chat image", err)
	}
	return s.append(&models.ChatMessage{
		TenantID: tenantID, Sender: sender, ImageURL: url,
	})
}

func (s *Service) append(msg *models.ChatMessage) (*models.ChatMessage, error) {
	if msg.Sender != models.ChatFromTenant && msg.Sender != models.ChatFromAdmin {
		return nil, apperr.Newf(apperr.Validation, "unknown sender %q", msg.Sender)
	}
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now()
	if err := s.db.Create(msg).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "persist message", err)
	}
	// New traffic resets the debounce so the next MarkRead lands.
	s.mu.Lock()
	delete(s.lastMark, msg.TenantID)
	s.mu.Unlock()
	return msg, nil
}

// MarkRead flags the other side's messages as read. Repeat calls from
// the same reader within the debounce window are dropped until new
// messages arrive for the thread.
func (s *Service) MarkRead(tenantID, by string) error {
	if by != models.ChatFromTenant && by != models.ChatFromAdmin {
		return apperr.Newf(apperr.Validation, "unknown reader %q", by)
	}

	if !s.shouldMark(tenantID, by) {
		return nil
	}

	other := models.ChatFromAdmin
	if by == models.ChatFromAdmin {
		other = models.ChatFromTenant
	}
	err := s.db.Model(&models.ChatMessage{}).
		Where("tenant_id = ? AND sender = ? AND read = ?", tenantID, other, false).
		Update("read", true).Error
	if err != nil {
		return apperr.Wrap(apperr.Internal, "mark read", err)
	}
	return nil
}

// shouldMark is the debounce gate: a repeat mark by the same reader
// within the window is suppressed until new messages reset it.
func (s *Service) shouldMark(tenantID, by string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastMark[tenantID]; ok && last.by == by && time.Since(last.at) < markDebounce {
		return false
	}
	s.lastMark[tenantID] = markState{by: by, at: time.Now()}
	return true
}

func sortThreadsByActivity(threads []Thread) {
	for i := 1; i < len(threads); i++ {
		for j := i; j > 0; j-- {
			if threads[j].LastMessage.CreatedAt.After(threads[j-1].LastMessage.CreatedAt) {
				threads[j], threads[j-1] = threads[j-1], threads[j]
			} else {
				break
			}
		}
	}
}
