package qr

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/database"
	"canteen-backend/internal/models"
	"canteen-backend/internal/storage"
)

type Service struct {
	db      *gorm.DB
	store   storage.Store
	baseURL string
}

func NewService(db *gorm.DB, store storage.Store, baseURL string) *Service {
	return &Service{db: db, store: store, baseURL: baseURL}
}

func (s *Service) list(tx *gorm.DB, tenantID string) (*models.QRList, error) {
	var list models.QRList
	err := tx.Where("tenant_id = ?", tenantID).First(&list).Error
	if err == nil {
		return &list, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, apperr.Wrap(apperr.Internal, "load qr list", err)
	}
	list = models.QRList{ID: uuid.NewString(), TenantID: tenantID}
	if err := tx.Create(&list).Error; err != nil {
		if database.IsDuplicateKey(err) {
			if err := tx.Where("tenant_id = ?", tenantID).First(&list).Error; err != nil {
				return nil, apperr.Wrap(apperr.Internal, "reload qr list", err)
			}
			return &list, nil
		}
		return nil, apperr.Wrap(apperr.Internal, "create qr list", err)
	}
	return &list, nil
}

// List returns the tenant's QR groups.
func (s *Service) List(tenantID string) ([]models.QRGroup, error) {
	list, err := s.list(s.db, tenantID)
	if err != nil {
		return nil, err
	}
	return list.Groups.Data(), nil
}

// CreateGroup adds a named seat group. Names are unique per tenant only.
func (s *Service) CreateGroup(tenantID, name, screen string) (*models.QRGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.Validation, "qr name must not be empty")
	}
	group := models.QRGroup{ID: uuid.NewString(), Name: name, Screen: screen}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		list, err := s.list(tx, tenantID)
		if err != nil {
			return err
		}
		groups, err := addGroup(list.Groups.Data(), group)
		if err != nil {
			return err
		}
		list.Groups = datatypes.NewJSONType(groups)
		list.UpdatedAt = time.Now()
		return tx.Save(list).Error
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// DeleteGroup removes a group and its seats.
func (s *Service) DeleteGroup(tenantID, groupID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		list, err := s.list(tx, tenantID)
		if err != nil {
			return err
		}
		groups := list.Groups.Data()
		i, err := findGroup(groups, groupID)
		if err != nil {
			return err
		}
		list.Groups = datatypes.NewJSONType(append(groups[:i], groups[i+1:]...))
		list.UpdatedAt = time.Now()
		return tx.Save(list).Error
	})
}

// AddSeats generates payloads and images for the new seat labels and
// appends them to the group. Duplicate labels within the group are
// rejected.
func (s *Service) AddSeats(tenantID, groupID string, labels []string) (*models.QRGroup, error) {
	if len(labels) == 0 {
		return nil, apperr.New(apperr.Validation, "at least one seat label is required")
	}
	var out models.QRGroup
	err := s.db.Transaction(func(tx *gorm.DB) error {
		list, err := s.list(tx, tenantID)
		if err != nil {
			return err
		}
		groups := list.Groups.Data()
		i, err := findGroup(groups, groupID)
		if err != nil {
			return err
		}
		group := &groups[i]

		existing := map[string]bool{}
		for _, seat := range group.Seats {
			existing[seat.Label] = true
		}
		for _, label := range labels {
			label = strings.TrimSpace(label)
			if label == "" {
				return apperr.New(apperr.Validation, "seat label must not be empty")
			}
			if existing[label] {
				return apperr.Newf(apperr.Conflict, "seat %q already exists", label)
			}
			existing[label] = true
			seat, err := s.renderSeat(tenantID, group.Name, label)
			if err != nil {
				return err
			}
			group.Seats = append(group.Seats, seat)
		}

		out = *group
		list.Groups = datatypes.NewJSONType(groups)
		list.UpdatedAt = time.Now()
		return tx.Save(list).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveSeat drops one seat from a group.
func (s *Service) RemoveSeat(tenantID, groupID, label string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		list, err := s.list(tx, tenantID)
		if err != nil {
			return err
		}
		groups := list.Groups.Data()
		i, err := findGroup(groups, groupID)
		if err != nil {
			return err
		}
		seats, err := removeSeat(groups[i].Seats, label)
		if err != nil {
			return err
		}
		groups[i].Seats = seats
		list.Groups = datatypes.NewJSONType(groups)
		list.UpdatedAt = time.Now()
		return tx.Save(list).Error
	})
}

// Regenerate re-renders payloads and images for every seat in a group,
// picking up base-URL or storage changes.
func (s *Service) Regenerate(tenantID, groupID string) (*models.QRGroup, error) {
	var out models.QRGroup
	err := s.db.Transaction(func(tx *gorm.DB) error {
		list, err := s.list(tx, tenantID)
		if err != nil {
			return err
		}
		groups := list.Groups.Data()
		i, err := findGroup(groups, groupID)
		if err != nil {
			return err
		}
		group := &groups[i]
		for j, seat := range group.Seats {
			fresh, err := s.renderSeat(tenantID, group.Name, seat.Label)
			if err != nil {
				return err
			}
			group.Seats[j] = fresh
		}
		out = *group
		list.Groups = datatypes.NewJSONType(groups)
		list.UpdatedAt = time.Now()
		return tx.Save(list).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// renderSeat builds the deep link and its PNG. The image goes to object
// storage when available, otherwise it is embedded as a data URL.
func (s *Service) renderSeat(tenantID, groupName, label string) (models.QRSeat, error) {
	payload := BuildPayload(s.baseURL, tenantID, groupName, label)
	png, err := EncodePNG(payload)
	if err != nil {
		return models.QRSeat{}, err
	}
	seat := models.QRSeat{Label: label, Payload: payload, UpdatedAt: time.Now()}
	if s.store.Available() {
		url, err := s.store.Save("qr_"+tenantID+"_"+groupName+"_"+label+".png", png)
		if err != nil {
			return models.QRSeat{}, err
		}
		seat.ImageURL = url
	} else {
		seat.ImageDataURL = DataURL(png)
	}
	return seat, nil
}
