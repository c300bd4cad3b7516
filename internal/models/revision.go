package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RevisionStatus = string

const (
	RevisionPending RevisionStatus = "pending"
	RevisionApplied RevisionStatus = "applied"
	RevisionFailed  RevisionStatus = "failed"
)

// ErrUnchanged is returned when the rendered bundle checksum matches
// the latest applied revision, there is nothing new to roll out.
var ErrUnchanged = errors.New("desired state unchanged since last applied revision")

// Revision is one applied (or attempted) desired state snapshot.
type Revision struct {
	ID             uint   `gorm:"primaryKey"`
	UID            string `gorm:"uniqueIndex"`
	DescriptorYAML string `gorm:"type:text"`
	Checksum       string `gorm:"index"`
	Status         RevisionStatus
	Message        string
	Resources      []ResourceRecord
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type RevisionModelSvc struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRevisionModelSvc(db *gorm.DB, logger *zap.Logger) *RevisionModelSvc {
	return &RevisionModelSvc{db: db, logger: logger}
}

// Create records a new pending revision. It refuses to create one when
// the latest applied revision already carries the same checksum.
func (s *RevisionModelSvc) Create(descriptorYaml, checksum string) (*Revision, error) {
	latest, err := s.LatestApplied()
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.Checksum == checksum {
		return nil, ErrUnchanged
	}
	revision := &Revision{
		UID:            uuid.NewString(),
		DescriptorYAML: descriptorYaml,
		Checksum:       checksum,
		Status:         RevisionPending,
	}
	if res := s.db.Create(revision); res.Error != nil {
		return nil, res.Error
	}
	s.logger.Info("revision created",
		zap.Uint("id", revision.ID),
		zap.String("uid", revision.UID))
	return revision, nil
}

func (s *RevisionModelSvc) MarkApplied(revision *Revision, records []ResourceRecord) error {
	for i := range records {
		records[i].RevisionID = revision.ID
	}
	if len(records) > 0 {
		if res := s.db.Create(&records); res.Error != nil {
			return res.Error
		}
	}
	revision.Status = RevisionApplied
	revision.Resources = records
	return s.db.Model(revision).Update("status", RevisionApplied).Error
}

func (s *RevisionModelSvc) MarkFailed(revision *Revision, message string) error {
	revision.Status = RevisionFailed
	revision.Message = message
	return s.db.Model(revision).
		Updates(map[string]interface{}{"status": RevisionFailed, "message": message}).Error
}

// LatestApplied returns nil when nothing was ever applied.
func (s *RevisionModelSvc) LatestApplied() (*Revision, error) {
	revision := &Revision{}
	res := s.db.
		Preload("Resources").
		Where("status = ?", RevisionApplied).
		Order("id desc").
		First(revision)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return revision, nil
}

func (s *RevisionModelSvc) List(limit int) ([]Revision, error) {
	var revisions []Revision
	res := s.db.
		Preload("Resources").
		Order("id desc").
		Limit(limit).
		Find(&revisions)
	return revisions, res.Error
}
