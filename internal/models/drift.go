package models

import (
	"errors"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DriftEvent records a live cluster field that no longer matches the
// latest applied revision. One open event exists per resource field,
// repeated observations refresh the observed value.
type DriftEvent struct {
	ID         uint   `gorm:"primaryKey"`
	RevisionID uint   `gorm:"uniqueIndex:idx_drift_rev_res_field;not null"`
	ResourceID string `gorm:"uniqueIndex:idx_drift_rev_res_field"`
	Field      string `gorm:"uniqueIndex:idx_drift_rev_res_field"`
	Expected   string
	Observed   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type DriftModelSvc struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewDriftModelSvc(db *gorm.DB, logger *zap.Logger) *DriftModelSvc {
	return &DriftModelSvc{db: db, logger: logger}
}

func (s *DriftModelSvc) Record(event *DriftEvent) error {
	if res := s.db.Create(event); res.Error != nil {
		if isUniqueViolation(res.Error) {
			return s.db.Model(&DriftEvent{}).
				Where("revision_id = ? AND resource_id = ? AND field = ?",
					event.RevisionID, event.ResourceID, event.Field).
				Update("observed", event.Observed).Error
		}
		return res.Error
	}
	s.logger.Warn("drift detected",
		zap.String("resource", event.ResourceID),
		zap.String("field", event.Field),
		zap.String("expected", event.Expected),
		zap.String("observed", event.Observed))
	return nil
}

func (s *DriftModelSvc) ListForRevision(revisionID uint) ([]DriftEvent, error) {
	var events []DriftEvent
	res := s.db.
		Where("revision_id = ?", revisionID).
		Order("id").
		Find(&events)
	return events, res.Error
}

// Clear drops the drift history of a revision, called once a new
// revision gets applied and the old expectations no longer hold.
func (s *DriftModelSvc) Clear(revisionID uint) error {
	return s.db.
		Where("revision_id = ?", revisionID).
		Delete(&DriftEvent{}).Error
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
