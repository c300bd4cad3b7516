package models

import (
	"fmt"
	"time"
)

// ResourceRecord is one inventory entry of an applied revision. The
// resource id format is <namespace>_<name>_<group>_<kind>, cluster
// scoped objects use an empty namespace segment.
type ResourceRecord struct {
	ID         uint `gorm:"primaryKey"`
	RevisionID uint `gorm:"index;not null"`
	ResourceID string
	APIVersion string
	CreatedAt  time.Time
}

func NewResourceID(namespace, name, group, kind string) string {
	return fmt.Sprintf("%s_%s_%s_%s", namespace, name, group, kind)
}

// Orphans returns the records applied by prev that next no longer
// contains, these are the prune candidates after a topology change.
func Orphans(prev, next []ResourceRecord) []ResourceRecord {
	kept := make(map[string]bool, len(next))
	for _, record := range next {
		kept[record.ResourceID] = true
	}
	var orphans []ResourceRecord
	for _, record := range prev {
		if !kept[record.ResourceID] {
			orphans = append(orphans, record)
		}
	}
	return orphans
}
