package core

import (
	"github.com/google/uuid"

	"scenecore/pkg/domain"
)

// IdentityManager issues process-unique stable identifiers for scene records.
// Identifiers are never derived from geometry and never reused after deletion.
type IdentityManager struct{}

// NewIdentityManager constructs an identity manager.
func NewIdentityManager() *IdentityManager {
	return &IdentityManager{}
}

// Assign returns an identifier distinct from all previously issued values.
func (m *IdentityManager) Assign() string {
	return uuid.NewString()
}

// EnsureItem returns the item unchanged when it already carries an
// identifier, otherwise a copy with a freshly assigned one.
func (m *IdentityManager) EnsureItem(it domain.PlacedItem) domain.PlacedItem {
	if it.ID == "" {
		it.ID = m.Assign()
	}
	return it
}

// EnsureObject returns the object unchanged when it already carries an
// identifier, otherwise a copy with a freshly assigned one.
func (m *IdentityManager) EnsureObject(obj domain.ArchitecturalObject) domain.ArchitecturalObject {
	if obj.ID == "" {
		obj.ID = m.Assign()
	}
	return obj
}
