package device

import (
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-connector/internal/schema"
)

// maxIDLength bounds device identifiers accepted from the bus.
const maxIDLength = 128

// Device is a device record as held by the local store.
type Device struct {
	ID     string        `json:"id"`
	Name   string        `json:"name,omitempty"`
	Schema schema.Schema `json:"schema"`

	// SchemaSyncedAt is set whenever the schema is written by a synchronisation.
	SchemaSyncedAt *time.Time `json:"schema_synced_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the fields the store relies on.
func (d *Device) Validate() error {
	return ValidateID(d.ID)
}

// ValidateID checks a device identifier.
func ValidateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: id is required", ErrInvalidDevice)
	case len(id) > maxIDLength:
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidDevice, maxIDLength)
	}
	return nil
}
