package entity

import (
	"time"

	"github.com/google/uuid"
)

type CommonGround struct {
	Id             uuid.UUID
	SharedVesselId uuid.UUID
	Category       NeedCategory
	Need           string
	ConfirmedByA   bool
	ConfirmedByB   bool
	ConfirmedAt    *time.Time
	CreatedAt      time.Time
}

// ConfirmBy sets the caller's slot flag. ConfirmedAt is stamped exactly when
// both flags become true and is never cleared afterwards.
func (c *CommonGround) ConfirmBy(slot Slot, now time.Time) {
	switch slot {
	case SlotA:
		c.ConfirmedByA = true
	case SlotB:
		c.ConfirmedByB = true
	}
	if c.ConfirmedByA && c.ConfirmedByB && c.ConfirmedAt == nil {
		c.ConfirmedAt = &now
	}
}

func (c *CommonGround) ConfirmedBySlot(slot Slot) bool {
	if slot == SlotA {
		return c.ConfirmedByA
	}
	return c.ConfirmedByB
}

func (c *CommonGround) ConfirmedByBoth() bool {
	return c.ConfirmedAt != nil
}
