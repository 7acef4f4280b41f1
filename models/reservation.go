package models

import (
	"fmt"
	"time"
)

type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

type Reservation struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	TableID      uint              `gorm:"not null;index" json:"table_id"`
	Table        *Table            `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table,omitempty"`
	SlotDatetime time.Time         `gorm:"column:slot_datetime;not null;index" json:"slot_datetime"`
	ClientName   string            `gorm:"type:varchar(255);not null" json:"client_name"`
	PhoneNumber  string            `gorm:"type:varchar(32);not null;index:idx_reservations_phone_status,priority:1" json:"phone_number"`
	GuestsCount  int               `gorm:"not null" json:"guests_count"`
	BookedAt     time.Time         `gorm:"not null" json:"booked_at"`
	Status       ReservationStatus `gorm:"type:varchar(20);not null;default:'confirmed';index:idx_reservations_phone_status,priority:2" json:"status"`
	CancelledAt  *time.Time        `json:"cancelled_at,omitempty"`
	// SlotLock holds SlotLockKey while the reservation is confirmed and NULL
	// afterwards; its unique index keeps one confirmed booking per table and slot.
	SlotLock  *string   `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (r *Reservation) IsConfirmed() bool {
	return r.Status == StatusConfirmed
}

// SlotLockKey identifies a (table, slot) pair independent of the slot's location.
func SlotLockKey(tableID uint, slot time.Time) string {
	return fmt.Sprintf("%d@%s", tableID, slot.UTC().Format(time.RFC3339))
}
