package models

import "time"

// Reservation statuses (operational store values)
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
)

// Payment statuses
const (
	PaymentPending  = "PENDING"
	PaymentPaid     = "PAID"
	PaymentRefunded = "REFUNDED"
)

// Reservation 预订记录（operational store, read-only for this service）
// The five PII-bearing fields (UserID, ContactName, ContactPhone,
// ContactEmail, SpecialRequests) are pointers so that "unset" is
// distinguishable after anonymization.
type Reservation struct {
	ID            int64
	UserID        *int64 // owning user, stripped on anonymization
	RoomTypeID    int64
	BranchID      int64
	CheckinDate   time.Time
	CheckoutDate  time.Time
	Guests        int
	Rooms         int
	PricePerNight float64
	TotalPrice    float64
	Status        string // PENDING / CONFIRMED / CANCELLED / COMPLETED
	PaymentStatus string // PENDING / PAID / REFUNDED
	PaymentMethod string
	PaymentTime   *time.Time

	// PII fields, never forwarded to the BI sink
	SpecialRequests *string
	ContactName     *string
	ContactPhone    *string
	ContactEmail    *string

	CreatedAt          time.Time
	UpdatedAt          *time.Time
	CancelledAt        *time.Time
	CancellationReason *string
}
