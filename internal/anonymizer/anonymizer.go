package anonymizer

import (
	"hotel-data-sync/internal/models"
)

// Anonymize strips all PII from a batch of reservations before cross-region
// transfer. The output is order- and length-preserving: output[i] is the
// anonymized form of input[i].
//
// The copy is an allow-list: only statistically relevant fields are carried
// over. A PII field newly added to the Reservation schema is therefore
// dropped here by default instead of silently forwarded.
func Anonymize(reservations []models.Reservation) []models.Reservation {
	anonymized := make([]models.Reservation, len(reservations))
	for i, r := range reservations {
		anonymized[i] = anonymizeOne(r)
	}
	return anonymized
}

func anonymizeOne(r models.Reservation) models.Reservation {
	// 只保留业务统计所需的数据；UserID、联系人信息、特殊要求不复制
	return models.Reservation{
		ID:                 r.ID,
		RoomTypeID:         r.RoomTypeID,
		BranchID:           r.BranchID,
		CheckinDate:        r.CheckinDate,
		CheckoutDate:       r.CheckoutDate,
		Guests:             r.Guests,
		Rooms:              r.Rooms,
		PricePerNight:      r.PricePerNight,
		TotalPrice:         r.TotalPrice,
		Status:             r.Status,
		PaymentStatus:      r.PaymentStatus,
		PaymentMethod:      r.PaymentMethod,
		PaymentTime:        r.PaymentTime,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		CancelledAt:        r.CancelledAt,
		CancellationReason: r.CancellationReason,
	}
}

// IsAnonymized reports whether all five PII-bearing fields are unset.
// Used as a post-condition check after Anonymize, independent of the copy
// logic itself, so a regression in the allow-list aborts the run instead of
// leaking PII into the sink.
func IsAnonymized(r models.Reservation) bool {
	return r.UserID == nil &&
		r.ContactName == nil &&
		r.ContactPhone == nil &&
		r.ContactEmail == nil &&
		r.SpecialRequests == nil
}

// VerifyAll returns the index of the first record that still carries PII,
// or -1 when the whole batch is clean.
func VerifyAll(reservations []models.Reservation) int {
	for i, r := range reservations {
		if !IsAnonymized(r) {
			return i
		}
	}
	return -1
}

// Service 脱敏服务（方便在调度器中注入替换）
type Service struct{}

func (Service) Anonymize(reservations []models.Reservation) []models.Reservation {
	return Anonymize(reservations)
}

func (Service) Verify(reservations []models.Reservation) int {
	return VerifyAll(reservations)
}
