package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hotel-data-sync/internal/models"

	"go.uber.org/zap"
)

// ReservationRepository 预订数据访问（operational store, read-only）
type ReservationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *sql.DB, logger *zap.Logger) *ReservationRepository {
	return &ReservationRepository{
		db:     db,
		logger: logger,
	}
}

const reservationColumns = `
	id, user_id, room_type_id, branch_id,
	checkin_date, checkout_date, guests, rooms,
	price_per_night, total_price,
	status, payment_status, payment_method, payment_time,
	special_requests, contact_name, contact_phone, contact_email,
	created_at, updated_at, cancelled_at, cancellation_reason`

// FindByDate 查询指定日期创建的所有预订（用于数据同步）
func (r *ReservationRepository) FindByDate(ctx context.Context, date time.Time) ([]models.Reservation, error) {
	query := `
		SELECT` + reservationColumns + `
		FROM reservation
		WHERE created_at::date = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations by date: %w", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// FindToday 查询今日创建的所有预订（用于定时同步）
func (r *ReservationRepository) FindToday(ctx context.Context) ([]models.Reservation, error) {
	query := `
		SELECT` + reservationColumns + `
		FROM reservation
		WHERE created_at::date = CURRENT_DATE
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query today's reservations: %w", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

func scanReservations(rows *sql.Rows) ([]models.Reservation, error) {
	var reservations []models.Reservation
	for rows.Next() {
		var res models.Reservation
		var (
			userID             sql.NullInt64
			paymentMethod      sql.NullString
			paymentTime        sql.NullTime
			specialRequests    sql.NullString
			contactName        sql.NullString
			contactPhone       sql.NullString
			contactEmail       sql.NullString
			updatedAt          sql.NullTime
			cancelledAt        sql.NullTime
			cancellationReason sql.NullString
		)

		if err := rows.Scan(
			&res.ID,
			&userID,
			&res.RoomTypeID,
			&res.BranchID,
			&res.CheckinDate,
			&res.CheckoutDate,
			&res.Guests,
			&res.Rooms,
			&res.PricePerNight,
			&res.TotalPrice,
			&res.Status,
			&res.PaymentStatus,
			&paymentMethod,
			&paymentTime,
			&specialRequests,
			&contactName,
			&contactPhone,
			&contactEmail,
			&res.CreatedAt,
			&updatedAt,
			&cancelledAt,
			&cancellationReason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}

		if userID.Valid {
			res.UserID = &userID.Int64
		}
		if paymentMethod.Valid {
			res.PaymentMethod = paymentMethod.String
		}
		if paymentTime.Valid {
			res.PaymentTime = &paymentTime.Time
		}
		if specialRequests.Valid {
			res.SpecialRequests = &specialRequests.String
		}
		if contactName.Valid {
			res.ContactName = &contactName.String
		}
		if contactPhone.Valid {
			res.ContactPhone = &contactPhone.String
		}
		if contactEmail.Valid {
			res.ContactEmail = &contactEmail.String
		}
		if updatedAt.Valid {
			res.UpdatedAt = &updatedAt.Time
		}
		if cancelledAt.Valid {
			res.CancelledAt = &cancelledAt.Time
		}
		if cancellationReason.Valid {
			res.CancellationReason = &cancellationReason.String
		}

		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}

	return reservations, nil
}
