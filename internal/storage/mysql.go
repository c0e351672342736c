package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"booking-platform/internal/config"
	"booking-platform/internal/logger"
	"booking-platform/internal/models"
)

type MySQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

func NewMySQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*MySQLStore, error) {
	log.LogDatabase("CONNECT", "mysql", fmt.Sprintf("Connecting to MySQL at %s:%s", cfg.Host, cfg.Port))

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Error("DATABASE", "Failed to open MySQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.Ping(); err != nil {
		log.Error("DATABASE", "Failed to ping MySQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.LogDatabase("SUCCESS", "mysql", "MySQL connection established")
	return &MySQLStore{db: db, log: log}, nil
}

// translateErr maps MySQL deadlocks and lock-wait timeouts to ErrConflict
// so callers retry them instead of surfacing a driver error.
func translateErr(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1213, 1205:
			return ErrConflict
		}
	}
	return err
}

// --- Bookings ---

func (s *MySQLStore) SaveBooking(ctx context.Context, booking *models.Booking) error {
	s.log.LogDatabase("INSERT", "bookings", fmt.Sprintf("Saving booking %s", booking.BookingID))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
    INSERT INTO bookings (
        booking_id, property_id, user_id, guest_count, check_in, check_out,
        status, total_price, voucher_code, discount_amount, cancellation_reason,
        created_date, updated_date
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	_, err = tx.ExecContext(ctx, query,
		booking.BookingID, booking.PropertyID, booking.UserID, booking.GuestCount,
		booking.CheckIn, booking.CheckOut, booking.Status, booking.TotalPrice,
		booking.VoucherCode, booking.DiscountAmount, booking.CancellationReason,
		booking.CreatedDate, booking.UpdatedDate,
	)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save booking %s: %s", booking.BookingID, err.Error()))
		return translateErr(err)
	}

	detailQuery := `
    INSERT INTO booking_details (detail_id, booking_id, room_type_id, quantity, price_per_night, discount)
    VALUES (?, ?, ?, ?, ?, ?)
    `
	for _, d := range booking.Details {
		if _, err := tx.ExecContext(ctx, detailQuery,
			d.DetailID, booking.BookingID, d.RoomTypeID, d.Quantity, d.PricePerNight, d.Discount,
		); err != nil {
			s.log.Error("DATABASE", fmt.Sprintf("Failed to save booking detail %s: %s", d.DetailID, err.Error()))
			return translateErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return translateErr(err)
	}

	s.log.LogDatabase("SUCCESS", "bookings", fmt.Sprintf("Booking %s saved", booking.BookingID))
	return nil
}

func (s *MySQLStore) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	query := `
    SELECT booking_id, property_id, user_id, guest_count, check_in, check_out,
           status, total_price, voucher_code, discount_amount, cancellation_reason,
           created_date, updated_date
    FROM bookings WHERE booking_id = ?
    `

	booking := &models.Booking{}
	err := s.db.QueryRowContext(ctx, query, bookingID).Scan(
		&booking.BookingID, &booking.PropertyID, &booking.UserID, &booking.GuestCount,
		&booking.CheckIn, &booking.CheckOut, &booking.Status, &booking.TotalPrice,
		&booking.VoucherCode, &booking.DiscountAmount, &booking.CancellationReason,
		&booking.CreatedDate, &booking.UpdatedDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			s.log.LogDatabase("NOT_FOUND", "bookings", fmt.Sprintf("Booking %s not found", bookingID))
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	detailQuery := `
    SELECT detail_id, booking_id, room_type_id, quantity, price_per_night, discount
    FROM booking_details WHERE booking_id = ?
    `
	rows, err := s.db.QueryContext(ctx, detailQuery, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d := &models.BookingDetail{}
		if err := rows.Scan(&d.DetailID, &d.BookingID, &d.RoomTypeID, &d.Quantity, &d.PricePerNight, &d.Discount); err != nil {
			return nil, fmt.Errorf("failed to scan booking detail: %w", err)
		}
		booking.Details = append(booking.Details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return booking, nil
}

func (s *MySQLStore) UpdateBookingStatus(ctx context.Context, bookingID string, from, to models.BookingStatus, reason string) error {
	s.log.LogDatabase("UPDATE", "bookings", fmt.Sprintf("Booking %s: %s -> %s", bookingID, from, to))

	query := `
    UPDATE bookings SET status = ?, cancellation_reason = ?, updated_date = ?
    WHERE booking_id = ? AND status = ?
    `
	res, err := s.db.ExecContext(ctx, query, to, reason, time.Now(), bookingID, from)
	if err != nil {
		return translateErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

// --- Room inventory ---

func (s *MySQLStore) UpsertRoomInventory(ctx context.Context, inv *models.RoomInventory) error {
	query := `
    INSERT INTO room_inventory (room_type_id, stay_date, total, committed)
    VALUES (?, ?, ?, ?)
    ON DUPLICATE KEY UPDATE total = VALUES(total)
    `
	_, err := s.db.ExecContext(ctx, query, inv.RoomTypeID, inv.StayDate, inv.Total, inv.Committed)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

func (s *MySQLStore) GetRoomInventory(ctx context.Context, roomTypeID string, date time.Time) (*models.RoomInventory, error) {
	query := `
    SELECT room_type_id, stay_date, total, committed
    FROM room_inventory WHERE room_type_id = ? AND stay_date = ?
    `
	inv := &models.RoomInventory{}
	err := s.db.QueryRowContext(ctx, query, roomTypeID, date).Scan(
		&inv.RoomTypeID, &inv.StayDate, &inv.Total, &inv.Committed,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get room inventory: %w", err)
	}
	return inv, nil
}

func (s *MySQLStore) ReserveInventory(ctx context.Context, roomTypeID string, dates []time.Time, qty int) error {
	s.log.LogDatabase("UPDATE", "room_inventory", fmt.Sprintf("Reserving %d units of %s over %d nights", qty, roomTypeID, len(dates)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translateErr(err)
	}
	defer tx.Rollback()

	// The capacity check is baked into the write: a date at capacity
	// matches zero rows and aborts the whole range.
	query := `
    UPDATE room_inventory SET committed = committed + ?
    WHERE room_type_id = ? AND stay_date = ? AND committed + ? <= total
    `
	for _, date := range dates {
		res, err := tx.ExecContext(ctx, query, qty, roomTypeID, date, qty)
		if err != nil {
			return translateErr(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if affected == 0 {
			s.log.LogInventory("FULL", roomTypeID, fmt.Sprintf("No capacity on %s for %d units", date.Format("2006-01-02"), qty))
			return ErrInsufficientInventory
		}
	}

	if err := tx.Commit(); err != nil {
		return translateErr(err)
	}
	return nil
}

func (s *MySQLStore) ReleaseInventory(ctx context.Context, roomTypeID string, dates []time.Time, qty int) error {
	s.log.LogDatabase("UPDATE", "room_inventory", fmt.Sprintf("Releasing %d units of %s over %d nights", qty, roomTypeID, len(dates)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translateErr(err)
	}
	defer tx.Rollback()

	query := `
    UPDATE room_inventory SET committed = GREATEST(committed - ?, 0)
    WHERE room_type_id = ? AND stay_date = ?
    `
	for _, date := range dates {
		if _, err := tx.ExecContext(ctx, query, qty, roomTypeID, date); err != nil {
			return translateErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return translateErr(err)
	}
	return nil
}

// --- Reservations ---

func (s *MySQLStore) SaveReservation(ctx context.Context, r *models.Reservation) error {
	query := `
    INSERT INTO reservations (token, booking_id, room_type_id, check_in, check_out, quantity, status, created_date)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, query,
		r.Token, r.BookingID, r.RoomTypeID, r.CheckIn, r.CheckOut, r.Quantity, r.Status, r.CreatedDate,
	)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

func (s *MySQLStore) GetReservation(ctx context.Context, token string) (*models.Reservation, error) {
	query := `
    SELECT token, booking_id, room_type_id, check_in, check_out, quantity, status, created_date
    FROM reservations WHERE token = ?
    `
	r := &models.Reservation{}
	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&r.Token, &r.BookingID, &r.RoomTypeID, &r.CheckIn, &r.CheckOut, &r.Quantity, &r.Status, &r.CreatedDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return r, nil
}

func (s *MySQLStore) ListReservationsByBooking(ctx context.Context, bookingID string) ([]*models.Reservation, error) {
	query := `
    SELECT token, booking_id, room_type_id, check_in, check_out, quantity, status, created_date
    FROM reservations WHERE booking_id = ?
    `
	rows, err := s.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		r := &models.Reservation{}
		if err := rows.Scan(&r.Token, &r.BookingID, &r.RoomTypeID, &r.CheckIn, &r.CheckOut, &r.Quantity, &r.Status, &r.CreatedDate); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return reservations, nil
}

func (s *MySQLStore) AttachReservation(ctx context.Context, token, bookingID string) error {
	query := `UPDATE reservations SET booking_id = ? WHERE token = ?`
	_, err := s.db.ExecContext(ctx, query, bookingID, token)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

func (s *MySQLStore) MarkReservationReleased(ctx context.Context, token string) (bool, error) {
	query := `UPDATE reservations SET status = ? WHERE token = ? AND status = ?`
	res, err := s.db.ExecContext(ctx, query, models.ReservationReleased, token, models.ReservationHeld)
	if err != nil {
		return false, translateErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// --- Vouchers ---

func (s *MySQLStore) SaveVoucher(ctx context.Context, v *models.Voucher) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translateErr(err)
	}
	defer tx.Rollback()

	query := `
    INSERT INTO vouchers (
        voucher_id, code, discount_type, discount_value, start_date, end_date,
        minimum_order_amount, maximum_discount, usage_limit, per_user_limit,
        used_count, status
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = tx.ExecContext(ctx, query,
		v.VoucherID, v.Code, v.DiscountType, v.DiscountValue, v.StartDate, v.EndDate,
		v.MinimumOrderAmount, v.MaximumDiscount, v.UsageLimit, v.PerUserLimit,
		v.UsedCount, v.Status,
	)
	if err != nil {
		return translateErr(err)
	}

	targetQuery := `
    INSERT INTO voucher_targets (target_id, voucher_id, type, partner_id, property_id, room_type_id)
    VALUES (?, ?, ?, ?, ?, ?)
    `
	for _, t := range v.Targets {
		if _, err := tx.ExecContext(ctx, targetQuery,
			t.TargetID, v.VoucherID, t.Type, t.PartnerID, t.PropertyID, t.RoomTypeID,
		); err != nil {
			return translateErr(err)
		}
	}

	return translateErr(tx.Commit())
}

func (s *MySQLStore) GetVoucherByCode(ctx context.Context, code string) (*models.Voucher, error) {
	query := `
    SELECT voucher_id, code, discount_type, discount_value, start_date, end_date,
           minimum_order_amount, maximum_discount, usage_limit, per_user_limit,
           used_count, status
    FROM vouchers WHERE code = ?
    `
	v := &models.Voucher{}
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&v.VoucherID, &v.Code, &v.DiscountType, &v.DiscountValue, &v.StartDate, &v.EndDate,
		&v.MinimumOrderAmount, &v.MaximumDiscount, &v.UsageLimit, &v.PerUserLimit,
		&v.UsedCount, &v.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}

	targetQuery := `
    SELECT target_id, voucher_id, type, partner_id, property_id, room_type_id
    FROM voucher_targets WHERE voucher_id = ?
    `
	rows, err := s.db.QueryContext(ctx, targetQuery, v.VoucherID)
	if err != nil {
		return nil, fmt.Errorf("failed to get voucher targets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t := &models.VoucherTarget{}
		if err := rows.Scan(&t.TargetID, &t.VoucherID, &t.Type, &t.PartnerID, &t.PropertyID, &t.RoomTypeID); err != nil {
			return nil, fmt.Errorf("failed to scan voucher target: %w", err)
		}
		v.Targets = append(v.Targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return v, nil
}

func (s *MySQLStore) CountVoucherUsages(ctx context.Context, voucherID, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM voucher_usages WHERE voucher_id = ? AND user_id = ?`
	var count int
	if err := s.db.QueryRowContext(ctx, query, voucherID, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count voucher usages: %w", err)
	}
	return count, nil
}

func (s *MySQLStore) RedeemVoucher(ctx context.Context, usage *models.VoucherUsage, usageLimit, perUserLimit int) error {
	s.log.LogDatabase("UPDATE", "vouchers", fmt.Sprintf("Redeeming voucher %s for user %s", usage.VoucherID, usage.UserID))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translateErr(err)
	}
	defer tx.Rollback()

	// Global cap enforced in the increment itself: two concurrent redeemers
	// of the last slot cannot both match this row.
	incrQuery := `
    UPDATE vouchers SET used_count = used_count + 1
    WHERE voucher_id = ? AND status = ? AND (? = 0 OR used_count < ?)
    `
	res, err := tx.ExecContext(ctx, incrQuery, usage.VoucherID, models.VoucherActive, usageLimit, usageLimit)
	if err != nil {
		return translateErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVoucherLimitExceeded
	}

	if perUserLimit > 0 {
		// Locking read: concurrent redemptions by the same user serialize
		// on the voucher row updated above, so this count is stable.
		var count int
		countQuery := `SELECT COUNT(*) FROM voucher_usages WHERE voucher_id = ? AND user_id = ? FOR UPDATE`
		if err := tx.QueryRowContext(ctx, countQuery, usage.VoucherID, usage.UserID).Scan(&count); err != nil {
			return translateErr(err)
		}
		if count >= perUserLimit {
			return ErrVoucherUserLimitExceeded
		}
	}

	usageQuery := `
    INSERT INTO voucher_usages (usage_id, voucher_id, user_id, booking_id, discount, applied_at)
    VALUES (?, ?, ?, ?, ?, ?)
    `
	if _, err := tx.ExecContext(ctx, usageQuery,
		usage.UsageID, usage.VoucherID, usage.UserID, usage.BookingID, usage.Discount, usage.AppliedAt,
	); err != nil {
		return translateErr(err)
	}

	return translateErr(tx.Commit())
}

func (s *MySQLStore) RollbackVoucherUsage(ctx context.Context, usageID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translateErr(err)
	}
	defer tx.Rollback()

	var voucherID string
	if err := tx.QueryRowContext(ctx, `SELECT voucher_id FROM voucher_usages WHERE usage_id = ?`, usageID).Scan(&voucherID); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return translateErr(err)
	}

	// Voucher row first, usage row second: the same lock order as
	// RedeemVoucher, so concurrent redeem and rollback cannot deadlock.
	if _, err := tx.ExecContext(ctx, `UPDATE vouchers SET used_count = GREATEST(used_count - 1, 0) WHERE voucher_id = ?`, voucherID); err != nil {
		return translateErr(err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM voucher_usages WHERE usage_id = ?`, usageID); err != nil {
		return translateErr(err)
	}

	return translateErr(tx.Commit())
}

// --- Payments ---

func (s *MySQLStore) SavePayment(ctx context.Context, p *models.Payment) error {
	s.log.LogDatabase("INSERT", "payments", fmt.Sprintf("Saving payment %s", p.PaymentID))

	query := `
    INSERT INTO payments (
        payment_id, booking_id, amount, method, status, transaction_id,
        refund_id, url, created_date, updated_date
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, query,
		p.PaymentID, p.BookingID, p.Amount, p.Method, p.Status, p.TransactionID,
		p.RefundID, p.URL, p.CreatedDate, p.UpdatedDate,
	)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save payment %s: %s", p.PaymentID, err.Error()))
		return translateErr(err)
	}
	return nil
}

func (s *MySQLStore) scanPayment(row *sql.Row) (*models.Payment, error) {
	p := &models.Payment{}
	err := row.Scan(
		&p.PaymentID, &p.BookingID, &p.Amount, &p.Method, &p.Status, &p.TransactionID,
		&p.RefundID, &p.URL, &p.CreatedDate, &p.UpdatedDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

const paymentColumns = `payment_id, booking_id, amount, method, status, transaction_id, refund_id, url, created_date, updated_date`

func (s *MySQLStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = ?`
	return s.scanPayment(s.db.QueryRowContext(ctx, query, paymentID))
}

func (s *MySQLStore) GetPaymentByBookingID(ctx context.Context, bookingID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = ? ORDER BY created_date DESC LIMIT 1`
	return s.scanPayment(s.db.QueryRowContext(ctx, query, bookingID))
}

func (s *MySQLStore) GetPaymentByTransactionID(ctx context.Context, txnID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = ?`
	return s.scanPayment(s.db.QueryRowContext(ctx, query, txnID))
}

func (s *MySQLStore) UpdatePayment(ctx context.Context, p *models.Payment) error {
	query := `
    UPDATE payments SET amount = ?, method = ?, transaction_id = ?, refund_id = ?, url = ?, updated_date = ?
    WHERE payment_id = ?
    `
	_, err := s.db.ExecContext(ctx, query,
		p.Amount, p.Method, p.TransactionID, p.RefundID, p.URL, time.Now(), p.PaymentID,
	)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

func (s *MySQLStore) UpdatePaymentStatus(ctx context.Context, paymentID string, from, to models.PaymentStatus) error {
	s.log.LogDatabase("UPDATE", "payments", fmt.Sprintf("Payment %s: %s -> %s", paymentID, from, to))

	query := `UPDATE payments SET status = ?, updated_date = ? WHERE payment_id = ? AND status = ?`
	res, err := s.db.ExecContext(ctx, query, to, time.Now(), paymentID, from)
	if err != nil {
		return translateErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

// --- Audit ---

func (s *MySQLStore) SaveAuditRecord(ctx context.Context, rec *models.AuditRecord) error {
	query := `
    INSERT INTO audit_records (audit_id, actor, action, entity, old_value, new_value, recorded_at)
    VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, query,
		rec.AuditID, rec.Actor, rec.Action, rec.Entity, rec.OldValue, rec.NewValue, rec.RecordedAt,
	)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

func (s *MySQLStore) ListAuditRecords(ctx context.Context, entity string) ([]*models.AuditRecord, error) {
	query := `
    SELECT audit_id, actor, action, entity, old_value, new_value, recorded_at
    FROM audit_records WHERE entity = ? ORDER BY recorded_at
    `
	rows, err := s.db.QueryContext(ctx, query, entity)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var records []*models.AuditRecord
	for rows.Next() {
		rec := &models.AuditRecord{}
		if err := rows.Scan(&rec.AuditID, &rec.Actor, &rec.Action, &rec.Entity, &rec.OldValue, &rec.NewValue, &rec.RecordedAt); err != nil {
			return nil, translateErr(err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *MySQLStore) HealthCheck() error {
	return s.db.Ping()
}

func (s *MySQLStore) Close() error {
	s.log.LogDatabase("CLOSE", "mysql", "Closing MySQL connection")
	return s.db.Close()
}
