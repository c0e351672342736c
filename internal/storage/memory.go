package storage

import (
	"context"
	"sync"
	"time"

	"booking-platform/internal/models"
)

// InMemoryStore mirrors the MySQL store's conditional-update semantics
// behind a mutex. It backs tests and mock mode.
type InMemoryStore struct {
	mutex sync.Mutex

	bookings      map[string]*models.Booking
	inventory     map[string]*models.RoomInventory // roomTypeID|date
	reservations  map[string]*models.Reservation
	vouchers      map[string]*models.Voucher // by code
	voucherUsages map[string]*models.VoucherUsage
	payments      map[string]*models.Payment
	auditRecords  []*models.AuditRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		bookings:      make(map[string]*models.Booking),
		inventory:     make(map[string]*models.RoomInventory),
		reservations:  make(map[string]*models.Reservation),
		vouchers:      make(map[string]*models.Voucher),
		voucherUsages: make(map[string]*models.VoucherUsage),
		payments:      make(map[string]*models.Payment),
	}
}

func invKey(roomTypeID string, date time.Time) string {
	return roomTypeID + "|" + date.Format("2006-01-02")
}

// --- Bookings ---

func (s *InMemoryStore) SaveBooking(ctx context.Context, booking *models.Booking) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	copied := *booking
	s.bookings[booking.BookingID] = &copied
	return nil
}

func (s *InMemoryStore) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	booking, exists := s.bookings[bookingID]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *booking
	return &copied, nil
}

func (s *InMemoryStore) UpdateBookingStatus(ctx context.Context, bookingID string, from, to models.BookingStatus, reason string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	booking, exists := s.bookings[bookingID]
	if !exists {
		return ErrNotFound
	}
	if booking.Status != from {
		return ErrConflict
	}
	booking.Status = to
	if reason != "" {
		booking.CancellationReason = reason
	}
	booking.UpdatedDate = time.Now()
	return nil
}

// --- Room inventory ---

func (s *InMemoryStore) UpsertRoomInventory(ctx context.Context, inv *models.RoomInventory) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := invKey(inv.RoomTypeID, inv.StayDate)
	if existing, ok := s.inventory[key]; ok {
		existing.Total = inv.Total
		return nil
	}
	copied := *inv
	s.inventory[key] = &copied
	return nil
}

func (s *InMemoryStore) GetRoomInventory(ctx context.Context, roomTypeID string, date time.Time) (*models.RoomInventory, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	inv, exists := s.inventory[invKey(roomTypeID, date)]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *inv
	return &copied, nil
}

func (s *InMemoryStore) ReserveInventory(ctx context.Context, roomTypeID string, dates []time.Time, qty int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	// Check every date before touching any: all-or-nothing.
	for _, date := range dates {
		inv, exists := s.inventory[invKey(roomTypeID, date)]
		if !exists || inv.Committed+qty > inv.Total {
			return ErrInsufficientInventory
		}
	}
	for _, date := range dates {
		s.inventory[invKey(roomTypeID, date)].Committed += qty
	}
	return nil
}

func (s *InMemoryStore) ReleaseInventory(ctx context.Context, roomTypeID string, dates []time.Time, qty int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, date := range dates {
		if inv, exists := s.inventory[invKey(roomTypeID, date)]; exists {
			inv.Committed -= qty
			if inv.Committed < 0 {
				inv.Committed = 0
			}
		}
	}
	return nil
}

// --- Reservations ---

func (s *InMemoryStore) SaveReservation(ctx context.Context, r *models.Reservation) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	copied := *r
	s.reservations[r.Token] = &copied
	return nil
}

func (s *InMemoryStore) GetReservation(ctx context.Context, token string) (*models.Reservation, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	r, exists := s.reservations[token]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *InMemoryStore) ListReservationsByBooking(ctx context.Context, bookingID string) ([]*models.Reservation, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var reservations []*models.Reservation
	for _, r := range s.reservations {
		if r.BookingID == bookingID {
			copied := *r
			reservations = append(reservations, &copied)
		}
	}
	return reservations, nil
}

func (s *InMemoryStore) AttachReservation(ctx context.Context, token, bookingID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	r, exists := s.reservations[token]
	if !exists {
		return ErrNotFound
	}
	r.BookingID = bookingID
	return nil
}

func (s *InMemoryStore) MarkReservationReleased(ctx context.Context, token string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	r, exists := s.reservations[token]
	if !exists {
		return false, ErrNotFound
	}
	if r.Status != models.ReservationHeld {
		return false, nil
	}
	r.Status = models.ReservationReleased
	return true, nil
}

// --- Vouchers ---

func (s *InMemoryStore) SaveVoucher(ctx context.Context, v *models.Voucher) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	copied := *v
	s.vouchers[v.Code] = &copied
	return nil
}

func (s *InMemoryStore) GetVoucherByCode(ctx context.Context, code string) (*models.Voucher, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	v, exists := s.vouchers[code]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (s *InMemoryStore) CountVoucherUsages(ctx context.Context, voucherID, userID string) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.countUsagesLocked(voucherID, userID), nil
}

func (s *InMemoryStore) countUsagesLocked(voucherID, userID string) int {
	count := 0
	for _, u := range s.voucherUsages {
		if u.VoucherID == voucherID && u.UserID == userID {
			count++
		}
	}
	return count
}

func (s *InMemoryStore) RedeemVoucher(ctx context.Context, usage *models.VoucherUsage, usageLimit, perUserLimit int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var voucher *models.Voucher
	for _, v := range s.vouchers {
		if v.VoucherID == usage.VoucherID {
			voucher = v
			break
		}
	}
	if voucher == nil {
		return ErrNotFound
	}
	if voucher.Status != models.VoucherActive {
		return ErrVoucherLimitExceeded
	}
	if usageLimit > 0 && voucher.UsedCount >= usageLimit {
		return ErrVoucherLimitExceeded
	}
	if perUserLimit > 0 && s.countUsagesLocked(usage.VoucherID, usage.UserID) >= perUserLimit {
		return ErrVoucherUserLimitExceeded
	}

	voucher.UsedCount++
	copied := *usage
	s.voucherUsages[usage.UsageID] = &copied
	return nil
}

func (s *InMemoryStore) RollbackVoucherUsage(ctx context.Context, usageID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	usage, exists := s.voucherUsages[usageID]
	if !exists {
		return nil
	}
	delete(s.voucherUsages, usageID)
	for _, v := range s.vouchers {
		if v.VoucherID == usage.VoucherID && v.UsedCount > 0 {
			v.UsedCount--
		}
	}
	return nil
}

// --- Payments ---

func (s *InMemoryStore) SavePayment(ctx context.Context, p *models.Payment) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	copied := *p
	s.payments[p.PaymentID] = &copied
	return nil
}

func (s *InMemoryStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	p, exists := s.payments[paymentID]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *InMemoryStore) GetPaymentByBookingID(ctx context.Context, bookingID string) (*models.Payment, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var latest *models.Payment
	for _, p := range s.payments {
		if p.BookingID != bookingID {
			continue
		}
		if latest == nil || p.CreatedDate.After(latest.CreatedDate) {
			latest = p
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (s *InMemoryStore) GetPaymentByTransactionID(ctx context.Context, txnID string) (*models.Payment, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, p := range s.payments {
		if p.TransactionID == txnID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) UpdatePayment(ctx context.Context, p *models.Payment) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, exists := s.payments[p.PaymentID]
	if !exists {
		return ErrNotFound
	}
	existing.Amount = p.Amount
	existing.Method = p.Method
	existing.TransactionID = p.TransactionID
	existing.RefundID = p.RefundID
	existing.URL = p.URL
	existing.UpdatedDate = time.Now()
	return nil
}

func (s *InMemoryStore) UpdatePaymentStatus(ctx context.Context, paymentID string, from, to models.PaymentStatus) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	p, exists := s.payments[paymentID]
	if !exists {
		return ErrNotFound
	}
	if p.Status != from {
		return ErrConflict
	}
	p.Status = to
	p.UpdatedDate = time.Now()
	return nil
}

// --- Audit ---

func (s *InMemoryStore) SaveAuditRecord(ctx context.Context, rec *models.AuditRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	copied := *rec
	s.auditRecords = append(s.auditRecords, &copied)
	return nil
}

func (s *InMemoryStore) ListAuditRecords(ctx context.Context, entity string) ([]*models.AuditRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var records []*models.AuditRecord
	for _, rec := range s.auditRecords {
		if rec.Entity == entity {
			copied := *rec
			records = append(records, &copied)
		}
	}
	return records, nil
}

// AuditRecords returns a snapshot of the audit trail, for tests.
func (s *InMemoryStore) AuditRecords() []*models.AuditRecord {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]*models.AuditRecord, len(s.auditRecords))
	copy(out, s.auditRecords)
	return out
}

func (s *InMemoryStore) HealthCheck() error { return nil }
func (s *InMemoryStore) Close() error       { return nil }
