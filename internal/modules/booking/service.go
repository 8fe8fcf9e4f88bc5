// Package booking turns a guest's request into a reservation atomically.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lodging/internal/audit"
	"lodging/internal/config"
	"lodging/internal/database"
	"lodging/internal/domain"
	"lodging/internal/metrics"
	"lodging/internal/modules/availability"
	"lodging/internal/modules/pricing"
	"lodging/internal/modules/reservation"
	"lodging/internal/repository"
)

const maxReferenceAttempts = 10

type Service struct {
	db           *gorm.DB
	audit        *audit.Recorder
	reservations *reservation.Service
	metrics      *metrics.Metrics
	log          *zap.Logger
	cfg          config.Booking
	refs         ReferenceGenerator
	now          func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithReferenceGenerator(g ReferenceGenerator) Option {
	return func(s *Service) { s.refs = g }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(
	db *gorm.DB,
	recorder *audit.Recorder,
	reservations *reservation.Service,
	cfg config.Booking,
	log *zap.Logger,
	opts ...Option,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		db:           db,
		audit:        recorder,
		reservations: reservations,
		log:          log,
		cfg:          cfg,
		refs:         NewReferenceGenerator(cfg.ReferencePrefix),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type bookingInput struct {
	checkIn  time.Time
	checkOut time.Time
	rooms    []RoomRequest
	first    string
	last     string
	email    *string
	phone    *string
	guests   int
	method   domain.PaymentMethod
	source   domain.ReservationSource
	special  string
}

func (s *Service) txOptions(ctx context.Context, op string) database.TxOptions {
	return database.TxOptions{
		Isolation:  sql.LevelSerializable,
		Timeout:    s.cfg.TxTimeout,
		MaxRetries: s.cfg.MaxTxRetries,
		// a concurrent insert of the same reference surfaces as a unique violation
		RetryIf: database.IsUniqueViolation,
		OnRetry: func(attempt int, err error) {
			s.metrics.TxRetried(ctx, op)
			s.log.Debug("retrying transaction", zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
		},
	}
}

// CreateBooking re-checks availability, prices the stay and persists the
// reservation with its lines, guest, payment intent and audit event in one
// serializable transaction.
func (s *Service) CreateBooking(ctx context.Context, tenantID int64, req CreateBookingRequest) (*Confirmation, error) {
	started := time.Now()
	in, err := s.validate(req)
	if err != nil {
		s.metrics.BookingFailed(ctx, tenantID, "validation")
		return nil, err
	}

	var conf *Confirmation
	err = database.RunInTx(ctx, s.db, s.txOptions(ctx, "booking.create"), func(tx *gorm.DB) error {
		c, err := s.book(ctx, tx, tenantID, in)
		if err != nil {
			return err
		}
		conf = c
		return nil
	})
	if err != nil {
		s.metrics.BookingFailed(ctx, tenantID, failureReason(err))
		s.log.Info("booking rejected", zap.Int64("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}

	s.metrics.BookingCreated(ctx, tenantID, time.Since(started))
	s.log.Info("booking created",
		zap.Int64("tenant_id", tenantID),
		zap.String("reference", conf.BookingReference),
		zap.String("status", string(conf.Status)),
		zap.String("total", conf.TotalAmount.StringFixed(2)))
	return conf, nil
}

func (s *Service) validate(req CreateBookingRequest) (*bookingInput, error) {
	checkIn, err := domain.ParseDate(req.CheckIn)
	if err != nil {
		return nil, domain.NewValidationError("check_in", "must be a date in YYYY-MM-DD format")
	}
	checkOut, err := domain.ParseDate(req.CheckOut)
	if err != nil {
		return nil, domain.NewValidationError("check_out", "must be a date in YYYY-MM-DD format")
	}
	if !checkOut.After(checkIn) {
		return nil, domain.ErrInvalidDateRange
	}
	if checkIn.Before(domain.DateOf(s.now())) {
		return nil, domain.NewValidationError("check_in", "must not be in the past")
	}

	rooms, err := mergeRooms(req.Rooms)
	if err != nil {
		return nil, err
	}

	in := &bookingInput{
		checkIn:  checkIn,
		checkOut: checkOut,
		rooms:    rooms,
		first:    strings.TrimSpace(req.Guest.FirstName),
		last:     strings.TrimSpace(req.Guest.LastName),
		email:    domain.NormalizeEmail(req.Guest.Email),
		phone:    domain.NormalizePhone(req.Guest.Phone),
		guests:   req.NumberOfGuests,
		method:   domain.PaymentMethod(req.PaymentMethod),
		source:   domain.SourceWeb,
		special:  strings.TrimSpace(req.SpecialRequests),
	}
	switch {
	case in.first == "":
		return nil, domain.NewValidationError("guest.first_name", "is required")
	case in.last == "":
		return nil, domain.NewValidationError("guest.last_name", "is required")
	case in.email == nil && in.phone == nil:
		return nil, domain.NewValidationError("guest", "%s", errNoContact)
	case !in.method.Valid():
		return nil, domain.NewValidationError("payment_method", "%s %q", errUnknownMethod, req.PaymentMethod)
	case in.guests < 0:
		return nil, domain.NewValidationError("number_of_guests", "must not be negative")
	}
	if in.guests == 0 {
		in.guests = 1
	}
	if req.Source != "" {
		switch src := domain.ReservationSource(req.Source); src {
		case domain.SourceWeb, domain.SourceAdmin, domain.SourcePhone, domain.SourceWalkIn:
			in.source = src
		default:
			return nil, domain.NewValidationError("source", "unknown source %q", req.Source)
		}
	}
	return in, nil
}

// mergeRooms folds repeated room types into one request, keeping first-seen order.
func mergeRooms(reqs []RoomRequest) ([]RoomRequest, error) {
	if len(reqs) == 0 {
		return nil, domain.NewValidationError("rooms", "at least one room is required")
	}
	out := make([]RoomRequest, 0, len(reqs))
	index := make(map[int64]int, len(reqs))
	for i, r := range reqs {
		if r.RoomTypeID <= 0 {
			return nil, domain.NewValidationError(fmt.Sprintf("rooms[%d].room_type_id", i), "is required")
		}
		if r.Quantity < 1 {
			return nil, domain.NewValidationError(fmt.Sprintf("rooms[%d].quantity", i), "must be at least 1")
		}
		if j, ok := index[r.RoomTypeID]; ok {
			out[j].Quantity += r.Quantity
			continue
		}
		index[r.RoomTypeID] = len(out)
		out = append(out, r)
	}
	return out, nil
}

func (s *Service) book(ctx context.Context, tx *gorm.DB, tenantID int64, in *bookingInput) (*Confirmation, error) {
	ids := make([]int64, 0, len(in.rooms))
	for _, r := range in.rooms {
		ids = append(ids, r.RoomTypeID)
	}

	catalog, err := pricing.LoadCatalog(ctx, repository.NewCatalogRepository(tx), tenantID, ids...)
	if err != nil {
		return nil, err
	}
	units, err := availability.CountUnits(ctx, tx, tenantID, ids, in.checkIn, in.checkOut)
	if err != nil {
		return nil, err
	}

	capacity := 0
	for _, r := range in.rooms {
		rt, ok := catalog.RoomType(r.RoomTypeID)
		if !ok {
			return nil, fmt.Errorf("room type %d: %w", r.RoomTypeID, domain.ErrNotFound)
		}
		if available := units[r.RoomTypeID].Available(); r.Quantity > available {
			return nil, &domain.InsufficientAvailabilityError{
				RoomTypeID:   rt.ID,
				RoomTypeName: rt.Name,
				Requested:    r.Quantity,
				Available:    available,
				Shortfall:    r.Quantity - available,
			}
		}
		capacity += rt.MaxOccupancy * r.Quantity
	}
	if in.guests > capacity {
		return nil, domain.NewValidationError("number_of_guests", "%d guests exceed the capacity of the requested rooms (%d)", in.guests, capacity)
	}

	guest, err := s.upsertGuest(ctx, tx, tenantID, in)
	if err != nil {
		return nil, err
	}
	reference, err := s.nextReference(ctx, tx)
	if err != nil {
		return nil, err
	}

	res := &domain.Reservation{
		TenantID:         tenantID,
		GuestID:          guest.ID,
		BookingReference: reference,
		CheckIn:          in.checkIn,
		CheckOut:         in.checkOut,
		Status:           domain.ReservationPending,
		TotalAmount:      decimal.Zero,
		PaidAmount:       decimal.Zero,
		NumberOfGuests:   in.guests,
		Source:           in.source,
		PaymentMethod:    in.method,
		SpecialRequests:  in.special,
	}
	if in.method == domain.MethodPayAtProperty {
		res.Status = domain.ReservationConfirmed
	}

	conf := &Confirmation{
		BookingReference: reference,
		CheckIn:          in.checkIn.Format(domain.DateLayout),
		CheckOut:         in.checkOut.Format(domain.DateLayout),
		Nights:           domain.Nights(in.checkIn, in.checkOut),
		PaymentMethod:    in.method,
		GuestName:        guest.FirstName + " " + guest.LastName,
		GuestEmail:       guest.Email,
		GuestPhone:       guest.Phone,
	}
	for _, r := range in.rooms {
		quote, err := catalog.Quote(r.RoomTypeID, in.checkIn, in.checkOut)
		if err != nil {
			return nil, err
		}
		for i := 0; i < r.Quantity; i++ {
			res.Lines = append(res.Lines, domain.ReservationRoomLine{
				RoomTypeID:    r.RoomTypeID,
				PricePerNight: quote.NightlyPrice,
			})
		}
		subtotal := quote.Total.Mul(decimal.NewFromInt(int64(r.Quantity)))
		res.TotalAmount = res.TotalAmount.Add(subtotal)

		rt, _ := catalog.RoomType(r.RoomTypeID)
		conf.Rooms = append(conf.Rooms, ConfirmationRoom{
			RoomTypeID:    r.RoomTypeID,
			Name:          rt.Name,
			Quantity:      r.Quantity,
			PricePerNight: quote.NightlyPrice,
			Subtotal:      subtotal,
		})
	}

	if err := repository.NewReservationRepository(tx).Create(ctx, res); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}
	res.Guest = guest
	conf.Status = res.Status
	conf.TotalAmount = res.TotalAmount

	actor := domain.SystemActor(tenantID)
	if err := s.audit.Record(ctx, tx, audit.Event{
		Actor:    actor,
		Action:   "reservation.created",
		EntityID: res.ID,
		After:    domain.SnapshotReservation(res),
	}); err != nil {
		return nil, err
	}

	if in.method.IsOnline() {
		intent := &domain.Payment{
			TenantID:      tenantID,
			ReservationID: &res.ID,
			Amount:        res.TotalAmount,
			Method:        in.method,
			Status:        domain.PaymentInitiated,
		}
		if err := repository.NewPaymentRepository(tx).Create(ctx, intent); err != nil {
			return nil, fmt.Errorf("create payment intent: %w", err)
		}
		if err := s.audit.Record(ctx, tx, audit.Event{
			Actor:    actor,
			Action:   "payment.initiated",
			EntityID: intent.ID,
			After:    domain.SnapshotPayment(intent),
		}); err != nil {
			return nil, err
		}
		conf.PaymentIntentID = &intent.ID
	}
	return conf, nil
}

func guestSnapshot(g *domain.Guest) *domain.GuestSnapshot {
	return &domain.GuestSnapshot{FirstName: g.FirstName, LastName: g.LastName, Email: g.Email, Phone: g.Phone}
}

func sameGuest(a, b *domain.GuestSnapshot) bool {
	eq := func(x, y *string) bool {
		if x == nil || y == nil {
			return x == y
		}
		return *x == *y
	}
	return a.FirstName == b.FirstName && a.LastName == b.LastName && eq(a.Email, b.Email) && eq(a.Phone, b.Phone)
}

// upsertGuest reuses the tenant's guest with the same email, or else the same
// phone, refreshing names and filling in missing contacts.
func (s *Service) upsertGuest(ctx context.Context, tx *gorm.DB, tenantID int64, in *bookingInput) (*domain.Guest, error) {
	guests := repository.NewGuestRepository(tx)
	actor := domain.SystemActor(tenantID)

	g, err := guests.FindByContact(ctx, tenantID, in.email, in.phone)
	if err != nil {
		return nil, fmt.Errorf("find guest: %w", err)
	}
	if g == nil {
		g = &domain.Guest{TenantID: tenantID, FirstName: in.first, LastName: in.last, Email: in.email, Phone: in.phone}
		if err := guests.Create(ctx, g); err != nil {
			return nil, fmt.Errorf("create guest: %w", err)
		}
		return g, s.audit.Record(ctx, tx, audit.Event{Actor: actor, Action: "guest.created", EntityID: g.ID, After: guestSnapshot(g)})
	}

	before := guestSnapshot(g)
	g.FirstName, g.LastName = in.first, in.last
	if in.email != nil {
		g.Email = in.email
	}
	if in.phone != nil {
		g.Phone = in.phone
	}
	if sameGuest(before, guestSnapshot(g)) {
		return g, nil
	}
	if err := guests.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("update guest %d: %w", g.ID, err)
	}
	return g, s.audit.Record(ctx, tx, audit.Event{Actor: actor, Action: "guest.updated", EntityID: g.ID, Before: before, After: guestSnapshot(g)})
}

func (s *Service) nextReference(ctx context.Context, tx *gorm.DB) (string, error) {
	reservations := repository.NewReservationRepository(tx)
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref, err := s.refs.Next()
		if err != nil {
			return "", fmt.Errorf("generate reference: %w", err)
		}
		exists, err := reservations.ReferenceExists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("check reference: %w", err)
		}
		if !exists {
			return ref, nil
		}
	}
	return "", domain.ErrReferenceExhausted
}

func failureReason(err error) string {
	var shortfall *domain.InsufficientAvailabilityError
	switch {
	case errors.As(err, &shortfall):
		return "insufficient_availability"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrReferenceExhausted):
		return "reference_exhausted"
	case errors.Is(err, domain.ErrTransactionConflict):
		return "conflict"
	case errors.Is(err, domain.ErrTransactionTimeout):
		return "timeout"
	}
	return "internal"
}

// GetByReference is the guest-facing lookup. A wrong last name is reported
// exactly like an unknown reference.
func (s *Service) GetByReference(ctx context.Context, reference, lastName string) (*domain.Reservation, error) {
	res, err := repository.NewReservationRepository(s.db).GetByReference(ctx, normalizeReference(reference))
	if err != nil {
		return nil, err
	}
	if err := matchGuest(res, reference, lastName); err != nil {
		return nil, err
	}
	return res, nil
}

// Cancel lets a guest cancel a pending or confirmed reservation.
func (s *Service) Cancel(ctx context.Context, reference, lastName, reason string) (*domain.Reservation, error) {
	opts := s.txOptions(ctx, "booking.cancel")
	opts.Isolation = sql.LevelDefault
	opts.RetryIf = nil

	err := database.RunInTx(ctx, s.db, opts, func(tx *gorm.DB) error {
		res, err := repository.NewReservationRepository(tx).GetByReferenceForUpdate(ctx, normalizeReference(reference))
		if err != nil {
			return err
		}
		if err := matchGuest(res, reference, lastName); err != nil {
			return err
		}
		if res.Status != domain.ReservationPending && res.Status != domain.ReservationConfirmed {
			return guestCancelError(res.Status)
		}
		return s.reservations.Apply(ctx, tx, domain.SystemActor(res.TenantID), res, reservation.TransitionRequest{
			ReservationID: res.ID,
			To:            domain.ReservationCancelled,
			Reason:        reason,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetByReference(ctx, reference, lastName)
}

func guestCancelError(from domain.ReservationStatus) *domain.InvalidStatusTransitionError {
	err := from.TransitionError(domain.ReservationCancelled)
	err.Allowed = nil
	return err
}

func normalizeReference(ref string) string {
	return strings.ToUpper(strings.TrimSpace(ref))
}

func matchGuest(res *domain.Reservation, reference, lastName string) error {
	if res.Guest == nil || !strings.EqualFold(strings.TrimSpace(lastName), res.Guest.LastName) {
		return fmt.Errorf("reservation %s: %w", normalizeReference(reference), domain.ErrNotFound)
	}
	return nil
}
