package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"gorm.io/gorm"

	"lodging/internal/audit"
	"lodging/internal/config"
	"lodging/internal/database"
	"lodging/internal/domain"
	"lodging/internal/metrics"
	"lodging/internal/modules/availability"
	"lodging/internal/modules/reservation"
	"lodging/internal/testutil"
)

const tenant = int64(1)

var today = time.Date(2030, 1, 1, 9, 30, 0, 0, time.UTC)

func newService(db *gorm.DB, opts ...Option) *Service {
	recorder := audit.NewRecorder()
	clock := func() time.Time { return today }
	reservations := reservation.NewService(db, recorder, database.TxOptions{Timeout: 5 * time.Second}, nil, reservation.WithClock(clock))
	cfg := config.Booking{TxTimeout: 5 * time.Second, MaxTxRetries: 3, ReferencePrefix: "BK"}
	return NewService(db, recorder, reservations, cfg, nil, append([]Option{WithClock(clock)}, opts...)...)
}

func request(roomTypeID int64, qty int, method domain.PaymentMethod) CreateBookingRequest {
	return CreateBookingRequest{
		CheckIn:        "2030-01-10",
		CheckOut:       "2030-01-15",
		Rooms:          []RoomRequest{{RoomTypeID: roomTypeID, Quantity: qty}},
		Guest:          GuestInput{FirstName: "Ada", LastName: "Lovelace", Email: "Ada@Example.com"},
		NumberOfGuests: 2,
		PaymentMethod:  string(method),
	}
}

type fixedReferences struct {
	refs  []string
	calls int
}

func (f *fixedReferences) Next() (string, error) {
	ref := f.refs[f.calls%len(f.refs)]
	f.calls++
	return ref, nil
}

func TestCreateBooking_ConfirmsAndConsumesAvailability(t *testing.T) {
	db := testutil.OpenDB(t)
	std, _ := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 5)
	svc := newService(db)

	conf, err := svc.CreateBooking(context.Background(), tenant, request(std.ID, 3, domain.MethodPayAtProperty))
	require.NoError(t, err)

	assert.Equal(t, domain.ReservationConfirmed, conf.Status)
	assert.Regexp(t, `^BK[A-Z0-9]{6}$`, conf.BookingReference)
	assert.Equal(t, 5, conf.Nights)
	assert.Equal(t, "1500.00", conf.TotalAmount.StringFixed(2))
	require.Len(t, conf.Rooms, 1)
	assert.Equal(t, "Standard", conf.Rooms[0].Name)
	assert.Equal(t, "100.00", conf.Rooms[0].PricePerNight.StringFixed(2))
	assert.Nil(t, conf.PaymentIntentID)
	assert.Equal(t, "ada@example.com", *conf.GuestEmail)

	available, err := availability.CountAvailable(context.Background(), db, tenant, std.ID, testutil.Date("2030-01-10"), testutil.Date("2030-01-15"))
	require.NoError(t, err)
	assert.Equal(t, 2, available)

	_, err = svc.CreateBooking(context.Background(), tenant, request(std.ID, 3, domain.MethodPayAtProperty))
	var shortfall *domain.InsufficientAvailabilityError
	require.ErrorAs(t, err, &shortfall)
	assert.Equal(t, "Standard", shortfall.RoomTypeName)
	assert.Equal(t, 3, shortfall.Requested)
	assert.Equal(t, 2, shortfall.Available)
	assert.Equal(t, 1, shortfall.Shortfall)

	var count int64
	require.NoError(t, db.Model(&domain.Reservation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "failed booking leaves nothing behind")

	res, err := svc.GetByReference(context.Background(), conf.BookingReference, "lovelace")
	require.NoError(t, err)
	require.Len(t, res.Lines, 3)
	for _, l := range res.Lines {
		assert.Equal(t, domain.Unassigned{}, l.Assignment())
	}

	var events []domain.AuditEvent
	require.NoError(t, db.Where("action = ?", "reservation.created").Find(&events).Error)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].ActorID)
}

func TestCreateBooking_ConcurrentRequestsForLastRoom(t *testing.T) {
	db := testutil.OpenDB(t)
	std, _ := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 1)
	svc := newService(db)

	var (
		wg        sync.WaitGroup
		successes int
		shortages int
		mu        sync.Mutex
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateBooking(context.Background(), tenant, request(std.ID, 1, domain.MethodPayAtProperty))
			mu.Lock()
			defer mu.Unlock()
			var shortfall *domain.InsufficientAvailabilityError
			switch {
			case err == nil:
				successes++
			case assert.ErrorAs(t, err, &shortfall):
				shortages++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, shortages)
}

func TestCreateBooking_OnlinePaymentCreatesIntent(t *testing.T) {
	db := testutil.OpenDB(t)
	std, _ := testutil.SeedRoomType(t, db, tenant, "Standard", "80", 2, 2)

	conf, err := newService(db).CreateBooking(context.Background(), tenant, request(std.ID, 1, domain.MethodOnline))
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationPending, conf.Status)
	require.NotNil(t, conf.PaymentIntentID)

	var intent domain.Payment
	require.NoError(t, db.First(&intent, *conf.PaymentIntentID).Error)
	assert.Equal(t, domain.PaymentInitiated, intent.Status)
	assert.Equal(t, "400.00", intent.Amount.StringFixed(2))

	var entries int64
	require.NoError(t, db.Model(&domain.LedgerEntry{}).Count(&entries).Error)
	assert.Zero(t, entries, "intents do not touch the ledger")
}

func TestCreateBooking_MergesRoomTypesAndPricesPerType(t *testing.T) {
	db := testutil.OpenDB(t)
	std, _ := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 2)
	suite, _ := testutil.SeedRoomType(t, db, tenant, "Suite", "250", 4, 1)
	require.NoError(t, db.Create(&domain.SeasonalRate{
		TenantID: tenant, RoomTypeID: suite.ID, Name: "Peak", Multiplier: testutil.Money("1.2"),
		StartDate: testutil.Date("2030-01-01"), EndDate: testutil.Date("2030-01-31"), Active: true,
	}).Error)

	req := request(std.ID, 1, domain.MethodCash)
	req.Rooms = append(req.Rooms, RoomRequest{RoomTypeID: suite.ID, Quantity: 1}, RoomRequest{RoomTypeID: std.ID, Quantity: 1})
	conf, err := newService(db).CreateBooking(context.Background(), tenant, req)
	require.NoError(t, err)

	require.Len(t, conf.Rooms, 2)
	assert.Equal(t, 2, conf.Rooms[0].Quantity)
	assert.Equal(t, "1000.00", conf.Rooms[0].Subtotal.StringFixed(2))
	assert.Equal(t, "300.00", conf.Rooms[1].PricePerNight.StringFixed(2))
	assert.Equal(t, "2500.00", conf.TotalAmount.StringFixed(2))

	req.Rooms = []RoomRequest{{RoomTypeID: std.ID, Quantity: 1}, {RoomTypeID: std.ID, Quantity: 1}}
	_, err = newService(db).CreateBooking(context.Background(), tenant, req)
	var shortfall *domain.InsufficientAvailabilityError
	require.ErrorAs(t, err, &shortfall)
	assert.Equal(t, 2, shortfall.Requested)
	assert.Equal(t, 0, shortfall.Available)
}

func TestCreateBooking_ValidationHasNoSideEffects(t *testing.T) {
	db := testutil.OpenDB(t)
	std, _ := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 2)
	svc := newService(db)

	tests := []struct {
		name   string
		mutate func(r *CreateBookingRequest)
		field  string
	}{
		{"past check-in", func(r *CreateBookingRequest) { r.CheckIn = "2029-12-31" }, "check_in"},
		{"no rooms", func(r *CreateBookingRequest) { r.Rooms = nil }, "rooms"},
		{"zero quantity", func(r *CreateBookingRequest) { r.Rooms[0].Quantity = 0 }, "rooms[0].quantity"},
		{"no contact", func(r *CreateBookingRequest) { r.Guest.Email = "" }, "guest"},
		{"blank last name", func(r *CreateBookingRequest) { r.Guest.LastName = "  " }, "guest.last_name"},
		{"unknown method", func(r *CreateBookingRequest) { r.PaymentMethod = "barter" }, "payment_method"},
		{"too many guests", func(r *CreateBookingRequest) { r.NumberOfGuests = 3 }, "number_of_guests"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(std.ID, 1, domain.MethodCash)
			tt.mutate(&req)
			_, err := svc.CreateBooking(context.Background(), tenant, req)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	req := request(std.ID, 1, domain.MethodCash)
	req.CheckOut = req.CheckIn
	_, err := svc.CreateBooking(context.Background(), tenant, req)
	require.ErrorIs(t, err, domain.ErrInvalidDateRange)

	for _, model := range []any{&domain.Reservation{}, &domain.Guest{}, &domain.AuditEvent{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
}

func TestCreateBooking_UnknownRoomType(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.SeedRoomType(t, db, 2, "Other tenant", "100", 2, 2)

	_, err := newService(db).CreateBooking(context.Background(), tenant, request(1, 1, domain.MethodCash))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateBooking_ReferenceCollisions(t *testing.T) {
	db := testutil.OpenDB(t)
	std, _ := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 5)

	refs := &fixedReferences{refs: []string{"BKAAAAAA"}}
	svc := newService(db, WithReferenceGenerator(refs))
	conf, err := svc.CreateBooking(context.Background(), tenant, request(std.ID, 1, domain.MethodCash))
	require.NoError(t, err)
	assert.Equal(t, "BKAAAAAA", conf.BookingReference)

	refs.calls = 0
	_, err = svc.CreateBooking(context.Background(), tenant, request(std.ID, 1, domain.MethodCash))
	require.ErrorIs(t, err, domain.ErrReferenceExhausted)
	assert.Equal(t, maxReferenceAttempts, refs.calls)

	refs = &fixedReferences{refs: []string{"BKAAAAAA", "BKAAAAAA", "BKBBBBBB"}}
	conf, err = newService(db, WithReferenceGenerator(refs)).CreateBooking(context.Background(), tenant, request(std.ID, 1, domain.MethodCash))
	require.NoError(t, err)
	assert.Equal(t, "BKBBBBBB", conf.BookingReference)
}

func TestReferenceGenerator_Format(t *testing.T) {
	gen := NewReferenceGenerator("BK")
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		ref, err := gen.Next()
		require.NoError(t, err)
		assert.Regexp(t, `^BK[A-Z0-9]{6}$`, ref)
		seen[ref] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestCreateBooking_ReusesGuestByContact(t *testing.T) {
	db := testutil.OpenDB(t)
	std, _ := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 5)
	svc := newService(db)

	first := request(std.ID, 1, domain.MethodCash)
	_, err := svc.CreateBooking(context.Background(), tenant, first)
	require.NoError(t, err)

	second := request(std.ID, 1, domain.MethodCash)
	second.Guest = GuestInput{FirstName: "Augusta", LastName: "King", Email: " ADA@example.com ", Phone: "+44 20 7946 0000"}
	_, err = svc.CreateBooking(context.Background(), tenant, second)
	require.NoError(t, err)

	var guests []domain.Guest
	require.NoError(t, db.Find(&guests).Error)
	require.Len(t, guests, 1)
	assert.Equal(t, "King", guests[0].LastName)
	assert.Equal(t, "+442079460000", *guests[0].Phone)

	byPhone := request(std.ID, 1, domain.MethodCash)
	byPhone.Guest = GuestInput{FirstName: "Augusta", LastName: "King", Phone: "+44 (20) 7946-0000"}
	_, err = svc.CreateBooking(context.Background(), tenant, byPhone)
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.Guest{}).Find(&guests).Error)
	assert.Len(t, guests, 1)
}

func TestGetByReference_LastNameMismatchIsNotFound(t *testing.T) {
	db := testutil.OpenDB(t)
	std, _ := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 1)
	svc := newService(db)
	conf, err := svc.CreateBooking(context.Background(), tenant, request(std.ID, 1, domain.MethodCash))
	require.NoError(t, err)

	_, err = svc.GetByReference(context.Background(), conf.BookingReference, "Byron")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.GetByReference(context.Background(), "BKZZZZZZ", "Lovelace")
	require.ErrorIs(t, err, domain.ErrNotFound)

	res, err := svc.GetByReference(context.Background(), " "+conf.BookingReference+" ", "LOVELACE")
	require.NoError(t, err)
	assert.Equal(t, conf.BookingReference, res.BookingReference)
}

func TestCancel_GuestRules(t *testing.T) {
	db := testutil.OpenDB(t)
	std, _ := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 2)
	svc := newService(db)

	conf, err := svc.CreateBooking(context.Background(), tenant, request(std.ID, 1, domain.MethodOnline))
	require.NoError(t, err)

	res, err := svc.Cancel(context.Background(), conf.BookingReference, "Lovelace", "plans changed")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCancelled, res.Status)
	assert.Equal(t, "plans changed", res.CancelReason)
	require.NotNil(t, res.CancelledAt)

	var intent domain.Payment
	require.NoError(t, db.First(&intent, *conf.PaymentIntentID).Error)
	assert.Equal(t, domain.PaymentFailed, intent.Status)

	available, err := availability.CountAvailable(context.Background(), db, tenant, std.ID, testutil.Date("2030-01-10"), testutil.Date("2030-01-15"))
	require.NoError(t, err)
	assert.Equal(t, 2, available, "cancelled reservations release inventory")

	_, err = svc.Cancel(context.Background(), conf.BookingReference, "Lovelace", "again")
	var terr *domain.InvalidStatusTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "cancelled", terr.From)

	inquiry := testutil.SeedReservation(t, db, tenant, domain.ReservationInquiry, "2030-01-10", "2030-01-12", []int64{std.ID})
	_, err = svc.Cancel(context.Background(), inquiry.BookingReference, "Guest", "")
	require.ErrorAs(t, err, &terr)
	assert.Empty(t, terr.Allowed)

	_, err = svc.Cancel(context.Background(), inquiry.BookingReference, "Someone", "")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandler_CreateAndLookup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.OpenDB(t)
	std, _ := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 1)

	router := gin.New()
	NewHandler(newService(db)).RegisterRoutes(router.Group("/api/v1"))

	post := func(path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := post("/api/v1/properties/1/bookings", request(std.ID, 1, domain.MethodPayAtProperty))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data ConfirmationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "500.00", created.Data.TotalAmount)
	assert.Equal(t, "confirmed", created.Data.Status)

	w = post("/api/v1/properties/1/bookings", request(std.ID, 1, domain.MethodPayAtProperty))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_AVAILABILITY")
	assert.Contains(t, w.Body.String(), `"shortfall":1`)

	bad := request(std.ID, 1, domain.MethodPayAtProperty)
	bad.CheckIn = "10/01/2030"
	w = post("/api/v1/properties/1/bookings", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"check_in":"date"`)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/"+created.Data.BookingReference+"?last_name=lovelace", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_amount":"500.00"`)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/bookings/"+created.Data.BookingReference+"?last_name=byron", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = post("/api/v1/bookings/"+created.Data.BookingReference+"/cancel", CancelRequest{LastName: "Lovelace"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"cancelled"`)
}

func TestHandler_SourceOnlyFromStaff(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.OpenDB(t)
	std, _ := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 3)

	router := gin.New()
	h := NewHandler(newService(db))
	h.RegisterRoutes(router.Group("/api/v1"))
	h.RegisterStaffRoutes(router.Group("/api/v1/admin", func(c *gin.Context) { c.Set("tenant_id", tenant) }))

	post := func(path string, body map[string]any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}
	body := func(source string) map[string]any {
		return map[string]any{
			"check_in":       "2030-01-10",
			"check_out":      "2030-01-12",
			"rooms":          []map[string]any{{"room_type_id": std.ID, "quantity": 1}},
			"guest":          map[string]any{"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com"},
			"payment_method": "pay_at_property",
			"source":         source,
		}
	}
	sourceOf := func(w *httptest.ResponseRecorder) domain.ReservationSource {
		t.Helper()
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var created struct {
			Data ConfirmationResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		var res domain.Reservation
		require.NoError(t, db.Where("booking_reference = ?", created.Data.BookingReference).First(&res).Error)
		return res.Source
	}

	// anonymous callers always book as web
	assert.Equal(t, domain.SourceWeb, sourceOf(post("/api/v1/properties/1/bookings", body("walk_in"))))

	assert.Equal(t, domain.SourceWalkIn, sourceOf(post("/api/v1/admin/bookings", body("walk_in"))))
	assert.Equal(t, domain.SourceAdmin, sourceOf(post("/api/v1/admin/bookings", body(""))))

	w := post("/api/v1/admin/bookings", body("fax"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "source")
}

func TestCreateBooking_RecordsMetrics(t *testing.T) {
	db := testutil.OpenDB(t)
	std, _ := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 1)

	reader := sdkmetric.NewManualReader()
	m, err := metrics.New(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)
	svc := newService(db, WithMetrics(m))

	_, err = svc.CreateBooking(context.Background(), tenant, request(std.ID, 1, domain.MethodPayAtProperty))
	require.NoError(t, err)
	_, err = svc.CreateBooking(context.Background(), tenant, request(std.ID, 1, domain.MethodPayAtProperty))
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, mt := range sm.Metrics {
			if sum, ok := mt.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[mt.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), totals["lodging.bookings.created"])
	assert.Equal(t, int64(1), totals["lodging.bookings.failed"])
}
