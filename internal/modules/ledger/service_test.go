package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lodging/internal/audit"
	"lodging/internal/database"
	"lodging/internal/domain"
	"lodging/internal/modules/reservation"
	"lodging/internal/repository"
	"lodging/internal/testutil"
)

const tenant = int64(1)

var (
	cashier = domain.Actor{TenantID: tenant, UserID: testutil.Ptr(int64(3))}
	clock   = time.Date(2030, 1, 10, 12, 0, 0, 0, time.UTC)
)

func newService(db *gorm.DB) *Service {
	recorder := audit.NewRecorder()
	opts := database.TxOptions{Timeout: 5 * time.Second}
	now := func() time.Time { return clock }
	reservations := reservation.NewService(db, recorder, opts, nil, reservation.WithClock(now))
	return NewService(db, recorder, reservations, opts, nil, WithClock(now))
}

// seed returns a reservation of two nights at 100.00 = 200.00.
func seed(t *testing.T, db *gorm.DB, status domain.ReservationStatus) domain.Reservation {
	t.Helper()
	rt, _ := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 1)
	return testutil.SeedReservation(t, db, tenant, status, "2030-01-10", "2030-01-12", []int64{rt.ID})
}

func assertIdentity(t *testing.T, svc *Service, reservationID int64) *Balance {
	t.Helper()
	b, err := svc.ReservationBalance(context.Background(), tenant, reservationID)
	require.NoError(t, err)
	assert.True(t, b.Net.Equal(b.PaidAmount), "ledger net %s != paid %s", b.Net, b.PaidAmount)
	return b
}

func TestRecordPayment_PartialThenFullConfirmsPending(t *testing.T) {
	db := testutil.OpenDB(t)
	res := seed(t, db, domain.ReservationPending)
	svc := newService(db)

	out, err := svc.RecordPayment(context.Background(), cashier, RecordPaymentRequest{
		ReservationID: res.ID, Amount: testutil.Money("50.00"), Method: domain.MethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, out.Payment.Status)
	assert.Equal(t, domain.LedgerCredit, out.Entry.Type)
	assert.Equal(t, domain.CategoryPayment, out.Entry.Category)
	assert.Equal(t, domain.ReservationPending, out.Reservation.Status)
	assert.Equal(t, "150.00", out.Reservation.Outstanding().StringFixed(2))
	assertIdentity(t, svc, res.ID)

	out, err = svc.RecordPayment(context.Background(), cashier, RecordPaymentRequest{
		ReservationID: res.ID, Amount: testutil.Money("150"), Method: domain.MethodCard,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationConfirmed, out.Reservation.Status)

	b := assertIdentity(t, svc, res.ID)
	assert.Equal(t, "200.00", b.Credits.StringFixed(2))
	assert.True(t, b.Outstanding.IsZero())

	var transitions int64
	require.NoError(t, db.Model(&domain.AuditEvent{}).Where("action = ?", "reservation.status_changed").Count(&transitions).Error)
	assert.Equal(t, int64(1), transitions)
}

func TestRecordPayment_RejectsOverpaymentAndBadInput(t *testing.T) {
	db := testutil.OpenDB(t)
	res := seed(t, db, domain.ReservationConfirmed)
	svc := newService(db)

	_, err := svc.RecordPayment(context.Background(), cashier, RecordPaymentRequest{
		ReservationID: res.ID, Amount: testutil.Money("200.01"), Method: domain.MethodCash,
	})
	require.ErrorIs(t, err, domain.ErrOverpayment)

	for _, amount := range []string{"0", "-5", "10.005"} {
		_, err = svc.RecordPayment(context.Background(), cashier, RecordPaymentRequest{
			ReservationID: res.ID, Amount: testutil.Money(amount), Method: domain.MethodCash,
		})
		require.ErrorIs(t, err, domain.ErrValidation, amount)
	}
	_, err = svc.RecordPayment(context.Background(), cashier, RecordPaymentRequest{
		ReservationID: res.ID, Amount: testutil.Money("10"), Method: domain.MethodPayAtProperty,
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.RecordPayment(context.Background(), domain.Actor{TenantID: 2}, RecordPaymentRequest{
		ReservationID: res.ID, Amount: testutil.Money("10"), Method: domain.MethodCash,
	})
	require.ErrorIs(t, err, domain.ErrNotFound)

	var n int64
	require.NoError(t, db.Model(&domain.LedgerEntry{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRecordPayment_CapturesIntent(t *testing.T) {
	db := testutil.OpenDB(t)
	res := seed(t, db, domain.ReservationPending)
	intent := domain.Payment{TenantID: tenant, ReservationID: &res.ID, Amount: res.TotalAmount, Method: domain.MethodOnline, Status: domain.PaymentInitiated}
	require.NoError(t, db.Create(&intent).Error)
	svc := newService(db)

	out, err := svc.RecordPayment(context.Background(), cashier, RecordPaymentRequest{
		ReservationID: res.ID, Amount: res.TotalAmount, Method: domain.MethodOnline, PaymentID: &intent.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, intent.ID, out.Payment.ID)
	assert.Equal(t, domain.ReservationConfirmed, out.Reservation.Status)

	require.NoError(t, db.First(&intent, intent.ID).Error)
	assert.Equal(t, domain.PaymentPaid, intent.Status)
	require.NotNil(t, intent.PaidAt)

	// a captured intent cannot be captured twice
	other := seed(t, db, domain.ReservationPending)
	_, err = svc.RecordPayment(context.Background(), cashier, RecordPaymentRequest{
		ReservationID: other.ID, Amount: testutil.Money("1"), Method: domain.MethodOnline, PaymentID: &intent.ID,
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "payment_id", verr.Field)
}

func TestRecordPayment_OnlineCapturesOpenIntent(t *testing.T) {
	db := testutil.OpenDB(t)
	res := seed(t, db, domain.ReservationPending)
	intent := domain.Payment{TenantID: tenant, ReservationID: &res.ID, Amount: res.TotalAmount, Method: domain.MethodOnline, Status: domain.PaymentInitiated}
	require.NoError(t, db.Create(&intent).Error)

	out, err := newService(db).RecordPayment(context.Background(), cashier, RecordPaymentRequest{
		ReservationID: res.ID, Amount: res.TotalAmount, Method: domain.MethodOnline,
	})
	require.NoError(t, err)
	assert.Equal(t, intent.ID, out.Payment.ID)

	var payments int64
	require.NoError(t, db.Model(&domain.Payment{}).Where("reservation_id = ?", res.ID).Count(&payments).Error)
	assert.Equal(t, int64(1), payments)
}

func TestRefund_PartialAndCumulativeLimit(t *testing.T) {
	db := testutil.OpenDB(t)
	res := seed(t, db, domain.ReservationConfirmed)
	svc := newService(db)

	paid, err := svc.RecordPayment(context.Background(), cashier, RecordPaymentRequest{
		ReservationID: res.ID, Amount: testutil.Money("200"), Method: domain.MethodCard,
	})
	require.NoError(t, err)
	pid := paid.Payment.ID

	out, err := svc.Refund(context.Background(), cashier, RefundRequest{PaymentID: pid, Amount: testutil.Money("80"), Reason: "late arrival"})
	require.NoError(t, err)
	assert.Equal(t, "-80.00", out.Refund.Amount.StringFixed(2))
	assert.Equal(t, pid, *out.Refund.RefundOfID)
	assert.Equal(t, domain.PaymentPaid, out.Original.Status)
	assert.Equal(t, domain.LedgerDebit, out.Entry.Type)
	assert.Equal(t, "80.00", out.Entry.Amount.StringFixed(2))
	b := assertIdentity(t, svc, res.ID)
	assert.Equal(t, "120.00", b.PaidAmount.StringFixed(2))

	_, err = svc.Refund(context.Background(), cashier, RefundRequest{PaymentID: pid, Amount: testutil.Money("120.01"), Reason: "too much"})
	require.ErrorIs(t, err, domain.ErrRefundExceedsPayment)

	out, err = svc.Refund(context.Background(), cashier, RefundRequest{PaymentID: pid, Amount: testutil.Money("120"), Reason: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, out.Original.Status)
	b = assertIdentity(t, svc, res.ID)
	assert.True(t, b.PaidAmount.IsZero())

	_, err = svc.Refund(context.Background(), cashier, RefundRequest{PaymentID: pid, Amount: testutil.Money("1"), Reason: "again"})
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Refund(context.Background(), cashier, RefundRequest{PaymentID: out.Refund.ID, Amount: testutil.Money("1"), Reason: "refund of refund"})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestIncomeAndExpense(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newService(db)

	income, entry, err := svc.RecordIncome(context.Background(), cashier, IncomeRequest{
		Category: domain.CategoryIncomeFood, Amount: testutil.Money("42.50"), Method: domain.MethodCash, Description: "breakfast",
	})
	require.NoError(t, err)
	assert.Equal(t, testutil.Date("2030-01-10"), income.ReceivedOn)
	assert.Equal(t, domain.LedgerCredit, entry.Type)
	assert.Equal(t, domain.RefIncome, entry.ReferenceType)
	assert.Equal(t, income.ID, entry.ReferenceID)

	_, _, err = svc.RecordIncome(context.Background(), cashier, IncomeRequest{
		Category: domain.CategoryPayment, Amount: testutil.Money("1"), Method: domain.MethodCash,
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	expense, entry, err := svc.RecordExpense(context.Background(), cashier, ExpenseRequest{
		Category: " utilities ", Amount: testutil.Money("300"), Method: domain.MethodBankTransfer, SpentOn: testutil.Date("2030-01-05"),
	})
	require.NoError(t, err)
	assert.Equal(t, "utilities", expense.Category)
	assert.Equal(t, domain.LedgerDebit, entry.Type)
	assert.Equal(t, domain.CategoryExpense, entry.Category)
	assert.Equal(t, int64(3), *entry.ActorID)

	entries, err := svc.ListEntries(context.Background(), tenant, repository.LedgerFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	net := decimal.Zero
	for _, e := range entries {
		net = net.Add(e.Signed())
	}
	assert.Equal(t, "-257.50", net.StringFixed(2))

	cat := domain.CategoryExpense
	entries, err = svc.ListEntries(context.Background(), tenant, repository.LedgerFilter{Category: &cat})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAppend_ValidatesDirection(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newService(db)

	tests := []struct {
		name  string
		entry AppendEntry
	}{
		{"payment as debit", AppendEntry{Type: domain.LedgerDebit, Category: domain.CategoryPayment}},
		{"refund as credit", AppendEntry{Type: domain.LedgerCredit, Category: domain.CategoryRefund}},
		{"expense as credit", AppendEntry{Type: domain.LedgerCredit, Category: domain.CategoryExpense}},
		{"unknown category", AppendEntry{Type: domain.LedgerCredit, Category: "GIFT"}},
		{"no reference", AppendEntry{Type: domain.LedgerCredit, Category: domain.CategoryIncomeOther}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.entry
			e.Actor = cashier
			e.Amount = testutil.Money("10")
			if tt.name != "no reference" {
				e.ReferenceType, e.ReferenceID = domain.RefIncome, 1
			}
			err := db.Transaction(func(tx *gorm.DB) error {
				_, err := svc.Append(context.Background(), tx, e)
				return err
			})
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestLedgerEntries_AreImmutable(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newService(db)
	_, entry, err := svc.RecordIncome(context.Background(), cashier, IncomeRequest{
		Category: domain.CategoryIncomeService, Amount: testutil.Money("10"), Method: domain.MethodCash,
	})
	require.NoError(t, err)

	entry.Amount = testutil.Money("1000")
	require.ErrorIs(t, db.Save(entry).Error, domain.ErrLedgerImmutable)
	require.ErrorIs(t, db.Delete(entry).Error, domain.ErrLedgerImmutable)

	var stored domain.LedgerEntry
	require.NoError(t, db.First(&stored, entry.ID).Error)
	assert.Equal(t, "10.00", stored.Amount.StringFixed(2))
}

func TestHandler_PaymentAndRefund(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.OpenDB(t)
	res := seed(t, db, domain.ReservationConfirmed)

	router := gin.New()
	group := router.Group("/admin", func(c *gin.Context) {
		c.Set("tenant_id", tenant)
		c.Set("user_id", int64(3))
	})
	NewHandler(newService(db)).RegisterRoutes(group)

	do := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/admin/payments", map[string]any{"reservation_id": res.ID, "amount": "250.00", "method": "cash"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "OVERPAYMENT")

	w = do(http.MethodPost, "/admin/payments", map[string]any{"reservation_id": res.ID, "amount": "200.00", "method": "cash"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data struct {
			Payment     PaymentResponse `json:"payment"`
			Outstanding string          `json:"outstanding"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "0.00", created.Data.Outstanding)

	w = do(http.MethodPost, "/admin/payments/"+strconvID(created.Data.Payment.ID)+"/refund", map[string]any{"amount": "300", "reason": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "REFUND_EXCEEDS_PAYMENT")

	w = do(http.MethodGet, "/admin/ledger?category=PAYMENT", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"amount":"200.00"`)

	w = do(http.MethodGet, "/admin/ledger/reservations/"+strconvID(res.ID)+"/balance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"net":"200.00"`)
}

func strconvID(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
