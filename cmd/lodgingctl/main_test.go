package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"lodging/internal/database"
	"lodging/internal/domain"
)

type cliEnv struct {
	dir    string
	dbPath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	e := &cliEnv{dir: dir, dbPath: filepath.Join(dir, "lodging.db")}
	t.Setenv("DATABASE_URL", e.dbPath)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AUDIT_PUBLISHER", "log")
	return e
}

func (e *cliEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(append(args, "--config", filepath.Join(e.dir, "absent.yaml")))
	return cmd.ExecuteContext(context.Background())
}

func (e *cliEnv) addLedgerEntries(t *testing.T, tenantID int64, day time.Time) {
	t.Helper()
	db, err := database.Connect(e.dbPath, nil)
	require.NoError(t, err)
	defer func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	}()

	entries := []domain.LedgerEntry{
		{Type: domain.LedgerCredit, Amount: decimal.RequireFromString("250.00"), Category: domain.CategoryPayment, Method: domain.MethodCash, CreatedAt: day.Add(10 * time.Hour)},
		{Type: domain.LedgerCredit, Amount: decimal.RequireFromString("120.00"), Category: domain.CategoryPayment, Method: domain.MethodCard, CreatedAt: day.Add(12 * time.Hour)},
		{Type: domain.LedgerDebit, Amount: decimal.RequireFromString("20.00"), Category: domain.CategoryExpense, Method: domain.MethodCash, CreatedAt: day.Add(16 * time.Hour)},
	}
	for i := range entries {
		entries[i].TenantID = tenantID
		entries[i].ReferenceType = domain.RefPayment
		entries[i].ReferenceID = int64(i + 1)
		require.NoError(t, db.Create(&entries[i]).Error)
	}
}

func TestExportCashUp_WritesWorkbook(t *testing.T) {
	e := newCLIEnv(t)
	require.NoError(t, e.run(t, "migrate", "up"))
	e.addLedgerEntries(t, 1, time.Date(2030, 3, 5, 0, 0, 0, 0, time.UTC))

	out := filepath.Join(e.dir, "cashup.xlsx")
	require.NoError(t, e.run(t, "export-cashup", "--tenant", "1", "--date", "2030-03-05", "--out", out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetList()[0]
	title, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Cash-up 2030-03-05", title)

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	last := rows[len(rows)-1]
	require.Len(t, last, 4)
	assert.Equal(t, []string{"Total", "370", "20", "350"}, last)
}

func TestExportCashUp_RejectsBadDate(t *testing.T) {
	e := newCLIEnv(t)
	err := e.run(t, "export-cashup", "--date", "05/03/2030", "--out", filepath.Join(e.dir, "x.xlsx"))
	require.Error(t, err)
}

func TestSeedThenAuditMaintenance(t *testing.T) {
	e := newCLIEnv(t)
	require.NoError(t, e.run(t, "seed", "--tenant", "3"))
	// a second seed for the same tenant is refused
	require.Error(t, e.run(t, "seed", "--tenant", "3"))

	require.NoError(t, e.run(t, "audit", "flush"))
	require.NoError(t, e.run(t, "audit", "prune", "--retention", "1h"))

	db, err := database.Connect(e.dbPath, nil)
	require.NoError(t, err)
	defer func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	}()
	var roomTypes int64
	require.NoError(t, db.Model(&domain.RoomType{}).Where("tenant_id = ?", 3).Count(&roomTypes).Error)
	assert.Equal(t, int64(3), roomTypes)
}
