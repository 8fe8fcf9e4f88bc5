package housekeeping

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lodging/internal/audit"
	"lodging/internal/database"
	"lodging/internal/domain"
	"lodging/internal/testutil"
)

const tenant = int64(1)

var staff = domain.Actor{TenantID: tenant, UserID: testutil.Ptr(int64(9))}

func newService(db *gorm.DB) *Service {
	return NewService(db, audit.NewRecorder(), database.TxOptions{Timeout: 5 * time.Second}, nil)
}

func roomStatus(t *testing.T, db *gorm.DB, id int64) domain.RoomStatus {
	t.Helper()
	var room domain.Room
	require.NoError(t, db.First(&room, id).Error)
	return room.Status
}

func TestUpdateStatus_DoneCleansDirtyRoom(t *testing.T) {
	db := testutil.OpenDB(t)
	_, rooms := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 1)
	require.NoError(t, db.Model(&rooms[0]).Update("status", domain.RoomDirty).Error)
	svc := newService(db)

	task, err := svc.Create(context.Background(), staff, rooms[0].ID, "linen")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskPending, task.Status)

	task, err = svc.UpdateStatus(context.Background(), staff, task.ID, domain.TaskInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomDirty, roomStatus(t, db, rooms[0].ID))

	task, err = svc.UpdateStatus(context.Background(), staff, task.ID, domain.TaskDone)
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, domain.RoomAvailable, roomStatus(t, db, rooms[0].ID))

	_, err = svc.UpdateStatus(context.Background(), staff, task.ID, domain.TaskPending)
	var terr *domain.InvalidStatusTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "housekeeping task", terr.Entity)
	assert.Empty(t, terr.Allowed)
}

func TestUpdateStatus_DoneLeavesOtherRoomStatesAlone(t *testing.T) {
	db := testutil.OpenDB(t)
	_, rooms := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 1)
	require.NoError(t, db.Model(&rooms[0]).Update("status", domain.RoomOutOfService).Error)
	svc := newService(db)

	task, err := svc.Create(context.Background(), staff, rooms[0].ID, "")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), staff, task.ID, domain.TaskDone)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomOutOfService, roomStatus(t, db, rooms[0].ID))
}

func TestCreate_UnknownRoom(t *testing.T) {
	db := testutil.OpenDB(t)
	_, rooms := testutil.SeedRoomType(t, db, 2, "Standard", "100", 2, 1)

	_, err := newService(db).Create(context.Background(), staff, rooms[0].ID, "")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetRoomStatus(t *testing.T) {
	db := testutil.OpenDB(t)
	_, rooms := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 2)
	svc := newService(db)

	room, err := svc.SetRoomStatus(context.Background(), staff, rooms[0].ID, domain.RoomOutOfService)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomOutOfService, room.Status)

	_, err = svc.SetRoomStatus(context.Background(), staff, rooms[1].ID, domain.RoomOccupied)
	require.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, db.Model(&rooms[1]).Update("status", domain.RoomOccupied).Error)
	_, err = svc.SetRoomStatus(context.Background(), staff, rooms[1].ID, domain.RoomDirty)
	require.ErrorIs(t, err, domain.ErrRoomUnavailable)

	var events int64
	require.NoError(t, db.Model(&domain.AuditEvent{}).Where("action = ?", "room.status_changed").Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestHandler_TaskFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.OpenDB(t)
	_, rooms := testutil.SeedRoomType(t, db, tenant, "Standard", "100", 2, 1)

	router := gin.New()
	NewHandler(newService(db)).RegisterRoutes(router.Group("/admin", func(c *gin.Context) { c.Set("tenant_id", tenant) }))

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := post("/admin/housekeeping/tasks", `{"room_id":`+strconv.FormatInt(rooms[0].ID, 10)+`}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = post("/admin/housekeeping/tasks/1/status", `{"status":"sparkling"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post("/admin/housekeeping/tasks/1/status", `{"status":"done"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/housekeeping/tasks?status=done", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"done"`)
}
