package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menza/internal/events"
	"menza/internal/models"
	"menza/internal/report"
	"menza/internal/service"
	"menza/internal/store"
)

type nopNotifier struct{}

func (nopNotifier) ReservationCancelled(models.Reservation, string, string) {}

type fixture struct {
	router *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.NewDB(filepath.Join(t.TempDir(), "menza.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := zerolog.Nop()
	bus := events.NewBus()
	notifier := nopNotifier{}

	handler := NewHandler(
		service.NewStudentService(db, &logger),
		service.NewCanteenService(db, notifier, bus, &logger),
		service.NewReservationService(db, bus, &logger),
		service.NewRestrictionService(db, notifier, bus, &logger),
		report.NewExporter(db),
		&logger,
	)

	router := gin.New()
	RegisterRoutes(router, handler)
	return &fixture{router: router}
}

func (f *fixture) do(t *testing.T, method, path, actor string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-Student-ID", actor)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (f *fixture) registerStudent(t *testing.T, name, email string, admin bool) models.Student {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/students", "", map[string]interface{}{
		"name": name, "email": email, "is_admin": admin,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Student](t, rec)
}

func (f *fixture) createCanteen(t *testing.T, adminID string) models.Canteen {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/canteens", adminID, map[string]interface{}{
		"name":     "Central",
		"location": "Bulevar 12",
		"capacity": 2,
		"working_hours": []map[string]string{
			{"meal": "breakfast", "from": "08:00", "to": "10:00"},
			{"meal": "lunch", "from": "12:00", "to": "14:00"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Canteen](t, rec)
}

func TestStudentEndpoints(t *testing.T) {
	f := newFixture(t)

	student := f.registerStudent(t, "Ana", "ana@example.com", false)
	assert.NotEmpty(t, student.ID)

	rec := f.do(t, http.MethodPost, "/students", "", map[string]interface{}{
		"name": "Clone", "email": "ana@example.com",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodGet, "/students/"+student.ID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/students/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCanteenEndpointsRequireAdmin(t *testing.T) {
	f := newFixture(t)
	student := f.registerStudent(t, "Ana", "ana@example.com", false)

	rec := f.do(t, http.MethodPost, "/canteens", student.ID, map[string]interface{}{
		"name": "Central", "capacity": 10,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/canteens", "", map[string]interface{}{
		"name": "Central", "capacity": 10,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code, "missing actor header is not an admin")
}

func TestReservationFlow(t *testing.T) {
	f := newFixture(t)
	admin := f.registerStudent(t, "Boris", "boris@example.com", true)
	student := f.registerStudent(t, "Ana", "ana@example.com", false)
	canteen := f.createCanteen(t, admin.ID)

	body := map[string]interface{}{
		"student_id": student.ID,
		"canteen_id": canteen.ID,
		"date":       "2030-05-20",
		"time":       "12:30",
		"duration":   30,
	}

	rec := f.do(t, http.MethodPost, "/reservations", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Reservation](t, rec)
	assert.Equal(t, models.StatusActive, created.Status)

	// Same student, overlapping slot.
	rec = f.do(t, http.MethodPost, "/reservations", "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Off-grid time.
	body["time"] = "12:15"
	rec = f.do(t, http.MethodPost, "/reservations", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Outside every meal window.
	body["time"] = "11:00"
	rec = f.do(t, http.MethodPost, "/reservations", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown canteen.
	body["time"] = "13:00"
	body["canteen_id"] = "ghost"
	rec = f.do(t, http.MethodPost, "/reservations", "", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/students/"+student.ID+"/reservations", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.Reservation](t, rec)
	assert.Len(t, list, 1)

	// Cancel by someone else is forbidden, by the owner it works once.
	rec = f.do(t, http.MethodDelete, "/reservations/"+created.ID, admin.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodDelete, "/reservations/"+created.ID, student.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cancelled := decode[models.Reservation](t, rec)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	rec = f.do(t, http.MethodDelete, "/reservations/"+created.ID, student.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReservationCapacityStatus(t *testing.T) {
	f := newFixture(t)
	admin := f.registerStudent(t, "Boris", "boris@example.com", true)
	canteen := f.createCanteen(t, admin.ID) // capacity 2

	for i := 0; i < 2; i++ {
		s := f.registerStudent(t, "Student", fmt.Sprintf("s%d@example.com", i), false)
		rec := f.do(t, http.MethodPost, "/reservations", "", map[string]interface{}{
			"student_id": s.ID,
			"canteen_id": canteen.ID,
			"date":       "2030-05-20",
			"time":       "12:30",
			"duration":   30,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	third := f.registerStudent(t, "Late", "late@example.com", false)
	rec := f.do(t, http.MethodPost, "/reservations", "", map[string]interface{}{
		"student_id": third.ID,
		"canteen_id": canteen.ID,
		"date":       "2030-05-20",
		"time":       "12:30",
		"duration":   30,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decode[map[string]map[string]string](t, rec)
	assert.Equal(t, "capacity_exceeded", body["error"]["kind"])
}

func TestRestrictionCascadeOverHTTP(t *testing.T) {
	f := newFixture(t)
	admin := f.registerStudent(t, "Boris", "boris@example.com", true)
	student := f.registerStudent(t, "Ana", "ana@example.com", false)
	canteen := f.createCanteen(t, admin.ID)

	rec := f.do(t, http.MethodPost, "/reservations", "", map[string]interface{}{
		"student_id": student.ID,
		"canteen_id": canteen.ID,
		"date":       "2030-05-20",
		"time":       "12:30",
		"duration":   30,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Restrict lunch to 12:00-12:30; the 12:30-13:00 slot no longer fits.
	rec = f.do(t, http.MethodPost, "/canteens/"+canteen.ID+"/restrictions", admin.ID, map[string]interface{}{
		"start_date": "2030-05-20",
		"end_date":   "2030-05-21",
		"working_hours": []map[string]string{
			{"meal": "lunch", "from": "12:00", "to": "12:30"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	restriction := decode[models.Restriction](t, rec)

	rec = f.do(t, http.MethodGet, "/students/"+student.ID+"/reservations", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.Reservation](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusCancelled, list[0].Status)

	// New bookings during the restriction must fit the restricted hours.
	rec = f.do(t, http.MethodPost, "/reservations", "", map[string]interface{}{
		"student_id": student.ID,
		"canteen_id": canteen.ID,
		"date":       "2030-05-21",
		"time":       "13:00",
		"duration":   30,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// A second overlapping restriction conflicts.
	rec = f.do(t, http.MethodPost, "/canteens/"+canteen.ID+"/restrictions", admin.ID, map[string]interface{}{
		"start_date":    "2030-05-21",
		"end_date":      "2030-05-25",
		"working_hours": []map[string]string{},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodDelete, "/canteens/"+canteen.ID+"/restrictions/"+restriction.ID, admin.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Deleting the restriction does not resurrect the reservation.
	rec = f.do(t, http.MethodGet, "/students/"+student.ID+"/reservations", "", nil)
	list = decode[[]models.Reservation](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusCancelled, list[0].Status)
}

func TestReservationReport(t *testing.T) {
	f := newFixture(t)
	admin := f.registerStudent(t, "Boris", "boris@example.com", true)
	student := f.registerStudent(t, "Ana", "ana@example.com", false)
	canteen := f.createCanteen(t, admin.ID)

	rec := f.do(t, http.MethodPost, "/reservations", "", map[string]interface{}{
		"student_id": student.ID,
		"canteen_id": canteen.ID,
		"date":       "2030-05-20",
		"time":       "08:00",
		"duration":   60,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/canteens/"+canteen.ID+"/report?from=2030-05-19&to=2030-05-21", admin.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.NotZero(t, rec.Body.Len())

	rec = f.do(t, http.MethodGet, "/canteens/"+canteen.ID+"/report?from=2030-05-21", admin.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
