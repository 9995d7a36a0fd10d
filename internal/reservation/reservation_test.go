package reservation

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"restaurant-backend/internal/apptest"
	"restaurant-backend/internal/database/dbtest"
	"restaurant-backend/internal/models"
	"restaurant-backend/internal/notify"
	"restaurant-backend/internal/notify/notifytest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReservationApp(clientID uint) *fiber.App {
	app := apptest.NewApp()
	client := app.Group("/api/client", apptest.As(models.RoleClient, clientID))
	client.Post("/reservations", CreateReservationHandler())
	client.Get("/reservations", ListMyReservationsHandler())

	employee := app.Group("/api/employee", apptest.As(models.RoleEmployee, 1))
	employee.Put("/reservations/:id/confirm", ConfirmReservationHandler())
	employee.Get("/reservations/status/:status", ListByStatusHandler())

	admin := app.Group("/api/admin", apptest.As(models.RoleAdmin, 1))
	admin.Get("/reservations", ListReservationsHandler())
	admin.Get("/reservations/date/:date", ListByDateHandler())
	admin.Get("/reservations/:id", GetReservationHandler())
	admin.Delete("/reservations/:id", DeleteReservationHandler())
	return app
}

func TestCreateReservation(t *testing.T) {
	db := dbtest.Setup(t)
	rec := notifytest.Install(t)
	user := dbtest.CreateUser(t, db)
	app := newReservationApp(user.ID)

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	resp := apptest.Do(t, app, http.MethodPost, "/api/client/reservations", ReservationRequest{
		Date: tomorrow, Time: "19:30", NumberOfPeople: 4, Notes: " window ",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var res ReservationResponse
	apptest.Decode(t, resp, &res)
	assert.Equal(t, tomorrow, res.Date)
	assert.Equal(t, "19:30:00", res.Time)
	assert.Equal(t, "window", res.Notes)
	assert.False(t, res.Status)
	assert.Equal(t, user.Email, res.UserEmail)

	var u models.User
	require.NoError(t, db.First(&u, user.ID).Error)
	assert.EqualValues(t, 1, u.NumberOfReservations)
	assert.Equal(t, []string{notify.EventReservationCreated}, rec.Types())
}

func TestCreateReservationValidation(t *testing.T) {
	db := dbtest.Setup(t)
	user := dbtest.CreateUser(t, db)
	app := newReservationApp(user.ID)

	today := time.Now().Format("2006-01-02")
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	for name, body := range map[string]ReservationRequest{
		"past date":  {Date: yesterday, Time: "12:00", NumberOfPeople: 2},
		"bad date":   {Date: "10/06/2025", Time: "12:00", NumberOfPeople: 2},
		"bad time":   {Date: today, Time: "noon", NumberOfPeople: 2},
		"no people":  {Date: today, Time: "12:00"},
		"empty body": {},
	} {
		t.Run(name, func(t *testing.T) {
			resp := apptest.Do(t, app, http.MethodPost, "/api/client/reservations", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	// today is still allowed
	resp := apptest.Do(t, app, http.MethodPost, "/api/client/reservations", ReservationRequest{Date: today, Time: "23:00", NumberOfPeople: 2})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestConfirmPublishesOnce(t *testing.T) {
	db := dbtest.Setup(t)
	rec := notifytest.Install(t)
	user := dbtest.CreateUser(t, db)
	now := time.Now()
	r, err := Create(context.Background(), db, user.ID, Input{Date: now.Format("2006-01-02"), Time: "20:00", NumberOfPeople: 2}, now)
	require.NoError(t, err)
	app := newReservationApp(user.ID)

	path := fmt.Sprintf("/api/employee/reservations/%d/confirm", r.ID)
	for i := 0; i < 2; i++ {
		resp := apptest.Do(t, app, http.MethodPut, path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var res ReservationResponse
		apptest.Decode(t, resp, &res)
		assert.True(t, res.Status)
	}
	assert.Equal(t, []string{notify.EventReservationCreated, notify.EventReservationConfirmed}, rec.Types())

	resp := apptest.Do(t, app, http.MethodPut, "/api/employee/reservations/999/confirm", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListingsAndDelete(t *testing.T) {
	db := dbtest.Setup(t)
	me := dbtest.CreateUser(t, db)
	other := dbtest.CreateUser(t, db)
	now := time.Now()
	day := now.AddDate(0, 0, 2).Format("2006-01-02")

	mine, err := Create(context.Background(), db, me.ID, Input{Date: day, Time: "13:00", NumberOfPeople: 2}, now)
	require.NoError(t, err)
	_, err = Create(context.Background(), db, other.ID, Input{Date: now.Format("2006-01-02"), Time: "21:00", NumberOfPeople: 6}, now)
	require.NoError(t, err)
	_, err = Confirm(context.Background(), db, mine.ID)
	require.NoError(t, err)
	app := newReservationApp(me.ID)

	var list []ReservationResponse
	apptest.Decode(t, apptest.Do(t, app, http.MethodGet, "/api/client/reservations", nil), &list)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	apptest.Decode(t, apptest.Do(t, app, http.MethodGet, "/api/admin/reservations", nil), &list)
	assert.Len(t, list, 2)

	apptest.Decode(t, apptest.Do(t, app, http.MethodGet, "/api/admin/reservations/date/"+day, nil), &list)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	apptest.Decode(t, apptest.Do(t, app, http.MethodGet, "/api/employee/reservations/status/confirmed", nil), &list)
	require.Len(t, list, 1)
	apptest.Decode(t, apptest.Do(t, app, http.MethodGet, "/api/employee/reservations/status/false", nil), &list)
	require.Len(t, list, 1)
	resp := apptest.Do(t, app, http.MethodGet, "/api/employee/reservations/status/maybe", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	path := fmt.Sprintf("/api/admin/reservations/%d", mine.ID)
	assert.Equal(t, http.StatusNoContent, apptest.Do(t, app, http.MethodDelete, path, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, apptest.Do(t, app, http.MethodDelete, path, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, apptest.Do(t, app, http.MethodGet, path, nil).StatusCode)
}
