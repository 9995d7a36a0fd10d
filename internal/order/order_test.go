package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"restaurant-backend/internal/apptest"
	"restaurant-backend/internal/database/dbtest"
	"restaurant-backend/internal/ledger"
	"restaurant-backend/internal/models"
	"restaurant-backend/internal/notify"
	"restaurant-backend/internal/notify/notifytest"
	"restaurant-backend/internal/storage"
	"restaurant-backend/internal/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var noon = time.Date(2025, 6, 10, 12, 30, 0, 0, time.Local)

func newOrderApp(clientID, adminID uint) *fiber.App {
	app := apptest.NewApp()

	client := app.Group("/api/client", apptest.As(models.RoleClient, clientID))
	client.Post("/orders", CreateOrderHandler())
	client.Get("/orders", ListMyOrdersHandler())
	client.Get("/orders/:id", GetMyOrderHandler())
	client.Post("/orders/:id/upload-payment-proof", UploadOrderProofHandler())
	client.Post("/deliveries", CreateDeliveryHandler())

	employee := app.Group("/api/employee", apptest.As(models.RoleEmployee, 1))
	employee.Post("/orders", CreateOrderHandler())
	employee.Put("/deliveries/:id/status", UpdateDeliveryStatusHandler())
	employee.Get("/unified-orders", UnifiedOrdersHandler())

	admin := app.Group("/api/admin", apptest.As(models.RoleAdmin, adminID))
	admin.Get("/orders/pending-payments", ListOrdersByPaymentHandler(models.PaymentStatusPending))
	admin.Get("/orders/date/:date", ListOrdersByDateHandler())
	admin.Post("/orders/:id/verify-payment", VerifyOrderPaymentHandler())
	admin.Post("/orders/:id/reject-payment", RejectOrderPaymentHandler())
	admin.Post("/deliveries/:id/verify-payment", VerifyDeliveryPaymentHandler())
	return app
}

func TestCreateOrderMovesStockAndCounters(t *testing.T) {
	db := dbtest.Setup(t)
	rec := notifytest.Install(t)
	user := dbtest.CreateUser(t, db)
	cat := dbtest.CreateCategory(t, db)
	p := dbtest.CreateProduct(t, db, cat.ID, 12000, 5)
	app := newOrderApp(user.ID, 1)

	resp := apptest.Do(t, app, http.MethodPost, "/api/client/orders", CreateOrderRequest{
		TableNumber: 4,
		Items:       []ItemRequest{{ProductID: p.ID, Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var res Response
	apptest.Decode(t, resp, &res)
	assert.Equal(t, ChannelTable, res.Type)
	assert.Equal(t, 24000.0, res.TotalPrice)
	assert.False(t, res.Status)
	assert.Equal(t, models.PaymentStatusPending, res.PaymentStatus)
	assert.Equal(t, models.PaymentMethodCash, res.PaymentMethod)
	require.Len(t, res.Items, 1)
	assert.Equal(t, p.Name, res.Items[0].ProductName)

	var stock models.Product
	require.NoError(t, db.First(&stock, p.ID).Error)
	assert.Equal(t, 3, stock.Stock)

	var u models.User
	require.NoError(t, db.First(&u, user.ID).Error)
	assert.EqualValues(t, 1, u.NumberOfOrders)
	assert.NotNil(t, u.LastOrderDate)

	assert.Equal(t, []string{notify.EventOrderCreated}, rec.Types())
}

func TestCreateOrderRejectsInsufficientStock(t *testing.T) {
	db := dbtest.Setup(t)
	user := dbtest.CreateUser(t, db)
	cat := dbtest.CreateCategory(t, db)
	plenty := dbtest.CreateProduct(t, db, cat.ID, 1000, 50)
	scarce := dbtest.CreateProduct(t, db, cat.ID, 1000, 1)
	app := newOrderApp(user.ID, 1)

	resp := apptest.Do(t, app, http.MethodPost, "/api/client/orders", CreateOrderRequest{
		TableNumber: 1,
		Items: []ItemRequest{
			{ProductID: plenty.ID, Quantity: 5},
			{ProductID: scarce.ID, Quantity: 3},
		},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t,
		fmt.Sprintf("insufficient stock for product '%s'. available: 1, requested: 3", scarce.Name),
		apptest.ErrorMessage(t, resp))

	// the whole order rolled back
	var p models.Product
	require.NoError(t, db.First(&p, plenty.ID).Error)
	assert.Equal(t, 50, p.Stock)
	var u models.User
	require.NoError(t, db.First(&u, user.ID).Error)
	assert.Zero(t, u.NumberOfOrders)
	var n int64
	db.Model(&models.Order{}).Count(&n)
	assert.Zero(t, n)
}

func TestCreateOrderValidation(t *testing.T) {
	db := dbtest.Setup(t)
	user := dbtest.CreateUser(t, db)
	cat := dbtest.CreateCategory(t, db)
	p := dbtest.CreateProduct(t, db, cat.ID, 1000, 10)
	app := newOrderApp(user.ID, 1)

	cases := []struct {
		name string
		path string
		body any
		want int
	}{
		{"no table", "/api/client/orders", CreateOrderRequest{Items: []ItemRequest{{ProductID: p.ID, Quantity: 1}}}, http.StatusBadRequest},
		{"no items", "/api/client/orders", CreateOrderRequest{TableNumber: 2}, http.StatusBadRequest},
		{"zero quantity", "/api/client/orders", CreateOrderRequest{TableNumber: 2, Items: []ItemRequest{{ProductID: p.ID}}}, http.StatusBadRequest},
		{"unknown product", "/api/client/orders", CreateOrderRequest{TableNumber: 2, Items: []ItemRequest{{ProductID: 999, Quantity: 1}}}, http.StatusNotFound},
		{"bad payment method", "/api/client/orders", CreateOrderRequest{TableNumber: 2, PaymentMethod: "BITCOIN", Items: []ItemRequest{{ProductID: p.ID, Quantity: 1}}}, http.StatusBadRequest},
		{"employee without user", "/api/employee/orders", CreateOrderRequest{TableNumber: 2, Items: []ItemRequest{{ProductID: p.ID, Quantity: 1}}}, http.StatusBadRequest},
		{"employee unknown user", "/api/employee/orders", CreateOrderRequest{UserID: 999, TableNumber: 2, Items: []ItemRequest{{ProductID: p.ID, Quantity: 1}}}, http.StatusNotFound},
		{"blank address", "/api/client/deliveries", CreateDeliveryRequest{DeliveryAddress: "  ", DeliveryPhone: "300", Items: []ItemRequest{{ProductID: p.ID, Quantity: 1}}}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := apptest.Do(t, app, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}

	var stock models.Product
	require.NoError(t, db.First(&stock, p.ID).Error)
	assert.Equal(t, 10, stock.Stock)
}

func TestEmployeeOrdersOnBehalfOfCustomer(t *testing.T) {
	db := dbtest.Setup(t)
	user := dbtest.CreateUser(t, db)
	cat := dbtest.CreateCategory(t, db)
	p := dbtest.CreateProduct(t, db, cat.ID, 1500, 10)
	app := newOrderApp(0, 1)

	resp := apptest.Do(t, app, http.MethodPost, "/api/employee/orders", CreateOrderRequest{
		UserID: user.ID, TableNumber: 7, PaymentMethod: "nequi",
		Items: []ItemRequest{{ProductID: p.ID, Quantity: 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var res Response
	apptest.Decode(t, resp, &res)
	assert.Equal(t, user.ID, res.UserID)
	assert.Equal(t, models.PaymentMethodNequi, res.PaymentMethod)
	require.NotNil(t, res.TableNumber)
	assert.Equal(t, 7, *res.TableNumber)
}

func TestVerifyPaymentRecordsIncomeAndPoints(t *testing.T) {
	db := dbtest.Setup(t)
	rec := notifytest.Install(t)
	admin := dbtest.CreateAdmin(t, db)
	user := dbtest.CreateUser(t, db)
	cat := dbtest.CreateCategory(t, db)
	p := dbtest.CreateProduct(t, db, cat.ID, 1250, 10)

	o, err := CreateOrder(context.Background(), db, OrderInput{
		UserID: user.ID, TableNumber: 3, Items: []ItemRequest{{ProductID: p.ID, Quantity: 2}},
	}, noon)
	require.NoError(t, err)
	app := newOrderApp(user.ID, admin.ID)

	resp := apptest.Do(t, app, http.MethodPost, fmt.Sprintf("/api/admin/orders/%d/verify-payment", o.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res Response
	apptest.Decode(t, resp, &res)
	assert.Equal(t, models.PaymentStatusVerified, res.PaymentStatus)
	require.NotNil(t, res.VerifiedByID)
	assert.Equal(t, admin.ID, *res.VerifiedByID)
	assert.Equal(t, admin.FullName(), res.VerifiedByName)
	assert.NotNil(t, res.VerifiedAt)

	var u models.User
	require.NoError(t, db.First(&u, user.ID).Error)
	assert.Equal(t, 2500.0, u.TotalSpent)
	assert.EqualValues(t, 2, u.Points)

	var tx models.Transaction
	require.NoError(t, db.Where("reference_type = ? AND reference_id = ?", models.ReferenceOrder, o.ID).First(&tx).Error)
	assert.Equal(t, models.TransactionTypeIncome, tx.Type)
	assert.Equal(t, 2500.0, tx.Amount)
	assert.Equal(t, fmt.Sprintf("Income from table order #%d - Table 3", o.ID), tx.Description)

	var bal models.Balance
	require.NoError(t, db.First(&bal).Error)
	assert.Equal(t, 2500.0, bal.CurrentBalance)

	// a second decision is refused and books nothing
	resp = apptest.Do(t, app, http.MethodPost, fmt.Sprintf("/api/admin/orders/%d/verify-payment", o.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, apptest.ErrorMessage(t, resp), "VERIFIED")
	resp = apptest.Do(t, app, http.MethodPost, fmt.Sprintf("/api/admin/orders/%d/reject-payment", o.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var n int64
	db.Model(&models.Transaction{}).Count(&n)
	assert.EqualValues(t, 1, n)
	assert.Contains(t, rec.Types(), notify.EventOrderPaymentVerified)
}

func TestPointsFollowTotalSpent(t *testing.T) {
	db := dbtest.Setup(t)
	user := dbtest.CreateUser(t, db)
	require.NoError(t, db.Model(&user).Update("total_spent", 800).Error)
	cat := dbtest.CreateCategory(t, db)
	p := dbtest.CreateProduct(t, db, cat.ID, 700, 10)

	d, err := CreateDelivery(context.Background(), db, DeliveryInput{
		UserID: user.ID, Address: "Calle 10 # 5-20", Phone: "3001234567",
		Items: []ItemRequest{{ProductID: p.ID, Quantity: 2}},
	}, noon)
	require.NoError(t, err)

	_, err = VerifyDeliveryPayment(context.Background(), db, d.ID, 1, noon)
	require.NoError(t, err)

	var u models.User
	require.NoError(t, db.First(&u, user.ID).Error)
	assert.Equal(t, 2200.0, u.TotalSpent)
	assert.EqualValues(t, 2, u.Points)

	var tx models.Transaction
	require.NoError(t, db.Where("reference_type = ?", models.ReferenceDelivery).First(&tx).Error)
	assert.Equal(t, fmt.Sprintf("Income from delivery #%d - Address: Calle 10 # 5-20", d.ID), tx.Description)
}

func TestRejectPayment(t *testing.T) {
	db := dbtest.Setup(t)
	rec := notifytest.Install(t)
	user := dbtest.CreateUser(t, db)
	cat := dbtest.CreateCategory(t, db)
	p := dbtest.CreateProduct(t, db, cat.ID, 1000, 10)
	o, err := CreateOrder(context.Background(), db, OrderInput{
		UserID: user.ID, TableNumber: 1, Items: []ItemRequest{{ProductID: p.ID, Quantity: 1}},
	}, noon)
	require.NoError(t, err)
	app := newOrderApp(user.ID, 1)

	resp := apptest.Do(t, app, http.MethodPost, fmt.Sprintf("/api/admin/orders/%d/reject-payment", o.ID), RejectRequest{Reason: "blurry proof"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res Response
	apptest.Decode(t, resp, &res)
	assert.Equal(t, models.PaymentStatusRejected, res.PaymentStatus)

	var n int64
	db.Model(&models.Transaction{}).Count(&n)
	assert.Zero(t, n)

	events := rec.Events()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, notify.EventOrderPaymentRejected, last.Type)
	assert.Equal(t, "blurry proof", last.Payload.(PaymentEvent).Reason)

	resp = apptest.Do(t, app, http.MethodPost, "/api/admin/orders/999/verify-payment", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeliveryOnTheWayOnlyOnTransition(t *testing.T) {
	db := dbtest.Setup(t)
	rec := notifytest.Install(t)
	user := dbtest.CreateUser(t, db)
	cat := dbtest.CreateCategory(t, db)
	p := dbtest.CreateProduct(t, db, cat.ID, 1000, 10)
	d, err := CreateDelivery(context.Background(), db, DeliveryInput{
		UserID: user.ID, Address: "Cra 7", Phone: "300", Items: []ItemRequest{{ProductID: p.ID, Quantity: 1}},
	}, noon)
	require.NoError(t, err)
	app := newOrderApp(user.ID, 1)

	path := fmt.Sprintf("/api/employee/deliveries/%d/status", d.ID)
	for i := 0; i < 2; i++ {
		resp := apptest.Do(t, app, http.MethodPut, path, map[string]bool{"status": true})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp := apptest.Do(t, app, http.MethodPut, path, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var onTheWay int
	for _, typ := range rec.Types() {
		if typ == notify.EventDeliveryOnTheWay {
			onTheWay++
		}
	}
	assert.Equal(t, 1, onTheWay)

	assert.ErrorIs(t, SetDeliveryStatus(context.Background(), db, 999, true), gorm.ErrRecordNotFound)
}

func TestClientSeesOnlyOwnOrders(t *testing.T) {
	db := dbtest.Setup(t)
	me := dbtest.CreateUser(t, db)
	other := dbtest.CreateUser(t, db)
	cat := dbtest.CreateCategory(t, db)
	p := dbtest.CreateProduct(t, db, cat.ID, 1000, 10)

	mine, err := CreateOrder(context.Background(), db, OrderInput{UserID: me.ID, TableNumber: 1, Items: []ItemRequest{{ProductID: p.ID, Quantity: 1}}}, noon)
	require.NoError(t, err)
	theirs, err := CreateOrder(context.Background(), db, OrderInput{UserID: other.ID, TableNumber: 2, Items: []ItemRequest{{ProductID: p.ID, Quantity: 1}}}, noon)
	require.NoError(t, err)
	app := newOrderApp(me.ID, 1)

	var list []Response
	apptest.Decode(t, apptest.Do(t, app, http.MethodGet, "/api/client/orders", nil), &list)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	resp := apptest.Do(t, app, http.MethodGet, fmt.Sprintf("/api/client/orders/%d", theirs.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = apptest.Do(t, app, http.MethodGet, fmt.Sprintf("/api/client/orders/%d", mine.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	apptest.Decode(t, apptest.Do(t, app, http.MethodGet, "/api/admin/orders/pending-payments", nil), &list)
	assert.Len(t, list, 2)

	apptest.Decode(t, apptest.Do(t, app, http.MethodGet, "/api/admin/orders/date/2025-06-10", nil), &list)
	assert.Len(t, list, 2)
	apptest.Decode(t, apptest.Do(t, app, http.MethodGet, "/api/admin/orders/date/2025-06-11", nil), &list)
	assert.Empty(t, list)
	resp = apptest.Do(t, app, http.MethodGet, "/api/admin/orders/date/june", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnifiedOrders(t *testing.T) {
	db := dbtest.Setup(t)
	user := dbtest.CreateUser(t, db)
	cat := dbtest.CreateCategory(t, db)
	p := dbtest.CreateProduct(t, db, cat.ID, 1000, 10)

	_, err := CreateOrder(context.Background(), db, OrderInput{UserID: user.ID, TableNumber: 1, Items: []ItemRequest{{ProductID: p.ID, Quantity: 1}}}, noon)
	require.NoError(t, err)
	_, err = CreateDelivery(context.Background(), db, DeliveryInput{UserID: user.ID, Address: "Cra 7", Phone: "300", Items: []ItemRequest{{ProductID: p.ID, Quantity: 1}}}, noon.Add(time.Hour))
	require.NoError(t, err)
	app := newOrderApp(user.ID, 1)

	var all []Response
	apptest.Decode(t, apptest.Do(t, app, http.MethodGet, "/api/employee/unified-orders", nil), &all)
	require.Len(t, all, 2)
	assert.Equal(t, ChannelDelivery, all[0].Type)
	assert.Equal(t, ChannelTable, all[1].Type)
	assert.Nil(t, all[0].TableNumber)

	var tables []Response
	apptest.Decode(t, apptest.Do(t, app, http.MethodGet, "/api/employee/unified-orders?type=table", nil), &tables)
	require.Len(t, tables, 1)
	assert.Equal(t, ChannelTable, tables[0].Type)

	resp := apptest.Do(t, app, http.MethodGet, "/api/employee/unified-orders?type=TAKEAWAY", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadPaymentProof(t *testing.T) {
	db := dbtest.Setup(t)
	user := dbtest.CreateUser(t, db)
	other := dbtest.CreateUser(t, db)
	cat := dbtest.CreateCategory(t, db)
	p := dbtest.CreateProduct(t, db, cat.ID, 1000, 10)
	o, err := CreateOrder(context.Background(), db, OrderInput{UserID: user.ID, TableNumber: 1, Items: []ItemRequest{{ProductID: p.ID, Quantity: 1}}}, noon)
	require.NoError(t, err)

	m := new(mocks.MockStorage)
	prev := storage.Default
	storage.Default = m
	t.Cleanup(func() { storage.Default = prev })
	m.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{Key: "payment-proofs/a.pdf", URL: "http://cdn/payment-proofs/a.pdf"}, nil).Once()
	m.On("URL", "").Return("http://cdn/")
	m.On("Delete", mock.Anything, "payment-proofs/a.pdf").Return(nil).Once()

	path := fmt.Sprintf("/api/client/orders/%d/upload-payment-proof", o.ID)
	resp := apptest.Upload(t, newOrderApp(user.ID, 1), http.MethodPost, path, "file", "a.pdf", "application/pdf", []byte("%PDF-1.4\n"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.Order
	require.NoError(t, db.First(&stored, o.ID).Error)
	assert.Equal(t, "http://cdn/payment-proofs/a.pdf", stored.PaymentProofURL)

	// someone else's order looks missing and nothing is uploaded
	resp = apptest.Upload(t, newOrderApp(other.ID, 1), http.MethodPost, path, "file", "b.png", "image/png", []byte("\x89PNG\r\n\x1a\n"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = apptest.Do(t, newOrderApp(user.ID, 1), http.MethodPost, path, ProofRequest{PaymentProofURL: "https://bank/receipt/1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, db.First(&stored, o.ID).Error)
	assert.Equal(t, "https://bank/receipt/1", stored.PaymentProofURL)
	// the replaced upload is gone from the bucket
	m.AssertCalled(t, "Delete", mock.Anything, "payment-proofs/a.pdf")

	_, err = VerifyOrderPayment(context.Background(), db, o.ID, 1, noon)
	require.NoError(t, err)
	_, err = AttachOrderProof(db, o.ID, user.ID, func() (string, error) { return "late", nil })
	assert.True(t, errors.Is(err, ErrProofLocked))

	m.AssertExpectations(t)
}

func TestVerifyAfterHistoricalMigrationBooksIncomeOnce(t *testing.T) {
	db := dbtest.Setup(t)
	notifytest.Install(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, db)
	cat := dbtest.CreateCategory(t, db)
	p := dbtest.CreateProduct(t, db, cat.ID, 5000, 10)

	o, err := CreateOrder(ctx, db, OrderInput{UserID: user.ID, TableNumber: 4, Items: []ItemRequest{{ProductID: p.ID, Quantity: 2}}}, noon)
	require.NoError(t, err)
	require.NoError(t, SetOrderStatus(db, o.ID, true))
	d, err := CreateDelivery(ctx, db, DeliveryInput{UserID: user.ID, Address: "Cra 7", Phone: "300", Items: []ItemRequest{{ProductID: p.ID, Quantity: 1}}}, noon)
	require.NoError(t, err)
	require.NoError(t, SetDeliveryStatus(ctx, db, d.ID, true))

	_, err = ledger.MigrateHistoricalData(db)
	require.NoError(t, err)

	_, err = VerifyOrderPayment(ctx, db, o.ID, 1, noon)
	require.NoError(t, err)
	_, err = VerifyDeliveryPayment(ctx, db, d.ID, 1, noon)
	require.NoError(t, err)

	var orderIncome, deliveryIncome int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("reference_type = ? AND reference_id = ?", models.ReferenceOrder, o.ID).Count(&orderIncome).Error)
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("reference_type = ? AND reference_id = ?", models.ReferenceDelivery, d.ID).Count(&deliveryIncome).Error)
	assert.Equal(t, int64(1), orderIncome)
	assert.Equal(t, int64(1), deliveryIncome)

	bal, err := ledger.GetBalance(db)
	require.NoError(t, err)
	assert.Equal(t, 15000.0, bal.CurrentBalance)

	var u models.User
	require.NoError(t, db.First(&u, user.ID).Error)
	assert.Equal(t, 15000.0, u.TotalSpent)
}

func TestVerifyKeepsRedeemedPointsSpent(t *testing.T) {
	db := dbtest.Setup(t)
	notifytest.Install(t)
	user := dbtest.CreateUser(t, db)
	// 5 points earned on 5400 spent, 4 of them redeemed
	require.NoError(t, db.Model(&user).Updates(map[string]interface{}{"total_spent": 5400, "points": 1}).Error)
	cat := dbtest.CreateCategory(t, db)
	p := dbtest.CreateProduct(t, db, cat.ID, 800, 10)

	o, err := CreateOrder(context.Background(), db, OrderInput{UserID: user.ID, TableNumber: 2, Items: []ItemRequest{{ProductID: p.ID, Quantity: 1}}}, noon)
	require.NoError(t, err)
	_, err = VerifyOrderPayment(context.Background(), db, o.ID, 1, noon)
	require.NoError(t, err)

	var u models.User
	require.NoError(t, db.First(&u, user.ID).Error)
	assert.Equal(t, 6200.0, u.TotalSpent)
	assert.EqualValues(t, 2, u.Points)
}
