// Package order places table orders and deliveries, moves stock and customer
// counters, and settles payments into the ledger.
package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"restaurant-backend/internal/ledger"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/metrics"
	"restaurant-backend/internal/models"
	"restaurant-backend/internal/notify"
	"restaurant-backend/internal/storage"

	"gorm.io/gorm"
)

const (
	ChannelTable    = "TABLE"
	ChannelDelivery = "DELIVERY"
)

// PointsPerUnit is how much a customer spends to earn one loyalty point.
const PointsPerUnit = 1000

var (
	ErrInvalidInput    = errors.New("invalid order")
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
	ErrProofLocked     = errors.New("payment already verified")
)

// StockError reports a line that asks for more than is on hand.
type StockError struct {
	Product   string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product '%s'. available: %d, requested: %d",
		e.Product, e.Available, e.Requested)
}

// PaymentStateError is returned when a payment decision targets a payment
// that is no longer PENDING.
type PaymentStateError struct {
	Current models.PaymentStatus
}

func (e *PaymentStateError) Error() string {
	return fmt.Sprintf("payment is %s, only PENDING payments can be verified or rejected", e.Current)
}

type ItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type line struct {
	ProductID uint
	Quantity  int
	UnitPrice float64
	Subtotal  float64
}

// OrderInput is a table order to place.
type OrderInput struct {
	UserID          uint
	TableNumber     int
	PaymentMethod   models.PaymentMethod
	PaymentProofURL string
	Items           []ItemRequest
}

// DeliveryInput is a delivery to place.
type DeliveryInput struct {
	UserID          uint
	Address         string
	Phone           string
	PaymentMethod   models.PaymentMethod
	PaymentProofURL string
	Items           []ItemRequest
}

// CreatedEvent is published for order.created and delivery.created.
type CreatedEvent struct {
	ID         uint    `json:"id"`
	Channel    string  `json:"channel"`
	UserID     uint    `json:"user_id"`
	TotalPrice float64 `json:"total_price"`
	Items      int     `json:"items"`
}

// PaymentEvent is published when an administrator decides on a payment.
type PaymentEvent struct {
	ID         uint                 `json:"id"`
	Channel    string               `json:"channel"`
	UserID     uint                 `json:"user_id"`
	TotalPrice float64              `json:"total_price"`
	Status     models.PaymentStatus `json:"payment_status"`
	AdminID    uint                 `json:"admin_id"`
	Reason     string               `json:"reason,omitempty"`
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func paymentMethod(m models.PaymentMethod) (models.PaymentMethod, error) {
	if m == "" {
		return models.PaymentMethodCash, nil
	}
	m = models.PaymentMethod(strings.ToUpper(string(m)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, m)
	}
	return m, nil
}

// takeStock prices every line and decrements stock inside tx.
func takeStock(tx *gorm.DB, items []ItemRequest) ([]line, float64, error) {
	if len(items) == 0 {
		return nil, 0, fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	}

	lines := make([]line, 0, len(items))
	var total float64
	for _, it := range items {
		if it.ProductID == 0 {
			return nil, 0, fmt.Errorf("%w: product_id is required", ErrInvalidInput)
		}
		if it.Quantity < 1 {
			return nil, 0, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
		}

		var p models.Product
		if err := tx.First(&p, it.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, fmt.Errorf("%w: %d", ErrProductNotFound, it.ProductID)
			}
			return nil, 0, err
		}
		if p.Stock < it.Quantity {
			return nil, 0, &StockError{Product: p.Name, Available: p.Stock, Requested: it.Quantity}
		}

		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock >= ?", p.ID, it.Quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", it.Quantity))
		if res.Error != nil {
			return nil, 0, fmt.Errorf("decrement stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, 0, &StockError{Product: p.Name, Available: p.Stock, Requested: it.Quantity}
		}

		sub := ledger.Round(p.Price * float64(it.Quantity))
		lines = append(lines, line{ProductID: p.ID, Quantity: it.Quantity, UnitPrice: p.Price, Subtotal: sub})
		total += sub
	}
	return lines, ledger.Round(total), nil
}

// countOrder bumps the customer's order counter and last order date.
func countOrder(tx *gorm.DB, userID uint, day time.Time) error {
	var u models.User
	if err := tx.Select("id").First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"number_of_orders": gorm.Expr("number_of_orders + 1"),
		"last_order_date":  day,
	}).Error
}

// creditCustomer adds a verified payment to the customer's spend and awards
// one point for every PointsPerUnit boundary the new total crosses. Points
// already redeemed stay spent.
func creditCustomer(tx *gorm.DB, userID uint, amount float64) error {
	var u models.User
	if err := tx.First(&u, userID).Error; err != nil {
		return fmt.Errorf("load customer %d: %w", userID, err)
	}
	spent := ledger.Round(u.TotalSpent + amount)
	earned := int64(math.Floor(spent/PointsPerUnit)) - int64(math.Floor(u.TotalSpent/PointsPerUnit))
	return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"total_spent": spent,
		"points":      gorm.Expr("points + ?", earned),
	}).Error
}

// CreateOrder places a table order: stock, counters and the order are
// written in one transaction.
func CreateOrder(ctx context.Context, db *gorm.DB, in OrderInput, now time.Time) (*models.Order, error) {
	if in.TableNumber < 1 {
		return nil, fmt.Errorf("%w: table_number must be at least 1", ErrInvalidInput)
	}
	method, err := paymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	day := today(now)
	o := models.Order{
		Date:            day,
		Time:            now.Format("15:04:05"),
		TableNumber:     in.TableNumber,
		UserID:          in.UserID,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   method,
		PaymentProofURL: strings.TrimSpace(in.PaymentProofURL),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := countOrder(tx, in.UserID, day); err != nil {
			return err
		}
		lines, total, err := takeStock(tx, in.Items)
		if err != nil {
			return err
		}
		o.TotalPrice = total
		for _, l := range lines {
			o.Items = append(o.Items, models.OrderItem{
				ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice, Subtotal: l.Subtotal,
			})
		}
		return tx.Create(&o).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.WithLabelValues("table").Inc()
	logger.Info("table order created", "order_id", o.ID, "user_id", o.UserID, "total", o.TotalPrice)
	notify.Publish(ctx, notify.EventOrderCreated, CreatedEvent{
		ID: o.ID, Channel: ChannelTable, UserID: o.UserID, TotalPrice: o.TotalPrice, Items: len(o.Items),
	})
	return &o, nil
}

// CreateDelivery places a delivery the same way CreateOrder places a table order.
func CreateDelivery(ctx context.Context, db *gorm.DB, in DeliveryInput, now time.Time) (*models.Delivery, error) {
	in.Address = strings.TrimSpace(in.Address)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Address == "" {
		return nil, fmt.Errorf("%w: delivery_address is required", ErrInvalidInput)
	}
	if in.Phone == "" {
		return nil, fmt.Errorf("%w: delivery_phone is required", ErrInvalidInput)
	}
	method, err := paymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	day := today(now)
	d := models.Delivery{
		Date:            day,
		Time:            now.Format("15:04:05"),
		DeliveryAddress: in.Address,
		DeliveryPhone:   in.Phone,
		UserID:          in.UserID,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   method,
		PaymentProofURL: strings.TrimSpace(in.PaymentProofURL),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := countOrder(tx, in.UserID, day); err != nil {
			return err
		}
		lines, total, err := takeStock(tx, in.Items)
		if err != nil {
			return err
		}
		d.TotalPrice = total
		for _, l := range lines {
			d.Items = append(d.Items, models.DeliveryItem{
				ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice, Subtotal: l.Subtotal,
			})
		}
		return tx.Create(&d).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.WithLabelValues("delivery").Inc()
	logger.Info("delivery created", "delivery_id", d.ID, "user_id", d.UserID, "total", d.TotalPrice)
	notify.Publish(ctx, notify.EventDeliveryCreated, CreatedEvent{
		ID: d.ID, Channel: ChannelDelivery, UserID: d.UserID, TotalPrice: d.TotalPrice, Items: len(d.Items),
	})
	return &d, nil
}

// SetOrderStatus marks a table order completed or open again.
func SetOrderStatus(db *gorm.DB, id uint, status bool) error {
	res := db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetDeliveryStatus marks a delivery dispatched or not and publishes
// delivery.on_the_way when it goes out.
func SetDeliveryStatus(ctx context.Context, db *gorm.DB, id uint, status bool) error {
	var d models.Delivery
	if err := db.First(&d, id).Error; err != nil {
		return err
	}
	if err := db.Model(&d).Update("status", status).Error; err != nil {
		return err
	}
	if status && !d.Status {
		notify.Publish(ctx, notify.EventDeliveryOnTheWay, map[string]interface{}{
			"id":               d.ID,
			"user_id":          d.UserID,
			"delivery_address": d.DeliveryAddress,
		})
	}
	return nil
}

// decide moves a PENDING payment to status. The conditional update keeps two
// concurrent decisions from both succeeding.
func decide(tx *gorm.DB, model interface{}, id uint, status models.PaymentStatus, adminID uint, now time.Time) error {
	res := tx.Model(model).
		Where("id = ? AND payment_status = ?", id, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": status,
			"verified_by_id": adminID,
			"verified_at":    now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var current struct{ PaymentStatus models.PaymentStatus }
		if err := tx.Model(model).Select("payment_status").Where("id = ?", id).Take(&current).Error; err != nil {
			return err
		}
		return &PaymentStateError{Current: current.PaymentStatus}
	}
	return nil
}

// decided mirrors a successful decide onto the loaded row.
func decided(status *models.PaymentStatus, by **uint, at **time.Time, to models.PaymentStatus, adminID uint, now time.Time) {
	*status = to
	*by = &adminID
	*at = &now
}

// VerifyOrderPayment accepts a table order's payment, credits the customer
// and books the income.
func VerifyOrderPayment(ctx context.Context, db *gorm.DB, id, adminID uint, now time.Time) (*models.Order, error) {
	var o models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&o, id).Error; err != nil {
			return err
		}
		if err := decide(tx, &models.Order{}, id, models.PaymentStatusVerified, adminID, now); err != nil {
			return err
		}
		decided(&o.PaymentStatus, &o.VerifiedByID, &o.VerifiedAt, models.PaymentStatusVerified, adminID, now)
		if err := creditCustomer(tx, o.UserID, o.TotalPrice); err != nil {
			return err
		}
		_, err := ledger.RecordIncomeOnce(tx, o.TotalPrice,
			fmt.Sprintf("Income from table order #%d - Table %d", o.ID, o.TableNumber),
			o.ID, models.ReferenceOrder, "")
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentDecisions.WithLabelValues("table", "verified").Inc()
	notify.Publish(ctx, notify.EventOrderPaymentVerified, PaymentEvent{
		ID: o.ID, Channel: ChannelTable, UserID: o.UserID, TotalPrice: o.TotalPrice,
		Status: models.PaymentStatusVerified, AdminID: adminID,
	})
	return &o, nil
}

// RejectOrderPayment refuses a table order's payment.
func RejectOrderPayment(ctx context.Context, db *gorm.DB, id, adminID uint, reason string, now time.Time) (*models.Order, error) {
	var o models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&o, id).Error; err != nil {
			return err
		}
		if err := decide(tx, &models.Order{}, id, models.PaymentStatusRejected, adminID, now); err != nil {
			return err
		}
		decided(&o.PaymentStatus, &o.VerifiedByID, &o.VerifiedAt, models.PaymentStatusRejected, adminID, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentDecisions.WithLabelValues("table", "rejected").Inc()
	notify.Publish(ctx, notify.EventOrderPaymentRejected, PaymentEvent{
		ID: o.ID, Channel: ChannelTable, UserID: o.UserID, TotalPrice: o.TotalPrice,
		Status: models.PaymentStatusRejected, AdminID: adminID, Reason: reason,
	})
	return &o, nil
}

// VerifyDeliveryPayment is VerifyOrderPayment for deliveries.
func VerifyDeliveryPayment(ctx context.Context, db *gorm.DB, id, adminID uint, now time.Time) (*models.Delivery, error) {
	var d models.Delivery
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&d, id).Error; err != nil {
			return err
		}
		if err := decide(tx, &models.Delivery{}, id, models.PaymentStatusVerified, adminID, now); err != nil {
			return err
		}
		decided(&d.PaymentStatus, &d.VerifiedByID, &d.VerifiedAt, models.PaymentStatusVerified, adminID, now)
		if err := creditCustomer(tx, d.UserID, d.TotalPrice); err != nil {
			return err
		}
		_, err := ledger.RecordIncomeOnce(tx, d.TotalPrice,
			fmt.Sprintf("Income from delivery #%d - Address: %s", d.ID, d.DeliveryAddress),
			d.ID, models.ReferenceDelivery, "")
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentDecisions.WithLabelValues("delivery", "verified").Inc()
	notify.Publish(ctx, notify.EventDeliveryPaymentVerified, PaymentEvent{
		ID: d.ID, Channel: ChannelDelivery, UserID: d.UserID, TotalPrice: d.TotalPrice,
		Status: models.PaymentStatusVerified, AdminID: adminID,
	})
	return &d, nil
}

func RejectDeliveryPayment(ctx context.Context, db *gorm.DB, id, adminID uint, reason string, now time.Time) (*models.Delivery, error) {
	var d models.Delivery
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&d, id).Error; err != nil {
			return err
		}
		if err := decide(tx, &models.Delivery{}, id, models.PaymentStatusRejected, adminID, now); err != nil {
			return err
		}
		decided(&d.PaymentStatus, &d.VerifiedByID, &d.VerifiedAt, models.PaymentStatusRejected, adminID, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentDecisions.WithLabelValues("delivery", "rejected").Inc()
	notify.Publish(ctx, notify.EventDeliveryPaymentRejected, PaymentEvent{
		ID: d.ID, Channel: ChannelDelivery, UserID: d.UserID, TotalPrice: d.TotalPrice,
		Status: models.PaymentStatusRejected, AdminID: adminID, Reason: reason,
	})
	return &d, nil
}

// attachProof checks that the row belongs to userID and is still open for a
// proof, then stores the URL produced by upload. A proof it replaces is
// discarded from object storage.
func attachProof(db *gorm.DB, model interface{}, id, userID uint, upload func() (string, error)) (string, error) {
	var row struct {
		UserID          uint
		PaymentStatus   models.PaymentStatus
		PaymentProofURL string
	}
	err := db.Model(model).Select("user_id", "payment_status", "payment_proof_url").Where("id = ?", id).Take(&row).Error
	if err != nil {
		return "", err
	}
	if row.UserID != userID {
		return "", gorm.ErrRecordNotFound
	}
	if row.PaymentStatus == models.PaymentStatusVerified {
		return "", ErrProofLocked
	}

	url, err := upload()
	if err != nil {
		return "", err
	}
	if err := db.Model(model).Where("id = ?", id).Update("payment_proof_url", url).Error; err != nil {
		storage.Discard(context.Background(), url)
		return "", err
	}
	if row.PaymentProofURL != "" && row.PaymentProofURL != url {
		storage.Discard(context.Background(), row.PaymentProofURL)
	}
	return url, nil
}

func AttachOrderProof(db *gorm.DB, id, userID uint, upload func() (string, error)) (string, error) {
	return attachProof(db, &models.Order{}, id, userID, upload)
}

func AttachDeliveryProof(db *gorm.DB, id, userID uint, upload func() (string, error)) (string, error) {
	return attachProof(db, &models.Delivery{}, id, userID, upload)
}
