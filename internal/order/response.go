package order

import (
	"sort"
	"time"

	"restaurant-backend/internal/models"

	"gorm.io/gorm"
)

type ItemResponse struct {
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// Response renders both channels; channel-specific fields are omitted for
// the other one.
type Response struct {
	ID              uint                 `json:"id"`
	Type            string               `json:"type"`
	Date            string               `json:"date"`
	Time            string               `json:"time"`
	TotalPrice      float64              `json:"total_price"`
	Status          bool                 `json:"status"`
	TableNumber     *int                 `json:"table_number,omitempty"`
	DeliveryAddress string               `json:"delivery_address,omitempty"`
	DeliveryPhone   string               `json:"delivery_phone,omitempty"`
	UserID          uint                 `json:"user_id"`
	UserName        string               `json:"user_name"`
	UserEmail       string               `json:"user_email"`
	Items           []ItemResponse       `json:"items"`
	PaymentStatus   models.PaymentStatus `json:"payment_status"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	PaymentProofURL string               `json:"payment_proof_url,omitempty"`
	VerifiedByID    *uint                `json:"verified_by_id,omitempty"`
	VerifiedByName  string               `json:"verified_by_name,omitempty"`
	VerifiedAt      *time.Time           `json:"verified_at,omitempty"`
}

func verifierName(a *models.Admin) string {
	if a == nil {
		return ""
	}
	return a.FullName()
}

func fromOrder(o models.Order) Response {
	table := o.TableNumber
	r := Response{
		ID:              o.ID,
		Type:            ChannelTable,
		Date:            o.Date.Format("2006-01-02"),
		Time:            o.Time,
		TotalPrice:      o.TotalPrice,
		Status:          o.Status,
		TableNumber:     &table,
		UserID:          o.UserID,
		UserName:        o.User.FullName(),
		UserEmail:       o.User.Email,
		Items:           make([]ItemResponse, 0, len(o.Items)),
		PaymentStatus:   o.PaymentStatus,
		PaymentMethod:   o.PaymentMethod,
		PaymentProofURL: o.PaymentProofURL,
		VerifiedByID:    o.VerifiedByID,
		VerifiedByName:  verifierName(o.VerifiedBy),
		VerifiedAt:      o.VerifiedAt,
	}
	for _, it := range o.Items {
		r.Items = append(r.Items, ItemResponse{
			ProductID: it.ProductID, ProductName: it.Product.Name,
			Quantity: it.Quantity, UnitPrice: it.UnitPrice, Subtotal: it.Subtotal,
		})
	}
	return r
}

func fromDelivery(d models.Delivery) Response {
	r := Response{
		ID:              d.ID,
		Type:            ChannelDelivery,
		Date:            d.Date.Format("2006-01-02"),
		Time:            d.Time,
		TotalPrice:      d.TotalPrice,
		Status:          d.Status,
		DeliveryAddress: d.DeliveryAddress,
		DeliveryPhone:   d.DeliveryPhone,
		UserID:          d.UserID,
		UserName:        d.User.FullName(),
		UserEmail:       d.User.Email,
		Items:           make([]ItemResponse, 0, len(d.Items)),
		PaymentStatus:   d.PaymentStatus,
		PaymentMethod:   d.PaymentMethod,
		PaymentProofURL: d.PaymentProofURL,
		VerifiedByID:    d.VerifiedByID,
		VerifiedByName:  verifierName(d.VerifiedBy),
		VerifiedAt:      d.VerifiedAt,
	}
	for _, it := range d.Items {
		r.Items = append(r.Items, ItemResponse{
			ProductID: it.ProductID, ProductName: it.Product.Name,
			Quantity: it.Quantity, UnitPrice: it.UnitPrice, Subtotal: it.Subtotal,
		})
	}
	return r
}

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	UserID        uint
	Date          *time.Time
	PaymentStatus models.PaymentStatus
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Date != nil {
		q = q.Where("date >= ? AND date < ?", *f.Date, f.Date.AddDate(0, 0, 1))
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	return q.Order("date desc, time desc, id desc")
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Items.Product").Preload("User").Preload("VerifiedBy")
}

func ListOrders(db *gorm.DB, f Filter) ([]Response, error) {
	var rows []models.Order
	if err := f.apply(withDetails(db)).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Response, 0, len(rows))
	for _, o := range rows {
		out = append(out, fromOrder(o))
	}
	return out, nil
}

func ListDeliveries(db *gorm.DB, f Filter) ([]Response, error) {
	var rows []models.Delivery
	if err := f.apply(withDetails(db)).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Response, 0, len(rows))
	for _, d := range rows {
		out = append(out, fromDelivery(d))
	}
	return out, nil
}

func GetOrder(db *gorm.DB, id uint) (*Response, error) {
	var o models.Order
	if err := withDetails(db).First(&o, id).Error; err != nil {
		return nil, err
	}
	r := fromOrder(o)
	return &r, nil
}

func GetDelivery(db *gorm.DB, id uint) (*Response, error) {
	var d models.Delivery
	if err := withDetails(db).First(&d, id).Error; err != nil {
		return nil, err
	}
	r := fromDelivery(d)
	return &r, nil
}

// Unified merges both channels, newest first. channel is "", TABLE or DELIVERY.
func Unified(db *gorm.DB, channel string, f Filter) ([]Response, error) {
	var out []Response
	if channel == "" || channel == ChannelTable {
		orders, err := ListOrders(db, f)
		if err != nil {
			return nil, err
		}
		out = append(out, orders...)
	}
	if channel == "" || channel == ChannelDelivery {
		deliveries, err := ListDeliveries(db, f)
		if err != nil {
			return nil, err
		}
		out = append(out, deliveries...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Time > out[j].Time
	})
	if out == nil {
		out = []Response{}
	}
	return out, nil
}
