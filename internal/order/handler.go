package order

import (
	"errors"
	"strings"
	"time"

	"restaurant-backend/internal/auth"
	"restaurant-backend/internal/cache"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/models"
	"restaurant-backend/internal/storage"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateOrderRequest struct {
	UserID          uint                 `json:"user_id"` // employees order on behalf of a customer
	TableNumber     int                  `json:"table_number"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	PaymentProofURL string               `json:"payment_proof_url"`
	Items           []ItemRequest        `json:"items"`
}

type StatusRequest struct {
	Status *bool `json:"status"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type ProofRequest struct {
	PaymentProofURL string `json:"payment_proof_url"`
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func paramDate(c *fiber.Ctx) (time.Time, error) {
	d, err := time.Parse("2006-01-02", c.Params("date"))
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return d, nil
}

// customerFor resolves who an order is for: clients order for themselves,
// staff must name the customer.
func customerFor(c *fiber.Ctx, requested uint) (uint, error) {
	if auth.CurrentRole(c) == models.RoleClient {
		return auth.CurrentUserID(c)
	}
	if requested == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "user_id is required")
	}
	return requested, nil
}

// serviceError maps service errors onto HTTP statuses.
func serviceError(c *fiber.Ctx, err error, action, notFound string) error {
	var stock *StockError
	var state *PaymentStateError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	case errors.Is(err, ErrProductNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.As(err, &stock), errors.As(err, &state), errors.Is(err, ErrProofLocked):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, notFound)
	}
	logger.FromCtx(c).Error(action+" failed", "error", err)
	return fiber.NewError(fiber.StatusInternalServerError, "could not "+action)
}

// isMultipart reports whether the request carries a form upload.
func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// proofSource returns the function that yields the proof URL: a multipart
// "file" stored in object storage, or a URL from the JSON body.
func proofSource(c *fiber.Ctx) (func() (string, error), error) {
	if isMultipart(c) {
		return func() (string, error) {
			info, err := storage.UploadFormFile(c, "file", storage.ProofRule)
			if err != nil {
				return "", err
			}
			return info.URL, nil
		}, nil
	}

	var body ProofRequest
	if err := c.BodyParser(&body); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	url := strings.TrimSpace(body.PaymentProofURL)
	if url == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "payment proof file or payment_proof_url is required")
	}
	return func() (string, error) { return url, nil }, nil
}

// POST /api/client/orders, POST /api/employee/orders
func CreateOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		userID, err := customerFor(c, body.UserID)
		if err != nil {
			return err
		}

		o, err := CreateOrder(c.UserContext(), database.DB, OrderInput{
			UserID:          userID,
			TableNumber:     body.TableNumber,
			PaymentMethod:   body.PaymentMethod,
			PaymentProofURL: body.PaymentProofURL,
			Items:           body.Items,
		}, time.Now())
		if err != nil {
			return serviceError(c, err, "create order", "order not found")
		}
		cache.InvalidateCatalog(c.UserContext())
		cache.InvalidateStatistics(c.UserContext())

		res, err := GetOrder(database.DB, o.ID)
		if err != nil {
			return serviceError(c, err, "load order", "order not found")
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// GET /api/admin/orders, GET /api/employee/orders
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := ListOrders(database.DB, Filter{})
		if err != nil {
			return serviceError(c, err, "list orders", "")
		}
		return c.JSON(res)
	}
}

// GET /api/admin/orders/pending-payments, /verified-payments
func ListOrdersByPaymentHandler(status models.PaymentStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := ListOrders(database.DB, Filter{PaymentStatus: status})
		if err != nil {
			return serviceError(c, err, "list orders", "")
		}
		return c.JSON(res)
	}
}

// GET /api/admin/orders/date/:date
func ListOrdersByDateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := paramDate(c)
		if err != nil {
			return err
		}
		res, err := ListOrders(database.DB, Filter{Date: &d})
		if err != nil {
			return serviceError(c, err, "list orders", "")
		}
		return c.JSON(res)
	}
}

// GET /api/admin/orders/:id, GET /api/employee/orders/:id
func GetOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		res, err := GetOrder(database.DB, id)
		if err != nil {
			return serviceError(c, err, "load order", "order not found")
		}
		return c.JSON(res)
	}
}

// PUT /api/admin/orders/:id/status, PUT /api/employee/orders/:id/status
func UpdateOrderStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var body StatusRequest
		if err := c.BodyParser(&body); err != nil || body.Status == nil {
			return fiber.NewError(fiber.StatusBadRequest, "status is required")
		}
		if err := SetOrderStatus(database.DB, id, *body.Status); err != nil {
			return serviceError(c, err, "update order status", "order not found")
		}
		cache.InvalidateStatistics(c.UserContext())

		res, err := GetOrder(database.DB, id)
		if err != nil {
			return serviceError(c, err, "load order", "order not found")
		}
		return c.JSON(res)
	}
}

// POST /api/admin/orders/:id/verify-payment
func VerifyOrderPaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		adminID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		if _, err := VerifyOrderPayment(c.UserContext(), database.DB, id, adminID, time.Now()); err != nil {
			return serviceError(c, err, "verify payment", "order not found")
		}
		cache.InvalidateStatistics(c.UserContext())

		res, err := GetOrder(database.DB, id)
		if err != nil {
			return serviceError(c, err, "load order", "order not found")
		}
		return c.JSON(res)
	}
}

// POST /api/admin/orders/:id/reject-payment
func RejectOrderPaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		adminID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		var body RejectRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}
		if _, err := RejectOrderPayment(c.UserContext(), database.DB, id, adminID, body.Reason, time.Now()); err != nil {
			return serviceError(c, err, "reject payment", "order not found")
		}
		cache.InvalidateStatistics(c.UserContext())

		res, err := GetOrder(database.DB, id)
		if err != nil {
			return serviceError(c, err, "load order", "order not found")
		}
		return c.JSON(res)
	}
}

// GET /api/client/orders
func ListMyOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		res, err := ListOrders(database.DB, Filter{UserID: userID})
		if err != nil {
			return serviceError(c, err, "list orders", "")
		}
		return c.JSON(res)
	}
}

// GET /api/client/orders/:id
func GetMyOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		id, err := paramID(c)
		if err != nil {
			return err
		}
		res, err := GetOrder(database.DB, id)
		if err != nil {
			return serviceError(c, err, "load order", "order not found")
		}
		if res.UserID != userID {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return c.JSON(res)
	}
}

// POST /api/client/orders/:id/upload-payment-proof (multipart "file" or JSON)
func UploadOrderProofHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		id, err := paramID(c)
		if err != nil {
			return err
		}
		source, err := proofSource(c)
		if err != nil {
			return err
		}

		url, err := AttachOrderProof(database.DB, id, userID, source)
		if err != nil {
			return serviceError(c, err, "attach payment proof", "order not found")
		}

		res, err := GetOrder(database.DB, id)
		if err != nil {
			return serviceError(c, err, "load order", "order not found")
		}
		return c.JSON(fiber.Map{
			"message":           "payment proof uploaded",
			"payment_proof_url": url,
			"order":             res,
		})
	}
}
