package order

import (
	"time"

	"restaurant-backend/internal/auth"
	"restaurant-backend/internal/cache"
	"restaurant-backend/internal/database"
	"restaurant-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateDeliveryRequest struct {
	UserID          uint                 `json:"user_id"`
	DeliveryAddress string               `json:"delivery_address"`
	DeliveryPhone   string               `json:"delivery_phone"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	PaymentProofURL string               `json:"payment_proof_url"`
	Items           []ItemRequest        `json:"items"`
}

// POST /api/client/deliveries, POST /api/employee/deliveries
func CreateDeliveryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateDeliveryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		userID, err := customerFor(c, body.UserID)
		if err != nil {
			return err
		}

		d, err := CreateDelivery(c.UserContext(), database.DB, DeliveryInput{
			UserID:          userID,
			Address:         body.DeliveryAddress,
			Phone:           body.DeliveryPhone,
			PaymentMethod:   body.PaymentMethod,
			PaymentProofURL: body.PaymentProofURL,
			Items:           body.Items,
		}, time.Now())
		if err != nil {
			return serviceError(c, err, "create delivery", "delivery not found")
		}
		cache.InvalidateCatalog(c.UserContext())
		cache.InvalidateStatistics(c.UserContext())

		res, err := GetDelivery(database.DB, d.ID)
		if err != nil {
			return serviceError(c, err, "load delivery", "delivery not found")
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// GET /api/admin/deliveries, GET /api/employee/deliveries
func ListDeliveriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := ListDeliveries(database.DB, Filter{})
		if err != nil {
			return serviceError(c, err, "list deliveries", "")
		}
		return c.JSON(res)
	}
}

// GET /api/admin/deliveries/pending-payments, /verified-payments
func ListDeliveriesByPaymentHandler(status models.PaymentStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := ListDeliveries(database.DB, Filter{PaymentStatus: status})
		if err != nil {
			return serviceError(c, err, "list deliveries", "")
		}
		return c.JSON(res)
	}
}

// GET /api/admin/deliveries/date/:date
func ListDeliveriesByDateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := paramDate(c)
		if err != nil {
			return err
		}
		res, err := ListDeliveries(database.DB, Filter{Date: &d})
		if err != nil {
			return serviceError(c, err, "list deliveries", "")
		}
		return c.JSON(res)
	}
}

// GET /api/admin/deliveries/:id, GET /api/employee/deliveries/:id
func GetDeliveryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		res, err := GetDelivery(database.DB, id)
		if err != nil {
			return serviceError(c, err, "load delivery", "delivery not found")
		}
		return c.JSON(res)
	}
}

// PUT /api/admin/deliveries/:id/status, PUT /api/employee/deliveries/:id/status
func UpdateDeliveryStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var body StatusRequest
		if err := c.BodyParser(&body); err != nil || body.Status == nil {
			return fiber.NewError(fiber.StatusBadRequest, "status is required")
		}
		if err := SetDeliveryStatus(c.UserContext(), database.DB, id, *body.Status); err != nil {
			return serviceError(c, err, "update delivery status", "delivery not found")
		}
		cache.InvalidateStatistics(c.UserContext())

		res, err := GetDelivery(database.DB, id)
		if err != nil {
			return serviceError(c, err, "load delivery", "delivery not found")
		}
		return c.JSON(res)
	}
}

// POST /api/admin/deliveries/:id/verify-payment
func VerifyDeliveryPaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		adminID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		if _, err := VerifyDeliveryPayment(c.UserContext(), database.DB, id, adminID, time.Now()); err != nil {
			return serviceError(c, err, "verify payment", "delivery not found")
		}
		cache.InvalidateStatistics(c.UserContext())

		res, err := GetDelivery(database.DB, id)
		if err != nil {
			return serviceError(c, err, "load delivery", "delivery not found")
		}
		return c.JSON(res)
	}
}

// POST /api/admin/deliveries/:id/reject-payment
func RejectDeliveryPaymentHandler() fiber.Handler {
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
		if _, err := RejectDeliveryPayment(c.UserContext(), database.DB, id, adminID, body.Reason, time.Now()); err != nil {
			return serviceError(c, err, "reject payment", "delivery not found")
		}
		cache.InvalidateStatistics(c.UserContext())

		res, err := GetDelivery(database.DB, id)
		if err != nil {
			return serviceError(c, err, "load delivery", "delivery not found")
		}
		return c.JSON(res)
	}
}

// GET /api/client/deliveries
func ListMyDeliveriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		res, err := ListDeliveries(database.DB, Filter{UserID: userID})
		if err != nil {
			return serviceError(c, err, "list deliveries", "")
		}
		return c.JSON(res)
	}
}

// GET /api/client/deliveries/:id
func GetMyDeliveryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}
		id, err := paramID(c)
		if err != nil {
			return err
		}
		res, err := GetDelivery(database.DB, id)
		if err != nil {
			return serviceError(c, err, "load delivery", "delivery not found")
		}
		if res.UserID != userID {
			return fiber.NewError(fiber.StatusNotFound, "delivery not found")
		}
		return c.JSON(res)
	}
}

// POST /api/client/deliveries/:id/upload-payment-proof (multipart "file" or JSON)
func UploadDeliveryProofHandler() fiber.Handler {
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

		url, err := AttachDeliveryProof(database.DB, id, userID, source)
		if err != nil {
			return serviceError(c, err, "attach payment proof", "delivery not found")
		}

		res, err := GetDelivery(database.DB, id)
		if err != nil {
			return serviceError(c, err, "load delivery", "delivery not found")
		}
		return c.JSON(fiber.Map{
			"message":           "payment proof uploaded",
			"payment_proof_url": url,
			"delivery":          res,
		})
	}
}
