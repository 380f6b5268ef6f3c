package controllers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"

	"github.com/abhigyan-p512/subscription-management/internal/pkg/cache"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/payment"
)

const (
	planCacheKey = "billing:plans"
	planCacheTTL = 10 * time.Minute
)

// PlanController serves the subscription price catalog. The catalog changes
// rarely, so provider responses are cached.
type PlanController struct {
	payments payment.API
}

func NewPlanController(payments payment.API) *PlanController {
	return &PlanController{payments: payments}
}

type planPayload struct {
	ID          string `json:"id"`
	ProductName string `json:"productName"`
	UnitAmount  int64  `json:"unitAmount"`
	Currency    string `json:"currency"`
	Interval    string `json:"interval"`
}

// HandleList returns the active prices, from cache when possible.
func (pc *PlanController) HandleList(c *fiber.Ctx) error {
	if cached, err := cache.Get(planCacheKey); err == nil && cached != "" {
		var plans []planPayload
		if err := json.Unmarshal([]byte(cached), &plans); err == nil {
			return c.JSON(fiber.Map{"plans": plans})
		}
	}

	prices, err := pc.payments.ListActivePrices(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": payment.ErrorMessage(err, "")})
	}

	plans := make([]planPayload, 0, len(prices))
	for _, p := range prices {
		plans = append(plans, toPlanPayload(p))
	}

	if raw, err := json.Marshal(plans); err == nil {
		if err := cache.Set(planCacheKey, string(raw), planCacheTTL); err != nil {
			log.Printf("plans: cache write failed: %v", err)
		}
	}

	return c.JSON(fiber.Map{"plans": plans})
}

func toPlanPayload(p *stripe.Price) planPayload {
	plan := planPayload{
		ID:         p.ID,
		UnitAmount: p.UnitAmount,
		Currency:   string(p.Currency),
	}
	if p.Product != nil {
		plan.ProductName = p.Product.Name
	}
	if p.Recurring != nil {
		plan.Interval = string(p.Recurring.Interval)
	}
	return plan
}
