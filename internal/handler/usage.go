package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/easeaico/liveroom/internal/apperr"
	"github.com/easeaico/liveroom/internal/types"
)

func (h *Handler) listPlans(c *gin.Context) {
	ok(c, h.usage.Plans())
}

func (h *Handler) usageStatus(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		fail(c, err)
		return
	}
	report, err := h.usage.Status(c.Request.Context(), uid)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, report)
}

type upgradeRequest struct {
	Plan      string `json:"plan"`
	PaymentID string `json:"payment_id"`
}

// upgrade activates a paid plan. The payment id comes from the payment
// provider and is recorded as is.
func (h *Handler) upgrade(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req upgradeRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	if strings.TrimSpace(req.PaymentID) == "" {
		fail(c, apperr.Invalid("payment_id is required"))
		return
	}
	plan := types.PlanID(strings.ToLower(strings.TrimSpace(req.Plan)))
	result, err := h.usage.Upgrade(c.Request.Context(), uid, plan, req.PaymentID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, result)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.usage.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, stats)
}
