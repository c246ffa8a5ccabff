package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/margindesk/margindesk_backend/models"
)

type inclusionRequest struct {
	IncludeInCalculation *bool  `json:"include_in_calculation" binding:"required"`
	Reason               string `json:"reason" binding:"max=255"`
}

// apply records a human decision; later syncs keep it.
func (r inclusionRequest) apply(include *bool, reason *string, overridden *bool) {
	*include = *r.IncludeInCalculation
	*reason = ""
	if !*include {
		*reason = r.Reason
		if *reason == "" {
			*reason = "excluded manually"
		}
	}
	*overridden = true
}

func bindInclusion(c *gin.Context) (int, inclusionRequest, bool) {
	var body inclusionRequest
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		badRequest(c, errors.New("invalid id"))
		return 0, body, false
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return 0, body, false
	}
	return id, body, true
}

func BillInclusionHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, body, ok := bindInclusion(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		b, err := d.Store.GetBill(ctx, id)
		if err != nil {
			abortWithError(c, d, "BillInclusionHandler", id, err)
			return
		}
		body.apply(&b.IncludeInCalculation, &b.ExclusionReason, &b.InclusionOverridden)
		if err := d.Store.UpdateBill(ctx, b); err != nil {
			abortWithError(c, d, "BillInclusionHandler", id, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func ExpenseInclusionHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, body, ok := bindInclusion(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		e, err := d.Store.GetExpense(ctx, id)
		if err != nil {
			abortWithError(c, d, "ExpenseInclusionHandler", id, err)
			return
		}
		body.apply(&e.IncludeInCalculation, &e.ExclusionReason, &e.InclusionOverridden)
		if err := d.Store.UpdateExpense(ctx, e); err != nil {
			abortWithError(c, d, "ExpenseInclusionHandler", id, err)
			return
		}
		c.JSON(http.StatusOK, e)
	}
}

func ListExclusionRulesHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		rules, err := d.Store.ListExclusionRules(c.Request.Context(), false)
		if err != nil {
			abortWithError(c, d, "ListExclusionRulesHandler", nil, err)
			return
		}
		if rules == nil {
			rules = []models.ExclusionRule{}
		}
		c.JSON(http.StatusOK, rules)
	}
}

type exclusionRuleRequest struct {
	EntityType string `json:"entity_type" binding:"required,oneof=bill expense all"`
	Field      string `json:"field" binding:"required,max=100"`
	Operator   string `json:"operator" binding:"required"`
	Value      string `json:"value" binding:"max=255"`
	Reason     string `json:"reason" binding:"max=255"`
	Enabled    *bool  `json:"enabled"`
	Priority   int    `json:"priority"`
}

func CreateExclusionRuleHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body exclusionRuleRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err)
			return
		}
		op := models.RuleOperator(body.Operator)
		if !op.IsValid() {
			badRequest(c, errors.New("unknown operator "+body.Operator))
			return
		}
		rule := &models.ExclusionRule{
			EntityType: models.RuleEntityType(body.EntityType),
			Field:      body.Field,
			Operator:   op,
			Value:      body.Value,
			Reason:     body.Reason,
			Enabled:    body.Enabled == nil || *body.Enabled,
			Priority:   body.Priority,
		}
		if err := d.Store.CreateExclusionRule(c.Request.Context(), rule); err != nil {
			abortWithError(c, d, "CreateExclusionRuleHandler", body, err)
			return
		}
		c.JSON(http.StatusCreated, rule)
	}
}
