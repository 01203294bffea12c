package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mkt-backoffice-api/internal/dto"
	"github.com/noah-isme/mkt-backoffice-api/internal/service"
	appErrors "github.com/noah-isme/mkt-backoffice-api/pkg/errors"
	"github.com/noah-isme/mkt-backoffice-api/pkg/response"
)

// CommissionRuleHandler wires HTTP endpoints to the rule service.
type CommissionRuleHandler struct {
	service *service.CommissionRuleService
}

// NewCommissionRuleHandler creates a new handler.
func NewCommissionRuleHandler(svc *service.CommissionRuleService) *CommissionRuleHandler {
	return &CommissionRuleHandler{service: svc}
}

// List godoc
// @Summary List commission rules
// @Description List the full rule history, newest first
// @Tags Commission
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /commission/rules [get]
func (h *CommissionRuleHandler) List(c *gin.Context) {
	rules, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// Create godoc
// @Summary Create a commission rule
// @Description Append a rule to the history; existing rules are never edited
// @Tags Commission
// @Accept json
// @Produce json
// @Param payload body dto.CreateCommissionRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /commission/rules [post]
func (h *CommissionRuleHandler) Create(c *gin.Context) {
	var req dto.CreateCommissionRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule payload"))
		return
	}

	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}

	rule, err := h.service.Create(c.Request.Context(), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}
