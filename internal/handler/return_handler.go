package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mkt-backoffice-api/internal/dto"
	"github.com/noah-isme/mkt-backoffice-api/internal/models"
	"github.com/noah-isme/mkt-backoffice-api/internal/service"
	appErrors "github.com/noah-isme/mkt-backoffice-api/pkg/errors"
	"github.com/noah-isme/mkt-backoffice-api/pkg/response"
)

// ReturnHandler wires HTTP endpoints to the return lifecycle service.
type ReturnHandler struct {
	service *service.ReturnService
}

// NewReturnHandler creates a new handler.
func NewReturnHandler(svc *service.ReturnService) *ReturnHandler {
	return &ReturnHandler{service: svc}
}

// Create godoc
// @Summary Open a return case
// @Description Create a return case in the reported state
// @Tags Returns
// @Accept json
// @Produce json
// @Param payload body dto.CreateReturnRequest true "Return payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /returns [post]
func (h *ReturnHandler) Create(c *gin.Context) {
	var req dto.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid return payload"))
		return
	}

	ret, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ret)
}

// List godoc
// @Summary List return cases
// @Description List return cases filtered by shop, status, category
// @Tags Returns
// @Produce json
// @Param shop_id query string false "Shop filter"
// @Param status query string false "Comma separated statuses"
// @Param category query string false "Category filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /returns [get]
func (h *ReturnHandler) List(c *gin.Context) {
	filter := models.ReturnFilter{
		ShopID:   c.Query("shop_id"),
		Category: c.Query("category"),
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Status = append(filter.Status, models.ReturnStatus(s))
			}
		}
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	cases, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cases, &models.Pagination{
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
}

// Get godoc
// @Summary Get a return case
// @Description Fetch a return case with evidence, pickup and adjustments
// @Tags Returns
// @Produce json
// @Param id path string true "Return case ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /returns/{id} [get]
func (h *ReturnHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Transition godoc
// @Summary Transition a return case
// @Description Request a guarded status transition
// @Tags Returns
// @Accept json
// @Produce json
// @Param id path string true "Return case ID"
// @Param payload body dto.TransitionReturnRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /returns/{id}/transition [post]
func (h *ReturnHandler) Transition(c *gin.Context) {
	var req dto.TransitionReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transition payload"))
		return
	}

	result, err := h.service.Transition(c.Request.Context(), c.Param("id"), req.Target, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, transitionStatus(result.OK), result, nil)
}

// Pick godoc
// @Summary Pick up a return immediately
// @Description Move a reported case straight to picked_up, optionally recording evidence
// @Tags Returns
// @Accept json
// @Produce json
// @Param id path string true "Return case ID"
// @Param payload body dto.PickReturnRequest true "Pick payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /returns/{id}/pick [post]
func (h *ReturnHandler) Pick(c *gin.Context) {
	var req dto.PickReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pick payload"))
		return
	}

	result, err := h.service.Pick(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, transitionStatus(result.OK), result, nil)
}

// SchedulePickup godoc
// @Summary Schedule a carrier pickup
// @Description Schedule pickup for a reported case
// @Tags Returns
// @Accept json
// @Produce json
// @Param id path string true "Return case ID"
// @Param payload body dto.SchedulePickupRequest true "Pickup payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /returns/{id}/pickup [post]
func (h *ReturnHandler) SchedulePickup(c *gin.Context) {
	var req dto.SchedulePickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pickup payload"))
		return
	}

	result, err := h.service.SchedulePickup(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, nil)
}

// SubmitEvidence godoc
// @Summary Submit return evidence
// @Description Append evidence records to an in-flight case
// @Tags Returns
// @Accept json
// @Produce json
// @Param id path string true "Return case ID"
// @Param payload body dto.SubmitEvidenceRequest true "Evidence payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /returns/{id}/evidence [post]
func (h *ReturnHandler) SubmitEvidence(c *gin.Context) {
	var req dto.SubmitEvidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evidence payload"))
		return
	}

	evidence, err := h.service.SubmitEvidence(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, evidence)
}

// Resolve godoc
// @Summary Resolve a return case
// @Description Close a case, optionally creating a return adjustment and reversing commission
// @Tags Returns
// @Accept json
// @Produce json
// @Param id path string true "Return case ID"
// @Param payload body dto.ResolveReturnRequest true "Resolve payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /returns/{id}/resolve [post]
func (h *ReturnHandler) Resolve(c *gin.Context) {
	var req dto.ResolveReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolve payload"))
		return
	}

	result, err := h.service.Resolve(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, transitionStatus(result.OK), result, nil)
}

// transitionStatus keeps guard rejections machine-readable: the result body
// is returned either way, but a rejected transition answers 422.
func transitionStatus(ok bool) int {
	if ok {
		return http.StatusOK
	}
	return http.StatusUnprocessableEntity
}
