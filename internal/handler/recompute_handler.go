package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mkt-backoffice-api/internal/dto"
	"github.com/noah-isme/mkt-backoffice-api/internal/service"
	appErrors "github.com/noah-isme/mkt-backoffice-api/pkg/errors"
	"github.com/noah-isme/mkt-backoffice-api/pkg/response"
)

// RecomputeHandler wires HTTP endpoints to the recompute engine and the
// report exports built on its outputs.
type RecomputeHandler struct {
	recompute *service.RecomputeService
	exports   *service.ExportService
}

// NewRecomputeHandler creates a new handler.
func NewRecomputeHandler(recompute *service.RecomputeService, exports *service.ExportService) *RecomputeHandler {
	return &RecomputeHandler{recompute: recompute, exports: exports}
}

// Commissions godoc
// @Summary Recompute commissions
// @Description Re-resolve and recompute commission earnings for a window
// @Tags Recompute
// @Accept json
// @Produce json
// @Param payload body dto.RecomputeRequest true "Window payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /recompute/commissions [post]
func (h *RecomputeHandler) Commissions(c *gin.Context) {
	var req dto.RecomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid recompute payload"))
		return
	}

	summary, err := h.recompute.RecomputeCommissions(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Profit godoc
// @Summary Recompute profit snapshots
// @Description Compute a fresh profit snapshot per order item under a new run id
// @Tags Recompute
// @Accept json
// @Produce json
// @Param payload body dto.RecomputeRequest true "Window payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /recompute/profit [post]
func (h *RecomputeHandler) Profit(c *gin.Context) {
	var req dto.RecomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid recompute payload"))
		return
	}

	result, err := h.recompute.RecomputeProfit(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CommissionSummary godoc
// @Summary Last commission recompute summary
// @Description Return the cached summary of the most recent recompute for this window
// @Tags Recompute
// @Produce json
// @Param shop_id query string false "Shop filter"
// @Param from query string true "Window start (RFC3339)"
// @Param to query string true "Window end (RFC3339)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /recompute/commissions/summary [get]
func (h *RecomputeHandler) CommissionSummary(c *gin.Context) {
	from, to, err := windowFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.recompute.CachedCommissionSummary(c.Request.Context(), c.Query("shop_id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ExportEarnings godoc
// @Summary Export commission earnings
// @Description Download the commission ledger for a window as CSV
// @Tags Recompute
// @Produce text/csv
// @Param shop_id query string false "Shop filter"
// @Param from query string true "Window start (RFC3339)"
// @Param to query string true "Window end (RFC3339)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /recompute/earnings/export [get]
func (h *RecomputeHandler) ExportEarnings(c *gin.Context) {
	from, to, err := windowFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	body, filename, err := h.exports.EarningsCSV(c.Request.Context(), c.Query("shop_id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", body)
}

// ExportProfit godoc
// @Summary Export profit report
// @Description Download the latest profit snapshots for a window as PDF
// @Tags Recompute
// @Produce application/pdf
// @Param shop_id query string false "Shop filter"
// @Param from query string true "Window start (RFC3339)"
// @Param to query string true "Window end (RFC3339)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /recompute/profit/export [get]
func (h *RecomputeHandler) ExportProfit(c *gin.Context) {
	from, to, err := windowFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	body, filename, err := h.exports.ProfitPDF(c.Request.Context(), c.Query("shop_id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", body)
}

func actorID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}

func windowFromQuery(c *gin.Context) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from must be RFC3339")
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must be RFC3339")
	}
	return from, to, nil
}
