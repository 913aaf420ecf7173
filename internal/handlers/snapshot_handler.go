package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "exitprotocol/internal/errors"
	"exitprotocol/internal/pagination"
	"exitprotocol/internal/services"
)

// SnapshotHandler serves derived balance composition history.
type SnapshotHandler struct {
	snapshotService services.SnapshotServicer
	chartWindow     int
}

// NewSnapshotHandler creates a new SnapshotHandler. chartWindow is the number
// of points returned when the request does not specify one.
func NewSnapshotHandler(snapshotService services.SnapshotServicer, chartWindow int) *SnapshotHandler {
	if chartWindow <= 0 {
		chartWindow = services.DefaultChartWindow
	}
	return &SnapshotHandler{snapshotService: snapshotService, chartWindow: chartWindow}
}

// GetChart handles the retrieval of an account's chart series
// @Summary     Get chart series
// @Description Get the most recent daily compositions of an account as parallel arrays for plotting
// @Tags        snapshots
// @Produce     json
// @Param       id     path  string true  "Account ID"
// @Param       window query int    false "Number of most recent days (default 365)"
// @Success     200 {object} services.ChartSeries "Chart series"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/chart [get]
func (h *SnapshotHandler) GetChart(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	window := h.chartWindow
	if v := c.Query("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "window must be a positive integer"))
			return
		}
		window = n
	}

	series, err := h.snapshotService.GetChartSeries(accountID, window)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, series)
}

// GetSnapshots handles the retrieval of raw snapshot rows
// @Summary     Get balance snapshots
// @Description Get paginated daily balance compositions for an account, oldest first
// @Tags        snapshots
// @Produce     json
// @Param       id        path  string true  "Account ID"
// @Param       from      query string false "Start date (YYYY-MM-DD or RFC3339)"
// @Param       to        query string false "End date (YYYY-MM-DD or RFC3339)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 1000)"
// @Success     200 {object} pagination.PageResponse[models.BalanceSnapshot] "Paginated snapshots"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/snapshots [get]
func (h *SnapshotHandler) GetSnapshots(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from date"))
			return
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to date"))
			return
		}
		to = &t
	}

	result, err := h.snapshotService.GetSnapshots(accountID, from, to, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
