package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/procurement_backend/config"
	"github.com/mmdatafocus/procurement_backend/gsheets"
	"github.com/mmdatafocus/procurement_backend/models"
	"github.com/mmdatafocus/procurement_backend/reports"
	"github.com/mmdatafocus/procurement_backend/utils"
	"github.com/mmdatafocus/procurement_backend/workflow"
	"github.com/sirupsen/logrus"
)

type apiServer struct {
	cfg         config.SheetConfig
	client      *gsheets.Client
	executor    *gsheets.Executor
	store       *workflow.Store
	coordinator *workflow.Coordinator
	logger      *logrus.Logger
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *apiServer) loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		rows, err := s.client.FetchTab(c.Request.Context(), s.cfg.UserTab)
		if err != nil {
			config.LogError(s.logger, "handlers.go", "loginHandler", "fetching user directory", nil, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "user directory unavailable"})
			return
		}

		user, ok := models.FindUser(models.NormalizeUserRows(rows), req.Username)
		if !ok || !user.CheckPassword(req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := utils.JwtGenerate(user.Username, user.Scope(), user.Role)
		if err != nil {
			config.LogError(s.logger, "handlers.go", "loginHandler", "signing token", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":    token,
			"username": user.Username,
			"firmName": user.Scope(),
			"role":     user.Role,
		})
	}
}

// sessionFirm pulls the firm scope the auth middleware attached. An empty
// scope means no (valid) session.
func (s *apiServer) sessionFirm(c *gin.Context) (string, bool) {
	firm, ok := utils.GetFirmNameFromContext(c.Request.Context())
	if !ok || strings.TrimSpace(firm) == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": utils.ErrorUnauthorized.Error()})
		return "", false
	}
	return firm, true
}

// currentOrReload returns the firm's snapshot, loading one synchronously on
// first touch.
func (s *apiServer) currentOrReload(c *gin.Context, firm string) (*workflow.ReconResult, bool) {
	if res, ok := s.store.Current(firm); ok {
		return res, true
	}
	res, err := s.store.Reload(c.Request.Context(), firm)
	if err != nil {
		if errors.Is(err, workflow.ErrStaleReload) {
			if cur, ok := s.store.Current(firm); ok {
				return cur, true
			}
		}
		config.LogError(s.logger, "handlers.go", "currentOrReload", "initial reload", firm, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not load reconciliation data"})
		return nil, false
	}
	return res, true
}

func (s *apiServer) mismatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		firm, ok := s.sessionFirm(c)
		if !ok {
			return
		}
		res, ok := s.currentOrReload(c, firm)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func (s *apiServer) reloadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		firm, ok := s.sessionFirm(c)
		if !ok {
			return
		}
		res, err := s.store.Reload(c.Request.Context(), firm)
		if err != nil {
			// A newer reload won; serve whatever it produced.
			if errors.Is(err, workflow.ErrStaleReload) {
				if cur, ok := s.store.Current(firm); ok {
					c.JSON(http.StatusOK, cur)
					return
				}
			}
			config.LogError(s.logger, "handlers.go", "reloadHandler", "reload", firm, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reload failed"})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func (s *apiServer) submitCorrectionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		firm, ok := s.sessionFirm(c)
		if !ok {
			return
		}

		var sub workflow.CorrectionSubmission
		if err := c.ShouldBindJSON(&sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		entry, err := s.coordinator.Submit(c.Request.Context(), firm, sub)
		if err != nil {
			var submitErr *workflow.SubmitError
			switch {
			case errors.Is(err, workflow.ErrValidation):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, workflow.ErrUnknownLift):
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			case errors.Is(err, workflow.ErrSubmitInFlight), errors.Is(err, workflow.ErrNoSnapshot):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			case errors.As(err, &submitErr):
				c.JSON(http.StatusBadGateway, gin.H{"error": submitErr.Message})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		// The ledger entry only suppresses for real after a fresh pass picks
		// it up; kick that off without holding the response.
		go func(firmName string) {
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTPTimeout*2)
			defer cancel()
			if _, err := s.store.Reload(ctx, firmName); err != nil && !errors.Is(err, workflow.ErrStaleReload) {
				config.LogError(s.logger, "handlers.go", "submitCorrectionHandler", "post-submit reload", firmName, err)
			}
		}(firm)

		c.JSON(http.StatusOK, gin.H{
			"submitted":   entry,
			"orderHidden": entry.OrderNumber,
		})
	}
}

func (s *apiServer) dashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		firm, ok := s.sessionFirm(c)
		if !ok {
			return
		}
		res, ok := s.currentOrReload(c, firm)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, reports.BuildDashboard(res))
	}
}

func (s *apiServer) mismatchExcelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		firm, ok := s.sessionFirm(c)
		if !ok {
			return
		}
		res, ok := s.currentOrReload(c, firm)
		if !ok {
			return
		}
		f, err := reports.ExportMismatchExcel(res)
		if err != nil {
			config.LogError(s.logger, "handlers.go", "mismatchExcelHandler", "building workbook", firm, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build report"})
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", `attachment; filename=mismatch-report-`+time.Now().Format("2006-01-02")+`.xlsx`)
		if err := f.Write(c.Writer); err != nil {
			config.LogError(s.logger, "handlers.go", "mismatchExcelHandler", "writing workbook", firm, err)
		}
	}
}

// sheetRowsHandler serves the thin CRUD views (indents, POs, lifts, bilty,
// tally) as raw scoped rows. The tabs are denormalized and carry the firm
// in different columns, so scoping matches any cell; rows without a firm
// marker are dropped for firm-bound users.
func (s *apiServer) sheetRowsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		firm, ok := s.sessionFirm(c)
		if !ok {
			return
		}
		tab := c.Param("tab")
		if !s.cfg.KnownTab(tab) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown sheet"})
			return
		}

		rows, err := s.client.FetchTab(c.Request.Context(), tab)
		if err != nil {
			config.LogError(s.logger, "handlers.go", "sheetRowsHandler", "fetching tab "+tab, nil, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}

		if !strings.EqualFold(strings.TrimSpace(firm), models.FirmWildcard) {
			scoped := make([]gsheets.Row, 0, len(rows))
			for _, row := range rows {
				for _, cell := range row {
					if strings.EqualFold(strings.TrimSpace(cell.String()), strings.TrimSpace(firm)) {
						scoped = append(scoped, row)
						break
					}
				}
			}
			rows = scoped
		}

		c.JSON(http.StatusOK, gin.H{"tab": tab, "rows": rows})
	}
}

type insertRowRequest struct {
	Row []string `json:"row" binding:"required"`
}

func (s *apiServer) insertRowHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := s.sessionFirm(c); !ok {
			return
		}
		tab := c.Param("tab")
		if !s.cfg.KnownTab(tab) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown sheet"})
			return
		}
		var req insertRowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		ack, err := s.executor.InsertRow(c.Request.Context(), tab, req.Row)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		if !ack.Success {
			c.JSON(http.StatusBadGateway, gin.H{"error": ackMessage(ack)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"inserted": true})
	}
}

type updateCellsRequest struct {
	Updates map[string]string `json:"updates" binding:"required"`
}

func (s *apiServer) updateCellsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := s.sessionFirm(c); !ok {
			return
		}
		tab := c.Param("tab")
		if !s.cfg.KnownTab(tab) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown sheet"})
			return
		}
		rowIndex, err := strconv.Atoi(c.Param("index"))
		if err != nil || rowIndex < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid row index"})
			return
		}
		var req updateCellsRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		ack, err := s.executor.UpdateCells(c.Request.Context(), tab, rowIndex, req.Updates)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		if !ack.Success {
			c.JSON(http.StatusBadGateway, gin.H{"error": ackMessage(ack)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": true})
	}
}

func ackMessage(ack gsheets.Ack) string {
	if ack.Message != "" {
		return ack.Message
	}
	return "mutation endpoint rejected the request"
}
