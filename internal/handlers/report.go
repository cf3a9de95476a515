package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/teamtask-api/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// Performance returns per user task throughput.
func (h *ReportHandler) Performance(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	rows, err := h.reportService.Performance(actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"count":  len(rows),
		"report": rows,
	})
}

// ExportPerformance downloads the performance report as a spreadsheet.
func (h *ReportHandler) ExportPerformance(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	buf, err := h.reportService.PerformanceWorkbook(actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("performance-report-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
