package handlers

import (
	"fmt"
	"net/http"

	"cellscan/internal/session"

	"github.com/gin-gonic/gin"
)

func (h *Handler) downloadPDF(c *gin.Context) {
	id := identity(c)
	f, err := h.services.Report.Export(c.Request.Context(), id)
	if err != nil {
		h.log.Errorw("report_export_failed", "user_id", id.UserID, "err", err)
		h.flash(c, session.FlashDanger, msgReportFailed)
		c.Redirect(http.StatusFound, "/history")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	c.Data(http.StatusOK, f.ContentType, f.Data)
}
