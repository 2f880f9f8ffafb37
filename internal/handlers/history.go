package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"cellscan/internal/service"
	"cellscan/internal/session"
	"cellscan/internal/storage"

	"github.com/gin-gonic/gin"
)

func (h *Handler) history(c *gin.Context) {
	id := identity(c)
	records, err := h.services.History.List(c.Request.Context(), id)
	if err != nil {
		h.log.Errorw("history_list_failed", "user_id", id.UserID, "err", err)
		c.String(http.StatusInternalServerError, "failed to load history")
		return
	}
	h.render(c, http.StatusOK, "history.html", gin.H{"title": "History", "records": records})
}

// result shows one of the caller's own records, addressed by ?id= or by
// ?filename=&prediction=.
func (h *Handler) result(c *gin.Context) {
	id := identity(c)
	q := service.ResultQuery{
		Filename:   c.Query("filename"),
		Prediction: c.Query("prediction"),
	}
	if raw := c.Query("id"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.flash(c, session.FlashDanger, msgInvalidResult)
			c.Redirect(http.StatusFound, "/dashboard")
			return
		}
		q.ID = n
	}

	rec, err := h.services.History.Resolve(c.Request.Context(), id, q)
	if err != nil {
		if !errors.Is(err, service.ErrMissingResultParams) && !errors.Is(err, service.ErrResultNotFound) {
			h.log.Errorw("result_lookup_failed", "user_id", id.UserID, "err", err)
		}
		h.flash(c, session.FlashDanger, msgInvalidResult)
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	h.render(c, http.StatusOK, "result.html", gin.H{"title": "Result", "record": rec})
}

func (h *Handler) uploadedImage(c *gin.Context) {
	id := identity(c)
	key := c.Param("key")

	rc, _, err := h.services.History.OpenImage(c.Request.Context(), id, key)
	if err != nil {
		if !errors.Is(err, service.ErrResultNotFound) && !errors.Is(err, storage.ErrNotFound) {
			h.log.Errorw("upload_open_failed", "user_id", id.UserID, "key", key, "err", err)
		}
		c.Status(http.StatusNotFound)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, max-age=3600")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.log.Warnw("upload_stream_failed", "key", key, "err", err)
	}
}

// @Summary  List prediction history
// @Tags     history
// @Produce  json
// @Success  200  {object}  map[string]interface{}  "count, records"
// @Failure  401  {object}  map[string]string
// @Failure  500  {object}  map[string]string
// @Router   /api/v1/history [get]
// @Security BearerAuth
func (h *Handler) listHistory(c *gin.Context) {
	id := identity(c)
	records, err := h.services.History.List(c.Request.Context(), id)
	if err != nil {
		h.log.Errorw("history_list_failed", "user_id", id.UserID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(records),
		"records": records,
	})
}
