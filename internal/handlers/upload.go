package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"cellscan/internal/classifier"
	"cellscan/internal/models"
	"cellscan/internal/service"
	"cellscan/internal/session"

	"github.com/gin-gonic/gin"
)

const fileField = "file"

var errNoFilePart = errors.New("no file part")

// readUpload returns the "file" part of a multipart request. A part submitted
// with an empty filename is reported as service.ErrEmptyFilename.
func (h *Handler) readUpload(c *gin.Context) (service.UploadInput, error) {
	if h.maxUpload > 0 {
		if c.Request.ContentLength > h.maxUpload {
			return service.UploadInput{}, &http.MaxBytesError{Limit: h.maxUpload}
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	fh, err := c.FormFile(fileField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return service.UploadInput{}, err
		case c.Request.MultipartForm != nil && len(c.Request.MultipartForm.Value[fileField]) > 0:
			// browsers send an empty filename when nothing was picked
			return service.UploadInput{}, service.ErrEmptyFilename
		default:
			return service.UploadInput{}, errNoFilePart
		}
	}
	if fh.Filename == "" {
		return service.UploadInput{}, service.ErrEmptyFilename
	}
	data, err := readFileHeader(fh)
	if err != nil {
		return service.UploadInput{}, err
	}
	return service.UploadInput{Filename: fh.Filename, Data: data}, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *Handler) upload(c *gin.Context) {
	id := identity(c)

	rec, err := h.uploadAndClassify(c, id)
	if err != nil {
		h.log.Infow("upload_rejected", "user_id", id.UserID, "err", err)
		h.flash(c, session.FlashDanger, uploadFlash(err))
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	h.flash(c, session.FlashSuccess, "Prediction: "+rec.Prediction)
	c.Redirect(http.StatusFound, fmt.Sprintf("/result?id=%d", rec.ID))
}

func (h *Handler) uploadAndClassify(c *gin.Context, id models.Identity) (models.HistoryRecord, error) {
	in, err := h.readUpload(c)
	if err != nil {
		return models.HistoryRecord{}, err
	}
	return h.services.Upload.Upload(c.Request.Context(), id, in)
}

func uploadFlash(err error) string {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, errNoFilePart):
		return msgNoFilePart
	case errors.Is(err, service.ErrEmptyFilename):
		return msgNoSelectedFile
	case errors.Is(err, service.ErrUnsupportedFileType):
		return msgUnsupportedType
	case errors.As(err, &tooLarge):
		return msgFileTooLarge
	default:
		return msgProcessingError + err.Error()
	}
}

func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, errNoFilePart), errors.Is(err, service.ErrEmptyFilename),
		errors.Is(err, service.ErrUnsupportedFileType):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, classifier.ErrUnreadableImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, classifier.ErrModelInference):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// @Summary      Classify an image
// @Description  Stores the image, classifies it and records the prediction in the caller's history.
// @Tags         classify
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "png or jpeg image"
// @Success      200   {object}  models.HistoryRecord
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      413   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/classify [post]
// @Security     BearerAuth
func (h *Handler) classify(c *gin.Context) {
	id := identity(c)

	rec, err := h.uploadAndClassify(c, id)
	if err != nil {
		status := uploadStatus(err)
		if status >= http.StatusInternalServerError {
			h.log.Errorw("classify_failed", "user_id", id.UserID, "err", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}
