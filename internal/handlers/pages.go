package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Flash texts shown to browsers.
const (
	msgLoginFirst         = "Please log in first"
	msgNoFilePart         = "No file part"
	msgNoSelectedFile     = "No selected file"
	msgUnsupportedType    = "Unsupported file type."
	msgFileTooLarge       = "File is too large."
	msgProcessingError    = "Error processing the image: "
	msgInvalidResult      = "Invalid result request."
	msgUsernameTaken      = "Username already exists."
	msgMissingFields      = "Username and password are required."
	msgPasswordTooLong    = "Password is too long (at most 72 bytes)."
	msgRegistered         = "Registration successful! Please login."
	msgInvalidCredentials = "Invalid credentials"
	msgReportFailed       = "Could not generate the report."
)

// render executes a page template with the pending flashes and the session
// identity, if any, added to data.
func (h *Handler) render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["flashes"] = h.sessions.Flashes(c.Writer, c.Request)
	if id, ok := h.sessions.Current(c.Request); ok {
		data["user"] = id
	}
	c.HTML(status, page, data)
}

func (h *Handler) flash(c *gin.Context, category, msg string) {
	if err := h.sessions.AddFlash(c.Writer, c.Request, category, msg); err != nil {
		h.log.Warnw("flash_save_failed", "err", err)
	}
}

func (h *Handler) index(c *gin.Context) {
	h.render(c, http.StatusOK, "index.html", nil)
}

func (h *Handler) about(c *gin.Context) {
	h.render(c, http.StatusOK, "about.html", gin.H{"title": "About"})
}

func (h *Handler) dashboard(c *gin.Context) {
	h.render(c, http.StatusOK, "dashboard.html", gin.H{
		"title":    "Dashboard",
		"username": identity(c).Username,
		"accept":   h.accept,
	})
}

// acceptAttr turns ["png","jpg"] into ".png,.jpg" for the file input.
func acceptAttr(exts []string) string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		out = append(out, "."+strings.TrimPrefix(strings.ToLower(e), "."))
	}
	return strings.Join(out, ",")
}

