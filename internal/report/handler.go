package report

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler exposes report download over HTTP.
type Handler struct {
	Exporter *Exporter

	// Now is swappable in tests; nil means time.Now.
	Now func() time.Time
}

// Download streams a fresh CSV snapshot of all call records.
func (h Handler) Download(c *gin.Context) {
	var buf bytes.Buffer
	n, err := h.Exporter.WriteCSV(c.Request.Context(), &buf)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report export failed"})
		return
	}
	if n == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no call status log found"})
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	c.Header("Content-Disposition", `attachment; filename="`+Filename(now())+`"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
