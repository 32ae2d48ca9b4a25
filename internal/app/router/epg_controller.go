package router

import (
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sonnayasomnambula/mezzoparser/internal/app/config"
	"github.com/sonnayasomnambula/mezzoparser/internal/app/mezzo"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xmltvGzipFilename = "mezzo.xml.gz"

// Cache of the latest compiled guide document.
var guidePtr atomic.Pointer[string]

// GetXmlEPG returns the cached XMLTV guide.
func GetXmlEPG(c *gin.Context) {
	doc := guidePtr.Load()
	if doc == nil || *doc == "" {
		c.Status(http.StatusServiceUnavailable)
		return
	}

	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(*doc))
}

// GetXmlEPGWithGzip returns the cached XMLTV guide as a gzip attachment.
func GetXmlEPGWithGzip(c *gin.Context) {
	doc := guidePtr.Load()
	if doc == nil || *doc == "" {
		c.Status(http.StatusServiceUnavailable)
		return
	}

	c.Header("Transfer-Encoding", "gzip")
	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", xmltvGzipFilename))

	gzipWriter := gzip.NewWriter(c.Writer)
	defer gzipWriter.Close()

	if _, err := gzipWriter.Write([]byte(*doc)); err != nil {
		logger.Error("Failed to write the gzip data.", zap.Error(err))
		c.Status(http.StatusInternalServerError)
	}
}

// updateGuide runs one grab and swaps the cached document. A failed run
// keeps the previous document.
func updateGuide(ctx context.Context, grabber *mezzo.Grabber, conf *config.Config) error {
	now := time.Now().In(conf.Location)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, conf.Location)

	doc, err := grabber.Grab(ctx, from, mezzo.NopNotifier{})
	if err != nil {
		return err
	}

	logger.Sugar().Infof("Guide data updated, bytes: %d.", len(doc))
	guidePtr.Store(&doc)

	return nil
}
