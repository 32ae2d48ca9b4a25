package router

import (
	"context"
	"net/http"
	"time"

	"github.com/sonnayasomnambula/mezzoparser/internal/app/config"
	"github.com/sonnayasomnambula/mezzoparser/internal/app/mezzo"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var logger *zap.Logger

func NewEngine(ctx context.Context, conf *config.Config, interval time.Duration) (*gin.Engine, error) {
	logger = zap.L()

	gin.SetMode(gin.ReleaseMode)

	client, err := mezzo.NewClient(&http.Client{
		Timeout: conf.Timeout,
	}, conf)
	if err != nil {
		return nil, err
	}
	grabber := mezzo.NewGrabber(client, conf)

	// Serve an empty guide until the first run completes.
	empty := ""
	guidePtr.Store(&empty)

	if err = updateGuide(ctx, grabber, conf); err != nil {
		logger.Error("Failed to update the guide.", zap.Error(err))
	}

	Schedule(ctx, grabber, conf, interval)

	r := gin.New()

	r.Use(ginzap.Ginzap(logger, "", false))
	r.Use(ginzap.RecoveryWithZap(logger, true))

	r.GET("/epg/xml", GetXmlEPG)
	r.GET("/epg/xml.gz", GetXmlEPGWithGzip)

	return r, nil
}
