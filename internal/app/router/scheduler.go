package router

import (
	"context"
	"time"

	"github.com/sonnayasomnambula/mezzoparser/internal/app/config"
	"github.com/sonnayasomnambula/mezzoparser/internal/app/mezzo"

	"go.uber.org/zap"
)

// Schedule periodically refreshes the cached guide document.
func Schedule(ctx context.Context, grabber *mezzo.Grabber, conf *config.Config, duration time.Duration) {
	ticker := time.NewTicker(duration)
	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("The scheduling task has been stopped.")
				return
			case <-ticker.C:
				logger.Info("Start executing the scheduling task.")

				if err := updateGuide(ctx, grabber, conf); err != nil {
					logger.Error("Failed to update the guide.", zap.Error(err))
				}

				logger.Info("The scheduling task has been completed.")
			}
		}
	}()
}
