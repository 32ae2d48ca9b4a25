package cmds

import (
	"errors"
	"fmt"
	"time"

	"github.com/sonnayasomnambula/mezzoparser/internal/app/router"

	"github.com/spf13/cobra"
)

var (
	port     int
	interval time.Duration
)

func NewServeCLI() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start an HTTP service that republishes the XMLTV guide.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval < 15*time.Minute {
				return errors.New("interval cannot be less than 15 minutes")
			}

			r, err := router.NewEngine(cmd.Context(), conf, interval)
			if err != nil {
				return err
			}
			if err = r.Run(fmt.Sprintf(":%d", port)); err != nil {
				return err
			}

			return nil
		},
	}

	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Listen port of the HTTP service.")
	serveCmd.Flags().DurationVarP(&interval, "interval", "i", 24*time.Hour, "Refresh interval of the guide, e.g `24h or 15m`.")

	return serveCmd
}
