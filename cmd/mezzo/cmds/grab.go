package cmds

import (
	"net/http"
	"os"
	"path"
	"time"

	"github.com/sonnayasomnambula/mezzoparser/internal/app/mezzo"
	"github.com/sonnayasomnambula/mezzoparser/internal/pkg/util"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const outFileName = "mezzo.xml"

var (
	output  string
	days    int
	fromStr string
)

func NewGrabCLI() *cobra.Command {
	grabCmd := &cobra.Command{
		Use:   "grab",
		Short: "Fetch the schedule and write the XMLTV guide file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zap.L()

			if days > 0 {
				conf.Days = days
			}
			if err := conf.Validate(); err != nil {
				return err
			}

			client, err := mezzo.NewClient(&http.Client{
				Timeout: conf.Timeout,
			}, conf)
			if err != nil {
				return err
			}

			// The day window starts today in the configured offset unless
			// an explicit origin date is given.
			var from time.Time
			if fromStr != "" {
				if from, err = time.ParseInLocation("2006-01-02", fromStr, conf.Location); err != nil {
					return err
				}
			} else {
				now := time.Now().In(conf.Location)
				from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, conf.Location)
			}

			grabber := mezzo.NewGrabber(client, conf)
			document, err := grabber.Grab(cmd.Context(), from, mezzo.NewLogNotifier())
			if err != nil {
				return err
			}

			filePath := output
			if filePath == "" {
				currDir, err := util.GetCurrentAbPathByExecutable()
				if err != nil {
					return err
				}
				filePath = path.Join(currDir, outFileName)
			}
			file, err := os.Create(filePath)
			if err != nil {
				logger.Error("Failed to create the guide file.", zap.Error(err))
				return err
			}
			defer file.Close()

			if _, err = file.WriteString(document); err != nil {
				logger.Error("Failed to write to the guide file.", zap.Error(err))
				return err
			}

			logger.Sugar().Infof("The guide has been written to the file %s.", filePath)

			return nil
		},
	}

	grabCmd.Flags().StringVarP(&output, "output", "o", "", "Path of the XMLTV file, `mezzo.xml` next to the executable by default.")
	grabCmd.Flags().IntVarP(&days, "days", "d", 0, "Number of days to fetch, overrides the config value.")
	grabCmd.Flags().StringVarP(&fromStr, "from", "f", "", "Origin date of the day window as `yyyy-MM-dd`, today by default.")

	return grabCmd
}
