package mezzo

import (
	"net/http"

	"github.com/sonnayasomnambula/mezzoparser/internal/app/config"

	"go.uber.org/zap"
)

// Fixed channel ids of the mezzo.tv schedule page. The page lists the
// Mezzo Live HD section first, the Mezzo section second.
const (
	ChannelMezzo   = "mezzo"
	ChannelMezzoHD = "mezzo_hd"
)

// sectionChannelIDs is the priority list used to assign channel ids to the
// programme sections of one day's page, in document order.
var sectionChannelIDs = []string{ChannelMezzoHD, ChannelMezzo}

type Client struct {
	httpClient *http.Client   // HTTP client with the fetch timeout
	config     *config.Config // scraper configuration

	logger *zap.Logger
}

var _ PageFetcher = (*Client)(nil)

func NewClient(httpClient *http.Client, conf *config.Config) (*Client, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	c := Client{
		httpClient: httpClient,
		config:     conf,
		logger:     zap.L(),
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: conf.Timeout}
	}
	return &c, nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Safari/537.36")
	req.Header.Set("Accept-Language", "ru-RU,en-US;q=0.8")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	// Region selection cookie, makes the site render the Moscow schedule.
	req.AddCookie(&http.Cookie{
		Name:  "regional",
		Value: c.config.RegionalCookie,
	})
}
