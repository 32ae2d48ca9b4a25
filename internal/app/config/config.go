package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	defaultScheduleURL    = "https://www.mezzo.tv/en/tv-schedule"
	defaultRegionalCookie = "ru%7CEurope%2FMoscow"
	defaultOffset         = "+0300"
	defaultDays           = 4
	defaultTimeout        = 12 * time.Second

	maxDays = 14
)

type Config struct {
	ScheduleURL    string            `json:"scheduleURL" yaml:"scheduleURL"`       // required, the schedule listing endpoint
	RegionalCookie string            `json:"regionalCookie" yaml:"regionalCookie"` // value of the region selection cookie
	Headers        map[string]string `json:"headers" yaml:"headers"`               // extra HTTP request headers

	Days                int           `json:"days" yaml:"days"`                               // day window starting at the origin date, 1..14
	DownloadDescription bool          `json:"downloadDescription" yaml:"downloadDescription"` // fetch detail pages for missing descriptions
	Timeout             time.Duration `json:"timeout" yaml:"timeout"`                         // per-request fetch timeout

	OptionOffset string         `json:"offset" yaml:"offset"` // fixed UTC offset of the schedule, e.g. +0300
	Offset       string         `json:"-" yaml:"-"`           // filled by Validate()
	Location     *time.Location `json:"-" yaml:"-"`           // filled by Validate()
}

func (c *Config) Validate() error {
	if c.ScheduleURL == "" {
		return errors.New("invalid mezzoparser config: scheduleURL is required")
	}

	logger := zap.L()

	if c.RegionalCookie == "" {
		c.RegionalCookie = defaultRegionalCookie
	}

	if c.Days <= 0 {
		c.Days = defaultDays
	} else if c.Days > maxDays {
		logger.Warn("The day window is too large. It has been reduced.",
			zap.Int("days", c.Days), zap.Int("max", maxDays))
		c.Days = maxDays
	}

	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	offset := c.OptionOffset
	if offset == "" {
		offset = defaultOffset
	}
	loc, err := parseOffset(offset)
	if err != nil {
		logger.Warn("The UTC offset is incorrect. The default is used.",
			zap.String("offset", offset), zap.Error(err))
		offset = defaultOffset
		loc, _ = parseOffset(offset)
	}
	c.Offset = offset
	c.Location = loc

	return nil
}

// parseOffset turns a fixed ±hhmm offset into a time.Location.
func parseOffset(offset string) (*time.Location, error) {
	t, err := time.Parse("-0700", offset)
	if err != nil {
		return nil, fmt.Errorf("invalid UTC offset %q: %w", offset, err)
	}
	_, seconds := t.Zone()
	return time.FixedZone("UTC"+offset, seconds), nil
}

func Load(fPath string) (*Config, error) {
	data, err := os.ReadFile(fPath)
	if err != nil {
		return nil, err
	}
	var config Config
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func CreateDefaultCfg(fPath string) error {
	f, err := os.Create(fPath)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := yaml.NewEncoder(f)

	defaultCfg := Config{
		ScheduleURL:    defaultScheduleURL,
		RegionalCookie: defaultRegionalCookie,
		Days:           defaultDays,
		Timeout:        defaultTimeout,
		OptionOffset:   defaultOffset,
	}

	return encoder.Encode(&defaultCfg)
}
