package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSite()
	c.normalizeUpload()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSite() {
	c.Site.BaseURL = strings.TrimRight(strings.TrimSpace(c.Site.BaseURL), "/")
	c.Site.ConsumerKey = strings.TrimSpace(c.Site.ConsumerKey)
	c.Site.ConsumerSecret = strings.TrimSpace(c.Site.ConsumerSecret)
	c.Site.Username = strings.TrimSpace(c.Site.Username)
	c.Site.AppPassword = strings.TrimSpace(c.Site.AppPassword)
	if c.Site.RequestTimeout <= 0 {
		c.Site.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeUpload() {
	if c.Upload.MaxWorkers <= 0 {
		c.Upload.MaxWorkers = 1
	}
	if c.Upload.ItemDelaySeconds < 0 {
		c.Upload.ItemDelaySeconds = 0
	}
	if c.Upload.WorkerStartDelay < 0 {
		c.Upload.WorkerStartDelay = 0
	}
	if c.Upload.DrainTimeout <= 0 {
		c.Upload.DrainTimeout = defaultDrainTimeout
	}
	if c.Upload.MaxImagesPerItem <= 0 {
		c.Upload.MaxImagesPerItem = defaultMaxImagesPerItem
	}
	if c.Upload.MaxPixelDim <= 0 {
		c.Upload.MaxPixelDim = defaultMaxPixelDim
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
