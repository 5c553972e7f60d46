package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var knownProductStatuses = map[string]struct{}{
	"draft":   {},
	"pending": {},
	"private": {},
	"publish": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSite(); err != nil {
		return err
	}
	if err := c.validateProducts(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSite() error {
	if c.Site.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/stockist/config.toml"
		}
		return fmt.Errorf("site.base_url is required. Edit %s (create with 'stockist config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Site.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("site.base_url %q must be an absolute URL", c.Site.BaseURL)
	}
	if c.Site.ConsumerKey == "" || c.Site.ConsumerSecret == "" {
		return errors.New("site.consumer_key and site.consumer_secret are required (or set STOCKIST_CONSUMER_KEY / STOCKIST_CONSUMER_SECRET)")
	}
	return nil
}

func (c *Config) validateProducts() error {
	if _, ok := knownProductStatuses[strings.ToLower(c.Products.Status)]; !ok {
		return fmt.Errorf("products.status %q must be one of draft, pending, private, publish", c.Products.Status)
	}
	if strings.TrimSpace(c.Products.RegularPrice) == "" {
		return errors.New("products.regular_price must be set")
	}
	if _, err := strconv.ParseFloat(c.Products.RegularPrice, 64); err != nil {
		return fmt.Errorf("products.regular_price %q must be numeric", c.Products.RegularPrice)
	}
	if sale := strings.TrimSpace(c.Products.SalePrice); sale != "" {
		if _, err := strconv.ParseFloat(sale, 64); err != nil {
			return fmt.Errorf("products.sale_price %q must be numeric", c.Products.SalePrice)
		}
	}
	if c.Products.StockQuantity < 0 {
		return errors.New("products.stock_quantity must not be negative")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.MaxWorkers > MaxWorkerLimit {
		return fmt.Errorf("upload.max_workers must not exceed %d", MaxWorkerLimit)
	}
	return nil
}
