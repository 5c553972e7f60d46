package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stockist/internal/config"
	"stockist/internal/logging"
	"stockist/internal/retry"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPDoer describes the HTTP client used by the catalog service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the remote catalog's REST API (WooCommerce products plus the
// WordPress media endpoints).
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	username       string
	appPassword    string

	httpClient HTTPDoer
	logger     *slog.Logger
	policy     retry.Policy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the transient-failure retry schedule.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// WithLogger attaches a logger; a no-op logger is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "catalog")
		}
	}
}

// NewClient constructs a catalog client from site configuration.
func NewClient(site config.Site, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if site.RequestTimeout > 0 {
		timeout = time.Duration(site.RequestTimeout) * time.Second
	}
	client := &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(site.BaseURL), "/"),
		consumerKey:    strings.TrimSpace(site.ConsumerKey),
		consumerSecret: strings.TrimSpace(site.ConsumerSecret),
		username:       strings.TrimSpace(site.Username),
		appPassword:    strings.TrimSpace(site.AppPassword),
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logging.NewNop(),
		policy:         retry.Exponential(3, time.Second, 8*time.Second),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// BaseURL returns the configured catalog base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// TestConnection verifies the products endpoint is reachable with the
// configured credentials.
func (c *Client) TestConnection(ctx context.Context) error {
	var out []Product
	return c.getJSON(ctx, "test connection", c.productsURL()+"?per_page=1", &out)
}

// ListCategories returns the remote product categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	endpoint := c.baseURL + "/wp-json/wc/v3/products/categories?per_page=100"
	if err := c.getJSON(ctx, "list categories", endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadMedia uploads a local image to the media library. The title, alt
// text, and description that were sent are echoed back on the returned ref.
func (c *Client) UploadMedia(ctx context.Context, path, title, altText, description string) (MediaRef, error) {
	if c.username == "" || c.appPassword == "" {
		return MediaRef{}, Wrap(ErrConfiguration, "upload media", "site.username and site.app_password are required for media uploads", nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return MediaRef{}, Wrap(ErrValidation, "upload media", fmt.Sprintf("read %s", path), err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if !strings.HasPrefix(mimeType, "image/") {
		return MediaRef{}, Wrap(ErrValidation, "upload media", fmt.Sprintf("%s is not an image", path), nil)
	}
	filename := filepath.Base(path)
	if title == "" {
		title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	var payload struct {
		ID        int64  `json:"id"`
		SourceURL string `json:"source_url"`
	}
	endpoint := c.baseURL + "/wp-json/wp/v2/media"
	op := func(attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("build media request: %w", err)
		}
		req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		req.Header.Set("Content-Type", mimeType)
		req.SetBasicAuth(c.username, c.appPassword)
		return c.execute(req, "upload media", &payload)
	}
	if err := c.policy.Do(ctx, IsTransient, op); err != nil {
		return MediaRef{}, err
	}
	if payload.ID == 0 {
		return MediaRef{}, Wrap(ErrTransient, "upload media", "remote returned media without an id", nil)
	}

	c.logger.Debug("media uploaded",
		logging.Int64("media_id", payload.ID),
		logging.String("file", filename),
	)
	return MediaRef{
		ID:          payload.ID,
		SourceURL:   payload.SourceURL,
		Title:       title,
		AltText:     altText,
		Description: description,
	}, nil
}

// CreateProduct creates a product from the draft and returns its remote id
// and permalink.
func (c *Client) CreateProduct(ctx context.Context, draft ProductDraft) (Product, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return Product{}, Wrap(ErrValidation, "create product", "draft has no name", nil)
	}

	var product Product
	op := func(attempt int) error {
		req, err := c.jsonRequest(ctx, http.MethodPost, c.productsURL(), draft)
		if err != nil {
			return err
		}
		return c.execute(req, "create product", &product)
	}
	if err := c.policy.Do(ctx, IsTransient, op); err != nil {
		return Product{}, err
	}
	return product, nil
}

// AttachMedia associates an uploaded media object with a product so it no
// longer shows as unattached in the media library.
func (c *Client) AttachMedia(ctx context.Context, mediaID, productID int64) error {
	if mediaID == 0 || productID == 0 {
		return Wrap(ErrValidation, "attach media", fmt.Sprintf("invalid ids media=%d product=%d", mediaID, productID), nil)
	}
	body := map[string]int64{"post": productID}
	req, err := c.jsonRequest(ctx, http.MethodPost, c.mediaURL(mediaID), body)
	if err != nil {
		return err
	}
	return c.execute(req, "attach media", nil)
}

// UpdateMediaMetadata sets the caption, alt text, and description of an
// uploaded media object.
func (c *Client) UpdateMediaMetadata(ctx context.Context, mediaID int64, title, altText, description string) error {
	if mediaID == 0 {
		return Wrap(ErrValidation, "update media metadata", "invalid media id", nil)
	}
	body := map[string]string{}
	if title != "" {
		body["caption"] = title
	}
	if altText != "" {
		body["alt_text"] = altText
	}
	if description != "" {
		body["description"] = description
	}
	if len(body) == 0 {
		return nil
	}
	req, err := c.jsonRequest(ctx, http.MethodPost, c.mediaURL(mediaID), body)
	if err != nil {
		return err
	}
	return c.execute(req, "update media metadata", nil)
}

func (c *Client) productsURL() string {
	return c.baseURL + "/wp-json/wc/v3/products"
}

func (c *Client) mediaURL(id int64) string {
	return fmt.Sprintf("%s/wp-json/wp/v2/media/%d", c.baseURL, id)
}

func (c *Client) jsonRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	return req, nil
}

// authorize picks the credential pair the endpoint expects: WordPress media
// endpoints need the application password, store endpoints the consumer pair.
func (c *Client) authorize(req *http.Request) {
	if strings.Contains(req.URL.Path, "/wp/v2/") && c.username != "" && c.appPassword != "" {
		req.SetBasicAuth(c.username, c.appPassword)
		return
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
}

func (c *Client) getJSON(ctx context.Context, operation, endpoint string, out any) error {
	op := func(attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		c.authorize(req)
		return c.execute(req, operation, out)
	}
	return c.policy.Do(ctx, IsTransient, op)
}

func (c *Client) execute(req *http.Request, operation string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", operation, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Operation: operation, Body: string(body)}
		switch resp.StatusCode {
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return Wrap(ErrValidation, operation, "", statusErr)
		case http.StatusUnauthorized, http.StatusForbidden:
			return Wrap(ErrConfiguration, operation, "check credentials", statusErr)
		case http.StatusNotFound:
			return Wrap(ErrNotFound, operation, "", statusErr)
		default:
			return statusErr
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}
	return nil
}
