// Package consultingtype provisions the default consulting type and topic of a
// freshly created tenant in the sibling consulting type and topic services.
package consultingtype

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	consultingTypesPath = "/consultingtypes"
	topicsPath          = "/topicadmin"
	topicStatusActive   = "ACTIVE"
	topicTimeLayout     = "2006-01-02 15:04:05"
)

type Client struct {
	consultingTypeBaseURL string
	topicBaseURL          string
	template              []byte
	httpClient            *http.Client
	now                   func() time.Time
}

type HTTPError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Service, e.StatusCode, msg)
}

// New validates both base urls and the consulting type template. The
// template is read once; its tenantId is overwritten per provisioning call.
func New(consultingTypeBaseURL string, topicBaseURL string, template []byte) (*Client, error) {
	ct, err := normalizeBaseURL("consulting type service", consultingTypeBaseURL)
	if err != nil {
		return nil, err
	}
	topic, err := normalizeBaseURL("topic service", topicBaseURL)
	if err != nil {
		return nil, err
	}
	var probe map[string]any
	if err := json.Unmarshal(template, &probe); err != nil || probe == nil {
		return nil, errors.New("consultingtype: template must be a json object")
	}
	return &Client{
		consultingTypeBaseURL: ct,
		topicBaseURL:          topic,
		template:              template,
		httpClient:            &http.Client{Timeout: 10 * time.Second},
		now:                   time.Now,
	}, nil
}

func NewFromFile(consultingTypeBaseURL string, topicBaseURL string, templatePath string) (*Client, error) {
	b, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("consultingtype: read template: %w", err)
	}
	return New(consultingTypeBaseURL, topicBaseURL, b)
}

func normalizeBaseURL(name string, raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", fmt.Errorf("consultingtype: missing %s base url", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("consultingtype: invalid %s base url", name)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("consultingtype: invalid %s base url scheme", name)
	}
	if u.Host == "" {
		return "", fmt.Errorf("consultingtype: invalid %s base url host", name)
	}
	return raw, nil
}

// ProvisionDefaults creates the default consulting type for tenantID and
// then the topic derived from it. The first failure stops the sequence.
func (c *Client) ProvisionDefaults(ctx context.Context, tenantID int64) error {
	body, tmpl, err := c.consultingTypeFor(tenantID)
	if err != nil {
		return err
	}
	consultingTypeID, err := c.createConsultingType(ctx, body)
	if err != nil {
		return err
	}
	return c.createTopic(ctx, toTopic(consultingTypeID, tmpl, c.now()))
}

type template struct {
	Description string `json:"description"`
	Titles      *struct {
		Short                string `json:"short"`
		Long                 string `json:"long"`
		Welcome              string `json:"welcome"`
		RegistrationDropdown string `json:"registrationDropdown"`
	} `json:"titles"`
	URLs *struct {
		RegistrationPostcodeFallbackURL string `json:"registrationPostcodeFallbackUrl"`
	} `json:"urls"`
}

func (c *Client) consultingTypeFor(tenantID int64) ([]byte, template, error) {
	var raw map[string]any
	if err := json.Unmarshal(c.template, &raw); err != nil {
		return nil, template{}, fmt.Errorf("consultingtype: decode template: %w", err)
	}
	raw["tenantId"] = tenantID
	body, err := json.Marshal(raw)
	if err != nil {
		return nil, template{}, err
	}
	var tmpl template
	if err := json.Unmarshal(c.template, &tmpl); err != nil {
		return nil, template{}, fmt.Errorf("consultingtype: decode template: %w", err)
	}
	return body, tmpl, nil
}

type topicTitles struct {
	Short                string `json:"short"`
	Long                 string `json:"long"`
	Welcome              string `json:"welcome"`
	RegistrationDropdown string `json:"registrationDropdown"`
}

type topic struct {
	ID                 int64             `json:"id"`
	Name               map[string]string `json:"name,omitempty"`
	Description        map[string]string `json:"description"`
	InternalIdentifier string            `json:"internalIdentifier,omitempty"`
	Titles             topicTitles       `json:"titles"`
	Status             string            `json:"status"`
	CreateDate         string            `json:"createDate"`
	UpdateDate         string            `json:"updateDate"`
	FallbackURL        string            `json:"fallbackUrl,omitempty"`
}

func toTopic(consultingTypeID int64, tmpl template, now time.Time) topic {
	stamp := now.Format(topicTimeLayout)
	t := topic{
		ID:          consultingTypeID,
		Description: map[string]string{"de": tmpl.Description},
		Status:      topicStatusActive,
		CreateDate:  stamp,
		UpdateDate:  stamp,
	}
	if tmpl.Titles != nil {
		t.Name = map[string]string{"de": tmpl.Titles.Short}
		t.InternalIdentifier = tmpl.Titles.Short
		t.Titles = topicTitles(*tmpl.Titles)
	}
	if tmpl.URLs != nil {
		t.FallbackURL = tmpl.URLs.RegistrationPostcodeFallbackURL
	}
	return t
}

func (c *Client) createConsultingType(ctx context.Context, body []byte) (int64, error) {
	resp, err := c.post(ctx, c.consultingTypeBaseURL+consultingTypesPath, body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return 0, readHTTPError("consulting type service", resp)
	}
	var out struct {
		ID json.Number `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("consultingtype: decode response: %w", err)
	}
	id, err := strconv.ParseInt(out.ID.String(), 10, 64)
	if err != nil {
		return 0, errors.New("consultingtype: missing consulting type id")
	}
	return id, nil
}

func (c *Client) createTopic(ctx context.Context, t topic) error {
	body, err := json.Marshal(t)
	if err != nil {
		return err
	}
	resp, err := c.post(ctx, c.topicBaseURL+topicsPath, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return readHTTPError("topic service", resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) post(ctx context.Context, target string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	applyForwardedHeaders(ctx, req)
	return c.httpClient.Do(req)
}

func readHTTPError(service string, resp *http.Response) error {
	const maxBody = 4096
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	return &HTTPError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Message:    string(b),
	}
}
