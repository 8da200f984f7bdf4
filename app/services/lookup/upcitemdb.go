package lookup

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/http"
)

const (
	UpcitemdbName    = "upcitemdb"
	UpcitemdbBaseURL = "https://api.upcitemdb.com"
)

// Upcitemdb queries api.upcitemdb.com. Without a user key the free trial
// endpoints are used; with one, the paid v1 endpoints.
type Upcitemdb struct {
	BaseURL string
	Secrets SecretSource
	Timeout time.Duration
}

func NewUpcitemdb(secrets SecretSource) *Upcitemdb {
	return &Upcitemdb{BaseURL: UpcitemdbBaseURL, Secrets: secrets, Timeout: 10 * time.Second}
}

func (c *Upcitemdb) Name() string { return UpcitemdbName }

type upcItem struct {
	EAN         string   `json:"ean"`
	UPC         string   `json:"upc"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	Color       string   `json:"color"`
	Images      []string `json:"images"`
}

type upcResponse struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Items   []upcItem `json:"items"`
}

func (c *Upcitemdb) Lookup(ctx context.Context, barcode string) (*Result, error) {
	code := NormalizeBarcode(barcode)
	if code == "" {
		return nil, nil
	}

	return rememberPoint(ctx, UpcitemdbName, "lookup", cacheKey(UpcitemdbName, "lookup", code), func() (*Result, error) {
		payload, found, err := c.get(ctx, "lookup", map[string]string{"upc": code})
		if err != nil || !found || len(payload.Items) == 0 {
			return nil, err
		}
		res := payload.Items[0].toResult()
		if res.Barcode == "" {
			res.Barcode = code
		}
		return &res, nil
	})
}

func (c *Upcitemdb) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	q := normalizeQuery(query)
	if q == "" {
		return []Result{}, nil
	}

	key := cacheKey(UpcitemdbName, "search", strconv.Itoa(limit), q)
	return rememberSearch(ctx, UpcitemdbName, key, func() ([]Result, error) {
		payload, found, err := c.get(ctx, "search", map[string]string{
			"s":          q,
			"match_mode": "0",
			"type":       "product",
		})
		if err != nil || !found {
			return nil, err
		}
		out := make([]Result, 0, len(payload.Items))
		for _, it := range payload.Items {
			out = append(out, it.toResult())
		}
		return truncate(out, limit), nil
	})
}

// get calls one endpoint. found=false means a clean "nothing here" answer.
func (c *Upcitemdb) get(ctx context.Context, endpoint string, params map[string]string) (upcResponse, bool, error) {
	var payload upcResponse

	tier := "trial"
	var userKey string
	if c.Secrets != nil {
		userKey = strings.TrimSpace(c.Secrets.Resolve(ctx, "UPCITEMDB_USER_KEY"))
	}
	if userKey != "" {
		tier = "v1"
	}

	req := http.Get(fmt.Sprintf("%s/prod/%s/%s", strings.TrimRight(c.BaseURL, "/"), tier, endpoint)).
		WithContext(ctx).
		Timeout(c.Timeout).
		Retry(2, 300*time.Millisecond)
	for k, v := range params {
		req.Query(k, v)
	}
	if userKey != "" {
		req.Header("user_key", userKey).Header("key_type", "3scale")
	}

	resp, err := req.Send()
	if err != nil {
		return payload, false, fmt.Errorf("%s: %v: %w", UpcitemdbName, err, ErrUpstream)
	}

	switch {
	case resp.StatusCode == 404:
		return payload, false, nil
	case resp.StatusCode == 400:
		// INVALID_UPC / INVALID_QUERY: the code itself is unknown.
		_ = resp.JSON(&payload)
		if strings.HasPrefix(payload.Code, "INVALID") {
			return payload, false, nil
		}
		return payload, false, statusError(UpcitemdbName, resp.StatusCode, resp.Raw)
	case !resp.OK():
		return payload, false, statusError(UpcitemdbName, resp.StatusCode, resp.Raw)
	}

	if err := resp.JSON(&payload); err != nil {
		return payload, false, fmt.Errorf("%s: %v: %w", UpcitemdbName, err, ErrUpstream)
	}
	return payload, true, nil
}

func (it upcItem) toResult() Result {
	code := NormalizeBarcode(it.EAN)
	if code == "" {
		code = NormalizeBarcode(it.UPC)
	}
	images := make([]string, 0, len(it.Images))
	for _, u := range it.Images {
		if u = strings.TrimSpace(u); u != "" {
			images = append(images, u)
		}
	}
	return Result{
		Barcode:     code,
		Name:        strings.TrimSpace(it.Title),
		Description: strings.TrimSpace(it.Description),
		Brand:       strings.TrimSpace(it.Brand),
		Color:       strings.TrimSpace(it.Color),
		Images:      images,
		Source:      UpcitemdbName,
	}
}
