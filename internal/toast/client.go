package toast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/goforsam/toast-api/pkg/config"
	pkgerrors "github.com/goforsam/toast-api/pkg/errors"
	"github.com/goforsam/toast-api/pkg/logger"
)

const (
	loginPath        = "/authentication/v1/authentication/login"
	ordersBulkPath   = "/orders/v2/ordersBulk"
	cashEntriesPath  = "/cashmgmt/v1/entries"
	cashDepositsPath = "/cashmgmt/v1/deposits"
	timeEntriesPath  = "/labor/v1/timeEntries"
	employeesPath    = "/labor/v1/employees"
	jobsPath         = "/labor/v1/jobs"
	restaurantsPath  = "/restaurants/v1/restaurants"
	menusPath        = "/menus/v2/menus"

	restaurantHeader = "Toast-Restaurant-External-ID"
	machineClient    = "TOAST_MACHINE_CLIENT"

	requestTimeFormat = "2006-01-02T15:04:05.000-0700"
)

// Credentials holds the tenant's API client pair.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Client talks to the vendor REST API with per-restaurant rate limiting,
// bounded retries, and automatic token refresh.
type Client struct {
	cfg        config.ToastConfig
	creds      Credentials
	httpClient *http.Client
	limiter    *rateLimiter
	logg       *logger.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient builds a Client from config and tenant credentials.
func NewClient(cfg config.ToastConfig, creds Credentials, logg *logger.Logger) *Client {
	return &Client{
		cfg:   cfg,
		creds: creds,
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		limiter: newRateLimiter(map[Endpoint]time.Duration{
			EndpointOrders: cfg.RateOrders,
			EndpointCash:   cfg.RateCash,
			EndpointLabor:  cfg.RateLabor,
			EndpointMenus:  cfg.RateMenus,
			EndpointConfig: cfg.RateConfig,
		}),
		logg:  logg,
		now:   time.Now,
		sleep: sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type loginRequest struct {
	ClientID       string `json:"clientId"`
	ClientSecret   string `json:"clientSecret"`
	UserAccessType string `json:"userAccessType"`
}

type loginResponse struct {
	Token struct {
		AccessToken string `json:"accessToken"`
		ExpiresIn   int64  `json:"expiresIn"`
	} `json:"token"`
}

// Authenticate obtains a fresh bearer token. Authentication failures are
// terminal and never retried.
func (c *Client) Authenticate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.AuthTimeout)
	defer cancel()

	payload, err := json.Marshal(loginRequest{
		ClientID:       c.creds.ClientID,
		ClientSecret:   c.creds.ClientSecret,
		UserAccessType: machineClient,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding login request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+loginPath, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeAuthentication, err, "vendor login request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeAuthentication, err, "reading login response")
	}
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeAuthentication,
			fmt.Sprintf("vendor login returned status %d", resp.StatusCode))
	}

	var parsed loginResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeAuthentication, err, "decoding login response")
	}
	if parsed.Token.AccessToken == "" {
		return pkgerrors.New(pkgerrors.CodeAuthentication, "vendor login returned no access token")
	}

	lifetime := c.cfg.TokenLifetime
	if parsed.Token.ExpiresIn > 0 {
		lifetime = time.Duration(parsed.Token.ExpiresIn) * time.Second
	}

	c.mu.Lock()
	c.token = parsed.Token.AccessToken
	c.tokenExpiry = c.now().Add(lifetime)
	c.mu.Unlock()

	if c.logg != nil {
		c.logg.Info(ctx, "vendor token acquired")
	}
	return nil
}

// ensureToken refreshes the token when it is missing or inside the
// refresh margin of its expiry.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	expiry := c.tokenExpiry
	c.mu.Unlock()

	if token != "" && c.now().Before(expiry.Add(-c.cfg.TokenRefreshMargin)) {
		return token, nil
	}

	if err := c.Authenticate(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	token = c.token
	c.mu.Unlock()
	return token, nil
}

// doJSON performs one rate-limited GET with bounded retries and returns
// the response body. Statuses 429 and 500/502/503/504 are retryable;
// anything else fails immediately.
func (c *Client) doJSON(ctx context.Context, endpoint Endpoint, restaurantGUID, path string, query url.Values) ([]byte, error) {
	var lastErr error
	backoff := c.cfg.InitialBackoff

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx, endpoint, restaurantGUID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTransientFetch, err, "rate limit wait interrupted")
		}

		body, retryAfter, err := c.attempt(ctx, restaurantGUID, path, query)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !pkgerrors.IsCode(err, pkgerrors.CodeTransientFetch) {
			return nil, err
		}
		if attempt == c.cfg.MaxAttempts {
			break
		}

		wait := backoff
		if retryAfter > 0 {
			wait = retryAfter
		}
		if c.logg != nil {
			loc := c.logg.WithFields(ctx, map[string]any{
				"path":    path,
				"attempt": attempt,
				"wait":    wait.String(),
			})
			c.logg.Warn(loc, "vendor request failed, retrying")
		}
		if err := c.sleep(ctx, wait); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTransientFetch, err, "retry wait interrupted")
		}
		backoff *= 2
	}

	return nil, pkgerrors.Wrap(pkgerrors.CodeTransientFetch, lastErr,
		fmt.Sprintf("vendor request to %s failed after %d attempts", path, c.cfg.MaxAttempts))
}

// attempt runs a single request. The returned duration is the parsed
// Retry-After hint, zero when absent.
func (c *Client) attempt(ctx context.Context, restaurantGUID, path string, query url.Values) ([]byte, time.Duration, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, 0, err
	}

	target := c.cfg.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building vendor request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if restaurantGUID != "" {
		req.Header.Set(restaurantHeader, restaurantGUID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeTransientFetch, err, "vendor request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeTransientFetch, err, "reading vendor response")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, 0, nil
	case isRetryableStatus(resp.StatusCode):
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")),
			pkgerrors.New(pkgerrors.CodeTransientFetch,
				fmt.Sprintf("vendor returned status %d", resp.StatusCode))
	default:
		return nil, 0, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("vendor returned status %d for %s", resp.StatusCode, path))
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// ordersPage tolerates both response shapes: a bare array of orders and
// an envelope carrying pagination metadata.
type ordersPage struct {
	orders      []Order
	hasNextPage bool
	hasMetadata bool
}

func parseOrdersPage(body []byte) (ordersPage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ordersPage{}, nil
	}

	if trimmed[0] == '[' {
		var orders []Order
		if err := json.Unmarshal(trimmed, &orders); err != nil {
			return ordersPage{}, fmt.Errorf("decoding orders page: %w", err)
		}
		return ordersPage{orders: orders}, nil
	}

	var envelope struct {
		Data       []Order `json:"data"`
		Pagination *struct {
			HasNextPage bool `json:"hasNextPage"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return ordersPage{}, fmt.Errorf("decoding orders envelope: %w", err)
	}
	page := ordersPage{orders: envelope.Data}
	if envelope.Pagination != nil {
		page.hasMetadata = true
		page.hasNextPage = envelope.Pagination.HasNextPage
	}
	return page, nil
}

// FetchOrders pulls every order in [start, end) for one restaurant,
// walking pages until the vendor signals the end. When the page ceiling
// is hit the orders fetched so far are returned alongside the error.
func (c *Client) FetchOrders(ctx context.Context, restaurantGUID string, start, end time.Time) ([]Order, error) {
	query := url.Values{}
	query.Set("startDate", start.UTC().Format(requestTimeFormat))
	query.Set("endDate", end.UTC().Format(requestTimeFormat))
	query.Set("pageSize", strconv.Itoa(c.cfg.PageSize))

	var fetched []Order
	for page := 1; ; page++ {
		if page > c.cfg.MaxPages {
			return fetched, pkgerrors.New(pkgerrors.CodePaginationLimit,
				fmt.Sprintf("orders pagination exceeded %d pages for restaurant %s", c.cfg.MaxPages, restaurantGUID))
		}

		query.Set("page", strconv.Itoa(page))
		body, err := c.doJSON(ctx, EndpointOrders, restaurantGUID, ordersBulkPath, query)
		if err != nil {
			return fetched, err
		}

		parsed, err := parseOrdersPage(body)
		if err != nil {
			return fetched, pkgerrors.Wrap(pkgerrors.CodeTransientFetch, err, "invalid orders page")
		}

		for i := range parsed.orders {
			if parsed.orders[i].RestaurantGUID == "" {
				parsed.orders[i].RestaurantGUID = restaurantGUID
			}
		}
		fetched = append(fetched, parsed.orders...)

		if parsed.hasMetadata {
			// An empty page with hasNextPage set still advances; the vendor
			// occasionally emits sparse pages mid-range.
			if !parsed.hasNextPage {
				return fetched, nil
			}
			continue
		}
		if len(parsed.orders) < c.cfg.PageSize {
			return fetched, nil
		}
	}
}

// businessDates expands a half-open [start, end) window into the business
// dates it covers. A midnight end bound does not drag in the next date.
func businessDates(start, end time.Time) []civil.Date {
	first := civil.DateOf(start.UTC())
	last := civil.DateOf(end.UTC().Add(-time.Nanosecond))
	var dates []civil.Date
	for d := first; !d.After(last); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates
}

func businessDateParam(d civil.Date) string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day)
}

// FetchCashEntries pulls cash drawer entries for each business date in
// the window. The endpoint accepts one date per request.
func (c *Client) FetchCashEntries(ctx context.Context, restaurantGUID string, start, end time.Time) ([]CashEntry, error) {
	var entries []CashEntry
	for _, date := range businessDates(start, end) {
		query := url.Values{}
		query.Set("businessDate", businessDateParam(date))
		body, err := c.doJSON(ctx, EndpointCash, restaurantGUID, cashEntriesPath, query)
		if err != nil {
			return entries, err
		}
		var page []CashEntry
		if err := json.Unmarshal(body, &page); err != nil {
			return entries, pkgerrors.Wrap(pkgerrors.CodeTransientFetch, err, "decoding cash entries")
		}
		entries = append(entries, page...)
	}
	return entries, nil
}

// FetchCashDeposits pulls bank deposits for each business date in the window.
func (c *Client) FetchCashDeposits(ctx context.Context, restaurantGUID string, start, end time.Time) ([]CashDeposit, error) {
	var deposits []CashDeposit
	for _, date := range businessDates(start, end) {
		query := url.Values{}
		query.Set("businessDate", businessDateParam(date))
		body, err := c.doJSON(ctx, EndpointCash, restaurantGUID, cashDepositsPath, query)
		if err != nil {
			return deposits, err
		}
		var page []CashDeposit
		if err := json.Unmarshal(body, &page); err != nil {
			return deposits, pkgerrors.Wrap(pkgerrors.CodeTransientFetch, err, "decoding cash deposits")
		}
		deposits = append(deposits, page...)
	}
	return deposits, nil
}

// FetchTimeEntries pulls clock records for the window.
func (c *Client) FetchTimeEntries(ctx context.Context, restaurantGUID string, start, end time.Time) ([]TimeEntry, error) {
	query := url.Values{}
	query.Set("startDate", start.UTC().Format(requestTimeFormat))
	query.Set("endDate", end.UTC().Format(requestTimeFormat))

	body, err := c.doJSON(ctx, EndpointLabor, restaurantGUID, timeEntriesPath, query)
	if err != nil {
		return nil, err
	}
	var entries []TimeEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransientFetch, err, "decoding time entries")
	}
	return entries, nil
}

// FetchRestaurantInfo pulls the restaurant's configuration document.
func (c *Client) FetchRestaurantInfo(ctx context.Context, restaurantGUID string) (*RestaurantInfo, error) {
	body, err := c.doJSON(ctx, EndpointConfig, restaurantGUID, restaurantsPath+"/"+restaurantGUID, nil)
	if err != nil {
		return nil, err
	}
	var info RestaurantInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransientFetch, err, "decoding restaurant info")
	}
	if info.GUID == "" {
		info.GUID = restaurantGUID
	}
	return &info, nil
}

// FetchEmployees pulls the full staff roster.
func (c *Client) FetchEmployees(ctx context.Context, restaurantGUID string) ([]Employee, error) {
	body, err := c.doJSON(ctx, EndpointLabor, restaurantGUID, employeesPath, nil)
	if err != nil {
		return nil, err
	}
	var employees []Employee
	if err := json.Unmarshal(body, &employees); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransientFetch, err, "decoding employees")
	}
	return employees, nil
}

// FetchJobs pulls the configured job roles.
func (c *Client) FetchJobs(ctx context.Context, restaurantGUID string) ([]Job, error) {
	body, err := c.doJSON(ctx, EndpointLabor, restaurantGUID, jobsPath, nil)
	if err != nil {
		return nil, err
	}
	var jobs []Job
	if err := json.Unmarshal(body, &jobs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransientFetch, err, "decoding jobs")
	}
	return jobs, nil
}

// FetchMenus pulls the nested menus document.
func (c *Client) FetchMenus(ctx context.Context, restaurantGUID string) ([]Menu, error) {
	body, err := c.doJSON(ctx, EndpointMenus, restaurantGUID, menusPath, nil)
	if err != nil {
		return nil, err
	}
	var menus []Menu
	if err := json.Unmarshal(body, &menus); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransientFetch, err, "decoding menus")
	}
	return menus, nil
}
