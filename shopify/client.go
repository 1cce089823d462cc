// Package shopify talks to the Shopify Admin API customer directory.
// All calls are best-effort from the caller's point of view: the group and
// invitation flows keep going when the shop is unreachable.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const apiVersion = "2024-07"

// CustomerProfile carries the fields sent when creating a customer record.
type CustomerProfile struct {
	Email     string
	FirstName string
	LastName  string
	Tags      string
}

// CustomerDirectory is the external identity service consumed by the
// identity resolver. Implementations must be safe for concurrent use.
type CustomerDirectory interface {
	// FindByEmail returns the customer id for the email, or "" when no
	// customer exists.
	FindByEmail(ctx context.Context, email string) (string, error)
	// Create registers a new customer and returns its id.
	Create(ctx context.Context, profile CustomerProfile) (string, error)
}

// Client implements CustomerDirectory against one shop's Admin API.
type Client struct {
	shopDomain  string
	accessToken string
	http        *http.Client
}

func NewClient(shopDomain, accessToken string) *Client {
	return &Client{
		shopDomain:  shopDomain,
		accessToken: accessToken,
		http:        &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled reports whether the client has a shop configured at all.
func (c *Client) Enabled() bool {
	return c.shopDomain != "" && c.accessToken != ""
}

type customer struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Tags      string `json:"tags,omitempty"`
}

func (c *Client) FindByEmail(ctx context.Context, email string) (string, error) {
	endpoint := fmt.Sprintf("https://%s/admin/api/%s/customers/search.json?query=%s",
		c.shopDomain, apiVersion, url.QueryEscape("email:"+email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("shopify customer search: status %d", resp.StatusCode)
	}

	var body struct {
		Customers []customer `json:"customers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}

	// The search query is fuzzy; require an exact email match.
	for _, cust := range body.Customers {
		if cust.Email == email {
			return fmt.Sprintf("%d", cust.ID), nil
		}
	}
	return "", nil
}

func (c *Client) Create(ctx context.Context, profile CustomerProfile) (string, error) {
	endpoint := fmt.Sprintf("https://%s/admin/api/%s/customers.json", c.shopDomain, apiVersion)

	payload := struct {
		Customer customer `json:"customer"`
	}{Customer: customer{
		Email:     profile.Email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Tags:      profile.Tags,
	}}

	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("shopify customer create: status %d", resp.StatusCode)
	}

	var body struct {
		Customer customer `json:"customer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", body.Customer.ID), nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")
}
