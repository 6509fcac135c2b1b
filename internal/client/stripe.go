package client

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"healthsync/internal/misc"

	"github.com/pkg/errors"
)

const stripeBaseURL = "https://api.stripe.com/v1"

type StripeCustomer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type StripeSubscription struct {
	ID               string `json:"id"`
	Customer         string `json:"customer"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
	Plan             struct {
		ID       string `json:"id"`
		Nickname string `json:"nickname"`
	} `json:"plan"`
}

func (s StripeSubscription) PeriodEnd() time.Time {
	return time.Unix(s.CurrentPeriodEnd, 0)
}

type StripeCheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (c Client) StripeCustomerCreate(email string) (StripeCustomer, error) {
	var customer StripeCustomer
	form := url.Values{"email": {email}}
	err := c.stripeDo(http.MethodPost, "/customers", form, &customer)
	return customer, errors.Wrapf(err, "StripeCustomerCreate: error creating customer for email: %s", email)
}

func (c Client) StripeSubscriptionGet(subscriptionID string) (StripeSubscription, error) {
	var sub StripeSubscription
	err := c.stripeDo(http.MethodGet, "/subscriptions/"+subscriptionID, nil, &sub)
	return sub, errors.Wrapf(err, "StripeSubscriptionGet: error getting subscription with ID: %s", subscriptionID)
}

func (c Client) StripeCheckoutCreate(customerID string, priceID string, successURL string, cancelURL string) (StripeCheckoutSession, error) {
	var session StripeCheckoutSession
	form := url.Values{
		"customer":                {customerID},
		"mode":                    {"subscription"},
		"line_items[0][price]":    {priceID},
		"line_items[0][quantity]": {"1"},
		"success_url":             {successURL},
		"cancel_url":              {cancelURL},
	}
	err := c.stripeDo(http.MethodPost, "/checkout/sessions", form, &session)
	return session, errors.Wrapf(err, "StripeCheckoutCreate: error creating checkout session for CustomerID: %s", customerID)
}

func (c Client) stripeDo(method string, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := newRequest(method, c.stripeBase()+path, body)
	if err != nil {
		return errors.Wrapf(err, "error creating request for path: %s", path)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Authorization", "Bearer "+c.StripeKey)

	resp, err := c.Do(req)
	if err != nil {
		return errors.Wrapf(err, "error doing request: %+v", req)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("stripeDo: error closing response body, path: %s, err: %v", path, err)
		}
	}()

	respBody, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 300*1024))
	if err != nil {
		return errors.Wrapf(err, "error reading Stripe response body, path: %s, status: %s", path, resp.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("Stripe API error, path: %s, status: %s, body: %s",
			path, resp.Status, misc.BytesLimit(respBody, 2000))
	}
	return errors.Wrapf(json.Unmarshal(respBody, out),
		"error unmarshalling Stripe response body, path: %s, body: %s", path, misc.BytesLimit(respBody, 2000))
}
