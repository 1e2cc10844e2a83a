package main

import (
	"fmt"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
)

const maxAttempts = 3

func newClient() *resty.Client {
	c := resty.New().
		SetBaseURL(apiFlag).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)
	if apiKeyFlag != "" {
		c.SetAuthToken(apiKeyFlag)
	}
	return c
}

func newRequest(c *resty.Client) *resty.Request {
	req := c.R()
	if ownerFlag != "" {
		req.SetQueryParam("ownerId", ownerFlag)
	}
	return req
}

// withRetry repeats the call on transport errors and 5xx responses with
// exponential backoff, up to maxAttempts.
func withRetry(f func() (*resty.Response, error)) (*resty.Response, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 250 * time.Millisecond
	exp.Multiplier = 2
	exp.MaxInterval = 2 * time.Second
	exp.Reset()

	var resp *resty.Response
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = f()
		if err == nil && resp.StatusCode() < http.StatusInternalServerError {
			return resp, nil
		}
		if attempt >= maxAttempts-1 {
			break
		}
		time.Sleep(exp.NextBackOff())
	}
	return resp, err
}

func checkStatus(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func doGet(path string, query map[string]string) ([]byte, error) {
	c := newClient()
	resp, err := withRetry(func() (*resty.Response, error) {
		return newRequest(c).SetQueryParams(query).Get(path)
	})
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func doPostJSON(path string, payload interface{}) ([]byte, error) {
	c := newClient()
	resp, err := withRetry(func() (*resty.Response, error) {
		return newRequest(c).SetBody(payload).Post(path)
	})
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func doPatchJSON(path string, payload interface{}) ([]byte, error) {
	c := newClient()
	resp, err := withRetry(func() (*resty.Response, error) {
		return newRequest(c).SetBody(payload).Patch(path)
	})
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func doDelete(path string) error {
	c := newClient()
	resp, err := withRetry(func() (*resty.Response, error) {
		return newRequest(c).Delete(path)
	})
	if err != nil {
		return err
	}
	return checkStatus(resp)
}
