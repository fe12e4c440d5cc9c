package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrSolveTimeout is returned when the solving service does not produce a
// token within the configured window.
var ErrSolveTimeout = errors.New("captcha: solving service timed out")

// Solver submits a challenge to an external solving service and returns the
// response token. The service is treated as an opaque request/poll contract.
type Solver interface {
	Solve(ctx context.Context, pageURL, siteKey string) (string, error)
}

// TwoCaptcha drives the 2captcha.com submit-then-poll API.
type TwoCaptcha struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	timeout      time.Duration
}

func NewTwoCaptcha(apiKey string, pollInterval, timeout time.Duration) *TwoCaptcha {
	return &TwoCaptcha{
		apiKey:       apiKey,
		baseURL:      "http://2captcha.com",
		client:       &http.Client{Timeout: 30 * time.Second},
		pollInterval: pollInterval,
		timeout:      timeout,
	}
}

type twoCaptchaReply struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

func (t *TwoCaptcha) Solve(ctx context.Context, pageURL, siteKey string) (string, error) {
	taskID, err := t.submit(ctx, pageURL, siteKey)
	if err != nil {
		return "", err
	}

	deadline := time.Now().Add(t.timeout)
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		reply, err := t.poll(ctx, taskID)
		if err != nil {
			return "", err
		}
		if reply.Status == 1 {
			return reply.Request, nil
		}
		if reply.Request != "CAPCHA_NOT_READY" {
			return "", fmt.Errorf("captcha: 2captcha rejected task: %s", reply.Request)
		}
		if time.Now().After(deadline) {
			return "", ErrSolveTimeout
		}
	}
}

func (t *TwoCaptcha) submit(ctx context.Context, pageURL, siteKey string) (string, error) {
	form := url.Values{
		"key":       {t.apiKey},
		"method":    {"userrecaptcha"},
		"googlekey": {siteKey},
		"pageurl":   {pageURL},
		"json":      {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/in.php", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	reply, err := t.do(req)
	if err != nil {
		return "", err
	}
	if reply.Status != 1 {
		return "", fmt.Errorf("captcha: 2captcha submit failed: %s", reply.Request)
	}
	return reply.Request, nil
}

func (t *TwoCaptcha) poll(ctx context.Context, taskID string) (*twoCaptchaReply, error) {
	q := url.Values{
		"key":    {t.apiKey},
		"action": {"get"},
		"id":     {taskID},
		"json":   {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/res.php?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return t.do(req)
}

func (t *TwoCaptcha) do(req *http.Request) (*twoCaptchaReply, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("captcha: solving service request: %w", err)
	}
	defer resp.Body.Close()

	var reply twoCaptchaReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("captcha: decode solving service reply: %w", err)
	}
	return &reply, nil
}
