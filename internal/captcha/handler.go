package captcha

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrChallengeTimeout is returned when the manual wait window elapses with
// the challenge still on screen.
var ErrChallengeTimeout = errors.New("captcha: wait window elapsed")

// Resolution is the terminal state of one challenge encounter.
type Resolution int

const (
	// ResolutionNone means no challenge was present.
	ResolutionNone Resolution = iota
	// ResolutionResolved means the challenge cleared (service or human).
	ResolutionResolved
	// ResolutionSkipped means the keyword must be skipped.
	ResolutionSkipped
)

func (r Resolution) String() string {
	switch r {
	case ResolutionNone:
		return "none"
	case ResolutionResolved:
		return "resolved"
	case ResolutionSkipped:
		return "skipped"
	}
	return "unknown"
}

// Page is the minimal view of the live browser page the handler needs.
type Page interface {
	HTML(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	Evaluate(ctx context.Context, script string) error
}

// Policy selects how a detected challenge is dealt with.
type Policy struct {
	Skip         bool          // skip the keyword without waiting
	ManualWait   bool          // block for a human to solve it
	ManualWindow time.Duration // how long the manual wait may last
	PollInterval time.Duration // how often the page is re-checked
}

// Handler owns the challenge decision point: detect, then branch into
// automated solving, skipping, or a bounded manual wait.
type Handler struct {
	detector Detector
	solver   Solver // nil when no service is configured
	policy   Policy
	logger   *zap.Logger
}

func NewHandler(det Detector, solver Solver, policy Policy, logger *zap.Logger) *Handler {
	if policy.PollInterval <= 0 {
		policy.PollInterval = 2 * time.Second
	}
	return &Handler{detector: det, solver: solver, policy: policy, logger: logger}
}

// Resolve inspects the current page and, if a challenge is present, drives
// it to resolved or skipped per the policy. The skipped resolution may carry
// ErrChallengeTimeout; other errors mean the page could not be inspected.
func (h *Handler) Resolve(ctx context.Context, page Page) (Resolution, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return ResolutionSkipped, fmt.Errorf("captcha: read page: %w", err)
	}
	if !h.detector.Detect(html) {
		return ResolutionNone, nil
	}

	h.logger.Warn("challenge detected")

	if h.solver != nil {
		if h.solveAutomated(ctx, page, html) {
			h.logger.Info("challenge solved by service")
			return ResolutionResolved, nil
		}
		h.logger.Warn("automated solve did not clear the challenge")
	}
	if h.policy.Skip {
		h.logger.Info("challenge skipped by policy")
		return ResolutionSkipped, nil
	}
	if h.policy.ManualWait {
		return h.waitManual(ctx, page)
	}
	return ResolutionSkipped, nil
}

func (h *Handler) solveAutomated(ctx context.Context, page Page, html string) bool {
	siteKey, ok := SiteKey(html)
	if !ok {
		h.logger.Warn("could not extract challenge site key")
		return false
	}
	pageURL, err := page.URL(ctx)
	if err != nil {
		h.logger.Warn("could not read page url", zap.Error(err))
		return false
	}

	token, err := h.solver.Solve(ctx, pageURL, siteKey)
	if err != nil {
		h.logger.Warn("solving service failed", zap.Error(err))
		return false
	}
	if err := page.Evaluate(ctx, injectTokenScript(token)); err != nil {
		h.logger.Warn("token injection failed", zap.Error(err))
		return false
	}

	// Give the page a moment to run the widget callback, then re-check.
	select {
	case <-time.After(h.policy.PollInterval):
	case <-ctx.Done():
		return false
	}
	html, err = page.HTML(ctx)
	return err == nil && !h.detector.Detect(html)
}

// waitManual blocks until the challenge disappears or the window elapses,
// re-checking the page at the poll interval.
func (h *Handler) waitManual(ctx context.Context, page Page) (Resolution, error) {
	h.logger.Info("waiting for manual challenge solve",
		zap.Duration("window", h.policy.ManualWindow))

	deadline := time.Now().Add(h.policy.ManualWindow)
	ticker := time.NewTicker(h.policy.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ResolutionSkipped, ctx.Err()
		case <-ticker.C:
		}

		html, err := page.HTML(ctx)
		if err == nil && !h.detector.Detect(html) {
			h.logger.Info("challenge cleared")
			return ResolutionResolved, nil
		}
		if time.Now().After(deadline) {
			h.logger.Warn("manual solve window elapsed")
			return ResolutionSkipped, ErrChallengeTimeout
		}
	}
}

func injectTokenScript(token string) string {
	return fmt.Sprintf(`(function() {
	var token = %q;
	var el = document.getElementById('g-recaptcha-response');
	if (el) { el.innerHTML = token; el.value = token; }
	document.querySelectorAll('[name="g-recaptcha-response"]').forEach(function(n) {
		n.innerHTML = token;
		n.value = token;
	});
	if (typeof ___grecaptcha_cfg !== 'undefined' && ___grecaptcha_cfg.clients) {
		for (var i = 0; i < ___grecaptcha_cfg.clients.length; i++) {
			if (___grecaptcha_cfg.clients[i].callback) {
				___grecaptcha_cfg.clients[i].callback(token);
			}
		}
	}
})();`, token)
}
