package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/serpclick/internal/browser"
	"github.com/user/serpclick/internal/humanize"
)

const (
	queryBoxSelector = "textarea[name='q'], input[name='q']"
	consentSelector  = "button#L2AGLb, button[aria-label*='Accept'], button[aria-label*='同意']"

	// resultsReadySelector is what the post-submit wait blocks on. A query
	// submission can land on either the organic results page or a challenge
	// interstitial; the search homepage carries neither, so matching one of
	// these means the new document has arrived.
	resultsReadySelector = "#search, #rso, form#captcha-form, div.g-recaptcha, #recaptcha, iframe[src*='recaptcha']"
)

// Engine drives the search engine tab: fresh page, humanized query
// submission, and the click-through on a matched result.
type Engine struct {
	session    *browser.Session
	searchURL  string
	clickDelay humanize.Range
	logger     *zap.Logger
}

func NewEngine(session *browser.Session, searchURL string, clickDelay humanize.Range, logger *zap.Logger) *Engine {
	return &Engine{
		session:    session,
		searchURL:  searchURL,
		clickDelay: clickDelay,
		logger:     logger,
	}
}

// OpenSearch loads a fresh search page and clears any consent interstitial.
func (e *Engine) OpenSearch(ctx context.Context) error {
	if err := e.session.Navigate(ctx, e.searchURL); err != nil {
		return err
	}
	_ = e.session.WanderMouse(ctx)
	if clicked, err := e.session.ClickIfPresent(ctx, consentSelector); err == nil && clicked {
		e.logger.Debug("dismissed consent dialog")
	}
	return nil
}

// SubmitQuery types the keyword into the search box, submits it, and blocks
// until the results page (or a challenge interstitial) has rendered.
func (e *Engine) SubmitQuery(ctx context.Context, keyword string) error {
	if err := e.session.TypeHuman(ctx, queryBoxSelector, keyword, resultsReadySelector); err != nil {
		return fmt.Errorf("submit query %q: %w", keyword, err)
	}
	// Small random scroll so the results page settles like a human viewed it.
	_ = e.session.Evaluate(ctx, "window.scrollTo(0, Math.random() * 300)")
	return nil
}

// PageHTML returns the current results page markup.
func (e *Engine) PageHTML(ctx context.Context) (string, error) {
	return e.session.HTML(ctx)
}

// ClickResult performs the human-like click-through on a matched result and
// dwells on the destination before the caller moves on. Navigation happens
// through the element click itself, never by loading the URL directly.
func (e *Engine) ClickResult(ctx context.Context, m Match) error {
	selector := fmt.Sprintf("a[href=%q]", m.RawHref)
	if err := e.session.Click(ctx, selector); err != nil {
		return fmt.Errorf("click result at position %d: %w", m.Position, err)
	}
	e.logger.Info("visited target",
		zap.String("url", m.Href),
		zap.Int("position", m.Position))
	return humanize.Sleep(ctx, e.clickDelay)
}
