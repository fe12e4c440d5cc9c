package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/user/serpclick/internal/config"
	"github.com/user/serpclick/internal/humanize"
)

const (
	viewportWidth  = 1920
	viewportHeight = 1080
)

// Session is the one long-lived browser context for a run. All methods block
// until the underlying CDP action completes; the run loop drives the session
// strictly sequentially, so no locking is needed.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	navTimeout  time.Duration
	logger      *zap.Logger
}

// Open launches the browser and applies the stealth profile: automation
// flags stripped, fingerprint overrides installed before any document runs,
// realistic headers set on every request.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.WindowSize(viewportWidth, viewportHeight),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if cfg.UsePersistentContext {
		if err := os.MkdirAll(cfg.UserDataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create user data dir: %w", err)
		}
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, cancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:         taskCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		navTimeout:  cfg.NavTimeout,
		logger:      logger,
	}

	boot := []chromedp.Action{
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language":           cfg.AcceptLanguage,
			"Upgrade-Insecure-Requests": "1",
		}),
	}
	for _, script := range stealthScripts {
		src := script
		boot = append(boot, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(src).Do(ctx)
			return err
		}))
	}
	if err := chromedp.Run(taskCtx, boot...); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	logger.Info("browser session ready",
		zap.Bool("headless", cfg.Headless),
		zap.Bool("persistent", cfg.UsePersistentContext))
	return s, nil
}

// Close tears down the browser context and its allocator.
func (s *Session) Close() {
	s.cancel()
	s.allocCancel()
}

// run executes chromedp actions against the session with a timeout, honoring
// cancellation of the caller's context as well.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and waits for the document body to be ready.
func (s *Session) Navigate(ctx context.Context, rawURL string) error {
	err := s.run(ctx, s.navTimeout,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	return nil
}

// HTML returns the full document markup of the current page.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.navTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

// URL returns the current page location.
func (s *Session) URL(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, s.navTimeout, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("read page location: %w", err)
	}
	return loc, nil
}

// Evaluate runs a script on the page, discarding its result.
func (s *Session) Evaluate(ctx context.Context, script string) error {
	return s.run(ctx, s.navTimeout, chromedp.Evaluate(script, nil))
}

// TypeHuman focuses the element and types text one key at a time with
// humanized pauses, then submits with Enter and blocks until readySelector
// shows up. Enter starts the navigation asynchronously and the old document
// stays "ready" the whole time, so the wait must be on markup only the next
// document carries.
func (s *Session) TypeHuman(ctx context.Context, selector, text, readySelector string) error {
	actions := []chromedp.Action{
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
		chromedp.Sleep(humanize.Between(200*time.Millisecond, 500*time.Millisecond)),
	}
	for _, r := range text {
		actions = append(actions,
			chromedp.SendKeys(selector, string(r), chromedp.ByQuery),
			chromedp.Sleep(humanize.KeystrokeDelay()),
		)
	}
	actions = append(actions,
		chromedp.SendKeys(selector, kb.Enter, chromedp.ByQuery),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		chromedp.Sleep(humanize.Between(2*time.Second, 4*time.Second)),
	)
	return s.run(ctx, s.navTimeout+time.Duration(len(text))*time.Second, actions...)
}

// Click scrolls the element into view, hesitates briefly, then clicks it and
// waits for the navigation the click triggers to finish loading.
func (s *Session) Click(ctx context.Context, selector string) error {
	return s.run(ctx, s.navTimeout,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Sleep(humanize.Between(500*time.Millisecond, 1200*time.Millisecond)),
		clickAwaitingLoad(selector),
	)
}

// clickAwaitingLoad clicks selector and blocks until the navigation it
// triggers fires the page load event. The source document's body is still
// attached while the load is in flight, so a readiness wait on it would
// return immediately.
func clickAwaitingLoad(selector string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		loaded := make(chan struct{}, 1)
		lctx, cancel := context.WithCancel(ctx)
		defer cancel()
		chromedp.ListenTarget(lctx, func(ev interface{}) {
			if _, ok := ev.(*page.EventLoadEventFired); ok {
				select {
				case loaded <- struct{}{}:
				default:
				}
			}
		})
		if err := chromedp.Click(selector, chromedp.ByQuery).Do(ctx); err != nil {
			return err
		}
		select {
		case <-loaded:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// ClickIfPresent clicks the first element matching selector if one exists.
// It reports whether a click happened; an absent element is not an error.
func (s *Session) ClickIfPresent(ctx context.Context, selector string) (bool, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, 5*time.Second,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil || len(nodes) == 0 {
		return false, err
	}
	if err := s.run(ctx, s.navTimeout, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return false, err
	}
	return true, nil
}

// WanderMouse issues a few idle cursor movements inside the viewport.
func (s *Session) WanderMouse(ctx context.Context) error {
	var actions []chromedp.Action
	for _, p := range humanize.MousePath(viewportWidth, viewportHeight) {
		x, y := p[0], p[1]
		actions = append(actions,
			chromedp.ActionFunc(func(ctx context.Context) error {
				return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
			}),
			chromedp.Sleep(humanize.Between(100*time.Millisecond, 300*time.Millisecond)),
		)
	}
	return s.run(ctx, 10*time.Second, actions...)
}
