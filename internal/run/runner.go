package run

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/user/serpclick/internal/captcha"
	"github.com/user/serpclick/internal/humanize"
	"github.com/user/serpclick/internal/monitoring"
	"github.com/user/serpclick/internal/search"
)

// Driver abstracts the live browser flow the runner needs for one keyword.
// *search.Engine is the real implementation; tests substitute a fake.
type Driver interface {
	OpenSearch(ctx context.Context) error
	SubmitQuery(ctx context.Context, keyword string) error
	PageHTML(ctx context.Context) (string, error)
	ClickResult(ctx context.Context, m search.Match) error
}

// Resolver handles challenge pages; satisfied by *captcha.Handler.
type Resolver interface {
	Resolve(ctx context.Context, page captcha.Page) (captcha.Resolution, error)
}

// Cooldown is the optional recently-searched store; nil disables it.
type Cooldown interface {
	IsRecentlySearched(ctx context.Context, keyword string) (bool, error)
	MarkSearched(ctx context.Context, keyword string, ttl time.Duration) error
}

// Deps carries everything a Runner needs.
type Deps struct {
	Driver      Driver
	Page        captcha.Page
	Scanner     *search.Scanner
	Captcha     Resolver
	Cooldown    Cooldown
	CooldownTTL time.Duration
	SearchDelay humanize.Range
	Tracker     *Tracker
	Metrics     *monitoring.Metrics
	Logger      *zap.Logger
}

// Runner processes keywords one at a time, start to finish, recording
// exactly one outcome per keyword.
type Runner struct {
	deps Deps
}

func NewRunner(deps Deps) *Runner {
	return &Runner{deps: deps}
}

// Run walks every keyword in order. Per-keyword failures are isolated into
// that keyword's outcome; the loop always completes.
func (r *Runner) Run(ctx context.Context, keywords []string) []Outcome {
	for i, kw := range keywords {
		o := r.processKeyword(ctx, kw)
		o.Keyword = kw
		o.At = time.Now()
		r.deps.Tracker.Record(o)
		r.deps.Metrics.IncOutcome(string(o.Status))
		r.deps.Logger.Info("keyword processed",
			zap.String("keyword", kw),
			zap.String("status", string(o.Status)),
			zap.Int("position", o.Position))

		if i < len(keywords)-1 {
			if err := humanize.Sleep(ctx, r.deps.SearchDelay); err != nil {
				r.deps.Logger.Warn("inter-search delay interrupted", zap.Error(err))
			}
		}
	}
	return r.deps.Tracker.Outcomes()
}

func (r *Runner) processKeyword(ctx context.Context, keyword string) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Status: StatusError, Err: "run cancelled"}
	}

	if r.deps.Cooldown != nil {
		recent, err := r.deps.Cooldown.IsRecentlySearched(ctx, keyword)
		if err != nil {
			r.deps.Logger.Warn("cooldown lookup failed", zap.Error(err))
		} else if recent {
			r.deps.Logger.Info("keyword searched recently, skipping", zap.String("keyword", keyword))
			return Outcome{Status: StatusCooldownSkipped}
		}
	}

	r.deps.Metrics.IncSearches()

	if err := r.deps.Driver.OpenSearch(ctx); err != nil {
		return Outcome{Status: StatusError, Err: err.Error()}
	}
	if o, done := r.resolveChallenge(ctx); done {
		return o
	}

	if err := r.deps.Driver.SubmitQuery(ctx, keyword); err != nil {
		return Outcome{Status: StatusError, Err: err.Error()}
	}
	if o, done := r.resolveChallenge(ctx); done {
		return o
	}

	html, err := r.deps.Driver.PageHTML(ctx)
	if err != nil {
		return Outcome{Status: StatusError, Err: err.Error()}
	}

	if r.deps.Cooldown != nil {
		if err := r.deps.Cooldown.MarkSearched(ctx, keyword, r.deps.CooldownTTL); err != nil {
			r.deps.Logger.Warn("cooldown mark failed", zap.Error(err))
		}
	}

	match, ok := r.deps.Scanner.Scan(html)
	if !ok {
		return Outcome{Status: StatusNotFound}
	}

	o := Outcome{Status: StatusFound, Position: match.Position}
	if err := r.deps.Driver.ClickResult(ctx, match); err != nil {
		// Found is still the outcome; only the click-through failed.
		r.deps.Logger.Warn("click-through failed", zap.Error(err))
		return o
	}
	o.Clicked = true
	return o
}

// resolveChallenge runs the CAPTCHA handler against the current page and
// translates a skip into the keyword's terminal outcome.
func (r *Runner) resolveChallenge(ctx context.Context) (Outcome, bool) {
	res, err := r.deps.Captcha.Resolve(ctx, r.deps.Page)
	switch res {
	case captcha.ResolutionResolved:
		r.deps.Metrics.IncChallenge()
		r.deps.Metrics.IncChallengeSolved()
		return Outcome{}, false
	case captcha.ResolutionSkipped:
		if err != nil && !errors.Is(err, captcha.ErrChallengeTimeout) {
			return Outcome{Status: StatusError, Err: err.Error()}, true
		}
		r.deps.Metrics.IncChallenge()
		return Outcome{Status: StatusCaptchaSkipped}, true
	default:
		return Outcome{}, false
	}
}
