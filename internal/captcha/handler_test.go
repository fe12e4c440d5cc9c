package captcha

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePage serves challenge markup until told (or scheduled) to clear.
type fakePage struct {
	mu          sync.Mutex
	html        string
	reads       int
	clearAfter  int  // clear once this many HTML reads have happened (0 = never)
	clearOnEval bool // clear as soon as a script is evaluated
	evals       []string
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	if p.clearAfter > 0 && p.reads > p.clearAfter {
		return cleanHTML, nil
	}
	return p.html, nil
}

func (p *fakePage) URL(ctx context.Context) (string, error) {
	return "https://www.google.com/search?q=x", nil
}

func (p *fakePage) Evaluate(ctx context.Context, script string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evals = append(p.evals, script)
	if p.clearOnEval {
		p.html = cleanHTML
	}
	return nil
}

type fakeSolver struct {
	token      string
	err        error
	calls      int
	gotSiteKey string
	gotPageURL string
}

func (s *fakeSolver) Solve(ctx context.Context, pageURL, siteKey string) (string, error) {
	s.calls++
	s.gotPageURL = pageURL
	s.gotSiteKey = siteKey
	return s.token, s.err
}

func newHandler(solver Solver, policy Policy) *Handler {
	if policy.PollInterval == 0 {
		policy.PollInterval = 5 * time.Millisecond
	}
	return NewHandler(MarkupDetector{}, solver, policy, zap.NewNop())
}

func TestResolveNoChallenge(t *testing.T) {
	h := newHandler(nil, Policy{ManualWait: true, ManualWindow: time.Second})
	page := &fakePage{html: cleanHTML}

	res, err := h.Resolve(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, ResolutionNone, res)
}

func TestResolveSkipPolicy(t *testing.T) {
	h := newHandler(nil, Policy{Skip: true, ManualWait: true, ManualWindow: time.Minute})
	page := &fakePage{html: challengeHTML}

	start := time.Now()
	res, err := h.Resolve(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, ResolutionSkipped, res)
	// Skip must win over manual wait; no blocking allowed.
	assert.Less(t, time.Since(start), time.Second)
}

func TestResolveManualWaitClears(t *testing.T) {
	h := newHandler(nil, Policy{ManualWait: true, ManualWindow: 500 * time.Millisecond})
	page := &fakePage{html: challengeHTML, clearAfter: 3}

	res, err := h.Resolve(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, ResolutionResolved, res)
}

func TestResolveManualWaitTimesOut(t *testing.T) {
	h := newHandler(nil, Policy{ManualWait: true, ManualWindow: 30 * time.Millisecond})
	page := &fakePage{html: challengeHTML}

	res, err := h.Resolve(context.Background(), page)
	assert.Equal(t, ResolutionSkipped, res)
	require.ErrorIs(t, err, ErrChallengeTimeout)
}

func TestResolveNeitherPolicySkipsImmediately(t *testing.T) {
	h := newHandler(nil, Policy{})
	page := &fakePage{html: challengeHTML}

	res, err := h.Resolve(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, ResolutionSkipped, res)
}

func TestResolveAutomatedSolve(t *testing.T) {
	solver := &fakeSolver{token: "tok-777"}
	h := newHandler(solver, Policy{})
	page := &fakePage{html: challengeHTML, clearOnEval: true}

	res, err := h.Resolve(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, ResolutionResolved, res)
	assert.Equal(t, 1, solver.calls)
	assert.Equal(t, "SITEKEY123", solver.gotSiteKey)
	assert.Equal(t, "https://www.google.com/search?q=x", solver.gotPageURL)
	require.Len(t, page.evals, 1)
	assert.True(t, strings.Contains(page.evals[0], "tok-777"))
}

func TestResolveAutomatedSolveFailsFallsBack(t *testing.T) {
	solver := &fakeSolver{err: errors.New("service down")}
	h := newHandler(solver, Policy{Skip: true})
	page := &fakePage{html: challengeHTML}

	res, err := h.Resolve(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, ResolutionSkipped, res)
	assert.Equal(t, 1, solver.calls)
	assert.Empty(t, page.evals)
}

func TestResolveAutomatedSolveChallengePersists(t *testing.T) {
	// Token injected but the challenge never clears; falls through to skip.
	solver := &fakeSolver{token: "tok"}
	h := newHandler(solver, Policy{})
	page := &fakePage{html: challengeHTML}

	res, err := h.Resolve(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, ResolutionSkipped, res)
	require.Len(t, page.evals, 1)
}
