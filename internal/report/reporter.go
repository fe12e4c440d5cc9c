package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/user/serpclick/internal/run"
)

// Summary aggregates a finished run by outcome category.
type Summary struct {
	Total           int
	Found           int
	NotFound        int
	CaptchaSkipped  int
	CooldownSkipped int
	Errors          int
	Clicked         int
}

// Summarize counts outcomes by status.
func Summarize(outcomes []run.Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Status {
		case run.StatusFound:
			s.Found++
		case run.StatusNotFound:
			s.NotFound++
		case run.StatusCaptchaSkipped:
			s.CaptchaSkipped++
		case run.StatusCooldownSkipped:
			s.CooldownSkipped++
		case run.StatusError:
			s.Errors++
		}
		if o.Clicked {
			s.Clicked++
		}
	}
	return s
}

// Write renders the human-readable run report. The first write error stops
// the output and is returned.
func Write(w io.Writer, outcomes []run.Outcome) error {
	s := Summarize(outcomes)
	rule := strings.Repeat("=", 60)

	var err error
	printf := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("%s\nRUN SUMMARY\n%s\n", rule, rule)
	printf("Keywords processed: %d\n", s.Total)
	printf("Found: %d (clicked: %d)\n", s.Found, s.Clicked)
	printf("Not found: %d\n", s.NotFound)
	printf("Captcha skipped: %d\n", s.CaptchaSkipped)
	if s.CooldownSkipped > 0 {
		printf("Cooldown skipped: %d\n", s.CooldownSkipped)
	}
	printf("Errors: %d\n\n", s.Errors)

	for _, o := range outcomes {
		label := string(o.Status)
		if o.Status == run.StatusFound {
			label = fmt.Sprintf("found@%d", o.Position)
			if o.Clicked {
				label += " clicked"
			}
		}
		printf("  [%s] %s\n", label, o.Keyword)
		if o.Err != "" {
			printf("      error: %s\n", o.Err)
		}
	}
	return err
}
