package ratelimit

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"docverify/e2e/fixtures"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	PostMultipart(path string, fields map[string]string, files []fixtures.File) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers rate-limiting step definitions for POST /verify.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}

	ctx.Step(`^I send (\d+) incomplete verifications$`, steps.sendIncomplete)
	ctx.Step(`^at least one response should be rate limited$`, steps.someRateLimited)
	ctx.Step(`^the rate limited response should say retry after a positive number of seconds$`, steps.retryAfterPositive)
}

type ratelimitSteps struct {
	tc       TestContext
	statuses []int
	limited  map[string]any
}

// sendIncomplete posts submissions that stop at intake so only the limiter does real work.
func (s *ratelimitSteps) sendIncomplete(ctx context.Context, n int) error {
	s.statuses = s.statuses[:0]
	s.limited = nil
	for i := 0; i < n; i++ {
		if err := s.tc.PostMultipart("/verify", map[string]string{"user_type": "student"}, nil); err != nil {
			return err
		}
		status := s.tc.GetLastResponseStatus()
		s.statuses = append(s.statuses, status)
		if status == 429 && s.limited == nil {
			retry, err := s.tc.GetResponseField("retry_after")
			if err != nil {
				return err
			}
			s.limited = map[string]any{"retry_after": retry}
		}
	}
	return nil
}

func (s *ratelimitSteps) someRateLimited(ctx context.Context) error {
	for _, st := range s.statuses {
		if st == 429 {
			return nil
		}
	}
	return fmt.Errorf("no request was rate limited, statuses: %v", s.statuses)
}

func (s *ratelimitSteps) retryAfterPositive(ctx context.Context) error {
	if s.limited == nil {
		return fmt.Errorf("no rate limited response captured")
	}
	retry, ok := s.limited["retry_after"].(float64)
	if !ok || retry <= 0 {
		return fmt.Errorf("unexpected retry_after %v", s.limited["retry_after"])
	}
	return nil
}
