package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	SetClientIP(ip string)
}

// RegisterSteps registers background, request, and assertion steps shared by every feature.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the docverify service is running$`, steps.serviceIsRunning)
	ctx.Step(`^I am calling from IP "([^"]*)"$`, steps.callingFromIP)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response should contain field "([^"]*)"$`, steps.fieldShouldExist)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/health/live", nil); err != nil {
		return fmt.Errorf("service not reachable: %w", err)
	}
	return s.statusShouldBe(ctx, 200)
}

func (s *commonSteps) callingFromIP(ctx context.Context, ip string) error {
	s.tc.SetClientIP(ip)
	return nil
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path, nil)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, want int) error {
	if got := s.tc.GetLastResponseStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(ctx context.Context, field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("expected %s=%q, got %q", field, want, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldExist(ctx context.Context, field string) error {
	_, err := s.tc.GetResponseField(field)
	return err
}
