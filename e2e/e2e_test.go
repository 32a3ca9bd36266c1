//go:build e2e

package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures runs the Gherkin scenarios against DOCVERIFY_E2E_URL.
func TestFeatures(t *testing.T) {
	if os.Getenv("DOCVERIFY_E2E_URL") == "" {
		t.Skip("DOCVERIFY_E2E_URL not set")
	}

	tc := NewTestContext()
	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return ctx, nil
			})
			RegisterSteps(sc, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
