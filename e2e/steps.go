package e2e

import (
	"github.com/cucumber/godog"

	"docverify/e2e/steps/admin"
	"docverify/e2e/steps/common"
	"docverify/e2e/steps/ratelimit"
	"docverify/e2e/steps/verify"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	verify.RegisterSteps(ctx, tc)
	ratelimit.RegisterSteps(ctx, tc)
	admin.RegisterSteps(ctx, tc)
}
