package e2e

import (
	"github.com/cucumber/godog"

	"vatcheck/e2e/steps/verification"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	verification.RegisterSteps(ctx, tc)
}
