package admin

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	GetAdminToken() string
}

// RegisterSteps registers steps for the admin record endpoints.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &adminSteps{tc: tc}

	ctx.Step(`^I list verifications without a token$`, steps.listWithoutToken)
	ctx.Step(`^I list verifications with the admin token$`, steps.listWithToken)
	ctx.Step(`^I list verifications with the admin token filtered by "([^"]*)"$`, steps.listFiltered)
	ctx.Step(`^I fetch the last submitted verification with the admin token$`, steps.fetchLast)
	ctx.Step(`^I remember the verification id$`, steps.rememberID)
}

type adminSteps struct {
	tc     TestContext
	lastID string
}

func (s *adminSteps) bearer() (map[string]string, error) {
	token := s.tc.GetAdminToken()
	if token == "" {
		return nil, godog.ErrPending
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

func (s *adminSteps) listWithoutToken(ctx context.Context) error {
	return s.tc.GET("/admin/verifications", nil)
}

func (s *adminSteps) listWithToken(ctx context.Context) error {
	return s.listFiltered(ctx, "")
}

func (s *adminSteps) listFiltered(ctx context.Context, query string) error {
	headers, err := s.bearer()
	if err != nil {
		return err
	}
	path := "/admin/verifications"
	if query != "" {
		path += "?" + query
	}
	return s.tc.GET(path, headers)
}

func (s *adminSteps) rememberID(ctx context.Context) error {
	v, err := s.tc.GetResponseField("verification_id")
	if err != nil {
		return err
	}
	s.lastID = fmt.Sprint(v)
	return nil
}

func (s *adminSteps) fetchLast(ctx context.Context) error {
	if s.lastID == "" {
		return fmt.Errorf("no verification id remembered")
	}
	headers, err := s.bearer()
	if err != nil {
		return err
	}
	return s.tc.GET("/admin/verifications/"+s.lastID, headers)
}
