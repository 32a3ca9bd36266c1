package verify

import (
	"context"
	"strings"

	"github.com/cucumber/godog"

	"docverify/e2e/fixtures"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	PostMultipart(path string, fields map[string]string, files []fixtures.File) error
}

// RegisterSteps registers submission steps for POST /verify.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &verifySteps{tc: tc}

	ctx.Step(`^a complete "([^"]*)" submission$`, steps.completeSubmission)
	ctx.Step(`^the field "([^"]*)" is left out$`, steps.omitField)
	ctx.Step(`^the field "([^"]*)" is set to "([^"]*)"$`, steps.setField)
	ctx.Step(`^the document "([^"]*)" is a text file$`, steps.replaceWithText)
	ctx.Step(`^I submit the verification$`, steps.submit)
}

type verifySteps struct {
	tc     TestContext
	fields map[string]string
	files  []fixtures.File
}

func (s *verifySteps) completeSubmission(ctx context.Context, userType string) error {
	s.fields = fixtures.Fields(userType)
	s.files = fixtures.Documents(userType)
	return nil
}

func (s *verifySteps) omitField(ctx context.Context, field string) error {
	delete(s.fields, field)
	return nil
}

func (s *verifySteps) setField(ctx context.Context, field, value string) error {
	s.fields[field] = value
	return nil
}

func (s *verifySteps) replaceWithText(ctx context.Context, field string) error {
	for i, f := range s.files {
		if f.Field == field {
			s.files[i] = fixtures.File{
				Field:       field,
				Filename:    strings.TrimSuffix(f.Filename, ".png") + ".txt",
				ContentType: "text/plain",
				Data:        []byte("not a document"),
			}
			return nil
		}
	}
	return godog.ErrUndefined
}

func (s *verifySteps) submit(ctx context.Context) error {
	return s.tc.PostMultipart("/verify", s.fields, s.files)
}
