package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/verification"
)

const endpoint = "http://records.test/api/verifications"

func newClient(url string) *Client {
	return New(url, "records-key", nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func payload() verification.Payload {
	return verification.Payload{
		Category:     verification.CategoryStudent,
		Name:         "John Smith",
		Email:        "john@example.com",
		Contact:      "+15550100",
		CollegeName:  "State College",
		CollegeID:    "C123",
		GovernmentID: "G456",
		Status:       verification.StatusVerified,
	}
}

func TestSend_PostsForm(t *testing.T) {
	defer gock.Off()
	gock.New("http://records.test").
		Post("/api/verifications").
		MatchHeader("Authorization", "^Bearer records-key$").
		MatchType("url").
		AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
			if err := req.ParseForm(); err != nil {
				return false, err
			}
			return req.PostForm.Get("user_type") == "student" &&
				req.PostForm.Get("name") == "John Smith" &&
				req.PostForm.Get("contact") == "+15550100" &&
				req.PostForm.Get("government_id") == "G456" &&
				req.PostForm.Get("verification_status") == "verified", nil
		}).
		Reply(http.StatusCreated)

	err := newClient(endpoint).Send(context.Background(), payload())

	require.NoError(t, err)
	assert.True(t, gock.IsDone())
	assert.False(t, gock.HasUnmatchedRequest())
}

func TestSend_Failures(t *testing.T) {
	t.Run("non 2xx", func(t *testing.T) {
		defer gock.Off()
		gock.New("http://records.test").Post("/api/verifications").Reply(http.StatusUnauthorized)

		err := newClient(endpoint).Send(context.Background(), payload())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("transport error", func(t *testing.T) {
		defer gock.Off()
		gock.New("http://records.test").Post("/api/verifications").ReplyError(errors.New("connection reset"))

		err := newClient(endpoint).Send(context.Background(), payload())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("missing endpoint", func(t *testing.T) {
		err := newClient("").Send(context.Background(), payload())
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}
