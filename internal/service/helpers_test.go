package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/savorly/backend/internal/service"
	"github.com/pageza/savorly/backend/internal/testhelpers"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Complete(ctx context.Context, messages []service.Message, jsonMode bool) (string, error) {
	args := m.Called(ctx, messages, jsonMode)
	return args.String(0), args.Error(1)
}

func (m *mockGenerator) Name() string { return "mock" }

type sentMail struct {
	To, Subject, Body string
}

type recordingMailer struct {
	sent chan sentMail
	fail map[string]bool
}

func newRecordingMailer(buffer int) *recordingMailer {
	return &recordingMailer{sent: make(chan sentMail, buffer), fail: map[string]bool{}}
}

func (m *recordingMailer) SendEmail(_ context.Context, to, subject, body string) error {
	if m.fail[to] {
		return context.DeadlineExceeded
	}
	m.sent <- sentMail{To: to, Subject: subject, Body: body}
	return nil
}

func (m *recordingMailer) drain() []sentMail {
	var out []sentMail
	for {
		select {
		case msg := <-m.sent:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func newRecipeService(t *testing.T) (*service.RecipeService, *gorm.DB) {
	t.Helper()
	db := testhelpers.NewSQLiteDB(t)
	return service.NewRecipeService(db, service.HashEmbedder{}, nil, zap.NewNop()), db
}
