package service_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/savorly/backend/internal/service"
	"github.com/pageza/savorly/backend/internal/testhelpers"
)

func TestSubscribeIsIdempotent(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	svc := service.NewNewsletterService(db, newRecordingMailer(1), "https://savorly.app", zap.NewNop())
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, " Cook@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "cook@example.com", sub.Email)
	assert.True(t, sub.Active)

	again, err := svc.Subscribe(ctx, "cook@example.com")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)

	_, err = svc.Subscribe(ctx, "not-an-email")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	require.NoError(t, svc.Unsubscribe(ctx, sub.UnsubscribeToken))
	active, err := svc.ListSubscribers(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	back, err := svc.Subscribe(ctx, "cook@example.com")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, back.ID)
	assert.True(t, back.Active)
	assert.Nil(t, back.UnsubscribedAt)

	assert.ErrorIs(t, svc.Unsubscribe(ctx, "no-such-token"), service.ErrNotFound)
}

func TestSendIssue(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	mailer := newRecordingMailer(10)
	svc := service.NewNewsletterService(db, mailer, "https://savorly.app/", zap.NewNop())
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com", "gone@example.com"} {
		_, err := svc.Subscribe(ctx, email)
		require.NoError(t, err)
	}
	gone, err := svc.Subscribe(ctx, "gone@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.Unsubscribe(ctx, gone.UnsubscribeToken))
	mailer.fail["c@example.com"] = true

	issue, err := svc.CreateIssue(ctx, "autumn soups", "Squash season is here.")
	require.NoError(t, err)
	assert.Equal(t, "Autumn Soups", issue.Subject)

	sent, err := svc.SendIssue(ctx, issue.ID)
	require.NoError(t, err)
	require.NotNil(t, sent.SentAt)
	assert.Equal(t, 2, sent.RecipientCount)

	mails := mailer.drain()
	require.Len(t, mails, 2)
	sort.Slice(mails, func(i, j int) bool { return mails[i].To < mails[j].To })
	assert.Equal(t, "a@example.com", mails[0].To)
	assert.Equal(t, "Autumn Soups", mails[0].Subject)
	assert.True(t, strings.HasPrefix(mails[0].Body, "Squash season is here."))
	assert.Contains(t, mails[0].Body, "https://savorly.app/api/v1/newsletter/unsubscribe/")

	_, err = svc.SendIssue(ctx, issue.ID)
	assert.ErrorIs(t, err, service.ErrConflict)
	assert.Empty(t, mailer.drain())

	_, err = svc.SendIssue(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = svc.CreateIssue(ctx, "", "body")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestSendIssueRetriesAfterSubscriberReadFailure(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	mailer := newRecordingMailer(10)
	svc := service.NewNewsletterService(db, mailer, "https://savorly.app", zap.NewNop())
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "a@example.com")
	require.NoError(t, err)
	issue, err := svc.CreateIssue(ctx, "winter stews", "Low and slow.")
	require.NoError(t, err)

	failReads := true
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("fail_subscriber_reads", func(tx *gorm.DB) {
		if failReads && tx.Statement.Schema != nil && tx.Statement.Schema.Table == "newsletter_subscribers" {
			_ = tx.AddError(errors.New("connection reset"))
		}
	}))

	_, err = svc.SendIssue(ctx, issue.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrConflict)
	assert.Empty(t, mailer.drain())

	failReads = false
	sent, err := svc.SendIssue(ctx, issue.ID)
	require.NoError(t, err)
	require.NotNil(t, sent.SentAt)
	assert.Equal(t, 1, sent.RecipientCount)
	assert.Len(t, mailer.drain(), 1)
}
