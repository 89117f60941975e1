package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zaidev/internal/domain"
	models "zaidev/internal/domain/models/chat"
	"zaidev/internal/domain/services"
	"zaidev/internal/repository/memory"
	"zaidev/internal/service/auth"
)

func newService(t *testing.T) (services.ConversationService, *memory.ConversationRepository) {
	t.Helper()
	gen := newGenerator(t, &backends{})
	repo := memory.NewConversationRepository(100, time.Hour)
	svc := NewConversationService(
		repo,
		NewOrchestrator(gen, defaultConfig, quietLogger()),
		gen,
		auth.NewOwnerBasedAuthorizer(),
		true,
		quietLogger(),
	)
	return svc, repo
}

func TestCreateConversation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, &services.CreateConversationRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, int64(1), conv.Version)
	require.Equal(t, 1, conv.State.Len())
	assert.Equal(t, models.GreetingID, conv.State.Messages[0].ID)

	off := false
	empty, err := svc.Create(ctx, &services.CreateConversationRequest{Greeting: &off})
	require.NoError(t, err)
	assert.Zero(t, empty.State.Len())
	assert.NotNil(t, empty.State.Messages)
}

func TestSendMessageStoresState(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, &services.CreateConversationRequest{UserID: "u1"})
	require.NoError(t, err)

	updated, err := svc.SendMessage(ctx, &services.SendMessageRequest{
		ConversationID: conv.ID,
		UserID:         "u1",
		Submission:     models.Submission{Text: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, 3, updated.State.Len())

	stored, err := svc.Get(ctx, conv.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, updated.State, stored.State)
}

func TestSendMessageCarriesValidationErrorInState(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, &services.CreateConversationRequest{})
	require.NoError(t, err)

	updated, err := svc.SendMessage(ctx, &services.SendMessageRequest{ConversationID: conv.ID})
	require.NoError(t, err)
	assert.Equal(t, MessageRequired, updated.State.Error)
	assert.Equal(t, 1, updated.State.Len())
}

func TestGetChecksOwner(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, &services.CreateConversationRequest{UserID: "owner"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, conv.ID, "intruder")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Get(ctx, "missing", "owner")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	anon, err := svc.Create(ctx, &services.CreateConversationRequest{})
	require.NoError(t, err)
	_, err = svc.Get(ctx, anon.ID, "anyone")
	assert.NoError(t, err)
}

func TestConcurrentWriterConflicts(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, &services.CreateConversationRequest{})
	require.NoError(t, err)

	// a second writer saves between our read and our write
	stale, err := repo.Get(ctx, conv.ID)
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, &services.SendMessageRequest{ConversationID: conv.ID, Submission: models.Submission{Text: "first"}})
	require.NoError(t, err)

	stale.State = stale.State.Append(models.NewUserMessage("second", ""))
	err = repo.Save(ctx, stale, stale.Version)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDecomposeConversation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, &services.CreateConversationRequest{})
	require.NoError(t, err)

	updated, err := svc.Decompose(ctx, &services.SendMessageRequest{ConversationID: conv.ID, Submission: models.Submission{Text: "ship v2"}})
	require.NoError(t, err)
	reply, _ := updated.State.Last()
	assert.Contains(t, reply.Content, "ship v2")
}

func TestReadAloud(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, &services.CreateConversationRequest{UserID: "u1"})
	require.NoError(t, err)

	audio, err := svc.ReadAloud(ctx, conv.ID, models.GreetingID, "u1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(audio, "data:audio/wav;base64,"))

	_, err = svc.ReadAloud(ctx, conv.ID, "nope", "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.ReadAloud(ctx, conv.ID, models.GreetingID, "someone-else")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCancelledTurnIsNotSaved(t *testing.T) {
	svc, repo := newService(t)
	conv, err := svc.Create(context.Background(), &services.CreateConversationRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.SendMessage(ctx, &services.SendMessageRequest{ConversationID: conv.ID, Submission: models.Submission{Text: "hi"}})
	assert.ErrorIs(t, err, context.Canceled)

	stored, err := repo.Get(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
}
