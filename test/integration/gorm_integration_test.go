package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"reconcile-be/internal/dto"
	"reconcile-be/internal/entity"
	"reconcile-be/internal/model"
	"reconcile-be/internal/pkg/logger"
	"reconcile-be/internal/repository/unitofwork"
	"reconcile-be/internal/service"
	"reconcile-be/pkg/database"
	"reconcile-be/pkg/gate"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type nopTransitions struct{}

func (nopTransitions) RequestTransition(context.Context, uuid.UUID, uuid.UUID, gate.Stage, gate.Stage, string) {
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err, "connect")
	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return db
}

func TestGormSessionLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	log := logger.NewNopLogger()

	factory := unitofwork.NewRepositoryFactory(db)
	gateway := service.NewPartnerGateway(nil, nil, log)
	sessions := service.NewSessionService(factory, nil, gateway, log)
	stages := service.NewStageService(factory, gateway, nopTransitions{}, log)

	creator, invitee := uuid.New(), uuid.New()

	created, err := sessions.CreateSession(ctx, creator, &dto.CreateSessionRequest{
		InviteeEmail: "integration-" + uuid.NewString() + "@example.com",
		InviterName:  "Integration",
	})
	require.NoError(t, err)

	sent, err := sessions.ConfirmInvitation(ctx, created.Id, creator)
	require.NoError(t, err)
	require.Equal(t, "ok", sent.Status)

	_, err = sessions.AcceptInvitation(ctx, created.InvitationCode, invitee)
	require.NoError(t, err)

	signed, err := sessions.SignCompact(ctx, created.Id, invitee)
	require.NoError(t, err)
	require.Equal(t, "ok", signed.Status)

	t.Run("session is active with both members", func(t *testing.T) {
		s, err := factory.NewUnitOfWork(ctx).SessionRepository().FindById(ctx, created.Id)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, entity.SessionStatusActive, s.Status)
		assert.Equal(t, []uuid.UUID{creator, invitee}, s.ParticipantIds())
	})

	t.Run("advance takes the stage row lock", func(t *testing.T) {
		res, err := stages.Advance(ctx, created.Id, creator)
		require.NoError(t, err)
		assert.Equal(t, "ok", res.Status)
		assert.Equal(t, int(gate.StageWitness), res.Stage)

		rows, err := factory.NewUnitOfWork(ctx).StageProgressRepository().FindAllBySession(ctx, created.Id)
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})
}
