package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/intellpharma/pharmastock/internal/audit/domain"
	"github.com/intellpharma/pharmastock/internal/audit/repository"
	"github.com/intellpharma/pharmastock/internal/clock"
	"github.com/intellpharma/pharmastock/pkg/db"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&domain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParam{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		Repo:  repository.New(dbConn),
	})
}

func TestLogAndListScopedToOwner(t *testing.T) {
	svc := newTestService(t)
	ownerA := snowflake.ID(1)
	ownerB := snowflake.ID(2)

	svc.Log(context.Background(), domain.Entry{
		OwnerID:      ownerA,
		ActorID:      snowflake.ID(10),
		Action:       "invoice.created",
		ResourceType: "invoice",
		ResourceID:   "INV-1-00001",
		Metadata:     map[string]any{"grand_total": "222.4"},
	})
	svc.Log(context.Background(), domain.Entry{
		OwnerID:      ownerB,
		ActorID:      snowflake.ID(20),
		Action:       "branch.created",
		ResourceType: "branch",
	})

	records, err := svc.List(context.Background(), ownerA, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "invoice.created", records[0].Action)
	assert.Contains(t, records[0].Detail, "grand_total")

	records, err = svc.List(context.Background(), ownerB, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "branch.created", records[0].Action)
}
