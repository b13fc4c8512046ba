//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"custos/internal/audit"
	auditpg "custos/internal/audit/store/postgres"
	id "custos/pkg/domain"
	"custos/pkg/testutil/containers"
)

type PostgresAuditSuite struct {
	suite.Suite
	ctx          context.Context
	db           *sql.DB
	store        *auditpg.Store
	manufacturer id.PartyID
	distributor  id.PartyID
}

func TestPostgresAuditSuite(t *testing.T) {
	suite.Run(t, new(PostgresAuditSuite))
}

func (s *PostgresAuditSuite) SetupSuite() {
	s.ctx = context.Background()
	connStr := containers.StartPostgres(s.ctx, s.T())

	db, err := sql.Open("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
	s.store = auditpg.New(db)
	s.manufacturer = id.PartyID(uuid.MustParse("11111111-1111-1111-1111-111111111111"))
	s.distributor = id.PartyID(uuid.MustParse("22222222-2222-2222-2222-222222222222"))
}

func (s *PostgresAuditSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *PostgresAuditSuite) SetupTest() {
	_, err := s.db.ExecContext(s.ctx, `TRUNCATE outbox, audit_events`)
	s.Require().NoError(err)
}

func (s *PostgresAuditSuite) seedChain() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.Append(s.ctx, audit.NewProductRegistered("SN-0001", s.manufacturer, now, "ipfs://bafy/widget.json")))
	s.Require().NoError(s.store.Append(s.ctx, audit.NewStatusUpdated("SN-0001", s.manufacturer, s.distributor, "Shipped", now.Add(time.Minute))))
	s.Require().NoError(s.store.Append(s.ctx, audit.NewProductRegistered("SN-0002", s.manufacturer, now.Add(2*time.Minute), "")))
}

func (s *PostgresAuditSuite) TestAppendAssignsMonotonicSeq() {
	s.seedChain()

	events, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Less(events[0].Seq, events[1].Seq)
	s.Less(events[1].Seq, events[2].Seq)
}

func (s *PostgresAuditSuite) TestListByProductKeepsCommitOrder() {
	s.seedChain()

	events, err := s.store.ListByProduct(s.ctx, "SN-0001")
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.KindProductRegistered, events[0].Kind)
	s.Equal(s.manufacturer, events[0].Authority)
	s.Equal("ipfs://bafy/widget.json", events[0].DetailsURI)
	s.Equal(audit.KindStatusUpdated, events[1].Kind)
	s.Equal(s.manufacturer, events[1].OldOwner)
	s.Equal(s.distributor, events[1].NewOwner)
	s.Equal("Shipped", events[1].Status)
}

func (s *PostgresAuditSuite) TestListByOwnerCoversAllRoles() {
	s.seedChain()

	events, err := s.store.ListByOwner(s.ctx, s.distributor)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(id.ProductID("SN-0001"), events[0].ProductID)

	events, err = s.store.ListByOwner(s.ctx, s.manufacturer)
	s.Require().NoError(err)
	s.Len(events, 3)
}

func (s *PostgresAuditSuite) TestOutboxLifecycle() {
	s.seedChain()

	pending, err := s.store.PendingOutbox(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 3)
	s.Equal(id.ProductID("SN-0001"), pending[0].ProductID)
	s.Equal(audit.KindProductRegistered, pending[0].Kind)

	// Payloads carry the full sequenced event.
	var event audit.Event
	s.Require().NoError(json.Unmarshal(pending[0].Payload, &event))
	s.Equal(pending[0].EventSeq, event.Seq)
	s.Equal(s.manufacturer, event.Authority)

	s.Require().NoError(s.store.MarkPublished(s.ctx, pending[0].ID))

	pending, err = s.store.PendingOutbox(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(audit.KindStatusUpdated, pending[0].Kind)
}
