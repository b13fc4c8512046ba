package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"custos/internal/audit"
	auditmem "custos/internal/audit/store/memory"
	"custos/internal/guard"
	"custos/internal/product/models"
	"custos/internal/product/service"
	productstore "custos/internal/product/store/product"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx         context.Context
	now         time.Time
	authority   id.PartyID
	distributor id.PartyID
	customer    id.PartyID
	products    *productstore.InMemory
	auditStore  *auditmem.Store
	svc         *service.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.authority = id.PartyID(uuid.MustParse("11111111-1111-1111-1111-111111111111"))
	s.distributor = id.PartyID(uuid.MustParse("22222222-2222-2222-2222-222222222222"))
	s.customer = id.PartyID(uuid.MustParse("33333333-3333-3333-3333-333333333333"))

	s.products = productstore.NewInMemory()
	s.auditStore = auditmem.New()
	g := guard.New(s.authority, s.products)
	s.svc = service.New(g, s.products, audit.NewPublisher(s.auditStore))
}

func (s *ServiceSuite) register(rawID string) *models.Product {
	product, err := s.svc.Register(s.ctx, s.authority, rawID, "ipfs://bafy/widget.json")
	s.Require().NoError(err)
	return product
}

func (s *ServiceSuite) TestRegisterThenVerify() {
	registered := s.register("SN-0001")

	verified, err := s.svc.Verify(s.ctx, registered.ID)
	s.Require().NoError(err)
	s.Equal(id.ProductID("SN-0001"), verified.ID)
	s.Equal(s.authority, verified.CurrentOwner)
	s.True(verified.IsGenuine)
	s.Equal(models.InitialStatus, verified.Status)
	s.Equal("ipfs://bafy/widget.json", verified.DetailsURI)
	s.Equal(s.now, verified.RegisteredAt)

	events, err := s.auditStore.ListByProduct(s.ctx, registered.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.KindProductRegistered, events[0].Kind)
	s.Equal(s.authority, events[0].Authority)
	s.Equal(s.now, events[0].Timestamp)
}

func (s *ServiceSuite) TestRegisterDuplicateIDConflicts() {
	s.register("SN-0001")

	_, err := s.svc.Register(s.ctx, s.authority, "SN-0001", "ipfs://bafy/other.json")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	// The losing attempt must leave both snapshot and log untouched.
	count, err := s.products.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
	events, err := s.auditStore.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(events, 1)

	verified, err := s.svc.Verify(s.ctx, id.ProductID("SN-0001"))
	s.Require().NoError(err)
	s.Equal("ipfs://bafy/widget.json", verified.DetailsURI)
}

func (s *ServiceSuite) TestRegisterRejectsNonAuthority() {
	_, err := s.svc.Register(s.ctx, s.distributor, "SN-0001", "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	count, err := s.products.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
	events, err := s.auditStore.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *ServiceSuite) TestRegisterRejectsNullCaller() {
	_, err := s.svc.Register(s.ctx, id.NilParty, "SN-0001", "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestRegisterRejectsEmptyID() {
	_, err := s.svc.Register(s.ctx, s.authority, "   ", "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestTransferMovesCustody() {
	registered := s.register("SN-0001")

	updated, err := s.svc.Transfer(s.ctx, s.authority, registered.ID, "Shipped to Distributor", s.distributor)
	s.Require().NoError(err)
	s.Equal(s.distributor, updated.CurrentOwner)
	s.Equal("Shipped to Distributor", updated.Status)

	// Everything but owner and status is untouched.
	s.Equal(registered.DetailsURI, updated.DetailsURI)
	s.Equal(registered.RegisteredAt, updated.RegisteredAt)
	s.True(updated.IsGenuine)

	events, err := s.auditStore.ListByProduct(s.ctx, registered.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.KindStatusUpdated, events[1].Kind)
	s.Equal(s.authority, events[1].OldOwner)
	s.Equal(s.distributor, events[1].NewOwner)
	s.Equal("Shipped to Distributor", events[1].Status)
}

func (s *ServiceSuite) TestTransferRevokesPreviousOwner() {
	registered := s.register("SN-0001")
	_, err := s.svc.Transfer(s.ctx, s.authority, registered.ID, "Shipped to Distributor", s.distributor)
	s.Require().NoError(err)

	// The authority handed custody off and may no longer transfer.
	_, err = s.svc.Transfer(s.ctx, s.authority, registered.ID, "Recalled", s.authority)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	verified, err := s.svc.Verify(s.ctx, registered.ID)
	s.Require().NoError(err)
	s.Equal(s.distributor, verified.CurrentOwner)
	s.Equal("Shipped to Distributor", verified.Status)
}

func (s *ServiceSuite) TestTransferUnknownProductIsNotFound() {
	// Missing product reports not_found, not unauthorized, even though
	// the caller owns nothing.
	_, err := s.svc.Transfer(s.ctx, s.distributor, id.ProductID("SN-MISSING"), "Shipped", s.customer)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.False(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestTransferRejectsNullNewOwner() {
	registered := s.register("SN-0001")

	_, err := s.svc.Transfer(s.ctx, s.authority, registered.ID, "Shipped", id.NilParty)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	verified, err := s.svc.Verify(s.ctx, registered.ID)
	s.Require().NoError(err)
	s.Equal(s.authority, verified.CurrentOwner)
	s.Equal(models.InitialStatus, verified.Status)
}

func (s *ServiceSuite) TestTransferRejectsEmptyStatus() {
	registered := s.register("SN-0001")

	for _, status := range []string{"", "   ", "\t\n"} {
		_, err := s.svc.Transfer(s.ctx, s.authority, registered.ID, status, s.distributor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	}

	// Failed attempts leave no trace in the log.
	events, err := s.auditStore.ListByProduct(s.ctx, registered.ID)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *ServiceSuite) TestVerifyUnknownProductIsNotFound() {
	_, err := s.svc.Verify(s.ctx, id.ProductID("SN-MISSING"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestVerifyHasNoSideEffects() {
	registered := s.register("SN-0001")

	for range 3 {
		_, err := s.svc.Verify(s.ctx, registered.ID)
		s.Require().NoError(err)
	}

	events, err := s.auditStore.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(events, 1)
}

// TestCustodyChainReplay walks a product through the full
// manufacturer -> distributor -> customer chain and checks that the
// event log alone reconstructs every hop in order.
func (s *ServiceSuite) TestCustodyChainReplay() {
	registered := s.register("SN-0001")

	_, err := s.svc.Transfer(s.ctx, s.authority, registered.ID, "In Distribution Center", s.distributor)
	s.Require().NoError(err)
	_, err = s.svc.Transfer(s.ctx, s.distributor, registered.ID, "Delivered to Customer", s.customer)
	s.Require().NoError(err)

	events, err := s.auditStore.ListByProduct(s.ctx, registered.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 3)

	s.Equal(audit.KindProductRegistered, events[0].Kind)
	s.Equal(s.authority, events[0].Authority)

	s.Equal(s.authority, events[1].OldOwner)
	s.Equal(s.distributor, events[1].NewOwner)
	s.Equal(s.distributor, events[2].OldOwner)
	s.Equal(s.customer, events[2].NewOwner)

	// Replaying transfers from the registration owner must land on the
	// snapshot's current owner.
	owner := events[0].Authority
	for _, e := range events[1:] {
		s.Equal(owner, e.OldOwner)
		owner = e.NewOwner
	}
	verified, err := s.svc.Verify(s.ctx, registered.ID)
	s.Require().NoError(err)
	s.Equal(verified.CurrentOwner, owner)

	s.Less(events[0].Seq, events[1].Seq)
	s.Less(events[1].Seq, events[2].Seq)
}
