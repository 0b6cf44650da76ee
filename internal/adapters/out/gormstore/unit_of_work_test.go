package gormstore_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"carservice/internal/adapters/out/gormstore"
	"carservice/internal/core/domain/model/order"
	"carservice/internal/core/ports"
	"carservice/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

var baseTime = time.Date(2024, 6, 18, 9, 0, 0, 0, time.UTC)

// UnitOfWorkTestSuite verifies transaction handling and change tracking.
// Dialect suites embed it and open the database in SetupSuite.
type UnitOfWorkTestSuite struct {
	suite.Suite
	db      *gorm.DB
	factory ports.UnitOfWorkFactory
}

func (suite *UnitOfWorkTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("DELETE FROM orders").Error)
	suite.factory = gormstore.NewGormUnitOfWorkFactory(suite.db)
}

func (suite *UnitOfWorkTestSuite) TestUnitOfWorkFactory_Create() {
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()

	suite.NotSame(uow1, uow2, "Factory should create separate instances")
	suite.NotNil(uow1.OrderRepository())
	suite.Empty(uow1.Committed())
}

func (suite *UnitOfWorkTestSuite) TestUnitOfWork_TransactionLifecycle() {
	ctx := suite.T().Context()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Begin(ctx), "Multiple begin calls should be safe")
	suite.Require().NoError(uow.Commit(ctx))

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Rollback(ctx))
}

func (suite *UnitOfWorkTestSuite) TestUnitOfWork_TransactionErrors() {
	ctx := suite.T().Context()
	uow := suite.factory.Create()

	suite.Require().ErrorIs(uow.Commit(ctx), gorm.ErrInvalidTransaction)
	suite.Require().ErrorIs(uow.Rollback(ctx), gorm.ErrInvalidTransaction)
}

func (suite *UnitOfWorkTestSuite) TestUnitOfWork_CommitExposesWrittenSnapshots() {
	ctx := suite.T().Context()
	uow := suite.factory.Create()
	o := suite.newOrder("ORD-2024-001")

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, o))
	suite.Empty(uow.Committed(), "nothing is committed before Commit")
	suite.Require().NoError(uow.Commit(ctx))

	suite.Require().Len(uow.Committed(), 1)
	suite.Equal("ORD-2024-001", uow.Committed()[0].ID)
	suite.Equal(order.Pending, uow.Committed()[0].Status)
	suite.assertOrderCount(1)
}

func (suite *UnitOfWorkTestSuite) TestUnitOfWork_RollbackDiscardsWrites() {
	ctx := suite.T().Context()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, suite.newOrder("ORD-2024-001")))
	suite.Require().NoError(uow.Rollback(ctx))

	suite.assertOrderCount(0)
	suite.Empty(uow.Committed())
}

func (suite *UnitOfWorkTestSuite) TestUnitOfWork_WithoutTransactionWritesImmediately() {
	ctx := suite.T().Context()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.OrderRepository().Add(ctx, suite.newOrder("ORD-2024-001")))

	suite.assertOrderCount(1)
	suite.Len(uow.Committed(), 1)
}

func (suite *UnitOfWorkTestSuite) TestUnitOfWork_ReadModifyWrite() {
	ctx := suite.T().Context()
	o := suite.newOrder("ORD-2024-001")
	suite.Require().NoError(suite.factory.Create().OrderRepository().Add(ctx, o))

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	repo := uow.OrderRepository()
	loaded, err := repo.GetForUpdate(ctx, o.ID())
	suite.Require().NoError(err)
	version := loaded.Version()
	suite.Require().NoError(loaded.Cancel(baseTime.Add(time.Minute)))
	suite.Require().NoError(repo.Update(ctx, loaded, version))
	suite.Require().NoError(uow.Commit(ctx))

	stored, err := suite.factory.Create().OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Cancelled, stored.Status())
	suite.Require().Len(uow.Committed(), 1)
	suite.Equal(order.Cancelled, uow.Committed()[0].Status)
}

func (suite *UnitOfWorkTestSuite) TestUnitOfWork_StaleUpdateConflicts() {
	ctx := suite.T().Context()
	o := suite.newOrder("ORD-2024-001")
	suite.Require().NoError(suite.factory.Create().OrderRepository().Add(ctx, o))

	stale, err := suite.factory.Create().OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)

	winner := suite.factory.Create()
	suite.Require().NoError(winner.Begin(ctx))
	fresh, err := winner.OrderRepository().GetForUpdate(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Require().NoError(fresh.Cancel(baseTime.Add(time.Minute)))
	suite.Require().NoError(winner.OrderRepository().Update(ctx, fresh, 1))
	suite.Require().NoError(winner.Commit(ctx))

	loser := suite.factory.Create()
	suite.Require().NoError(loser.Begin(ctx))
	suite.Require().NoError(stale.Cancel(baseTime.Add(2 * time.Minute)))
	err = loser.OrderRepository().Update(ctx, stale, 1)
	suite.Require().NoError(loser.Rollback(ctx))

	suite.Require().ErrorIs(err, errs.ErrConcurrencyConflict)
	suite.True(errs.IsRetryable(err))
	suite.Empty(loser.Committed())
}

func (suite *UnitOfWorkTestSuite) newOrder(id string) *order.Order {
	st, err := order.NewServiceType("Battery Problems")
	suite.Require().NoError(err)
	o, err := order.NewOrder(order.MustParseID(id), order.Details{
		ServiceType: st,
		Urgency:     order.UrgencyHigh,
		Description: "car will not start",
	}, baseTime)
	suite.Require().NoError(err)
	return o
}

func (suite *UnitOfWorkTestSuite) assertOrderCount(expected int64) {
	var count int64
	suite.Require().NoError(suite.db.Table("orders").Count(&count).Error)
	suite.Equal(expected, count)
}

type SQLiteUnitOfWorkTestSuite struct {
	UnitOfWorkTestSuite
}

func (suite *SQLiteUnitOfWorkTestSuite) SetupSuite() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := gormstore.OpenSQLite(filepath.Join(suite.T().TempDir(), "orders.db"), log)
	suite.Require().NoError(err)
	suite.db = db
}

func (suite *SQLiteUnitOfWorkTestSuite) TearDownSuite() {
	suite.Require().NoError(gormstore.Close(suite.db))
}

func TestSQLiteUnitOfWorkTestSuite(t *testing.T) {
	suite.Run(t, new(SQLiteUnitOfWorkTestSuite))
}
