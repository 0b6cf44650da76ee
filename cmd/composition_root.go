package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpapi "carservice/internal/adapters/in/http"
	"carservice/internal/adapters/out/broker"
	"carservice/internal/adapters/out/broker/amqpbus"
	"carservice/internal/adapters/out/broker/pgnotify"
	"carservice/internal/adapters/out/broker/redisbus"
	"carservice/internal/adapters/out/dynamo"
	"carservice/internal/adapters/out/gormstore"
	"carservice/internal/adapters/out/gormstore/orderrepo"
	"carservice/internal/adapters/out/memory"
	"carservice/internal/core/application/notifications"
	"carservice/internal/core/application/usecases/commands"
	"carservice/internal/core/application/usecases/queries"
	"carservice/internal/core/domain/model/kernel"
	"carservice/internal/core/domain/services"
	"carservice/internal/core/ports"
	"carservice/internal/generated/servers"
	"carservice/internal/jobs"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger
	clock  kernel.Clock

	uowFactory commands.OrderUoWFactory
	reader     ports.OrderReader
	broker     ports.UpdateBroker
	hub        *notifications.Hub
	notifier   *notifications.Notifier

	closers []func() error
}

// NewCompositionRoot opens the configured store and broker. On error everything
// opened so far is closed again.
func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:    cfg,
		logger: logger,
		clock:  kernel.SystemClock{},
	}

	if err := c.openStore(ctx); err != nil {
		return nil, errors.Join(err, c.Close())
	}
	if err := c.openBroker(ctx); err != nil {
		return nil, errors.Join(err, c.Close())
	}

	c.hub = notifications.NewHub(cfg.SubscriberBuffer, logger)
	c.notifier = notifications.NewNotifier(c.hub, c.broker, logger)
	c.closers = append(c.closers, func() error {
		c.hub.Close()
		return nil
	})
	return c, nil
}

func (c *CompositionRoot) openStore(ctx context.Context) error {
	switch c.cfg.StorageDriver {
	case StorageMemory:
		store := memory.NewStore()
		c.useStore(store, FuncOrderUoWFactory(func() commands.OrderUoW {
			return store.Create()
		}))
		return nil

	case StoragePostgres, StorageSQLite:
		var (
			db  *gorm.DB
			err error
		)
		if c.cfg.StorageDriver == StoragePostgres {
			db, err = gormstore.OpenPostgres(c.cfg.PostgresDSN(), c.logger)
		} else {
			db, err = gormstore.OpenSQLite(c.cfg.SQLitePath, c.logger)
		}
		if err != nil {
			return err
		}
		c.closers = append(c.closers, func() error { return gormstore.Close(db) })

		uowFactory := gormstore.NewGormUnitOfWorkFactory(db)
		c.useStore(orderrepo.NewGormOrderReader(db), FuncOrderUoWFactory(func() commands.OrderUoW {
			return uowFactory.Create()
		}))
		return nil

	case StorageDynamoDB:
		client, err := dynamo.NewClient(ctx, dynamo.ClientConfig{
			Region:          c.cfg.AWSRegion,
			Endpoint:        c.cfg.DynamoDBEndpoint,
			AccessKeyID:     c.cfg.AWSAccessKeyID,
			SecretAccessKey: c.cfg.AWSSecretKey,
		})
		if err != nil {
			return err
		}
		if err := dynamo.EnsureTable(ctx, client, c.cfg.DynamoDBTable); err != nil {
			return err
		}
		store := dynamo.NewStore(client, c.cfg.DynamoDBTable)
		c.useStore(store, FuncOrderUoWFactory(func() commands.OrderUoW {
			return store.Create()
		}))
		return nil
	}
	return fmt.Errorf("unknown storage driver %q", c.cfg.StorageDriver)
}

func (c *CompositionRoot) useStore(reader ports.OrderReader, factory commands.OrderUoWFactory) {
	c.reader = reader
	c.uowFactory = factory
	c.logger.Info("Order store ready", "driver", c.cfg.StorageDriver)
}

func (c *CompositionRoot) openBroker(ctx context.Context) error {
	var (
		b   ports.UpdateBroker
		err error
	)
	switch c.cfg.BrokerDriver {
	case BrokerLocal:
		b = broker.NewLocal()
	case BrokerPostgres:
		b, err = pgnotify.New(ctx, c.cfg.PostgresDSN(), pgnotify.DefaultChannel, c.logger)
	case BrokerRedis:
		b, err = redisbus.New(ctx, c.cfg.RedisURL, redisbus.DefaultChannel, c.logger)
	case BrokerAMQP:
		b, err = amqpbus.New(c.cfg.AMQPURL, c.cfg.AMQPExchange, c.logger)
	default:
		err = fmt.Errorf("unknown broker driver %q", c.cfg.BrokerDriver)
	}
	if err != nil {
		return err
	}

	c.broker = b
	c.closers = append(c.closers, b.Close)
	c.logger.Info("Update broker ready", "driver", c.cfg.BrokerDriver)
	return nil
}

// Notifier feeds the hub from the broker; its Run must be started by the caller.
func (c *CompositionRoot) Notifier() *notifications.Notifier {
	return c.notifier
}

// Hub is exposed so shutdown can end event streams before the HTTP server drains.
func (c *CompositionRoot) Hub() *notifications.Hub {
	return c.hub
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.uowFactory, c.clock, c.notifier)
}

func (c *CompositionRoot) CreateChangeOrderStatusCommandHandler() commands.ChangeOrderStatusCommandHandler {
	return commands.NewChangeOrderStatusCommandHandler(c.uowFactory, c.clock, c.notifier)
}

func (c *CompositionRoot) CreateExpirePendingOrdersCommandHandler() commands.ExpirePendingOrdersCommandHandler {
	return commands.NewExpirePendingOrdersCommandHandler(c.uowFactory, c.clock, c.notifier)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.reader, c.estimator())
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.reader, c.estimator())
}

func (c *CompositionRoot) CreateSearchOrdersQueryHandler() queries.SearchOrdersQueryHandler {
	return queries.NewSearchOrdersQueryHandler(c.reader, c.estimator())
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	handler := c.CreateExpirePendingOrdersCommandHandler()
	return jobs.NewJobManager(
		jobs.NewPendingExpiryJob(&handler, c.cfg.PendingExpirySchedule, c.cfg.PendingOrderTTL, c.logger),
	)
}

func (c *CompositionRoot) CreateRouter() (*echo.Echo, error) {
	doc, err := servers.GetSwagger()
	if err != nil {
		return nil, err
	}

	server := httpapi.NewServer(httpapi.Handlers{
		CreateOrder:       c.CreateCreateOrderCommandHandler(),
		ChangeOrderStatus: c.CreateChangeOrderStatusCommandHandler(),
		GetOrder:          c.CreateGetOrderQueryHandler(),
		ListOrders:        c.CreateListOrdersQueryHandler(),
		SearchOrders:      c.CreateSearchOrdersQueryHandler(),
	}, c.hub, c.estimator(), c.logger)

	e, err := httpapi.NewRouter(server, doc, c.logger)
	if err != nil {
		return nil, err
	}
	e.Logger.SetLevel(c.cfg.EchoLogLevel())
	return e, nil
}

// Close releases resources in reverse order of acquisition.
func (c *CompositionRoot) Close() error {
	var errList []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errList = append(errList, err)
		}
	}
	c.closers = nil
	return errors.Join(errList...)
}

func (c *CompositionRoot) estimator() services.TimeEstimator {
	return services.NewTimeEstimator(c.clock)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
