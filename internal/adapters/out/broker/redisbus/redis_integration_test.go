package redisbus_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"carservice/internal/adapters/out/broker/brokertest"
	"carservice/internal/adapters/out/broker/redisbus"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RedisBrokerIntegrationTestSuite struct {
	suite.Suite
	container testcontainers.Container
	url       string
}

func (suite *RedisBrokerIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	suite.Require().NoError(err)
	suite.container = container

	host, err := container.Host(ctx)
	suite.Require().NoError(err)
	port, err := container.MappedPort(ctx, "6379")
	suite.Require().NoError(err)
	suite.url = fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func (suite *RedisBrokerIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *RedisBrokerIntegrationTestSuite) newBroker(channel string) *redisbus.Broker {
	b, err := redisbus.New(suite.T().Context(), suite.url, channel, slog.New(slog.NewTextHandler(io.Discard, nil)))
	suite.Require().NoError(err)
	suite.T().Cleanup(func() { _ = b.Close() })
	return b
}

func (suite *RedisBrokerIntegrationTestSuite) TestBroker_Delivers() {
	brokertest.AssertDelivers(suite.T(), suite.newBroker(""))
}

func (suite *RedisBrokerIntegrationTestSuite) TestBroker_DeliversAcrossClients() {
	publisher := suite.newBroker("orders-a")
	listener := suite.newBroker("orders-a")

	brokertest.AssertDeliversBetween(suite.T(), publisher, listener)
}

func (suite *RedisBrokerIntegrationTestSuite) TestNew_RejectsBadURL() {
	_, err := redisbus.New(suite.T().Context(), "not-a-url", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	suite.Error(err)
}

func TestRedisBrokerIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	suite.Run(t, new(RedisBrokerIntegrationTestSuite))
}
