package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	httpapi "carservice/internal/adapters/in/http"
	"carservice/internal/adapters/out/broker"
	"carservice/internal/adapters/out/memory"
	"carservice/internal/core/application/notifications"
	"carservice/internal/core/application/usecases/commands"
	"carservice/internal/core/application/usecases/queries"
	"carservice/internal/core/domain/model/kernel"
	"carservice/internal/core/domain/model/order"
	"carservice/internal/core/domain/services"
	"carservice/internal/generated/servers"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type storeFactory struct {
	store *memory.Store
}

func (f storeFactory) Create() commands.OrderUoW {
	return f.store.Create()
}

// minuteClock advances by one minute on every reading so that creation order is stable.
type minuteClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *minuteClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type ServerTestSuite struct {
	suite.Suite

	ctx    context.Context
	cancel context.CancelFunc

	store  *memory.Store
	hub    *notifications.Hub
	broker *broker.Local
	router *echo.Echo
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := &minuteClock{now: time.Now().UTC()}
	estimator := services.NewTimeEstimator(kernel.SystemClock{})

	s.store = memory.NewStore()
	s.hub = notifications.NewHub(notifications.DefaultBufferSize, logger)
	s.broker = broker.NewLocal()
	notifier := notifications.NewNotifier(s.hub, s.broker, logger)
	go func() { _ = notifier.Run(s.ctx) }()
	s.awaitListener()

	factory := storeFactory{store: s.store}
	server := httpapi.NewServer(httpapi.Handlers{
		CreateOrder:       commands.NewCreateOrderCommandHandler(factory, clock, notifier),
		ChangeOrderStatus: commands.NewChangeOrderStatusCommandHandler(factory, clock, notifier),
		GetOrder:          queries.NewGetOrderQueryHandler(s.store, estimator),
		ListOrders:        queries.NewListOrdersQueryHandler(s.store, estimator),
		SearchOrders:      queries.NewSearchOrdersQueryHandler(s.store, estimator),
	}, s.hub, estimator, logger).WithHeartbeat(50 * time.Millisecond)

	doc, err := servers.GetSwagger()
	s.Require().NoError(err)

	s.router, err = httpapi.NewRouter(server, doc, logger)
	s.Require().NoError(err)
}

// awaitListener blocks until the notifier forwards broker messages to the hub.
func (s *ServerTestSuite) awaitListener() {
	const probeID = "ORD-0-PROBE"
	received := make(chan struct{}, 1)
	probe := s.hub.Subscribe(probeID, func(order.Snapshot) {
		select {
		case received <- struct{}{}:
		default:
		}
	})
	defer probe.Cancel()

	s.Require().Eventually(func() bool {
		_ = s.broker.Publish(s.ctx, order.Snapshot{ID: probeID})
		select {
		case <-received:
			return true
		case <-time.After(10 * time.Millisecond):
			return false
		}
	}, time.Second, 20*time.Millisecond)
}

func (s *ServerTestSuite) TearDownTest() {
	s.cancel()
	s.hub.Close()
	s.Require().NoError(s.broker.Close())
}

func (s *ServerTestSuite) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) decodeOrder(rec *httptest.ResponseRecorder) servers.Order {
	var o servers.Order
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &o), rec.Body.String())
	return o
}

func (s *ServerTestSuite) decodeError(rec *httptest.ResponseRecorder) servers.Error {
	var e servers.Error
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func (s *ServerTestSuite) createOrder(body string) servers.Order {
	rec := s.do(http.MethodPost, "/api/v1/orders", body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return s.decodeOrder(rec)
}

const brakeRequest = `{
	"service_type": "brake issues",
	"urgency": "high",
	"description": "Grinding noise when braking",
	"car_make": "Toyota",
	"car_model": "Corolla",
	"car_year": 2018,
	"location": "Main St 1",
	"user_id": "user-1"
}`

func (s *ServerTestSuite) Test_Health() {
	rec := s.do(http.MethodGet, "/health", "")

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("healthy", rec.Body.String())
}

func (s *ServerTestSuite) Test_OpenAPIDocument() {
	rec := s.do(http.MethodGet, "/openapi.json", "")

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "ChangeOrderStatus")
}

func (s *ServerTestSuite) Test_CreateOrder() {
	created := s.createOrder(brakeRequest)

	s.True(strings.HasPrefix(created.Id, "ORD-"), created.Id)
	s.Equal(servers.OrderStatusPending, created.Status)
	s.Equal("Brake Issues", created.ServiceType)
	s.Equal(servers.UrgencyHigh, created.Urgency)
	s.Equal(services.EstimateUnknown, created.ArrivalEta)
	s.Equal(services.EstimateUnknown, created.CompletionEta)
	s.Nil(created.MechanicName)
	s.Nil(created.TotalCost)
	s.Require().NotNil(created.CarYear)
	s.Equal(2018, *created.CarYear)
	s.Equal(int64(1), created.Version)

	rec := s.do(http.MethodGet, "/api/v1/orders/"+created.Id, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(created.Id, s.decodeOrder(rec).Id)
}

func (s *ServerTestSuite) Test_CreateOrder_Rejected() {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"service_type":`},
		{name: "missing description", body: `{"service_type":"Oil Change","urgency":"low"}`},
		{name: "unknown urgency", body: `{"service_type":"Oil Change","urgency":"asap","description":"x"}`},
		{name: "blank description", body: `{"service_type":"Oil Change","urgency":"low","description":"   "}`},
		{name: "car year out of range", body: `{"service_type":"Oil Change","urgency":"low","description":"x","car_year":1700}`},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(http.MethodPost, "/api/v1/orders", tt.body)

			s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
			s.Equal(http.StatusBadRequest, s.decodeError(rec).Code)
		})
	}

	rec := s.do(http.MethodGet, "/api/v1/orders", "")
	s.Equal("[]\n", rec.Body.String())
}

func (s *ServerTestSuite) Test_GetOrder_NotFound() {
	rec := s.do(http.MethodGet, "/api/v1/orders/ORD-0-MISSING", "")

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(http.StatusNotFound, s.decodeError(rec).Code)
}

func (s *ServerTestSuite) Test_ChangeOrderStatus_Lifecycle() {
	created := s.createOrder(brakeRequest)
	path := "/api/v1/orders/" + created.Id + "/status"
	arrival := time.Now().UTC().Add(10*time.Minute + 20*time.Second).Format(time.RFC3339)

	rec := s.do(http.MethodPatch, path, `{"status":"accepted","mechanic":{"name":"Bob","phone":"+1 555 0100"},"estimated_arrival":"`+arrival+`"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	accepted := s.decodeOrder(rec)
	s.Equal(servers.OrderStatusAccepted, accepted.Status)
	s.Require().NotNil(accepted.MechanicName)
	s.Equal("Bob", *accepted.MechanicName)
	s.Equal("10 min", accepted.ArrivalEta)
	s.Greater(accepted.Version, created.Version)

	rec = s.do(http.MethodPatch, path, `{"status":"completed","total_cost":100}`)
	s.Equal(http.StatusConflict, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPatch, path, `{"status":"in_progress"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPatch, path, `{"status":"completed"}`)
	s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPatch, path, `{"status":"completed","total_cost":150.5}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	completed := s.decodeOrder(rec)
	s.Equal(servers.OrderStatusCompleted, completed.Status)
	s.Require().NotNil(completed.TotalCost)
	s.Equal(json.Number("150.5"), *completed.TotalCost)
	s.Contains(rec.Body.String(), `"total_cost":150.5,`)

	rec = s.do(http.MethodPatch, path, `{"status":"cancelled"}`)
	s.Equal(http.StatusConflict, rec.Code, rec.Body.String())
}

func (s *ServerTestSuite) Test_TotalCostIsANumberWithItsDigitsKept() {
	created := s.createOrder(brakeRequest)
	path := "/api/v1/orders/" + created.Id + "/status"

	for _, body := range []string{
		`{"status":"accepted","mechanic":{"name":"Bob"}}`,
		`{"status":"in_progress"}`,
		`{"status":"completed","total_cost":99.999}`,
	} {
		rec := s.do(http.MethodPatch, path, body)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := s.do(http.MethodGet, "/api/v1/orders/"+created.Id, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"total_cost":99.999,`)

	var raw map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &raw))
	s.InDelta(99.999, raw["total_cost"], 1e-9)
}

func (s *ServerTestSuite) Test_ChangeOrderStatus_Errors() {
	created := s.createOrder(brakeRequest)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{name: "unknown order", path: "/api/v1/orders/ORD-0-MISSING/status", body: `{"status":"cancelled"}`, status: http.StatusNotFound},
		{name: "unknown status", path: "/api/v1/orders/" + created.Id + "/status", body: `{"status":"done"}`, status: http.StatusBadRequest},
		{name: "accept without mechanic", path: "/api/v1/orders/" + created.Id + "/status", body: `{"status":"accepted"}`, status: http.StatusBadRequest},
		{name: "negative cost", path: "/api/v1/orders/" + created.Id + "/status", body: `{"status":"completed","total_cost":-1}`, status: http.StatusBadRequest},
		{name: "skipped transition", path: "/api/v1/orders/" + created.Id + "/status", body: `{"status":"in_progress"}`, status: http.StatusConflict},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(http.MethodPatch, tt.path, tt.body)

			s.Equal(tt.status, rec.Code, rec.Body.String())
		})
	}
}

func (s *ServerTestSuite) Test_ListOrders() {
	first := s.createOrder(brakeRequest)
	second := s.createOrder(`{"service_type":"Oil Change","urgency":"low","description":"Due","user_id":"user-2"}`)
	third := s.createOrder(`{"service_type":"Overheating","urgency":"medium","description":"Steam","user_id":"user-1"}`)

	var all []servers.Order
	rec := s.do(http.MethodGet, "/api/v1/orders", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &all))
	s.Equal([]string{third.Id, second.Id, first.Id}, ids(all))

	var mine []servers.Order
	rec = s.do(http.MethodGet, "/api/v1/orders?user_id=user-1", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &mine))
	s.Equal([]string{third.Id, first.Id}, ids(mine))
}

func (s *ServerTestSuite) Test_SearchOrders() {
	first := s.createOrder(brakeRequest)
	s.createOrder(`{"service_type":"Oil Change","urgency":"low","description":"Due"}`)

	var found []servers.Order
	rec := s.do(http.MethodGet, "/api/v1/orders/search?q="+strings.ToLower(first.Id), "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &found))
	s.Equal([]string{first.Id}, ids(found))

	rec = s.do(http.MethodGet, "/api/v1/orders/search?q=ord-", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &found))
	s.Len(found, 2)
}

func (s *ServerTestSuite) Test_ListServiceTypes() {
	var types []string
	rec := s.do(http.MethodGet, "/api/v1/service-types", "")

	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &types))
	s.Contains(types, "Oil Change")
	s.Contains(types, "Brake Issues")
}

func (s *ServerTestSuite) Test_StreamOrderEvents() {
	created := s.createOrder(brakeRequest)

	ts := httptest.NewServer(s.router)
	defer ts.Close()

	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, ts.URL+"/api/v1/orders/"+created.Id+"/events", nil)
	s.Require().NoError(err)
	resp, err := ts.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("text/event-stream", resp.Header.Get(echo.HeaderContentType))

	events := readEvents(resp.Body)

	initial := s.nextEvent(events)
	s.Equal(servers.OrderStatusPending, initial.Status)

	rec := s.do(http.MethodPatch, "/api/v1/orders/"+created.Id+"/status", `{"status":"accepted","mechanic":{"name":"Bob"}}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	accepted := s.nextEvent(events)
	s.Equal(servers.OrderStatusAccepted, accepted.Status)
	s.Require().NotNil(accepted.MechanicName)
	s.Equal("Bob", *accepted.MechanicName)

	rec = s.do(http.MethodPatch, "/api/v1/orders/"+created.Id+"/status", `{"status":"cancelled"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	cancelled := s.nextEvent(events)
	s.Equal(servers.OrderStatusCancelled, cancelled.Status)

	// The stream ends after a terminal status.
	select {
	case _, open := <-events:
		s.False(open)
	case <-time.After(2 * time.Second):
		s.Fail("stream was not closed after a terminal status")
	}
	s.Eventually(func() bool { return s.hub.Subscribers(created.Id) == 0 }, time.Second, 10*time.Millisecond)
}

func (s *ServerTestSuite) Test_StreamOrderEvents_NotFound() {
	rec := s.do(http.MethodGet, "/api/v1/orders/ORD-0-MISSING/events", "")

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(0, s.hub.Subscribers("ORD-0-MISSING"))
}

func (s *ServerTestSuite) Test_StreamOrderEvents_TerminalOrderClosesImmediately() {
	created := s.createOrder(brakeRequest)
	rec := s.do(http.MethodPatch, "/api/v1/orders/"+created.Id+"/status", `{"status":"cancelled"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/orders/"+created.Id+"/events", "")

	s.Equal(http.StatusOK, rec.Code)
	s.Equal(1, strings.Count(rec.Body.String(), "event: order\n"))
	s.Contains(rec.Body.String(), `"status":"cancelled"`)
}

func (s *ServerTestSuite) nextEvent(events <-chan servers.Order) servers.Order {
	select {
	case o, ok := <-events:
		s.Require().True(ok, "stream closed")
		return o
	case <-time.After(2 * time.Second):
		s.FailNow("no event received")
		return servers.Order{}
	}
}

// readEvents parses "order" events off an SSE stream until it ends.
func readEvents(body io.Reader) <-chan servers.Order {
	out := make(chan servers.Order, 16)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(body)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(scanner.Text(), "data: ")
			if !ok {
				continue
			}
			var o servers.Order
			if err := json.Unmarshal([]byte(data), &o); err != nil {
				return
			}
			out <- o
		}
	}()
	return out
}

func ids(orders []servers.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.Id)
	}
	return out
}

func TestErrorHandler_RendersRoutingErrors(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = httpapi.ErrorHandler

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body servers.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Code)
	assert.Equal(t, "Not Found", body.Message)
}
