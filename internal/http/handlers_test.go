package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/delivery"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/pricing"
	"github.com/fjod/go_storefront/internal/service"
)

type fakeCarts struct {
	cart *domain.Cart
	err  error

	userID  string
	added   service.AddItemRequest
	key     domain.LineKey
	delta   int
	cleared bool
}

func (f *fakeCarts) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	f.userID = userID
	return f.cart, f.err
}

func (f *fakeCarts) AddItem(_ context.Context, userID string, req service.AddItemRequest) (*domain.Cart, error) {
	f.userID, f.added = userID, req
	return f.cart, f.err
}

func (f *fakeCarts) UpdateQuantity(_ context.Context, userID string, key domain.LineKey, delta int) (*domain.Cart, error) {
	f.userID, f.key, f.delta = userID, key, delta
	return f.cart, f.err
}

func (f *fakeCarts) RemoveItem(_ context.Context, userID string, key domain.LineKey) (*domain.Cart, error) {
	f.userID, f.key = userID, key
	return f.cart, f.err
}

func (f *fakeCarts) ClearCart(_ context.Context, userID string) error {
	f.userID, f.cleared = userID, true
	return f.err
}

type fakeCheckout struct {
	quote *service.OrderQuote
	err   error
	req   service.QuoteRequest
}

func (f *fakeCheckout) Quote(_ context.Context, req service.QuoteRequest) (*service.OrderQuote, error) {
	f.req = req
	return f.quote, f.err
}

func (f *fakeCheckout) PlaceOrder(_ context.Context, req service.QuoteRequest) (*service.PlacedOrder, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &service.PlacedOrder{OrderID: "order-1", Quote: *f.quote}, nil
}

type fakeStores struct {
	status    domain.StoreStatus
	slots     []service.SlotView
	err       error
	orderType domain.OrderType
	day       domain.Day
	query     delivery.Query
	subtotal  decimal.Decimal
	saved     *domain.StoreConfig
}

func (f *fakeStores) Status(_ context.Context, _ string, orderType domain.OrderType) (domain.StoreStatus, error) {
	f.orderType = orderType
	return f.status, f.err
}

func (f *fakeStores) Slots(_ context.Context, _ string, orderType domain.OrderType, day domain.Day) ([]service.SlotView, error) {
	f.orderType, f.day = orderType, day
	return f.slots, f.err
}

func (f *fakeStores) Delivery(_ context.Context, _ string, q delivery.Query, subtotal decimal.Decimal) (service.DeliveryQuote, error) {
	f.query, f.subtotal = q, subtotal
	return service.DeliveryQuote{Decision: domain.DeliveryDecision{Fee: decimal.NewFromInt(10), Source: domain.FeeSourceZone}}, f.err
}

func (f *fakeStores) UpdateSettings(_ context.Context, cfg *domain.StoreConfig) error {
	f.saved = cfg
	return f.err
}

func sampleCart() *domain.Cart {
	return &domain.Cart{
		UserID: "u1",
		Items: []domain.CartItem{
			{Key: "k1", ProductID: "falafel-wrap", UnitPrice: decimal.RequireFromString("22.50"), Quantity: 2},
			{Key: "k2", ProductID: "fresh-juice", UnitPrice: decimal.NewFromInt(15), Quantity: 1},
		},
	}
}

func newRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	return req.WithContext(withUserID(req.Context(), "u1"))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestGetCart_Success(t *testing.T) {
	carts := &fakeCarts{cart: sampleCart()}
	handler := NewCartHandler(carts, 5*time.Second)

	rec := httptest.NewRecorder()
	handler.GetCart(rec, newRequest(t, http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", carts.userID)

	var resp struct {
		UserID   string          `json:"user_id"`
		Count    int             `json:"count"`
		Subtotal decimal.Decimal `json:"subtotal"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, "60", resp.Subtotal.String())
}

func TestGetCart_Unauthorized(t *testing.T) {
	handler := NewCartHandler(&fakeCarts{cart: sampleCart()}, 5*time.Second)

	rec := httptest.NewRecorder()
	handler.GetCart(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Code)
}

func TestAddItem_Success(t *testing.T) {
	carts := &fakeCarts{cart: sampleCart()}
	handler := NewCartHandler(carts, 5*time.Second)

	rec := httptest.NewRecorder()
	handler.AddItem(rec, newRequest(t, http.MethodPost, "/items", AddItemRequestDTO{
		ProductID: "shawarma-plate",
		Selection: domain.Selection{SizeID: "large", Extras: []domain.ExtraSelection{{ExtraID: "tahini", Quantity: 1}}},
		Quantity:  2,
		Locale:    "he",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "shawarma-plate", carts.added.ProductID)
	assert.Equal(t, "large", carts.added.Selection.SizeID)
	assert.Equal(t, 2, carts.added.Quantity)
	assert.Equal(t, "he", carts.added.Locale)
}

func TestAddItem_InvalidJSON(t *testing.T) {
	handler := NewCartHandler(&fakeCarts{}, 5*time.Second)

	req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewBufferString("{not json"))
	req = req.WithContext(withUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	handler.AddItem(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec).Code)
}

func TestAddItem_RejectsBadDTO(t *testing.T) {
	tests := []struct {
		name    string
		dto     AddItemRequestDTO
		details string
	}{
		{"missing product", AddItemRequestDTO{Quantity: 1}, "ProductID required"},
		{"zero quantity", AddItemRequestDTO{ProductID: "p", Quantity: 0}, "Quantity gte"},
		{"too many", AddItemRequestDTO{ProductID: "p", Quantity: 100}, "Quantity lte"},
		{"unknown locale", AddItemRequestDTO{ProductID: "p", Quantity: 1, Locale: "fr"}, "Locale oneof"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carts := &fakeCarts{}
			handler := NewCartHandler(carts, 5*time.Second)

			rec := httptest.NewRecorder()
			handler.AddItem(rec, newRequest(t, http.MethodPost, "/items", tt.dto))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec).Details, tt.details)
			assert.Empty(t, carts.userID, "service must not be called")
		})
	}
}

func TestAddItem_MapsServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"pricing validation", pricing.ErrUnknownSize, http.StatusUnprocessableEntity, "validation_failed"},
		{"wrapped validation", errors.Join(errors.New("ctx"), pricing.ErrFlavorCount), http.StatusUnprocessableEntity, "validation_failed"},
		{"unknown product", catalog.ErrProductNotFound, http.StatusNotFound, "not_found"},
		{"breaker open", gobreaker.ErrOpenState, http.StatusServiceUnavailable, "service_unavailable"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{"infrastructure", errors.New("mongo down"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCartHandler(&fakeCarts{err: tt.err}, 5*time.Second)

			rec := httptest.NewRecorder()
			handler.AddItem(rec, newRequest(t, http.MethodPost, "/items", AddItemRequestDTO{ProductID: "p", Quantity: 1}))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func cartRouter(h *CartHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(MockAuthMiddleware)
	r.Patch("/items/{key}", h.UpdateQuantity)
	r.Delete("/items/{key}", h.RemoveItem)
	r.Delete("/", h.ClearCart)
	return r
}

func TestUpdateQuantity_UnescapesLineKey(t *testing.T) {
	carts := &fakeCarts{cart: sampleCart()}
	router := cartRouter(NewCartHandler(carts, 5*time.Second))

	key := domain.NewLineKey("shawarma-plate", domain.Selection{SizeID: "large", Note: "no onion / extra lemon"})
	body, _ := json.Marshal(UpdateQuantityRequestDTO{Delta: -1})
	req := httptest.NewRequest(http.MethodPatch, "/items/"+url.PathEscape(string(key)), bytes.NewReader(body))
	req.Header.Set("X-User-ID", "u7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, key, carts.key)
	assert.Equal(t, -1, carts.delta)
	assert.Equal(t, "u7", carts.userID)
}

func TestUpdateQuantity_ZeroDeltaRejected(t *testing.T) {
	carts := &fakeCarts{cart: sampleCart()}
	router := cartRouter(NewCartHandler(carts, 5*time.Second))

	req := httptest.NewRequest(http.MethodPatch, "/items/k1", bytes.NewBufferString(`{"delta":0}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, carts.key)
}

func TestRemoveItem_NotFound(t *testing.T) {
	router := cartRouter(NewCartHandler(&fakeCarts{err: domain.ErrItemNotFound}, 5*time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/items/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestClearCart_GuestByDefault(t *testing.T) {
	carts := &fakeCarts{}
	router := cartRouter(NewCartHandler(carts, 5*time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, carts.cleared)
	assert.Equal(t, GuestUserID, carts.userID)
}

func sampleQuote() *service.OrderQuote {
	return &service.OrderQuote{
		Count:       1,
		Subtotal:    decimal.NewFromInt(60),
		DeliveryFee: decimal.NewFromInt(10),
		Total:       decimal.NewFromInt(70),
		Status:      domain.StoreStatus{State: domain.StateOpen},
	}
}

func TestCheckoutQuote_MapsRequest(t *testing.T) {
	checkout := &fakeCheckout{quote: sampleQuote()}
	handler := NewCheckoutHandler(checkout, 5*time.Second)

	lat, lng := 32.81, 34.99
	rec := httptest.NewRecorder()
	handler.Quote(rec, newRequest(t, http.MethodPost, "/quote", CheckoutRequestDTO{
		StoreID:   "main",
		OrderType: "delivery",
		Lat:       &lat,
		Lng:       &lng,
		City:      "חיפה",
		Discount:  decimal.NewFromInt(5),
		Schedule:  &ScheduleDTO{Day: "tomorrow", Time: "12:30"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	got := checkout.req
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, domain.OrderTypeDelivery, got.OrderType)
	require.NotNil(t, got.Location)
	assert.Equal(t, domain.Coordinate{Lat: lat, Lng: lng}, *got.Location)
	assert.Equal(t, "חיפה", got.City)
	assert.Equal(t, "5", got.Discount.String())
	require.NotNil(t, got.Schedule)
	assert.Equal(t, service.ScheduleChoice{Day: domain.DayTomorrow, Time: "12:30"}, *got.Schedule)

	var quote service.OrderQuote
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&quote))
	assert.Equal(t, "70", quote.Total.String())
}

func TestCheckoutQuote_PartialCoordinatesAreIgnored(t *testing.T) {
	checkout := &fakeCheckout{quote: sampleQuote()}
	handler := NewCheckoutHandler(checkout, 5*time.Second)

	lat := 32.81
	rec := httptest.NewRecorder()
	handler.Quote(rec, newRequest(t, http.MethodPost, "/quote", CheckoutRequestDTO{StoreID: "main", OrderType: "pickup", Lat: &lat}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, checkout.req.Location)
	assert.Nil(t, checkout.req.Schedule)
}

func TestCheckout_RejectsBadDTO(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing store", `{"order_type":"pickup"}`},
		{"unknown order type", `{"store_id":"main","order_type":"dine_in"}`},
		{"bad schedule day", `{"store_id":"main","order_type":"pickup","schedule":{"day":"monday","time":"12:00"}}`},
		{"latitude out of range", `{"store_id":"main","order_type":"delivery","lat":91,"lng":34}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkout := &fakeCheckout{quote: sampleQuote()}
			handler := NewCheckoutHandler(checkout, 5*time.Second)

			req := httptest.NewRequest(http.MethodPost, "/quote", bytes.NewBufferString(tt.body))
			req = req.WithContext(withUserID(req.Context(), "u1"))
			rec := httptest.NewRecorder()
			handler.Quote(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, checkout.req.UserID)
		})
	}
}

func TestCheckout_StoreClosedIsUnprocessable(t *testing.T) {
	handler := NewCheckoutHandler(&fakeCheckout{err: service.ErrStoreClosed}, 5*time.Second)

	rec := httptest.NewRecorder()
	handler.Quote(rec, newRequest(t, http.MethodPost, "/quote", CheckoutRequestDTO{StoreID: "main", OrderType: "pickup"}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "validation_failed", resp.Code)
	assert.Equal(t, service.ErrStoreClosed.Error(), resp.Error)
}

func TestPlaceOrder_Created(t *testing.T) {
	handler := NewCheckoutHandler(&fakeCheckout{quote: sampleQuote()}, 5*time.Second)

	rec := httptest.NewRecorder()
	handler.PlaceOrder(rec, newRequest(t, http.MethodPost, "/orders", CheckoutRequestDTO{StoreID: "main", OrderType: "pickup"}))

	require.Equal(t, http.StatusCreated, rec.Code)
	var order service.PlacedOrder
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&order))
	assert.Equal(t, "order-1", order.OrderID)
	assert.Equal(t, "60", order.Quote.Subtotal.String())
}

func storeRouter(h *StoreHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/stores/{storeID}/status", h.Status)
	r.Get("/stores/{storeID}/slots", h.Slots)
	r.Post("/stores/{storeID}/delivery", h.Delivery)
	r.Put("/stores/{storeID}/settings", h.UpdateSettings)
	return r
}

func TestStoreStatus_DefaultsToPickup(t *testing.T) {
	stores := &fakeStores{status: domain.StoreStatus{State: domain.StateClosingSoon, MinutesLeft: 12}}
	router := storeRouter(NewStoreHandler(stores, 5*time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stores/main/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.OrderTypePickup, stores.orderType)

	var status domain.StoreStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, domain.StateClosingSoon, status.State)
	assert.Equal(t, 12, status.MinutesLeft)
}

func TestStoreSlots_PassesDayAndType(t *testing.T) {
	stores := &fakeStores{}
	router := storeRouter(NewStoreHandler(stores, 5*time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stores/main/slots?order_type=delivery&day=tomorrow", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.OrderTypeDelivery, stores.orderType)
	assert.Equal(t, domain.DayTomorrow, stores.day)
	assert.JSONEq(t, `{"day":"tomorrow","slots":[]}`, rec.Body.String())
}

func TestStoreSlots_InvalidOrderType(t *testing.T) {
	router := storeRouter(NewStoreHandler(&fakeStores{err: service.ErrInvalidOrderType}, 5*time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stores/main/slots?order_type=dine_in", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestStoreDelivery_ForwardsQuery(t *testing.T) {
	stores := &fakeStores{}
	router := storeRouter(NewStoreHandler(stores, 5*time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stores/main/delivery",
		bytes.NewBufferString(`{"lat":32.81,"lng":34.99,"city":"عكا","subtotal":"120.5"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stores.query.Location)
	assert.Equal(t, 32.81, stores.query.Location.Lat)
	assert.Equal(t, "عكا", stores.query.City)
	assert.Equal(t, "120.5", stores.subtotal.String())
}

func TestStoreDelivery_NegativeSubtotal(t *testing.T) {
	router := storeRouter(NewStoreHandler(&fakeStores{}, 5*time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stores/main/delivery", bytes.NewBufferString(`{"subtotal":-1}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMockAuthMiddleware(t *testing.T) {
	var seen string
	handler := MockAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = getUserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "  customer-42 ")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "customer-42", seen)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, GuestUserID, seen)
}

func TestStoreUpdateSettings_DecodesDocument(t *testing.T) {
	stores := &fakeStores{}
	router := storeRouter(NewStoreHandler(stores, 5*time.Second))

	body := `{"timeZone":"UTC","deliveryFee":"25","minimumOrder":40,"isManuallyClosed":true,
		"deliveryZones":[{"id":"z","minLat":1,"maxLat":2,"fee":5}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/stores/north/settings", bytes.NewBufferString(body)))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, stores.saved)
	assert.Equal(t, "north", stores.saved.ID)
	assert.True(t, stores.saved.ManuallyClosed)
	assert.Equal(t, "25", stores.saved.DefaultDeliveryFee.String())
	assert.Equal(t, "40", stores.saved.MinimumOrder.String())
	require.Len(t, stores.saved.Zones, 1)
	assert.Equal(t, "box", stores.saved.Zones[0].Shape.Kind())
}

func TestStoreUpdateSettings_InvalidDocument(t *testing.T) {
	stores := &fakeStores{}
	router := storeRouter(NewStoreHandler(stores, 5*time.Second))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/stores/north/settings", bytes.NewBufferString(`[1,2]`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, stores.saved)
}
