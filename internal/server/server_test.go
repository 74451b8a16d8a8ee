package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/rentalops/internal/billing/domain"
	bookingdomain "github.com/smallbiznis/rentalops/internal/booking/domain"
	inventorydomain "github.com/smallbiznis/rentalops/internal/inventory/domain"
	materialdomain "github.com/smallbiznis/rentalops/internal/material/domain"
	"github.com/smallbiznis/rentalops/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInventoryService struct {
	inventorydomain.Service

	lastUpdate inventorydomain.UpdateQuantitiesRequest
	lastDraft  inventorydomain.DraftRequest
	updateErr  error
}

func (f *fakeInventoryService) GetOrCreateDraft(ctx context.Context, req inventorydomain.DraftRequest) (*inventorydomain.Response, error) {
	f.lastDraft = req
	return &inventorydomain.Response{ID: "10", ParkID: req.ParkID, IsTmp: true, AuthorID: req.AuthorID}, nil
}

func (f *fakeInventoryService) UpdateQuantities(ctx context.Context, req inventorydomain.UpdateQuantitiesRequest) (*inventorydomain.Response, error) {
	f.lastUpdate = req
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &inventorydomain.Response{ID: req.ID, IsTmp: true}, nil
}

func (f *fakeInventoryService) Terminate(ctx context.Context, id string) (*inventorydomain.Response, error) {
	return nil, inventorydomain.ErrNotDraft
}

type fakeBillingService struct {
	billingdomain.Service

	lastCreate billingdomain.CreateRequest
}

func (f *fakeBillingService) CreateInvoice(ctx context.Context, req billingdomain.CreateRequest) (*billingdomain.Response, error) {
	f.lastCreate = req
	number := "2024-00001"
	return &billingdomain.Response{ID: "20", Kind: billingdomain.KindInvoice, Number: &number, EventID: req.EventID, AuthorID: req.AuthorID}, nil
}

type fakeBookingService struct {
	bookingdomain.Service
}

func (f *fakeBookingService) AddMaterial(ctx context.Context, req bookingdomain.AddMaterialRequest) (*bookingdomain.LineResponse, error) {
	return nil, bookingdomain.ErrNotEditable
}

func (f *fakeBookingService) Delete(ctx context.Context, id string) error {
	if id == "7" {
		return bookingdomain.ErrInvoiced
	}
	return nil
}

type fakeMaterialService struct {
	materialdomain.Service

	deleted []string
}

func (f *fakeMaterialService) Delete(ctx context.Context, id string) error {
	if id == "404" {
		return materialdomain.ErrNotFound
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestServer(inv *fakeInventoryService, bill *fakeBillingService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	NewServer(ServerParams{
		Gin:          router,
		InventorySvc: inv,
		BillingSvc:   bill,
		BookingSvc:   &fakeBookingService{},
		MaterialSvc:  &fakeMaterialService{},
	})
	return router
}

func doRequest(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestUpdateInventoryQuantitiesBindsPayload(t *testing.T) {
	inv := &fakeInventoryService{}
	router := newTestServer(inv, &fakeBillingService{})

	body := `[{"id":"11","actual":3,"broken":1},{"id":"12","units":[{"id":"5","isLost":false,"isBroken":true,"state":"good"}]}]`
	resp := doRequest(router, http.MethodPut, "/api/inventories/99/quantities", body, nil)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "99", inv.lastUpdate.ID)
	require.Len(t, inv.lastUpdate.Quantities, 2)
	assert.Equal(t, 3, *inv.lastUpdate.Quantities[0].Actual)
	assert.Nil(t, inv.lastUpdate.Quantities[1].Actual)
	require.Len(t, inv.lastUpdate.Quantities[1].Units, 1)
	assert.True(t, inv.lastUpdate.Quantities[1].Units[0].IsBroken)
}

func TestUpdateInventoryQuantitiesReportsRowErrors(t *testing.T) {
	var errs validation.Errors
	errs.Add("11.broken", validation.CodeInvalid, inventorydomain.MessageBrokenExceedsActual)
	inv := &fakeInventoryService{updateErr: errs}
	router := newTestServer(inv, &fakeBillingService{})

	resp := doRequest(router, http.MethodPut, "/api/inventories/99/quantities", `[{"id":"11","actual":2,"broken":3}]`, nil)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var payload errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, "validation_error", payload.Error.Type)
	require.Len(t, payload.Error.Errors, 1)
	assert.Equal(t, "11.broken", payload.Error.Errors[0].Field)
	assert.Equal(t, "broken cannot exceed actual", payload.Error.Errors[0].Message)
}

func TestUpdateInventoryQuantitiesRejectsMalformedBody(t *testing.T) {
	inv := &fakeInventoryService{}
	router := newTestServer(inv, &fakeBillingService{})

	resp := doRequest(router, http.MethodPut, "/api/inventories/99/quantities", `{"id":"11"}`, nil)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, inv.lastUpdate.ID)
}

func TestTerminateFinalizedInventoryIsLogicError(t *testing.T) {
	router := newTestServer(&fakeInventoryService{}, &fakeBillingService{})

	resp := doRequest(router, http.MethodPost, "/api/inventories/99/terminate", "", nil)

	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	var payload errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, "logic_error", payload.Error.Type)
	assert.Equal(t, "inventory is already terminated", payload.Error.Message)
}

func TestDraftInventoryTakesAuthorFromActorHeader(t *testing.T) {
	inv := &fakeInventoryService{}
	router := newTestServer(inv, &fakeBillingService{})

	resp := doRequest(router, http.MethodPost, "/api/parks/7/inventories", "", map[string]string{HeaderActor: "alice"})

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "7", inv.lastDraft.ParkID)
	require.NotNil(t, inv.lastDraft.AuthorID)
	assert.Equal(t, "alice", *inv.lastDraft.AuthorID)
}

func TestCreateInvoicePrefersExplicitAuthor(t *testing.T) {
	bill := &fakeBillingService{}
	router := newTestServer(&fakeInventoryService{}, bill)

	resp := doRequest(router, http.MethodPost, "/api/events/5/invoices", `{"author_id":"bob"}`, map[string]string{HeaderActor: "alice"})

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "5", bill.lastCreate.EventID)
	require.NotNil(t, bill.lastCreate.AuthorID)
	assert.Equal(t, "bob", *bill.lastCreate.AuthorID)

	var payload struct {
		Data billingdomain.Response `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	require.NotNil(t, payload.Data.Number)
	assert.Equal(t, "2024-00001", *payload.Data.Number)
}

func TestAddMaterialToLockedEvent(t *testing.T) {
	router := newTestServer(&fakeInventoryService{}, &fakeBillingService{})

	resp := doRequest(router, http.MethodPost, "/api/events/5/materials", `{"material_id":"3","quantity":1}`, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	router := newTestServer(&fakeInventoryService{}, &fakeBillingService{})

	resp := doRequest(router, http.MethodGet, "/api/unknown", "", nil)

	require.Equal(t, http.StatusNotFound, resp.Code)
	var payload errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, "not_found", payload.Error.Type)
}

func TestHealthWithoutDatabase(t *testing.T) {
	router := newTestServer(&fakeInventoryService{}, &fakeBillingService{})

	resp := doRequest(router, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestDeleteEventStatuses(t *testing.T) {
	router := newTestServer(&fakeInventoryService{}, &fakeBillingService{})

	resp := doRequest(router, http.MethodDelete, "/api/events/5", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = doRequest(router, http.MethodDelete, "/api/events/7", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	var payload errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, "logic_error", payload.Error.Type)
	assert.Equal(t, "event has invoices and cannot be deleted", payload.Error.Message)
}

func TestDeleteMaterialStatuses(t *testing.T) {
	router := newTestServer(&fakeInventoryService{}, &fakeBillingService{})

	resp := doRequest(router, http.MethodDelete, "/api/materials/12", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = doRequest(router, http.MethodDelete, "/api/materials/404", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
