package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wellywell/laundry/internal/queue"
	"github.com/wellywell/laundry/internal/types"
)

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleCreateStep(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		stepErr    error
		wantStatus int
	}{
		{"created", `{"laundry_service_id":3,"step_type":"PLANCHADO"}`, nil, http.StatusCreated},
		{"not json", `step`, nil, http.StatusBadRequest},
		{"rejected", `{"step_type":"SECADO"}`, &queue.ValidationError{Message: "invalid step_type"}, http.StatusBadRequest},
		{"missing order", `{"laundry_service_id":9}`, &queue.NotFoundError{Missing: []int{9}}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &fakeOrders{stepErr: tt.stepErr}
			h := newTestHandlers(orders)
			req := authed(httptest.NewRequest(http.MethodPost, "/processing_steps", strings.NewReader(tt.body)), 5)
			w := httptest.NewRecorder()

			h.HandleCreateStep(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusCreated {
				return
			}
			var step types.ProcessingStep
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &step))
			assert.Equal(t, 3, step.OrderID)
			assert.Equal(t, types.IroningStep, step.StepType)
			assert.Equal(t, 5, orders.stepActor)
		})
	}
}

func TestHandleCreateStepRequiresUser(t *testing.T) {
	h := newTestHandlers(&fakeOrders{})
	w := httptest.NewRecorder()

	h.HandleCreateStep(w, httptest.NewRequest(http.MethodPost, "/processing_steps", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStepWriteHandlers(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		id         string
		body       string
		handler    func(h *HandlerSet) http.HandlerFunc
		wantStatus int
	}{
		{"update", http.MethodPatch, "4", `{"step_type":"AMBOS"}`, func(h *HandlerSet) http.HandlerFunc { return h.HandleUpdateStep }, http.StatusOK},
		{"update bad id", http.MethodPatch, "x", `{}`, func(h *HandlerSet) http.HandlerFunc { return h.HandleUpdateStep }, http.StatusBadRequest},
		{"update not json", http.MethodPatch, "4", `[`, func(h *HandlerSet) http.HandlerFunc { return h.HandleUpdateStep }, http.StatusBadRequest},
		{"complete", http.MethodPatch, "4", ``, func(h *HandlerSet) http.HandlerFunc { return h.HandleCompleteStep }, http.StatusOK},
		{"complete bad id", http.MethodPatch, "0", ``, func(h *HandlerSet) http.HandlerFunc { return h.HandleCompleteStep }, http.StatusBadRequest},
		{"delete", http.MethodDelete, "4", ``, func(h *HandlerSet) http.HandlerFunc { return h.HandleDeleteStep }, http.StatusOK},
		{"delete bad id", http.MethodDelete, "-1", ``, func(h *HandlerSet) http.HandlerFunc { return h.HandleDeleteStep }, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &fakeOrders{}
			h := newTestHandlers(orders)
			req := withURLParam(httptest.NewRequest(tt.method, "/processing_steps/"+tt.id, strings.NewReader(tt.body)), "stepID", tt.id)
			w := httptest.NewRecorder()

			tt.handler(h)(w, authed(req, 2))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandleDeleteStepRecordsID(t *testing.T) {
	orders := &fakeOrders{}
	h := newTestHandlers(orders)
	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/processing_steps/8", nil), "stepID", "8")
	w := httptest.NewRecorder()

	h.HandleDeleteStep(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{8}, orders.deleted)
	assert.JSONEq(t, `{"message":"Processing step 8 deleted"}`, w.Body.String())
}

// The cases below are rejected before the store is reached, so the
// handlers run without a database.
func TestOperationsValidation(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		params     map[string]string
		handler    func(h *HandlerSet) http.HandlerFunc
		wantStatus int
	}{
		{
			name: "steps bad order filter", method: http.MethodGet, target: "/processing_steps?laundry_service_id=x",
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleListSteps }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "steps bad step type", method: http.MethodGet, target: "/processing_steps?step_type=secado",
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleListSteps }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "deliveries bad status", method: http.MethodGet, target: "/laundry_deliveries?status=LOST",
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleListDeliveries }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "deliveries bad from", method: http.MethodGet, target: "/laundry_deliveries?from=yesterday",
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleListDeliveries }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "delivery without schedule", method: http.MethodPost, target: "/laundry_deliveries", body: `{"laundry_service_id":1}`,
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleCreateDelivery }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "delivery without order", method: http.MethodPost, target: "/laundry_deliveries", body: `{"scheduled_delivery_at":"2026-01-02T10:00:00Z"}`,
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleCreateDelivery }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "delivery status missing", method: http.MethodPatch, target: "/laundry_deliveries/1/update_status", body: `{}`,
			params:  map[string]string{"deliveryID": "1"},
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleUpdateDeliveryStatus }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "delivery status invalid", method: http.MethodPatch, target: "/laundry_deliveries/1/update_status", body: `{"status":"LOST"}`,
			params:  map[string]string{"deliveryID": "1"},
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleUpdateDeliveryStatus }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "task without description", method: http.MethodPost, target: "/tasks", body: `{"user_id":1,"description":"  "}`,
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleCreateTask }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "task without user", method: http.MethodPost, target: "/tasks", body: `{"description":"fold"}`,
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleCreateTask }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "task view bad id", method: http.MethodPost, target: "/tasks/x/views",
			params:  map[string]string{"taskID": "x"},
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleRecordTaskView }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "menu without path", method: http.MethodPost, target: "/menus", body: `{"label":"Queue"}`,
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleCreateMenu }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "menu own parent", method: http.MethodPatch, target: "/menus/3", body: `{"parent_id":3}`,
			params:  map[string]string{"menuID": "3"},
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleUpdateMenu }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "menu role without role", method: http.MethodPost, target: "/menus/3/roles", body: `{}`,
			params:  map[string]string{"menuID": "3"},
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleAssignMenuRole }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "category without name", method: http.MethodPost, target: "/transaction-categories", body: `{"category_name":""}`,
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleCreateCategory }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "phone without number", method: http.MethodPost, target: "/clients/1/phones", body: `{"description":"work"}`,
			params:  map[string]string{"clientID": "1"},
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleCreatePhone }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "phone bad id", method: http.MethodPatch, target: "/clients/1/phones/x", body: `{}`,
			params:  map[string]string{"clientID": "1", "phoneID": "x"},
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleUpdatePhone }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "address blank text", method: http.MethodPatch, target: "/clients/1/addresses/2", body: `{"address_text":" "}`,
			params:  map[string]string{"clientID": "1", "addressID": "2"},
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleUpdateAddress }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "change another user's password", method: http.MethodPut, target: "/users/9/change-password",
			body:    `{"old_password":"a","new_password":"b"}`,
			params:  map[string]string{"userID": "9"},
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleChangePassword }, wantStatus: http.StatusForbidden,
		},
		{
			name: "change password without old", method: http.MethodPut, target: "/users/1/change-password",
			body:    `{"new_password":"b"}`,
			params:  map[string]string{"userID": "1"},
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleChangePassword }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "compact bad sort mode", method: http.MethodGet, target: "/laundry_services/compact?sort_mode=random",
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleListCompactOrders }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "compact bad sort dir", method: http.MethodGet, target: "/laundry_services/compact?sort_dir=up",
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleListCompactOrders }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "compact bad status", method: http.MethodGet, target: "/laundry_services/compact?status=LOST",
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleListCompactOrders }, wantStatus: http.StatusBadRequest,
		},
		{
			name: "compact bad client", method: http.MethodGet, target: "/laundry_services/compact?client_id=0",
			handler: func(h *HandlerSet) http.HandlerFunc { return h.HandleListCompactOrders }, wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(&fakeOrders{})
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.params != nil {
				req = withURLParams(req, tt.params)
			}
			w := httptest.NewRecorder()

			tt.handler(h)(w, authed(req, 1))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
