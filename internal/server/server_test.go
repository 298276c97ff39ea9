package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/treadstone/maxtt-billing/internal/clock"
	"github.com/treadstone/maxtt-billing/internal/config"
	"github.com/treadstone/maxtt-billing/internal/document"
	franchiseedomain "github.com/treadstone/maxtt-billing/internal/franchisee/domain"
	franchiseeservice "github.com/treadstone/maxtt-billing/internal/franchisee/service"
	invoicedomain "github.com/treadstone/maxtt-billing/internal/invoice/domain"
	invoiceservice "github.com/treadstone/maxtt-billing/internal/invoice/service"
	"github.com/treadstone/maxtt-billing/internal/vehicle"
)

type stubPDF struct {
	lastPlan document.Plan
}

func (s *stubPDF) RenderInvoice(_ context.Context, plan document.Plan) ([]byte, error) {
	s.lastPlan = plan
	return []byte("%PDF-1.4 stub"), nil
}

func newTestServer(t *testing.T) (*Server, snowflake.ID, *stubPDF) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&franchiseedomain.Profile{}, &invoicedomain.Invoice{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	frID := node.Generate()
	require.NoError(t, db.Create(&franchiseedomain.Profile{
		ID:    frID,
		Name:  "TreadSafe Motors",
		Code:  "FR042",
		State: "Karnataka",
	}).Error)

	holder := config.StaticChartHolder(config.DefaultChartConfig())
	registry, err := vehicle.NewRegistry(holder.Chart())
	require.NoError(t, err)

	log := zap.NewNop()
	invoiceSvc := invoiceservice.NewService(invoiceservice.ServiceParam{
		DB:       db,
		Log:      log,
		GenID:    node,
		Registry: registry,
		Chart:    holder,
		Clock:    clock.NewSystemClock(),
	})
	franchiseeSvc := franchiseeservice.NewService(franchiseeservice.ServiceParam{DB: db, Log: log})

	pdfStub := &stubPDF{}
	srv := NewServer(ServerParams{
		Gin:           NewEngine(log),
		Cfg:           config.Config{},
		DB:            db,
		Log:           log,
		GenID:         node,
		InvoiceSvc:    invoiceSvc,
		FranchiseeSvc: franchiseeSvc,
		PDFProvider:   pdfStub,
	})
	return srv, frID, pdfStub
}

func createPayload(frID snowflake.ID) map[string]any {
	return map[string]any{
		"franchisee_id":  frID,
		"customer_name":  "Asha Patel",
		"vehicle_number": "KA01AB1234",
		"vehicle_type":   "4W",
		"tyre_count":     4,
		"tyre_width_mm":  185,
		"aspect_ratio":   65,
		"rim_diameter_in": 15,
		"fitment": map[string]bool{
			"Front Left": true, "Front Right": true,
			"Rear Left": true, "Rear Right": true,
		},
		"tread_depths_mm": map[string]float64{
			"Front Left": 6, "Front Right": 6.5,
			"Rear Left": 5.5, "Rear Right": 6,
		},
		"tax_mode":              "CGST_SGST",
		"consent_signature_png": "data:image/png;base64,iVBORw0KGgo=",
	}
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateInvoiceEndToEnd(t *testing.T) {
	srv, frID, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/invoices", createPayload(frID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data invoicedomain.Invoice `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2000, resp.Data.DosageMl)
	assert.Equal(t, "KA01AB1234", resp.Data.VehicleNumber)

	got := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/invoices/%s", resp.Data.ID), nil)
	assert.Equal(t, http.StatusOK, got.Code)
}

func TestCreateInvoiceValidationIs400(t *testing.T) {
	srv, frID, _ := newTestServer(t)

	payload := createPayload(frID)
	payload["customer_name"] = ""

	w := doJSON(t, srv, http.MethodPost, "/api/invoices", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
	assert.Contains(t, w.Body.String(), "customer_name")
}

func TestCreateInvoiceWithoutConsentIs409(t *testing.T) {
	srv, frID, _ := newTestServer(t)

	payload := createPayload(frID)
	payload["consent_signature_png"] = ""

	w := doJSON(t, srv, http.MethodPost, "/api/invoices", payload)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "consent_required")
}

func TestCreateInvoiceUnknownClassIs400(t *testing.T) {
	srv, frID, _ := newTestServer(t)

	payload := createPayload(frID)
	payload["vehicle_type"] = "rocket"

	w := doJSON(t, srv, http.MethodPost, "/api/invoices", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetInvoiceNotFoundIs404(t *testing.T) {
	srv, _, _ := newTestServer(t)
	w := doJSON(t, srv, http.MethodGet, "/api/invoices/123456789", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	srv, frID, _ := newTestServer(t)

	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/invoices", createPayload(frID)).Code)
	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/invoices", createPayload(frID)).Code)

	w := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/summary?franchisee_id=%s", frID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data invoicedomain.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Data.InvoiceCount)
	assert.Equal(t, int64(4000), resp.Data.TotalMl)
}

func TestRenderInvoicePDF(t *testing.T) {
	srv, frID, pdfStub := newTestServer(t)

	created := doJSON(t, srv, http.MethodPost, "/api/invoices", createPayload(frID))
	require.Equal(t, http.StatusCreated, created.Code)
	var resp struct {
		Data invoicedomain.Invoice `json:"data"`
	}
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &resp))

	w := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/invoices/%s/pdf", resp.Data.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "FR042-KA-0001-")

	require.NotEmpty(t, pdfStub.lastPlan.Blocks)
	assert.Equal(t, document.BlockHeader, pdfStub.lastPlan.Blocks[0].Kind)
}

func TestGetProfileServesOwnFranchisee(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FR042")
}

func TestListInvoicesQueryFilter(t *testing.T) {
	srv, frID, _ := newTestServer(t)

	created := doJSON(t, srv, http.MethodPost, "/api/invoices", createPayload(frID))
	require.Equal(t, http.StatusCreated, created.Code)

	hit := doJSON(t, srv, http.MethodGet, "/api/invoices?q=KA01", nil)
	require.Equal(t, http.StatusOK, hit.Code)
	assert.Contains(t, hit.Body.String(), "KA01AB1234")

	miss := doJSON(t, srv, http.MethodGet, "/api/invoices?q=TN09", nil)
	require.Equal(t, http.StatusOK, miss.Code)
	assert.NotContains(t, miss.Body.String(), "KA01AB1234")

	bad := doJSON(t, srv, http.MethodGet, "/api/invoices?from=notadate", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestFranchiseeProfileRoundTrip(t *testing.T) {
	srv, frID, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/franchisees/%s", frID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "TreadSafe Motors")

	upd := doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/franchisees/%s", frID), map[string]any{
		"name":  "TreadSafe Motors Pvt Ltd",
		"gstin": "29ABCDE1234F1Z5",
		"state": "Karnataka",
	})
	require.Equal(t, http.StatusOK, upd.Code)
	assert.Contains(t, upd.Body.String(), "Pvt Ltd")
}
