package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/treadstone/maxtt-billing/internal/auditsnap"
	"github.com/treadstone/maxtt-billing/internal/clock"
	"github.com/treadstone/maxtt-billing/internal/config"
	invoicedomain "github.com/treadstone/maxtt-billing/internal/invoice/domain"
	"github.com/treadstone/maxtt-billing/internal/vehicle"
	"github.com/treadstone/maxtt-billing/internal/workflow"
)

func newTestService(t *testing.T) (*Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&invoicedomain.Invoice{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	holder := config.StaticChartHolder(config.DefaultChartConfig())
	registry, err := vehicle.NewRegistry(holder.Chart())
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Registry: registry,
		Chart:    holder,
		Clock:    clock.NewFakeClock(time.Date(2025, 3, 21, 8, 35, 0, 0, time.UTC)),
	})
	return svc.(*Service), node
}

func validCreateRequest(frID snowflake.ID) invoicedomain.CreateInvoiceRequest {
	return invoicedomain.CreateInvoiceRequest{
		FranchiseeID:  frID,
		CustomerName:  "Asha Patel",
		VehicleNumber: "ka01ab1234",
		VehicleType:   "4W",
		TyreCount:     4,
		TyreWidthMm:   185,
		AspectRatio:   65,
		RimDiameterIn: 15,
		Fitment: map[string]bool{
			"Front Left": true, "Front Right": true,
			"Rear Left": true, "Rear Right": true,
		},
		TreadDepthsMm: map[string]float64{
			"Front Left": 6, "Front Right": 6.5,
			"Rear Left": 5.5, "Rear Right": 6,
		},
		TaxMode:             "CGST_SGST",
		ConsentSignaturePNG: "data:image/png;base64,iVBORw0KGgo=",
	}
}

func TestCreatePersistsComputedInvoice(t *testing.T) {
	svc, node := newTestService(t)
	frID := node.Generate()

	inv, err := svc.Create(context.Background(), validCreateRequest(frID))
	require.NoError(t, err)

	assert.Equal(t, frID, inv.FranchiseeID)
	assert.Equal(t, "KA01AB1234", inv.VehicleNumber)
	assert.Equal(t, "4W", inv.VehicleType)
	assert.Equal(t, 4, inv.TyreCount)
	assert.Equal(t, 2000, inv.DosageMl)
	assert.True(t, inv.TotalBeforeGST.Equal(decimal.NewFromInt(9000)), inv.TotalBeforeGST.String())
	assert.True(t, inv.CGSTAmount.Equal(decimal.NewFromInt(810)), inv.CGSTAmount.String())
	assert.True(t, inv.SGSTAmount.Equal(decimal.NewFromInt(810)), inv.SGSTAmount.String())
	assert.True(t, inv.TotalWithGST.Equal(decimal.NewFromInt(10620)), inv.TotalWithGST.String())
	assert.Equal(t, "3403.19.00", inv.HSNCode)
	assert.Equal(t, "Front Left, Front Right, Rear Left, Rear Right", inv.FitmentLocations)
	assert.InDelta(t, 5.5, inv.TreadDepthMm, 0.001)
	require.NotNil(t, inv.ConsentSignedAt)

	snap := auditsnap.Decode(inv.Remarks)
	require.NotNil(t, snap)
	assert.Equal(t, 500, snap.ComputedPerTyreMl)
	assert.Equal(t, string(workflow.OutlierNone), snap.OutlierLevel)
	require.NotNil(t, snap.Pricing)
	assert.Equal(t, "10620.00", snap.Pricing.GrandTotal)

	got, err := svc.GetByID(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
}

func TestCreateWithoutSignatureIsConsentRequired(t *testing.T) {
	svc, node := newTestService(t)

	req := validCreateRequest(node.Generate())
	req.ConsentSignaturePNG = ""

	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, invoicedomain.ErrConsentRequired)
}

func TestCreateValidationErrorsSurface(t *testing.T) {
	svc, node := newTestService(t)

	req := validCreateRequest(node.Generate())
	req.CustomerName = ""
	req.TreadDepthsMm["Rear Left"] = 0.5

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)

	var verrs workflow.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, ve := range verrs {
		fields = append(fields, ve.Field)
	}
	assert.Contains(t, fields, "customer_name")
	assert.Contains(t, fields, "Rear Left")
}

func TestCreateMismatchNeedsOverride(t *testing.T) {
	svc, node := newTestService(t)

	req := validCreateRequest(node.Generate())
	// Only two positions filled against a selected count of four.
	req.Fitment = map[string]bool{"Rear Left": true, "Rear Right": true}
	req.TreadDepthsMm = map[string]float64{"Rear Left": 6, "Rear Right": 6}

	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, invoicedomain.ErrConfirmationRequired)

	req.OverridePerTyreMl = 475
	req.OverrideReason = "customer declined front tyres"
	req.MismatchReason = "front tyres recently replaced"
	req.MismatchAck = true
	req.DoubleConfirm = true

	inv, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, inv.TyreCount)
	assert.Equal(t, 950, inv.DosageMl)

	snap := auditsnap.Decode(inv.Remarks)
	require.NotNil(t, snap)
	require.NotNil(t, snap.Mismatch)
	assert.Equal(t, 4, snap.Mismatch.SelectedCount)
	assert.Equal(t, 2, snap.Mismatch.ImpliedCount)
	require.NotNil(t, snap.Override)
	assert.Equal(t, 475, snap.Override.ManualPerTyreMl)
}

func TestCreateUnknownVehicleClass(t *testing.T) {
	svc, node := newTestService(t)

	req := validCreateRequest(node.Generate())
	req.VehicleType = "rocket"

	_, err := svc.Create(context.Background(), req)
	assert.Error(t, err)
}

func TestListAndSummary(t *testing.T) {
	svc, node := newTestService(t)
	frID := node.Generate()
	otherID := node.Generate()

	_, err := svc.Create(context.Background(), validCreateRequest(frID))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), validCreateRequest(frID))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), validCreateRequest(otherID))
	require.NoError(t, err)

	invoices, err := svc.List(context.Background(), invoicedomain.ListFilter{FranchiseeID: frID})
	require.NoError(t, err)
	assert.Len(t, invoices, 2)

	limited, err := svc.List(context.Background(), invoicedomain.ListFilter{FranchiseeID: frID, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	byQuery, err := svc.List(context.Background(), invoicedomain.ListFilter{FranchiseeID: frID, Query: "asha"})
	require.NoError(t, err)
	assert.Len(t, byQuery, 2)

	noMatch, err := svc.List(context.Background(), invoicedomain.ListFilter{FranchiseeID: frID, Query: "TN09"})
	require.NoError(t, err)
	assert.Empty(t, noMatch)

	future, err := svc.List(context.Background(), invoicedomain.ListFilter{
		FranchiseeID: frID,
		From:         time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, future)

	sum, err := svc.Summary(context.Background(), frID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.InvoiceCount)
	assert.Equal(t, int64(4000), sum.TotalMl)
	assert.True(t, sum.NetINR.Equal(decimal.NewFromInt(21240)), sum.NetINR.String())
}

func TestGetByIDNotFound(t *testing.T) {
	svc, node := newTestService(t)

	_, err := svc.GetByID(context.Background(), node.Generate())
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
}
