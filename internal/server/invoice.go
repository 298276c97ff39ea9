package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/treadstone/maxtt-billing/internal/document"
	invoicedomain "github.com/treadstone/maxtt-billing/internal/invoice/domain"
)

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if s.submitLimiter.Enabled() {
		allowed, err := s.submitLimiter.AllowFranchisee(c.Request.Context(), req.FranchiseeID.String())
		if err != nil {
			s.log.Warn("rate limiter unavailable, allowing request", zap.Error(err))
		} else if !allowed {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
	}

	inv, err := s.invoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": inv})
}

func (s *Server) ListInvoices(c *gin.Context) {
	filter := invoicedomain.ListFilter{
		VehicleNumber: strings.ToUpper(strings.TrimSpace(c.Query("vehicle_number"))),
		Query:         strings.TrimSpace(c.Query("q")),
	}
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		from, ok := document.ParseFlexible(raw)
		if !ok {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.From = from
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		to, ok := document.ParseFlexible(raw)
		if !ok {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.To = to
	}
	if raw := strings.TrimSpace(c.Query("franchisee_id")); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.FranchiseeID = id
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.Limit = limit
	}

	invoices, err := s.invoiceSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	inv, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": inv})
}

func (s *Server) GetSummary(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Query("franchisee_id")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	sum, err := s.invoiceSvc.Summary(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sum})
}

// RenderInvoicePDF rebuilds the printable document from the stored row. The
// sequence number is positional within the franchisee's ledger, so reprints
// always show the number the customer originally received.
func (s *Server) RenderInvoicePDF(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	inv, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	profile, err := s.franchiseeSvc.GetByID(c.Request.Context(), inv.FranchiseeID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	seq, err := s.invoiceSequence(c, inv)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	code := document.DisplayCode(profile.Code, document.StateAbbr(*profile), seq, inv.CreatedAt)
	plan := document.BuildPlan(document.Input{
		Invoice:     inv,
		Franchisee:  *profile,
		DisplayCode: code,
	})

	data, err := s.pdfProvider.RenderInvoice(c.Request.Context(), plan)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+strings.ReplaceAll(code, "/", "-")+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

func (s *Server) invoiceSequence(c *gin.Context, inv *invoicedomain.Invoice) (int, error) {
	var count int64
	err := s.db.WithContext(c.Request.Context()).
		Model(&invoicedomain.Invoice{}).
		Where("franchisee_id = ? AND id <= ?", inv.FranchiseeID, inv.ID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
