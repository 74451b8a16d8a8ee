package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/rentalops/internal/billing/domain"
)

type createDocumentRequest struct {
	AuthorID *string `json:"author_id"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	req, err := s.bindCreateDocument(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.billingSvc.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) CreateEstimate(c *gin.Context) {
	req, err := s.bindCreateDocument(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.billingSvc.CreateEstimate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

// bindCreateDocument accepts an empty body.
func (s *Server) bindCreateDocument(c *gin.Context) (billingdomain.CreateRequest, error) {
	var body createDocumentRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		return billingdomain.CreateRequest{}, invalidRequestError()
	}
	return billingdomain.CreateRequest{
		EventID:  strings.TrimSpace(c.Param("id")),
		AuthorID: actorID(c, body.AuthorID),
	}, nil
}

func (s *Server) ListEventInvoices(c *gin.Context) {
	s.listEventDocuments(c, billingdomain.KindInvoice)
}

func (s *Server) ListEventEstimates(c *gin.Context) {
	s.listEventDocuments(c, billingdomain.KindEstimate)
}

func (s *Server) listEventDocuments(c *gin.Context, kind billingdomain.Kind) {
	resp, err := s.billingSvc.ListByEvent(c.Request.Context(), billingdomain.ListRequest{
		EventID: strings.TrimSpace(c.Param("id")),
		Kind:    kind,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDocumentByID(c *gin.Context) {
	resp, err := s.billingSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteEstimate(c *gin.Context) {
	if err := s.billingSvc.DeleteEstimate(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
