package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	inventorydomain "github.com/smallbiznis/rentalops/internal/inventory/domain"
	"github.com/smallbiznis/rentalops/pkg/db/pagination"
)

type draftInventoryRequest struct {
	AuthorID *string `json:"author_id"`
}

func (s *Server) GetOrCreateDraftInventory(c *gin.Context) {
	var body draftInventoryRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.inventorySvc.GetOrCreateDraft(c.Request.Context(), inventorydomain.DraftRequest{
		ParkID:   strings.TrimSpace(c.Param("id")),
		AuthorID: actorID(c, body.AuthorID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListParkInventories(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.inventorySvc.ListByPark(c.Request.Context(), inventorydomain.ListRequest{
		ParkID:     strings.TrimSpace(c.Param("id")),
		Pagination: query,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInventoryByID(c *gin.Context) {
	resp, err := s.inventorySvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInventoryQuantities(c *gin.Context) {
	var quantities []inventorydomain.QuantityInput
	if err := c.ShouldBindJSON(&quantities); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.inventorySvc.UpdateQuantities(c.Request.Context(), inventorydomain.UpdateQuantitiesRequest{
		ID:         strings.TrimSpace(c.Param("id")),
		Quantities: quantities,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TerminateInventory(c *gin.Context) {
	resp, err := s.inventorySvc.Terminate(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteDraftInventory(c *gin.Context) {
	if err := s.inventorySvc.DeleteDraft(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
