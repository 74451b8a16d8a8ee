package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	parkdomain "github.com/smallbiznis/rentalops/internal/park/domain"
)

func (s *Server) CreatePark(c *gin.Context) {
	var req parkdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.parkSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListParks(c *gin.Context) {
	query, includeArchived, err := bindListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.parkSvc.List(c.Request.Context(), parkdomain.ListRequest{
		IncludeArchived: includeArchived,
		SortBy:          query.SortBy,
		OrderBy:         query.OrderBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetParkByID(c *gin.Context) {
	resp, err := s.parkSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ArchivePark(c *gin.Context) {
	resp, err := s.parkSvc.Archive(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RestorePark(c *gin.Context) {
	resp, err := s.parkSvc.Restore(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
