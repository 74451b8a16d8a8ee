package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	degressiveratedomain "github.com/smallbiznis/rentalops/internal/degressiverate/domain"
)

func (s *Server) CreateDegressiveRate(c *gin.Context) {
	var req degressiveratedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.degressiveRateSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateDegressiveRate(c *gin.Context) {
	var req degressiveratedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.degressiveRateSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListDegressiveRates(c *gin.Context) {
	query, _, err := bindListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.degressiveRateSvc.List(c.Request.Context(), degressiveratedomain.ListRequest{
		SortBy:  query.SortBy,
		OrderBy: query.OrderBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDegressiveRateByID(c *gin.Context) {
	resp, err := s.degressiveRateSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteDegressiveRate(c *gin.Context) {
	if err := s.degressiveRateSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ComputeDegressiveRate(c *gin.Context) {
	days, err := parseRequiredInt(c.Query("days"))
	if err != nil {
		AbortWithError(c, newValidationError("days", "invalid_days", "days must be an integer"))
		return
	}

	resp, err := s.degressiveRateSvc.Compute(c.Request.Context(), strings.TrimSpace(c.Param("id")), days)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
