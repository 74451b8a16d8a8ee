package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	settingdomain "github.com/smallbiznis/rentalops/internal/setting/domain"
)

func (s *Server) ListSettings(c *gin.Context) {
	items, err := s.settingSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetSetting(c *gin.Context) {
	resp, err := s.settingSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("key")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetSetting(c *gin.Context) {
	var req settingdomain.SetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Key = strings.TrimSpace(c.Param("key"))

	resp, err := s.settingSvc.Set(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
