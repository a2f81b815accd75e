package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/partdesk/internal/catalog/domain"
)

func (s *Server) TriggerCatalogSync(c *gin.Context) {
	result, err := s.catalogSvc.Sync(c.Request.Context(), catalogdomain.TriggerManual)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) CacheStats(c *gin.Context) {
	stats, err := s.catalogSvc.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}
