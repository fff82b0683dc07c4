package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peopledesk/mailbridge/config"
)

// HealthCheck provides a simple health check endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Status reports the configured mail endpoints. Credentials are never
// part of server configuration, so nothing sensitive is exposed here.
func Status(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"imap": gin.H{
				"host":          cfg.IMAP.Host,
				"port":          cfg.IMAP.Port,
				"tlsSkipVerify": cfg.IMAP.TLSSkipVerify,
			},
			"smtp": gin.H{
				"host":          cfg.SMTP.Host,
				"port":          cfg.SMTP.Port,
				"tlsSkipVerify": cfg.SMTP.TLSSkipVerify,
			},
		})
	}
}
