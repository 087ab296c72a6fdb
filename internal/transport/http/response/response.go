// Package response holds the JSON shapes shared by every handler.
package response

import "github.com/gin-gonic/gin"

// Error writes the error body every endpoint uses: {"error": "..."}.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
