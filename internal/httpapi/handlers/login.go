package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onboardly/onboardly/internal/common"
)

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login is a development stub, not an authentication layer: it accepts the
// fixed dev credential pair and records the username in a cookie so the
// chat pipeline can attribute safety alerts.
func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	if req.Username != "test" || req.Password != "test" {
		common.Fail(c, http.StatusUnauthorized, 40101, "invalid username or password")
		return
	}

	c.SetCookie("username", req.Username, 86400, "/", "", false, false)
	common.Ok(c, gin.H{"username": req.Username})
}

// Ping is the liveness probe.
func (h *Handler) Ping(c *gin.Context) {
	common.Ok(c, gin.H{"status": "up"})
}
