package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/allape/openvhid/vhid"
	"github.com/allape/openvhid/vhid/dispatch"
	"github.com/allape/openvhid/vhid/event"
	"github.com/allape/openvhid/vhid/intent"
	"github.com/gin-gonic/gin"
)

// IntentRequest is the JSON shape of one intent on the control API.
type IntentRequest struct {
	Type   string `json:"type" binding:"required"`
	Code   uint16 `json:"code"`
	DX     int32  `json:"dx"`
	DY     int32  `json:"dy"`
	Amount int32  `json:"amount"`
}

func (r IntentRequest) ToIntent() (intent.Intent, error) {
	switch r.Type {
	case "key_press":
		return intent.KeyPress(r.Code), nil
	case "key_release":
		return intent.KeyRelease(r.Code), nil
	case "button_press":
		return intent.ButtonPress(r.Code), nil
	case "button_release":
		return intent.ButtonRelease(r.Code), nil
	case "pointer_delta":
		return intent.PointerDelta(r.DX, r.DY), nil
	case "scroll_delta":
		return intent.ScrollDelta(r.Amount), nil
	}
	return intent.Intent{}, fmt.Errorf("unknown intent type: %s", r.Type)
}

func SetupAPI(router *gin.Engine, server *vhid.Server) {
	router.GET("/api/status", func(c *gin.Context) {
		suppressing := false
		if server.Coordinator != nil {
			suppressing = server.Coordinator.Suppressing()
		}
		c.JSON(http.StatusOK, gin.H{
			"active":      server.Active(),
			"state":       server.Driver.State().String(),
			"suppressing": suppressing,
		})
	})

	router.POST("/api/activate", func(c *gin.Context) {
		if err := server.Activate(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"active": true})
	})

	router.POST("/api/intents", func(c *gin.Context) {
		var req IntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		it, err := req.ToIntent()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err = server.Submit(it)
		if errors.Is(err, event.ErrUnsupportedCapability) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		} else if errors.Is(err, dispatch.ErrClosed) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	router.POST("/api/shutdown", func(c *gin.Context) {
		server.Shutdown()
		c.JSON(http.StatusOK, gin.H{"active": false})
	})
}
