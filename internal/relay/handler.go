package relay

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	reg *Registry
}

func NewHandler(reg *Registry) *Handler {
	return &Handler{reg: reg}
}

// RoomResponse 房间人数查询结果
type RoomResponse struct {
	RoomID string `json:"roomId"`
	Count  int64  `json:"count"`
	Full   bool   `json:"full"`
}

// GET /rooms/:id
func (h *Handler) Room(c *gin.Context) {
	id := c.Param("id")
	cnt, err := h.reg.Store().Count(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, RoomResponse{RoomID: id, Count: cnt, Full: cnt >= MaxMembers})
}
