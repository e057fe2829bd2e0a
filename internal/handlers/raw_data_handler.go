package handlers

import (
	"net/http"
	"strconv"

	"orubacontacts/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RawDataHandler struct {
	service service.RawRecordService
	log     *zap.Logger
}

func NewRawDataHandler(service service.RawRecordService, log *zap.Logger) *RawDataHandler {
	return &RawDataHandler{service: service, log: log}
}

func (h *RawDataHandler) List(c *gin.Context) {
	page := 1
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	limit := 50 // значение по умолчанию
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}

	records, err := h.service.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch raw data")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *RawDataHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch raw data")
		return
	}
	c.JSON(http.StatusOK, record)
}
