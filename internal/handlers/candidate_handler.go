package handlers

import (
	"net/http"

	"orubacontacts/internal/repository"
	"orubacontacts/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CandidateHandler struct {
	service service.CandidateService
	log     *zap.Logger
}

func NewCandidateHandler(service service.CandidateService, log *zap.Logger) *CandidateHandler {
	return &CandidateHandler{service: service, log: log}
}

type candidateListQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Search    string `form:"search"`
	RawDataID string `form:"rawDataId"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

func (q candidateListQuery) filter() repository.CandidateFilter {
	return repository.CandidateFilter{
		Page:        q.Page,
		Limit:       q.Limit,
		Search:      q.Search,
		RawRecordID: q.RawDataID,
		SortBy:      q.SortBy,
		SortOrder:   q.SortOrder,
	}
}

type createPhoneRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	RawDataID   string `json:"rawDataId"`
	TrelloTitle string `json:"trelloTitle"`
}

type createEmailRequest struct {
	EmailAddress string `json:"emailAddress"`
	RawDataID    string `json:"rawDataId"`
	TrelloTitle  string `json:"trelloTitle"`
}

func bindListQuery(c *gin.Context) (candidateListQuery, bool) {
	var q candidateListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return q, false
	}
	return q, true
}

func (h *CandidateHandler) ListPhones(c *gin.Context) {
	q, ok := bindListQuery(c)
	if !ok {
		return
	}

	page, err := h.service.ListPhones(c.Request.Context(), q.filter())
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch phones")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *CandidateHandler) ListEmails(c *gin.Context) {
	q, ok := bindListQuery(c)
	if !ok {
		return
	}

	page, err := h.service.ListEmails(c.Request.Context(), q.filter())
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch emails")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *CandidateHandler) PhoneStats(c *gin.Context) {
	stats, err := h.service.PhoneStats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch phone stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *CandidateHandler) EmailStats(c *gin.Context) {
	stats, err := h.service.EmailStats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch email stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CreatePhone: 201 для нового номера, 200 если нормализованный номер уже есть.
func (h *CandidateHandler) CreatePhone(c *gin.Context) {
	var req createPhoneRequest
	if !bindJSON(c, &req) {
		return
	}

	phone, created, err := h.service.CreatePhone(c.Request.Context(), service.CreateCandidateRequest{
		Value:       req.PhoneNumber,
		RawRecordID: req.RawDataID,
		TrelloTitle: req.TrelloTitle,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to create phone")
		return
	}
	c.JSON(createdStatus(created), gin.H{"phone": phone})
}

func (h *CandidateHandler) CreateEmail(c *gin.Context) {
	var req createEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	email, created, err := h.service.CreateEmail(c.Request.Context(), service.CreateCandidateRequest{
		Value:       req.EmailAddress,
		RawRecordID: req.RawDataID,
		TrelloTitle: req.TrelloTitle,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to create email")
		return
	}
	c.JSON(createdStatus(created), gin.H{"email": email})
}

func createdStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
