package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"orubacontacts/internal/apperrors"
	"orubacontacts/internal/models"
	"orubacontacts/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type MatchingHandler struct {
	service service.MatchingService
	log     *zap.Logger
}

func NewMatchingHandler(service service.MatchingService, log *zap.Logger) *MatchingHandler {
	return &MatchingHandler{service: service, log: log}
}

type assignRequest struct {
	Username   string `json:"username"`
	PhoneID    string `json:"phoneId" binding:"omitempty,uuid"`
	EmailID    string `json:"emailId" binding:"omitempty,uuid"`
	FirstName  string `json:"firstName" binding:"max=100"`
	LastName   string `json:"lastName" binding:"max=100"`
	JobTitleID string `json:"jobTitleId" binding:"omitempty,uuid"`
	HospitalID string `json:"hospitalId" binding:"omitempty,uuid"`
	Notes      string `json:"notes"`
}

type contactGroupRequest struct {
	FirstName  string   `json:"firstName" binding:"max=100"`
	LastName   string   `json:"lastName" binding:"max=100"`
	JobTitleID string   `json:"jobTitleId" binding:"omitempty,uuid"`
	HospitalID string   `json:"hospitalId" binding:"omitempty,uuid"`
	Notes      string   `json:"notes"`
	PhoneIDs   []string `json:"phoneIds" binding:"dive,uuid"`
	EmailIDs   []string `json:"emailIds" binding:"dive,uuid"`
}

type batchAssignRequest struct {
	Username  string                `json:"username"`
	RawDataID string                `json:"rawDataId" binding:"omitempty,uuid"`
	Contacts  []contactGroupRequest `json:"contacts" binding:"dive"`
}

type recordRequest struct {
	RawDataID string `json:"rawDataId" binding:"omitempty,uuid"`
	Username  string `json:"username"`
}

// GetNext выдает следующую свободную запись и блокирует ее за оператором.
func (h *MatchingHandler) GetNext(c *gin.Context) {
	record, err := h.service.ClaimNext(c.Request.Context(), c.Query("username"))
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"message":     "No unmatched records found",
			"allComplete": true,
		})
		return
	}
	if err != nil {
		respondError(c, h.log, err, "Failed to get next unmatched record")
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *MatchingHandler) Assign(c *gin.Context) {
	var req assignRequest
	if !bindJSON(c, &req) {
		return
	}

	contact, err := h.service.AssignOne(c.Request.Context(), service.AssignRequest{
		Operator: req.Username,
		PhoneID:  req.PhoneID,
		EmailID:  req.EmailID,
		Contact: service.ContactFields{
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			JobTitleID: req.JobTitleID,
			HospitalID: req.HospitalID,
			Notes:      req.Notes,
		},
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to assign contact")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"contact": contact,
		"message": "Contact created and assigned successfully",
	})
}

func (h *MatchingHandler) BatchAssign(c *gin.Context) {
	var req batchAssignRequest
	if !bindJSON(c, &req) {
		return
	}

	groups := make([]service.ContactGroup, 0, len(req.Contacts))
	for _, g := range req.Contacts {
		groups = append(groups, service.ContactGroup{
			ContactFields: service.ContactFields{
				FirstName:  g.FirstName,
				LastName:   g.LastName,
				JobTitleID: g.JobTitleID,
				HospitalID: g.HospitalID,
				Notes:      g.Notes,
			},
			PhoneIDs: g.PhoneIDs,
			EmailIDs: g.EmailIDs,
		})
	}

	result, err := h.service.BatchAssign(c.Request.Context(), service.BatchAssignRequest{
		Operator:    req.Username,
		RawRecordID: req.RawDataID,
		Contacts:    groups,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to create contacts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"contacts":   result.Contacts,
		"allMatched": result.AllMatched,
		"message":    fmt.Sprintf("%d contacts created successfully", len(result.Contacts)),
	})
}

func (h *MatchingHandler) Complete(c *gin.Context) {
	var req recordRequest
	if !bindJSON(c, &req) {
		return
	}

	record, err := h.service.CompleteMatching(c.Request.Context(), req.RawDataID, req.Username)
	if err != nil {
		respondError(c, h.log, err, "Failed to complete matching")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Matching completed successfully",
		"rawData": record,
	})
}

func (h *MatchingHandler) Release(c *gin.Context) {
	var req recordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.ReleaseLock(c.Request.Context(), req.RawDataID, req.Username); err != nil {
		respondError(c, h.log, err, "Failed to release lock")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Lock released successfully",
	})
}

func (h *MatchingHandler) JobTitles(c *gin.Context) {
	titles, err := h.service.JobTitles(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to get job titles")
		return
	}
	if titles == nil {
		titles = []models.JobTitle{}
	}

	c.JSON(http.StatusOK, gin.H{"jobTitles": titles})
}

func (h *MatchingHandler) Hospitals(c *gin.Context) {
	hospitals, err := h.service.Hospitals(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, h.log, err, "Failed to get hospitals")
		return
	}
	if hospitals == nil {
		hospitals = []models.HospitalReference{}
	}

	c.JSON(http.StatusOK, gin.H{"hospitals": hospitals})
}

func (h *MatchingHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to get matching stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportStats отдает ту же статистику файлом xlsx.
func (h *MatchingHandler) ExportStats(c *gin.Context) {
	content, err := h.service.StatsWorkbook(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to export matching stats")
		return
	}

	filename := fmt.Sprintf("matching-stats-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, content)
}
