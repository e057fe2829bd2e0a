package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func init() {
	// неизвестные поля в JSON - ошибка 400
	binding.EnableDecoderDisallowUnknownFields = true
}

type Handlers struct {
	Matching   *MatchingHandler
	Candidates *CandidateHandler
	RawData    *RawDataHandler
	System     *SystemHandler
}

// Register вешает все маршруты под /api.
func Register(r gin.IRouter, h Handlers) {
	api := r.Group("/api")

	api.GET("/health", h.System.Health)
	api.GET("/system/stats", h.System.Stats)

	matching := api.Group("/matching")
	{
		matching.GET("/next", h.Matching.GetNext)
		matching.POST("/assign", h.Matching.Assign)
		matching.POST("/batch-assign", h.Matching.BatchAssign)
		matching.POST("/complete", h.Matching.Complete)
		matching.POST("/release", h.Matching.Release)
		matching.GET("/job-titles", h.Matching.JobTitles)
		matching.GET("/hospitals", h.Matching.Hospitals)
		matching.GET("/stats", h.Matching.Stats)
		matching.GET("/stats/export", h.Matching.ExportStats)
	}

	phones := api.Group("/phones")
	{
		phones.GET("", h.Candidates.ListPhones)
		phones.GET("/stats", h.Candidates.PhoneStats)
		phones.POST("", h.Candidates.CreatePhone)
	}

	emails := api.Group("/emails")
	{
		emails.GET("", h.Candidates.ListEmails)
		emails.GET("/stats", h.Candidates.EmailStats)
		emails.POST("", h.Candidates.CreateEmail)
	}

	rawData := api.Group("/raw-data")
	{
		rawData.GET("", h.RawData.List)
		rawData.GET("/:id", h.RawData.Get)
	}
}
