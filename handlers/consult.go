package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"modu-consult/models"
	"modu-consult/monitoring"
	"modu-consult/utils"
)

// ConsultEventsTopic carries the lifecycle events the consumer fans out to
// email, webhook and Elasticsearch.
const ConsultEventsTopic = "consult_events"

const statsCacheKey = "consult:stats"
const statsCacheTTL = 60 * time.Second

type ConsultHandler struct {
	repo  models.Repository
	kafka utils.KafkaProducer
	cache utils.RedisClient
	es    utils.ElasticsearchClient
	stats StatsConfig
}

// StatsConfig drives GetDailyStats: a fixed head-start added to the live row
// count, the advertised per-day intake quota, and the UTC offset the "today"
// window is computed in.
type StatsConfig struct {
	BaselineTotal    int
	DailyLimit       int
	UTCOffsetMinutes int
}

func NewConsultHandler(repo models.Repository, kafka utils.KafkaProducer, cache utils.RedisClient, es utils.ElasticsearchClient, stats StatsConfig) *ConsultHandler {
	return &ConsultHandler{
		repo:  repo,
		kafka: kafka,
		cache: cache,
		es:    es,
		stats: stats,
	}
}

type ConsultRequest struct {
	Name          string   `json:"name" binding:"required"`
	Phone         string   `json:"phone" binding:"required"`
	Goals         []string `json:"goals" binding:"required,min=1,dive,required"`
	Education     string   `json:"education" binding:"required"`
	ContactMethod string   `json:"contactMethod" binding:"required"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// DailyStats is the public counter widget payload.
type DailyStats struct {
	TotalCount     int                     `json:"totalCount"`
	TodayCount     int                     `json:"todayCount"`
	RemainingToday int                     `json:"remainingToday"`
	TodayConsults  []models.ConsultSummary `json:"todayConsults"`
}

// CreateConsult handles the landing-page form submission. Validation runs
// before any store access; the notification event is published only after
// the insert succeeded and never delays the response.
func (h *ConsultHandler) CreateConsult(c *gin.Context) {
	var req ConsultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "필수 항목을 모두 입력해주세요.",
		})
		return
	}

	consult := &models.Consult{
		Name:          req.Name,
		Phone:         req.Phone,
		Goals:         req.Goals,
		Education:     req.Education,
		ContactMethod: req.ContactMethod,
		Status:        models.StatusPending,
	}

	if err := h.repo.CreateConsult(consult); err != nil {
		log.Printf("Failed to persist consult: %v", err)
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "상담 신청 저장에 실패했습니다.",
		})
		return
	}

	monitoring.ConsultsCreated.Inc()

	if h.kafka != nil {
		go h.sendConsultEvent("consult_created", consult)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "상담 신청이 완료되었습니다.",
		"data":    consult,
	})
}

// ListConsults returns every record, newest first. Admin only.
func (h *ConsultHandler) ListConsults(c *gin.Context) {
	consults, err := h.repo.ListConsults()
	if err != nil {
		log.Printf("Failed to list consults: %v", err)
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "데이터 조회에 실패했습니다.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(consults),
		"data":    consults,
	})
}

func (h *ConsultHandler) GetConsult(c *gin.Context) {
	id, err := parseUint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "잘못된 상담 ID 형식입니다.",
		})
		return
	}

	consult, err := h.repo.GetConsultByID(id)
	if err != nil {
		if err == models.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "해당 상담 내역을 찾을 수 없습니다.",
			})
			return
		}
		log.Printf("Failed to get consult %d: %v", id, err)
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "서버 오류가 발생했습니다.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    consult,
	})
}

// UpdateStatus replaces the status label. The enumeration is checked before
// any store access; a missing id is a store failure, not a no-op.
func (h *ConsultHandler) UpdateStatus(c *gin.Context) {
	id, err := parseUint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "잘못된 상담 ID 형식입니다.",
		})
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "유효하지 않은 상태값입니다.",
		})
		return
	}

	consult, err := h.repo.UpdateConsultStatus(id, req.Status)
	if err != nil {
		log.Printf("Failed to update status of consult %d: %v", id, err)
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "상태 변경에 실패했습니다.",
		})
		return
	}

	if h.kafka != nil {
		go h.sendConsultEvent("consult_status_updated", consult)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "상태가 변경되었습니다.",
		"data":    consult,
	})
}

func (h *ConsultHandler) DeleteConsult(c *gin.Context) {
	id, err := parseUint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "잘못된 상담 ID 형식입니다.",
		})
		return
	}

	if err := h.repo.DeleteConsult(id); err != nil {
		log.Printf("Failed to delete consult %d: %v", id, err)
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "삭제에 실패했습니다.",
		})
		return
	}

	if h.kafka != nil {
		go func(id uint) {
			event := map[string]interface{}{
				"event": "consult_deleted",
				"data":  map[string]interface{}{"id": id},
			}
			h.sendRawConsultEvent(ConsultEventsTopic, event)
		}(id)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "삭제되었습니다.",
	})
}

// GetDailyStats computes the public counters. Statistics are best-effort: a
// failed count or range query degrades the affected figure to zero/empty and
// the response still reports success.
func (h *ConsultHandler) GetDailyStats(c *gin.Context) {
	if h.cache != nil {
		if cached, err := h.cache.GetFromCache(c.Request.Context(), statsCacheKey); err == nil && cached != "" {
			var stats DailyStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
				return
			}
		}
	}

	stats := h.computeDailyStats()

	if h.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := h.cache.SetToCache(c.Request.Context(), statsCacheKey, string(raw), statsCacheTTL); err != nil {
				log.Printf("Failed to cache daily stats: %v", err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

func (h *ConsultHandler) computeDailyStats() DailyStats {
	stats := DailyStats{TodayConsults: []models.ConsultSummary{}}

	total, err := h.repo.CountConsults()
	if err != nil {
		log.Printf("Failed to count consults, reporting baseline only: %v", err)
		total = 0
	}
	stats.TotalCount = h.stats.BaselineTotal + int(total)

	from, to := h.todayWindow(time.Now())
	today, err := h.repo.ListConsultsCreatedBetween(from, to)
	if err != nil {
		log.Printf("Failed to list today's consults, reporting empty: %v", err)
		today = nil
	}

	stats.TodayCount = len(today)
	for i := range today {
		stats.TodayConsults = append(stats.TodayConsults, today[i].Summary())
	}

	remaining := h.stats.DailyLimit - stats.TodayCount
	if remaining < 0 {
		remaining = 0
	}
	stats.RemainingToday = remaining

	return stats
}

// todayWindow returns the [start, end) bounds of the current calendar day in
// the configured fixed-offset zone.
func (h *ConsultHandler) todayWindow(now time.Time) (time.Time, time.Time) {
	zone := time.FixedZone("stats", h.stats.UTCOffsetMinutes*60)
	local := now.In(zone)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, zone)
	return start, start.Add(24 * time.Hour)
}

// SearchConsults runs an Elasticsearch match query over the indexed records.
// Admin only; unavailable when no Elasticsearch endpoint is configured.
func (h *ConsultHandler) SearchConsults(c *gin.Context) {
	if h.es == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "검색 기능을 사용할 수 없습니다.",
		})
		return
	}

	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "검색어를 입력해주세요.",
		})
		return
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q,
				"fields": []string{"name", "phone", "goals", "education"},
			},
		},
	}

	results, err := h.es.SearchConsults(c.Request.Context(), "consults", query)
	if err != nil {
		log.Printf("Failed to search consults: %v", err)
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "검색에 실패했습니다.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(results),
		"data":    results,
	})
}

// Helpers

func (h *ConsultHandler) sendConsultEvent(eventType string, consult *models.Consult) {
	event := map[string]interface{}{
		"event": eventType,
		"data":  consult,
	}
	h.sendRawConsultEvent(ConsultEventsTopic, event)
}

func (h *ConsultHandler) sendRawConsultEvent(topic string, event interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	jsonData, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal Kafka event: %v", err)
		return
	}

	if err := h.kafka.SendMessage(ctx, topic, nil, jsonData); err != nil {
		log.Printf("Failed to send Kafka message: %v", err)
	}
}

func parseUint(s string) (uint, error) {
	var id uint
	_, err := fmt.Sscanf(s, "%d", &id)
	return id, err
}
