package daemon

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/runnerr0/visited/internal/config"
	"github.com/runnerr0/visited/internal/history"
	"github.com/runnerr0/visited/internal/storage"
)

// Message types accepted on /v1/messages.
const (
	MsgGetHistory     = "GET_HISTORY"
	MsgClearCache     = "CLEAR_CACHE"
	MsgLimitCacheSize = "LIMIT_CACHE_SIZE"
	MsgVisited        = "VISITED"
	MsgFilterLinks    = "FILTER_LINKS"
	MsgGetStats       = "GET_STATS"
	MsgResetStats     = "RESET_STATS"
)

// message is the union of every message body; fields unused by a type are
// ignored.
type message struct {
	Type          string   `json:"type"`
	URLs          []string `json:"urls"`
	InheritVisits bool     `json:"inheritVisits"`
	Size          *int     `json:"size"`
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	LastVisitTime *int64   `json:"lastVisitTime"`
	Domain        string   `json:"domain"`
	Links         []string `json:"links"`
}

type visitJSON struct {
	LastVisitTime *int64 `json:"lastVisitTime"`
	VisitCount    int64  `json:"visitCount"`
	ExactMatch    bool   `json:"exactMatch"`
}

type historyJSON struct {
	HistoryMode  history.Mode         `json:"historyMode"`
	HistoryItems map[string]visitJSON `json:"historyItems"`
}

type statsJSON struct {
	CacheSize   int     `json:"cacheSize"`
	AverageMs   float64 `json:"averageMs"`
	SearchCount int64   `json:"searchCount"`
}

type filterJSON struct {
	Domain        string   `json:"domain"`
	InheritVisits bool     `json:"inheritVisits"`
	FilteredLinks []string `json:"filteredLinks"`
}

type messageHandler func(c fiber.Ctx, msg *message, cfg *config.Config) error

func (s *Server) handlers() map[string]messageHandler {
	return map[string]messageHandler{
		MsgGetHistory:     s.getHistory,
		MsgClearCache:     s.clearCache,
		MsgLimitCacheSize: s.limitCacheSize,
		MsgVisited:        s.visited,
		MsgFilterLinks:    s.filterLinks,
		MsgGetStats:       s.getStats,
		MsgResetStats:     s.resetStats,
	}
}

func (s *Server) handleMessage(c fiber.Ctx) error {
	var msg message
	if err := json.Unmarshal(c.Body(), &msg); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if msg.Type == "" {
		return jsonError(c, fiber.StatusBadRequest, "message type is required")
	}

	handle, ok := s.dispatch[msg.Type]
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, fmt.Sprintf("unknown message type %q", msg.Type))
	}
	return handle(c, &msg, s.Config())
}

func (s *Server) getHistory(c fiber.Ctx, msg *message, cfg *config.Config) error {
	ctx := c.Context()

	start := time.Now()
	resp := s.resolver.Resolve(ctx, msg.URLs, cfg.ResolutionOptions(msg.InheritVisits))
	s.timing.RecordDuration(ctx, time.Since(start))

	out := historyJSON{
		HistoryMode:  resp.Mode,
		HistoryItems: make(map[string]visitJSON, len(resp.Items)),
	}
	for url, rec := range resp.Items {
		v := visitJSON{VisitCount: rec.VisitCount, ExactMatch: rec.ExactMatch}
		if !rec.LastVisitTime.IsZero() {
			ms := rec.LastVisitTime.UnixMilli()
			v.LastVisitTime = &ms
		}
		out.HistoryItems[url] = v
	}

	requestLog(c, &s.log).Debug().
		Int("urls", len(msg.URLs)).
		Int("found", len(out.HistoryItems)).
		Str("mode", string(resp.Mode)).
		Msg("history resolved")
	return c.JSON(out)
}

func (s *Server) clearCache(c fiber.Ctx, _ *message, _ *config.Config) error {
	s.resolver.Cache().Clear()
	return c.JSON(fiber.Map{"status": "ok", "cacheSize": 0})
}

func (s *Server) limitCacheSize(c fiber.Ctx, msg *message, _ *config.Config) error {
	if msg.Size == nil {
		return jsonError(c, fiber.StatusBadRequest, "size is required")
	}
	if *msg.Size < 0 {
		return jsonError(c, fiber.StatusBadRequest, "size must not be negative")
	}

	cache := s.resolver.Cache()
	cache.EvictToSize(*msg.Size)
	return c.JSON(fiber.Map{"status": "ok", "cacheSize": cache.Len()})
}

func (s *Server) visited(c fiber.Ctx, msg *message, cfg *config.Config) error {
	if msg.URL == "" {
		return jsonError(c, fiber.StatusBadRequest, "url is required")
	}

	visit := &storage.Visit{URL: msg.URL, Title: msg.Title}
	if msg.LastVisitTime != nil {
		visit.VisitTime = time.UnixMilli(*msg.LastVisitTime)
	}

	ctx := c.Context()
	if err := s.store.AddVisit(ctx, visit); err != nil {
		requestLog(c, &s.log).Error().Err(err).Str("url", msg.URL).Msg("visit can not be recorded")
		return jsonError(c, fiber.StatusInternalServerError, "failed to record visit")
	}

	if cfg.Resolution.UseCache {
		s.resolver.Cache().Update(msg.URL, visit.VisitTime, 1)
	}

	return c.JSON(fiber.Map{"status": "ok", "id": visit.ID})
}

func (s *Server) filterLinks(c fiber.Ctx, msg *message, cfg *config.Config) error {
	rule := cfg.Filters.RuleFor(msg.Domain)
	return c.JSON(filterJSON{
		Domain:        config.NormalizeDomain(msg.Domain),
		InheritVisits: rule.InheritVisits,
		FilteredLinks: config.FilterLinks(msg.Links, rule),
	})
}

func (s *Server) getStats(c fiber.Ctx, _ *message, _ *config.Config) error {
	ctx := c.Context()
	return c.JSON(statsJSON{
		CacheSize:   s.resolver.Cache().Len(),
		AverageMs:   float64(s.timing.Average(ctx)) / float64(time.Millisecond),
		SearchCount: s.timing.Count(ctx),
	})
}

func (s *Server) resetStats(c fiber.Ctx, _ *message, _ *config.Config) error {
	s.timing.Reset(c.Context())
	return c.JSON(fiber.Map{"status": "ok"})
}
