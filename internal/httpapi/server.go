package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"horse.fit/pulse/internal/db"
	"horse.fit/pulse/internal/globaltime"
	"horse.fit/pulse/internal/scheduler"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	pool   *db.Pool
	sched  *scheduler.Scheduler
	logger zerolog.Logger
	opts   Options
}

type recordItem struct {
	RecordID        int64           `json:"record_id"`
	Source          string          `json:"source"`
	SourceItemID    string          `json:"source_item_id"`
	Title           string          `json:"title"`
	Body            string          `json:"body,omitempty"`
	URL             *string         `json:"url,omitempty"`
	PublishedAt     *time.Time      `json:"published_at,omitempty"`
	IngestedAt      time.Time       `json:"ingested_at"`
	Country         *string         `json:"country,omitempty"`
	Language        *string         `json:"language,omitempty"`
	Sector          *string         `json:"sector,omitempty"`
	EngagementScore float64         `json:"engagement_score"`
	AuthorityScore  float64         `json:"authority_score"`
	TopicID         *string         `json:"topic_id,omitempty"`
	SentimentScore  *float64        `json:"sentiment_score,omitempty"`
	SourceMetadata  json.RawMessage `json:"source_metadata,omitempty"`
}

type topicItem struct {
	TopicID      string          `json:"topic_id"`
	Label        string          `json:"label"`
	Keywords     json.RawMessage `json:"keywords"`
	Description  string          `json:"description,omitempty"`
	PulseScore   float64         `json:"pulse_score"`
	Volume       int             `json:"volume"`
	Velocity     float64         `json:"velocity"`
	Spread       int             `json:"spread"`
	Authority    float64         `json:"authority"`
	Novelty      float64         `json:"novelty"`
	Variance     float64         `json:"variance"`
	SentimentAvg float64         `json:"sentiment_avg"`
	Country      string          `json:"country"`
	Sector       string          `json:"sector"`
	FirstSeen    *time.Time      `json:"first_seen,omitempty"`
	LastUpdated  time.Time       `json:"last_updated"`
	History      json.RawMessage `json:"history,omitempty"`
}

// NewServer builds the API server. sched may be nil when running without the
// job loop, in which case the trigger endpoint is unavailable.
func NewServer(pool *db.Pool, sched *scheduler.Scheduler, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8095
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		pool:   pool,
		sched:  sched,
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/health/simple", s.handleHealthSimple)
	api.GET("/stats", s.handleStats)
	api.GET("/records", s.handleRecords)
	api.GET("/records/:record_id", s.handleRecordDetail)
	api.GET("/topics", s.handleTopics)
	api.POST("/scrape/trigger", s.handleScrapeTrigger)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("pulse api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("pulse api server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.pool.QueryStats(c.Request().Context(), globaltime.UTC())
	if err != nil {
		s.logger.Error().Err(err).Msg("query stats failed")
		return internalError(c, "Failed to load stats")
	}

	topicCount, err := s.pool.CountTopics(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("count topics failed")
		return internalError(c, "Failed to load stats")
	}

	return success(c, map[string]any{
		"records": stats,
		"topics":  topicCount,
	})
}

func (s *Server) handleRecords(c echo.Context) error {
	page, err := parsePositiveInt(c.QueryParam("page"), 1, 1, 1_000_000)
	if err != nil {
		return failValidation(c, map[string]string{"page": err.Error()})
	}

	pageSize, err := parsePositiveInt(c.QueryParam("page_size"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return failValidation(c, map[string]string{"page_size": err.Error()})
	}

	from, err := parseTimeFilter(c.QueryParam("from"), false)
	if err != nil {
		return failValidation(c, map[string]string{"from": "must be RFC3339 or YYYY-MM-DD"})
	}
	to, err := parseTimeFilter(c.QueryParam("to"), true)
	if err != nil {
		return failValidation(c, map[string]string{"to": "must be RFC3339 or YYYY-MM-DD"})
	}
	if from != nil && to != nil && from.After(*to) {
		return failValidation(c, map[string]string{"time_range": "from must be <= to"})
	}

	filters := db.RecordFilters{
		Source:   strings.TrimSpace(strings.ToLower(c.QueryParam("source"))),
		Language: strings.TrimSpace(strings.ToLower(c.QueryParam("language"))),
		Country:  strings.TrimSpace(strings.ToUpper(c.QueryParam("country"))),
		Query:    strings.TrimSpace(c.QueryParam("q")),
		From:     from,
		To:       to,
	}

	total, err := s.pool.CountRecords(c.Request().Context(), filters)
	if err != nil {
		s.logger.Error().Err(err).Msg("count records failed")
		return internalError(c, "Failed to load records")
	}

	offset := (page - 1) * pageSize
	records, err := s.pool.ListRecords(c.Request().Context(), filters, pageSize, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("query records failed")
		return internalError(c, "Failed to load records")
	}

	items := make([]recordItem, 0, len(records))
	for _, r := range records {
		items = append(items, toRecordItem(r))
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	return success(c, map[string]any{
		"items": items,
		"pagination": map[string]any{
			"page":        page,
			"page_size":   pageSize,
			"total_items": total,
			"total_pages": totalPages,
		},
		"filters": map[string]any{
			"source":   filters.Source,
			"language": filters.Language,
			"country":  filters.Country,
			"q":        filters.Query,
			"from":     filters.From,
			"to":       filters.To,
		},
	})
}

func (s *Server) handleRecordDetail(c echo.Context) error {
	recordID, err := strconv.ParseInt(strings.TrimSpace(c.Param("record_id")), 10, 64)
	if err != nil || recordID <= 0 {
		return failValidation(c, map[string]string{"record_id": "must be a positive integer"})
	}

	record, err := s.pool.GetRecordByID(c.Request().Context(), recordID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Record not found")
		}
		s.logger.Error().Err(err).Int64("record_id", recordID).Msg("query record failed")
		return internalError(c, "Failed to load record")
	}

	return success(c, toRecordItem(*record))
}

func (s *Server) handleTopics(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), 50, 1, 500)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	topics, err := s.pool.ListTopics(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("query topics failed")
		return internalError(c, "Failed to load topics")
	}

	items := make([]topicItem, 0, len(topics))
	for _, t := range topics {
		items = append(items, topicItem{
			TopicID:      t.TopicID,
			Label:        t.Label,
			Keywords:     t.Keywords,
			Description:  t.Description,
			PulseScore:   t.PulseScore,
			Volume:       t.Volume,
			Velocity:     t.Velocity,
			Spread:       t.Spread,
			Authority:    t.Authority,
			Novelty:      t.Novelty,
			Variance:     t.Variance,
			SentimentAvg: t.SentimentAvg,
			Country:      t.Country,
			Sector:       t.Sector,
			FirstSeen:    t.FirstSeen,
			LastUpdated:  t.LastUpdated,
			History:      t.History,
		})
	}

	return success(c, map[string]any{
		"items": items,
		"limit": limit,
	})
}

// handleScrapeTrigger starts an ingest run in the background. The work
// outlives the request, so it runs on a detached context.
func (s *Server) handleScrapeTrigger(c echo.Context) error {
	if s.sched == nil {
		return fail(c, http.StatusServiceUnavailable, "Scheduler is not running", nil)
	}

	go func() {
		result, err := s.sched.RunIngest(context.Background())
		if err != nil {
			if errors.Is(err, scheduler.ErrJobRunning) {
				s.logger.Warn().Msg("manual ingest skipped, run already in flight")
				return
			}
			s.logger.Error().Err(err).Msg("manual ingest failed")
			return
		}
		s.logger.Info().Int("inserted", result.Inserted).Msg("manual ingest complete")
	}()

	return successWithStatus(c, http.StatusAccepted, map[string]any{
		"triggered": true,
	})
}

func toRecordItem(r db.ContentRecord) recordItem {
	return recordItem{
		RecordID:        r.RecordID,
		Source:          r.Source,
		SourceItemID:    r.SourceItemID,
		Title:           r.Title,
		Body:            r.Body,
		URL:             r.URL,
		PublishedAt:     r.PublishedAt,
		IngestedAt:      r.IngestedAt,
		Country:         r.Country,
		Language:        r.Language,
		Sector:          r.Sector,
		EngagementScore: r.EngagementScore,
		AuthorityScore:  r.AuthorityScore,
		TopicID:         r.TopicID,
		SentimentScore:  r.SentimentScore,
		SourceMetadata:  r.SourceMetadata,
	}
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}

func parseTimeFilter(raw string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	if ts, err := time.Parse(time.RFC3339, trimmed); err == nil {
		utc := ts.UTC()
		return &utc, nil
	}

	if day, err := time.Parse("2006-01-02", trimmed); err == nil {
		utc := day.UTC()
		if endOfDay {
			utc = utc.Add((24 * time.Hour) - time.Nanosecond)
		}
		return &utc, nil
	}

	return nil, fmt.Errorf("invalid time format")
}
