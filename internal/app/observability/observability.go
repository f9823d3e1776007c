package observability

import (
	"database/sql"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"mockexam/internal/exam"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type key struct {
	Method string
	Path   string
	Status int
}

type stat struct {
	Count     int64
	LatencyMS float64
}

type scoreStat struct {
	Attempts  int64
	Correct   int64
	Questions int64
}

type Collector struct {
	db  *sql.DB
	log logrus.FieldLogger

	mu           sync.RWMutex
	requestStats map[key]stat
	scoreStats   map[string]scoreStat
	startedAt    time.Time
}

// NewCollector tracks request and scoring metrics. db may be nil when the
// service runs on in-memory stores.
func NewCollector(db *sql.DB, log logrus.FieldLogger) *Collector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Collector{
		db:           db,
		log:          log,
		requestStats: make(map[key]stat),
		scoreStats:   make(map[string]scoreStat),
		startedAt:    time.Now(),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		latencyMS := float64(time.Since(start).Microseconds()) / 1000.0
		path := normalizedPath(r.URL.Path)

		c.mu.Lock()
		k := key{Method: r.Method, Path: path, Status: rec.status}
		s := c.requestStats[k]
		s.Count++
		s.LatencyMS += latencyMS
		c.requestStats[k] = s
		c.mu.Unlock()

		fields := logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       path,
			"status":     rec.status,
			"latency_ms": latencyMS,
			"remote_ip":  strings.TrimSpace(r.RemoteAddr),
		}
		if id := extractAttemptID(r.URL.Path); id != uuid.Nil {
			fields["attempt_id"] = id.String()
		}
		entry := c.log.WithFields(fields)
		if rec.status >= http.StatusInternalServerError {
			entry.Error("request failed")
			return
		}
		entry.Info("request")
	})
}

// ObserveScore records a submitted attempt's totals per exam.
func (c *Collector) ObserveScore(examSlug string, report exam.ScoreReport) {
	c.mu.Lock()
	s := c.scoreStats[examSlug]
	s.Attempts++
	s.Correct += int64(report.Correct)
	s.Questions += int64(report.Total)
	c.scoreStats[examSlug] = s
	c.mu.Unlock()
}

func (c *Collector) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	statsCopy := make(map[key]stat, len(c.requestStats))
	for k, v := range c.requestStats {
		statsCopy[k] = v
	}
	scoresCopy := make(map[string]scoreStat, len(c.scoreStats))
	for k, v := range c.scoreStats {
		scoresCopy[k] = v
	}
	startedAt := c.startedAt
	c.mu.RUnlock()

	keys := make([]key, 0, len(statsCopy))
	for k := range statsCopy {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Method != keys[j].Method {
			return keys[i].Method < keys[j].Method
		}
		if keys[i].Path != keys[j].Path {
			return keys[i].Path < keys[j].Path
		}
		return keys[i].Status < keys[j].Status
	})

	var sb strings.Builder
	sb.WriteString("# mockexam observability metrics\n")
	sb.WriteString("# TYPE mockexam_uptime_seconds gauge\n")
	sb.WriteString(fmt.Sprintf("mockexam_uptime_seconds %.0f\n", time.Since(startedAt).Seconds()))

	sb.WriteString("# TYPE mockexam_http_requests_total counter\n")
	sb.WriteString("# TYPE mockexam_http_request_latency_ms_sum counter\n")
	sb.WriteString("# TYPE mockexam_http_request_latency_ms_avg gauge\n")
	for _, k := range keys {
		s := statsCopy[k]
		labels := fmt.Sprintf("method=\"%s\",path=\"%s\",status=\"%d\"", k.Method, k.Path, k.Status)
		sb.WriteString(fmt.Sprintf("mockexam_http_requests_total{%s} %d\n", labels, s.Count))
		sb.WriteString(fmt.Sprintf("mockexam_http_request_latency_ms_sum{%s} %.3f\n", labels, s.LatencyMS))
		avg := 0.0
		if s.Count > 0 {
			avg = s.LatencyMS / float64(s.Count)
		}
		sb.WriteString(fmt.Sprintf("mockexam_http_request_latency_ms_avg{%s} %.3f\n", labels, avg))
	}

	slugs := make([]string, 0, len(scoresCopy))
	for slug := range scoresCopy {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	sb.WriteString("# TYPE mockexam_attempts_scored_total counter\n")
	sb.WriteString("# TYPE mockexam_answers_correct_total counter\n")
	sb.WriteString("# TYPE mockexam_questions_scored_total counter\n")
	for _, slug := range slugs {
		s := scoresCopy[slug]
		label := fmt.Sprintf("exam=%q", slug)
		sb.WriteString(fmt.Sprintf("mockexam_attempts_scored_total{%s} %d\n", label, s.Attempts))
		sb.WriteString(fmt.Sprintf("mockexam_answers_correct_total{%s} %d\n", label, s.Correct))
		sb.WriteString(fmt.Sprintf("mockexam_questions_scored_total{%s} %d\n", label, s.Questions))
	}

	if c.db != nil {
		dbs := c.db.Stats()
		sb.WriteString("# TYPE mockexam_db_open_connections gauge\n")
		sb.WriteString(fmt.Sprintf("mockexam_db_open_connections %d\n", dbs.OpenConnections))
		sb.WriteString("# TYPE mockexam_db_in_use_connections gauge\n")
		sb.WriteString(fmt.Sprintf("mockexam_db_in_use_connections %d\n", dbs.InUse))
		sb.WriteString("# TYPE mockexam_db_idle_connections gauge\n")
		sb.WriteString(fmt.Sprintf("mockexam_db_idle_connections %d\n", dbs.Idle))
		sb.WriteString("# TYPE mockexam_db_wait_count counter\n")
		sb.WriteString(fmt.Sprintf("mockexam_db_wait_count %d\n", dbs.WaitCount))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sb.String()))
}

// normalizedPath collapses numeric and uuid segments so that metrics keep one
// series per route.
func normalizedPath(path string) string {
	if path == "" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = "{id}"
			continue
		}
		if _, err := uuid.Parse(p); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func extractAttemptID(path string) uuid.UUID {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "attempts" {
			if id, err := uuid.Parse(parts[i+1]); err == nil {
				return id
			}
		}
	}
	return uuid.Nil
}
