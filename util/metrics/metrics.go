// Package metrics collects the blog's Prometheus metrics and serves them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the blog's collectors. A nil *Collector records nothing.
type Collector struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RateLimitHits       prometheus.Counter
	FailedLoginAttempts *prometheus.CounterVec
	MailSendTotal       *prometheus.CounterVec
	PostsCreated        prometheus.Counter
	CommentsCreated     prometheus.Counter
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blog_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		FailedLoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_failed_login_attempts_total",
			Help: "Failed login attempts by reason.",
		}, []string{"reason"}),
		MailSendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_mail_send_total",
			Help: "Contact notifications sent by channel and result.",
		}, []string{"channel", "result"}),
		PostsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_posts_created_total",
			Help: "Posts created since start.",
		}),
		CommentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_comments_created_total",
			Help: "Comments created since start.",
		}),
	}

	reg.MustRegister(
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
		c.RateLimitHits,
		c.FailedLoginAttempts,
		c.MailSendTotal,
		c.PostsCreated,
		c.CommentsCreated,
	)
	return c
}

// ObserveRequest records one finished HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) RecordRateLimitHit() {
	if c == nil {
		return
	}
	c.RateLimitHits.Inc()
}

func (c *Collector) RecordFailedLogin(reason string) {
	if c == nil {
		return
	}
	c.FailedLoginAttempts.WithLabelValues(reason).Inc()
}

// RecordMail records a delivery attempt on channel; err == nil counts as success.
func (c *Collector) RecordMail(channel string, err error) {
	if c == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.MailSendTotal.WithLabelValues(channel, result).Inc()
}

func (c *Collector) RecordPostCreated() {
	if c == nil {
		return
	}
	c.PostsCreated.Inc()
}

func (c *Collector) RecordCommentCreated() {
	if c == nil {
		return
	}
	c.CommentsCreated.Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
