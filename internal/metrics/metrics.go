// Package metrics 提供 Prometheus 指标的采集与暴露。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 浏览记录结果
const (
	ViewNew       = "new"
	ViewDuplicate = "duplicate"
	ViewAnonymous = "anonymous"
)

// 点赞切换结果
const (
	LikeLiked   = "liked"
	LikeUnliked = "unliked"
)

// Recorder 由 services 层调用的指标接口
type Recorder interface {
	ObserveView(outcome string)
	ObserveLike(outcome string)
	ObserveConflict(kind string)
	ObserveIdentity(kind string)
	ObserveHTTP(route string, status int)
}

// Collector 是 Recorder 的 Prometheus 实现
type Collector struct {
	views      *prometheus.CounterVec
	likes      *prometheus.CounterVec
	conflicts  *prometheus.CounterVec
	identities *prometheus.CounterVec
	requests   *prometheus.CounterVec
}

// NewCollector 创建 Collector 并注册到 reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		views: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postpulse_views_total",
			Help: "View requests by outcome (new, duplicate, anonymous).",
		}, []string{"outcome"}),
		likes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postpulse_like_toggles_total",
			Help: "Like toggles by resulting state.",
		}, []string{"outcome"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postpulse_store_conflicts_total",
			Help: "Concurrent writes recovered locally, by engagement kind.",
		}, []string{"kind"}),
		identities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postpulse_identity_resolved_total",
			Help: "Resolved visitor identities by signal kind.",
		}, []string{"kind"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postpulse_http_requests_total",
			Help: "HTTP responses by route and status code.",
		}, []string{"route", "status_code"}),
	}

	reg.MustRegister(c.views, c.likes, c.conflicts, c.identities, c.requests)
	return c
}

func (c *Collector) ObserveView(outcome string) {
	c.views.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveLike(outcome string) {
	c.likes.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveConflict(kind string) {
	c.conflicts.WithLabelValues(kind).Inc()
}

func (c *Collector) ObserveIdentity(kind string) {
	c.identities.WithLabelValues(kind).Inc()
}

func (c *Collector) ObserveHTTP(route string, status int) {
	c.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Nop 丢弃所有指标，测试和未启用指标时使用
type Nop struct{}

func (Nop) ObserveView(string)      {}
func (Nop) ObserveLike(string)      {}
func (Nop) ObserveConflict(string)  {}
func (Nop) ObserveIdentity(string)  {}
func (Nop) ObserveHTTP(string, int) {}

// Handler 返回 /metrics 的抓取处理器
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
