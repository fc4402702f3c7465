// internal/server/router.go
//
// 路由註冊與中介層。handler.go 定義「如何處理請求」，本檔定義「請求如何被導向」。
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// Router 建立完整的 gin 處理鏈。
// 同一組端點同時掛在根路徑與 /api/v1 之下。
func (s *Server) Router() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())

	s.routes(r)
	s.routes(r.Group("/api/v1"))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody{Error: "route not found"})
	})
	return r
}

func (s *Server) routes(g gin.IRoutes) {
	g.GET("/health", s.health)

	g.GET("/accounts", s.listAccounts)
	g.POST("/accounts", s.createAccount)
	g.GET("/accounts/:id", s.getAccount)
	g.GET("/accounts/:id/transactions", s.history)
	g.GET("/accounts/:id/summary", s.summary)
	g.POST("/accounts/:id/deposit", s.deposit)
	g.POST("/accounts/:id/withdraw", s.withdraw)
	g.POST("/accounts/:id/interest", s.interest)
	g.PUT("/accounts/:id/preferences", s.preferences)

	g.POST("/transfers", s.transfer)
	g.POST("/notifications/test", s.testNotification)
}

// requestID 沿用呼叫端帶來的 X-Request-ID，沒有就產生一個，並回寫到回應標頭。
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		)
	}
}
