package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterSyncRoutes 注册数据同步运维接口
func (r *Router) RegisterSyncRoutes(h *SyncHandler) {
	r.Handle("/sync/status", requireMethod(http.MethodGet, h.GetStatus))
	r.Handle("/sync/info", requireMethod(http.MethodGet, h.GetInfo))
	r.Handle("/sync/manual", requireMethod(http.MethodPost, h.ManualSync))
	r.Handle("/sync/health", requireMethod(http.MethodGet, h.GetHealth))
	r.Handle("/sync/report/export", requireMethod(http.MethodGet, h.ExportReport))

	r.Handle("/sink/connection", requireMethod(http.MethodGet, h.SinkConnection))
	r.Handle("/sink/test-write", requireMethod(http.MethodPost, h.TestWrite))
}

func requireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next(w, req)
	}
}
