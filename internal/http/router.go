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

// HandleHandler 支持 http.Handler 接口
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterAdminRoutes 注册管理端路由
func (r *Router) RegisterAdminRoutes(defs *FieldDefinitionsHandler, statuses *LeadStatusesHandler, leads *LeadsHandler) {
	r.HandleHandler(fieldDefinitionsPath, defs)
	r.HandleHandler(fieldDefinitionsPath+"/", defs)

	r.HandleHandler(leadStatusesPath, statuses)

	r.HandleHandler(leadsPath, leads)
	r.HandleHandler(leadsPath+"/", leads)
}

// RegisterFormRoutes 注册表单会话路由
func (r *Router) RegisterFormRoutes(sessions *FormSessionHandler) {
	r.HandleHandler(leadSessionsPath, sessions)
	r.HandleHandler(leadsFormPrefix, sessions)
	r.HandleHandler(sessionsPrefix, sessions)
}

// RegisterMessageRoutes 注册消息模板路由
func (r *Router) RegisterMessageRoutes(templates *MessageTemplatesHandler) {
	r.HandleHandler(templatesPath, templates)
	r.HandleHandler(templatesPath+"/", templates)
}

// RegisterHealthz 健康检查
func (r *Router) RegisterHealthz() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
}
