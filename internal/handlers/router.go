package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nkiryanov/campgate/internal/handlers/middleware"
	"github.com/nkiryanov/campgate/internal/logger"
	"github.com/nkiryanov/campgate/internal/repository"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	flow authFlow,
	registry invoker,
	tokens repository.TokenRepo,
	logger logger.Logger,
) http.Handler {
	oauth := NewOAuth(flow, tokens, logger)
	tools := NewTools(registry, tokens, logger)

	root := http.NewServeMux()
	root.Handle("/oauth/", http.StripPrefix("/oauth", oauth.Handler()))
	root.Handle("/agent/", tools.Handler())
	root.Handle("GET /health", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	root.Handle("GET /metrics", promhttp.Handler())

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}
