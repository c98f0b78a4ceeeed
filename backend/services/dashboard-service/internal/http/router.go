package httpserver

import "net/http"

// Routes defines HTTP endpoints.
type Routes struct {
	LiveDashboard http.Handler
	Health        http.Handler
	Metrics       http.Handler
}

// NewRouter sets up HTTP routing. middleware wraps every route when non-nil.
func NewRouter(routes Routes, middleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	if routes.LiveDashboard != nil {
		mux.Handle("/api/live-dashboard", method(http.MethodGet, routes.LiveDashboard))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	if routes.Metrics != nil {
		mux.Handle("/metrics", method(http.MethodGet, routes.Metrics))
	}

	if middleware != nil {
		return middleware(mux)
	}
	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
