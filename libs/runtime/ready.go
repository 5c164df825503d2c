package runtime

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// ReadyCheck is a named dependency check for /readyz.
type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
	// Optional checks are reported but never fail readiness.
	Optional bool
}

func NewBaseMuxWithReady(checks ...ReadyCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		failures, warnings := runChecks(r.Context(), checks)
		if len(warnings) > 0 {
			w.Header().Set("X-Ready-Warnings", strings.Join(warnings, "; "))
		}
		if len(failures) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(strings.Join(failures, "; ")))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func runChecks(ctx context.Context, checks []ReadyCheck) (failures, warnings []string) {
	for _, check := range checks {
		if check.Check == nil {
			continue
		}
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := check.Check(checkCtx)
		cancel()
		if err == nil {
			continue
		}
		name := check.Name
		if name == "" {
			name = "dependency"
		}
		if check.Optional {
			warnings = append(warnings, name+": "+err.Error())
			continue
		}
		failures = append(failures, name+": "+err.Error())
	}
	return failures, warnings
}
