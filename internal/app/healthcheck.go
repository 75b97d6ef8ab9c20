package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/variables"
)

// maxValueBytes bounds the body of a variable update.
const maxValueBytes = 4096

// variableView is the JSON form of a variable.
type variableView struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Value   string `json:"value"`
	Label   string `json:"label,omitempty"`
	Comment string `json:"comment,omitempty"`
}

func viewOf(e variables.Entry) variableView {
	v := variableView{
		Name:    e.Variable.Name,
		Type:    e.Variable.Type.String(),
		Value:   datatype.Format(e.Variable.Type, e.Storage.Value),
		Comment: e.Variable.Comment,
	}
	if e.Enum != nil {
		if i := int(datatype.Load[int32](e.Storage.Value, 0)); i >= 0 && i < len(e.Enum.Items) {
			v.Label = e.Enum.Items[i]
		}
	}
	return v
}

// routes builds the handler of the health and tweak server.
func (a *App) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.healthHandler)
	mux.HandleFunc("GET /nodes", a.listNodes)
	mux.HandleFunc("GET /variables", a.listVariables)
	mux.HandleFunc("GET /variables/{name}", a.getVariable)
	mux.HandleFunc("POST /variables/{name}", a.setVariable)
	mux.HandleFunc("DELETE /variables/{name}", a.resetVariable)
	return mux
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) listVariables(w http.ResponseWriter, _ *http.Request) {
	a.mu.Lock()
	views := make([]variableView, 0, a.engine.RuntimeVariableCount())
	for i := 0; i < a.engine.RuntimeVariableCount(); i++ {
		if e, err := a.engine.RuntimeVariable(i); err == nil {
			views = append(views, viewOf(e))
		}
	}
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, views)
}

func (a *App) listNodes(w http.ResponseWriter, _ *http.Request) {
	a.mu.Lock()
	views := a.nodeTable()
	a.mu.Unlock()
	if views == nil {
		views = []nodeView{}
	}
	writeJSON(w, http.StatusOK, views)
}

// withVariable runs fn under the app lock on the variable named in the path.
func (a *App) withVariable(w http.ResponseWriter, r *http.Request, fn func(i int) error) {
	name := r.PathValue("name")
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.engine.RuntimeVariableIndex(name)
	if i < 0 {
		http.Error(w, fmt.Sprintf("unknown variable %q", name), http.StatusNotFound)
		return
	}
	if err := fn(i); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	e, err := a.engine.RuntimeVariable(i)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(e))
}

func (a *App) getVariable(w http.ResponseWriter, r *http.Request) {
	a.withVariable(w, r, func(int) error { return nil })
}

func (a *App) setVariable(w http.ResponseWriter, r *http.Request) {
	a.withVariable(w, r, func(i int) error {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxValueBytes))
		if err != nil {
			return err
		}
		a.logger.Info("Variable updated.", "variable", r.PathValue("name"), "value", string(body))
		return a.engine.SetRuntimeVariableFromString(i, string(body))
	})
}

func (a *App) resetVariable(w http.ResponseWriter, r *http.Request) {
	a.withVariable(w, r, func(i int) error {
		a.logger.Info("Variable reset to default.", "variable", r.PathValue("name"))
		return a.engine.SetRuntimeVariableToDefault(i)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// startServer binds addr and serves the health and tweak endpoints in the
// background.
func (a *App) startServer(ctx context.Context, addr string) error {
	a.logger.Debug("Configuring health check server.")
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start health check server: %w", err)
	}
	a.httpServer = &http.Server{
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		a.logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://%s/health", ln.Addr()))
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (a *App) closeServer(ctx context.Context) {
	if a.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down health check server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Health check server shutdown failed", "error", err)
	}
	a.httpServer = nil
}
