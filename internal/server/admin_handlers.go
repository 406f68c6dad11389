package server

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/dgellow/decap-auth/internal/bootstrap"
	"github.com/dgellow/decap-auth/internal/delivery"
	"github.com/dgellow/decap-auth/internal/log"
)

// AdminHandlers serves the admin page shell and the two scripts that
// bracket the editor library: init.js before it, boot.js after it.
type AdminHandlers struct {
	adminPath    string
	editorScript string
	provider     string
	boot         bootstrap.Options
}

// NewAdminHandlers creates the admin handlers. adminPath must end with "/".
func NewAdminHandlers(adminPath, editorScript, provider string, boot bootstrap.Options) *AdminHandlers {
	if !strings.HasSuffix(adminPath, "/") {
		adminPath += "/"
	}
	return &AdminHandlers{
		adminPath:    adminPath,
		editorScript: editorScript,
		provider:     provider,
		boot:         boot.WithDefaults(),
	}
}

// InitScriptPath is where init.js is served.
func (h *AdminHandlers) InitScriptPath() string {
	return h.adminPath + "init.js"
}

// BootScriptPath is where boot.js is served.
func (h *AdminHandlers) BootScriptPath() string {
	return h.adminPath + "boot.js"
}

// PageHandler serves the admin page, loading the scripts in order.
func (h *AdminHandlers) PageHandler(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := adminPageTemplate.Execute(&buf, AdminPageData{
		InitScript:      h.InitScriptPath(),
		EditorScriptSrc: srcAttr(h.editorScript),
		BootScript:      h.BootScriptPath(),
	})
	if err != nil {
		log.LogError("Failed to render admin page: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// InitScriptHandler serves the opener listener script.
func (h *AdminHandlers) InitScriptHandler(w http.ResponseWriter, r *http.Request) {
	h.writeScript(w, initScriptTemplate, InitScriptData{
		ManualInit:    h.boot.ManualInit,
		SuccessPrefix: delivery.SuccessPrefix(h.provider),
		StorageKeys:   delivery.StorageKeys,
	})
}

// BootScriptHandler serves the editor bootstrap script.
func (h *AdminHandlers) BootScriptHandler(w http.ResponseWriter, r *http.Request) {
	h.writeScript(w, bootScriptTemplate, BootScriptData{
		ConfigPath: h.boot.ConfigPath,
		IntervalMS: h.boot.Interval.Milliseconds(),
	})
}

func (h *AdminHandlers) writeScript(w http.ResponseWriter, tmpl pageTemplate, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.LogError("Failed to render script: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}
