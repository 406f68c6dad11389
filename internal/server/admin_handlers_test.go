package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgellow/decap-auth/internal/bootstrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEditorScript = "https://unpkg.com/decap-cms@^3.0.0/dist/decap-cms.js"

func newTestAdminHandlers(boot bootstrap.Options) *AdminHandlers {
	return NewAdminHandlers("/admin/", testEditorScript, "github", boot)
}

func TestAdminPage_ScriptOrder(t *testing.T) {
	h := newTestAdminHandlers(bootstrap.Options{ManualInit: true})

	w := httptest.NewRecorder()
	h.PageHandler(w, httptest.NewRequest(http.MethodGet, "/admin/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	initIdx := strings.Index(body, `src="/admin/init.js"`)
	editorIdx := strings.Index(body, `src="`+testEditorScript+`"`)
	bootIdx := strings.Index(body, `src="/admin/boot.js"`)
	require.True(t, initIdx >= 0 && editorIdx >= 0 && bootIdx >= 0, body)
	assert.Less(t, initIdx, editorIdx, "listener must load before the editor")
	assert.Less(t, editorIdx, bootIdx, "bootstrap must load after the editor")
}

func TestAdminPage_EditorScriptAttribute(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"version range kept", "https://unpkg.com/decap-cms@^3.0.0/dist/decap-cms.js", `src="https://unpkg.com/decap-cms@^3.0.0/dist/decap-cms.js"`},
		{"query ampersand escaped", "https://cdn.example.com/cms.js?v=3&min=1", `src="https://cdn.example.com/cms.js?v=3&amp;min=1"`},
		{"quote cannot break out", `https://cdn.example.com/x.js" onload="alert(1)`, `src="https://cdn.example.com/x.js&#34; onload=&#34;alert(1)"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAdminHandlers("/admin/", tt.script, "github", bootstrap.Options{})
			w := httptest.NewRecorder()
			h.PageHandler(w, httptest.NewRequest(http.MethodGet, "/admin/", nil))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), "<script "+tt.want+"></script>")
		})
	}
}

func TestInitScript(t *testing.T) {
	h := newTestAdminHandlers(bootstrap.Options{ManualInit: true})

	w := httptest.NewRecorder()
	h.InitScriptHandler(w, httptest.NewRequest(http.MethodGet, "/admin/init.js", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/javascript; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "// Must run before the editor library loads.\nwindow.CMS_MANUAL_INIT = true;"), body)
	assert.Contains(t, body, `var PREFIX = "authorization:github:success:";`)
	assert.Contains(t, body, `var KEYS = ["decap-cms-user","netlify-cms-user"];`)
	assert.Contains(t, body, "addEventListener('message'")
	assert.Contains(t, body, "addEventListener('storage'")
	assert.Contains(t, body, "location.replace(location.pathname + location.search + location.hash)")
	assert.Equal(t, 1, strings.Count(body, "location.replace("), "reload lives in the single delivery path")
}

func TestInitScript_ManualInitDisabled(t *testing.T) {
	h := newTestAdminHandlers(bootstrap.Options{ManualInit: false})

	w := httptest.NewRecorder()
	h.InitScriptHandler(w, httptest.NewRequest(http.MethodGet, "/admin/init.js", nil))

	assert.Contains(t, w.Body.String(), "window.CMS_MANUAL_INIT = false;")
}

func TestBootScript(t *testing.T) {
	tests := []struct {
		name       string
		opts       bootstrap.Options
		wantConfig string
		wantDelay  string
	}{
		{
			name:       "defaults",
			opts:       bootstrap.Options{ManualInit: true},
			wantConfig: `CMS.init({ config: "/admin/config.yml" });`,
			wantDelay:  "setTimeout(boot, 50);",
		},
		{
			name:       "custom",
			opts:       bootstrap.Options{ManualInit: true, ConfigPath: "/cms/config.yml", Interval: 200 * time.Millisecond},
			wantConfig: `CMS.init({ config: "/cms/config.yml" });`,
			wantDelay:  "setTimeout(boot, 200);",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestAdminHandlers(tt.opts)

			w := httptest.NewRecorder()
			h.BootScriptHandler(w, httptest.NewRequest(http.MethodGet, "/admin/boot.js", nil))

			require.Equal(t, http.StatusOK, w.Code)
			body := w.Body.String()
			assert.Contains(t, body, tt.wantConfig)
			assert.Contains(t, body, tt.wantDelay)
			assert.Contains(t, body, "if (!window.CMS_MANUAL_INIT) return;")
		})
	}
}

func TestNewAdminHandlers_NormalizesPath(t *testing.T) {
	h := NewAdminHandlers("/cms", testEditorScript, "github", bootstrap.Options{})
	assert.Equal(t, "/cms/init.js", h.InitScriptPath())
	assert.Equal(t, "/cms/boot.js", h.BootScriptPath())
}
