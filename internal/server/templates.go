package server

import (
	_ "embed"
	"encoding/json"
	"html"
	"html/template"
	texttemplate "text/template"

	"github.com/dgellow/decap-auth/internal/delivery"
)

//go:embed templates/success.html
var successPageTemplateHTML string

//go:embed templates/error.html
var errorPageTemplateHTML string

//go:embed templates/admin.html
var adminPageTemplateHTML string

//go:embed templates/init.js
var initScriptTemplateJS string

//go:embed templates/boot.js
var bootScriptTemplateJS string

var successPageTemplate = template.Must(template.New("success").Parse(successPageTemplateHTML))
var errorPageTemplate = template.Must(template.New("error").Parse(errorPageTemplateHTML))
var adminPageTemplate = template.Must(template.New("admin").Parse(adminPageTemplateHTML))

// Scripts are not HTML documents; values are inserted as JS literals.
var scriptFuncs = texttemplate.FuncMap{
	"js": delivery.JSLiteral,
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

var initScriptTemplate = texttemplate.Must(texttemplate.New("init").Funcs(scriptFuncs).Parse(initScriptTemplateJS))
var bootScriptTemplate = texttemplate.Must(texttemplate.New("boot").Funcs(scriptFuncs).Parse(bootScriptTemplateJS))

// closeDelayMS is how long the popup stays open after posting the credential.
const closeDelayMS = 300

// SuccessPageData represents the data for the popup's success document
type SuccessPageData struct {
	Token        string
	Message      string
	StorageKeys  []string
	AdminPath    string
	CloseDelayMS int
}

// ErrorPageData represents the data for the popup's error document
type ErrorPageData struct {
	Reason    string
	Message   string
	AdminPath string
}

// AdminPageData represents the data for the admin page shell
type AdminPageData struct {
	InitScript string
	// EditorScriptSrc is the complete src attribute of the editor library.
	// Version ranges such as "@^3.0.0" must reach the CDN verbatim, which
	// URL normalization in attribute values would not allow.
	EditorScriptSrc template.HTMLAttr
	BootScript      string
}

// srcAttr renders a src attribute with the URL HTML-escaped but otherwise
// untouched.
func srcAttr(rawURL string) template.HTMLAttr {
	return template.HTMLAttr(`src="` + html.EscapeString(rawURL) + `"`)
}

// InitScriptData represents the data for init.js
type InitScriptData struct {
	ManualInit    bool
	SuccessPrefix string
	StorageKeys   []string
}

// BootScriptData represents the data for boot.js
type BootScriptData struct {
	ConfigPath string
	IntervalMS int64
}
