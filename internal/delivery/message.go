// Package delivery defines the wire contract between the OAuth popup and
// the admin page that opened it: the prefixed postMessage strings and the
// local-storage keys holding the credential.
package delivery

import "encoding/json"

// Storage keys recognised by the editor library. Both are written so that
// either naming convention finds the credential.
const (
	StorageKey       = "decap-cms-user"
	LegacyStorageKey = "netlify-cms-user"
)

// StorageKeys lists every key a credential is persisted under.
var StorageKeys = []string{StorageKey, LegacyStorageKey}

// Credential is the user object stored for the editor library.
type Credential struct {
	Token string `json:"token"`
}

// Encode returns the JSON form stored in local storage.
func (c Credential) Encode() string {
	b, _ := json.Marshal(c)
	return string(b)
}

// SuccessPrefix is the prefix of a successful delivery message.
func SuccessPrefix(provider string) string {
	return "authorization:" + provider + ":success:"
}

// ErrorPrefix is the prefix of a failed delivery message.
func ErrorPrefix(provider string) string {
	return "authorization:" + provider + ":error:"
}

// SuccessMessage builds the message posted to the opener on success.
func SuccessMessage(provider, token string) string {
	return SuccessPrefix(provider) + Credential{Token: token}.Encode()
}

// ErrorMessage builds the message posted to the opener on failure.
func ErrorMessage(provider, reason string) string {
	return ErrorPrefix(provider) + reason
}

// JSLiteral renders s as a JavaScript string literal safe to embed in a
// <script> element.
func JSLiteral(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
