package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyVault      = "vault"
	KeyNote       = "note"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyPermalink  = "permalink"
	KeyStage      = "stage"
	KeyCount      = "count"
	KeySessionID  = "session_id"
	KeyDurationMS = "duration_ms"
	KeyURL        = "url"
	KeyBranch     = "branch"
	KeyName       = "name"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Vault(path string) slog.Attr     { return slog.String(KeyVault, path) }
func Note(rel string) slog.Attr       { return slog.String(KeyNote, rel) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Permalink(p string) slog.Attr    { return slog.String(KeyPermalink, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func SessionID(id string) slog.Attr   { return slog.String(KeySessionID, id) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
