package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/homelibrarian/homelibrarian/internal/domain"
)

func addDBSettings(doc Document, _ *Report) error {
	if doc["dbSettings"] == nil {
		doc["dbSettings"] = toDocument(domain.DefaultDBSettings)
	}
	return nil
}

func addBackupSettings(doc Document, _ *Report) error {
	if doc["backupSettings"] == nil {
		doc["backupSettings"] = toDocument(domain.DefaultBackupSettings)
	}
	return nil
}

// normalizeDocument strips persisted age/grade, fills every settings key added
// since the first release and coerces loosely typed values written by browser
// forms (numeric strings, date-only timestamps). Values that cannot be coerced
// are listed in the report.
func normalizeDocument(doc Document, r *Report) error {
	if err := fillDefaults(doc, r); err != nil {
		return err
	}
	fillSettings(doc, "aiSettings", toDocument(domain.DefaultAISettings))
	fillSettings(doc, "dbSettings", toDocument(domain.DefaultDBSettings))
	fillSettings(doc, "backupSettings", toDocument(domain.DefaultBackupSettings))
	if backup, ok := doc["backupSettings"].(Document); ok {
		if raw, dropped := normalizeTime(backup, "lastBackupDate", false); dropped {
			r.drop("backupSettings.lastBackupDate %q is not a date; removed", raw)
		}
	}

	for _, u := range objects(doc["users"]) {
		delete(u, "age")
		delete(u, "grade")
		for _, entry := range objects(u["history"]) {
			where := fmt.Sprintf("user %v, history of %v", u["id"], entry["bookId"])
			if raw, dropped := normalizeTime(entry, "dateFinished", false); dropped {
				r.drop("%s: dateFinished %q is not a date; removed", where, raw)
			}
			for _, key := range []string{"rating", "readCount"} {
				if raw, dropped := coerceNumber(entry, key); dropped {
					r.drop("%s: %s %q is not a number; removed", where, key, raw)
				}
			}
		}
	}

	for _, b := range objects(doc["books"]) {
		if n, ok := b["seriesIndex"].(json.Number); ok {
			b["seriesIndex"] = n.String()
		}
		for _, key := range []string{"totalPages", "purchasePrice", "estimatedValue", "minAge"} {
			if raw, dropped := coerceNumber(b, key); dropped {
				keepCustom(b, key, raw)
				r.drop("book %v: %s %q is not a number; kept in customFields", b["id"], key, raw)
			}
		}
		if raw, dropped := normalizeTime(b, "addedDate", true); dropped {
			keepCustom(b, "addedDate", raw)
			r.drop("book %v: addedDate %q is not a date; kept in customFields", b["id"], raw)
		}
	}

	for _, l := range objects(doc["loans"]) {
		if raw, dropped := normalizeTime(l, "returnDate", false); dropped {
			appendNote(l, fmt.Sprintf("Returned %s.", raw))
			r.drop("loan %v: returnDate %q is not a date; kept in notes", l["id"], raw)
		}
		if raw, dropped := normalizeTime(l, "loanDate", true); dropped {
			if returned, ok := l["returnDate"].(string); ok {
				l["loanDate"] = returned
			}
			appendNote(l, fmt.Sprintf("Lent %s.", raw))
			r.drop("loan %v: loanDate %q is not a date; kept in notes", l["id"], raw)
		}
	}
	return nil
}

// requiredSettings lists the settings keys that are always written. Absent
// ones are filled on every load; optional keys may legitimately be missing.
var requiredSettings = []struct {
	key      string
	defaults func() Document
	fields   []string
}{
	{"aiSettings", func() Document { return toDocument(domain.DefaultAISettings) }, []string{"provider", "ollamaUrl", "ollamaModel"}},
	{"dbSettings", func() Document { return toDocument(domain.DefaultDBSettings) }, []string{"type", "name"}},
	{"backupSettings", func() Document { return toDocument(domain.DefaultBackupSettings) }, []string{"frequency", "location", "googleDriveConnected"}},
}

// fillDefaults gives every absent key its default. It runs on every load,
// whatever the document's version, and is idempotent.
func fillDefaults(doc Document, r *Report) error {
	for _, key := range []string{"books", "users", "locations", "loans"} {
		if doc[key] == nil {
			r.fill(key)
		}
		if err := ensureArray(doc, key); err != nil {
			return err
		}
	}

	for key, value := range map[string]any{
		"isSetupComplete": false,
		"isDemoMode":      false,
		"theme":           string(domain.ThemeDark),
	} {
		if doc[key] == nil {
			doc[key] = value
			r.fill(key)
		}
	}
	if doc["currentUser"] == nil {
		doc["currentUser"] = ""
	}

	for _, s := range requiredSettings {
		defaults := s.defaults()
		current, ok := doc[s.key].(Document)
		if !ok {
			if doc[s.key] != nil {
				return fmt.Errorf("%s is %T, not an object", s.key, doc[s.key])
			}
			doc[s.key] = defaults
			r.fill(s.key)
			continue
		}
		for _, field := range s.fields {
			if current[field] == nil {
				current[field] = defaults[field]
				r.fill(s.key + "." + field)
			}
		}
	}

	for _, u := range objects(doc["users"]) {
		if err := ensureArray(u, "history"); err != nil {
			return err
		}
		if err := ensureArray(u, "favorites"); err != nil {
			return err
		}
	}
	for _, b := range objects(doc["books"]) {
		if err := ensureArray(b, "genres"); err != nil {
			return err
		}
		if err := ensureArray(b, "tags"); err != nil {
			return err
		}
	}
	return nil
}

func ensureArray(doc Document, key string) error {
	switch doc[key].(type) {
	case nil:
		doc[key] = []any{}
	case []any:
	default:
		return fmt.Errorf("%s is %T, not an array", key, doc[key])
	}
	return nil
}

func fillSettings(doc Document, key string, defaults Document) {
	current, ok := doc[key].(Document)
	if !ok {
		doc[key] = defaults
		return
	}
	for k, v := range defaults {
		if _, present := current[k]; !present {
			current[k] = v
		}
	}
}

func objects(v any) []Document {
	arr, _ := v.([]any)
	out := make([]Document, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(Document); ok {
			out = append(out, m)
		}
	}
	return out
}

// coerceNumber turns "12" into 12. An empty string is removed quietly; any
// other unparseable string is removed and returned with dropped set.
func coerceNumber(m Document, key string) (raw string, dropped bool) {
	s, ok := m[key].(string)
	if !ok {
		return "", false
	}
	raw = s
	s = strings.TrimSpace(s)
	if s == "" {
		delete(m, key)
		return raw, false
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		delete(m, key)
		return raw, true
	}
	m[key] = json.Number(s)
	return raw, false
}

// normalizeTime rewrites date-only values and epoch milliseconds as RFC 3339
// timestamps. Empty optional values are removed quietly. Unparseable optional
// values are removed and required ones fall back to the zero time; both are
// returned with dropped set.
func normalizeTime(m Document, key string, required bool) (raw string, dropped bool) {
	v, present := m[key]
	if !present {
		return "", false
	}
	switch v := v.(type) {
	case json.Number:
		if ms, err := v.Int64(); err == nil {
			m[key] = time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
			return "", false
		}
		raw = v.String()
	case string:
		raw = v
	case nil:
	default:
		raw = fmt.Sprint(v)
	}

	s := strings.TrimSpace(raw)
	if _, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return "", false
	}
	if d, err := domain.ParseDate(s); err == nil {
		m[key] = d.Format(time.RFC3339)
		return "", false
	}
	if required {
		m[key] = time.Time{}.Format(time.RFC3339)
		return raw, s != ""
	}
	delete(m, key)
	return raw, s != ""
}

// keepCustom stores a value that could not be typed under the book's custom fields.
func keepCustom(b Document, key, raw string) {
	custom, ok := b["customFields"].(Document)
	if !ok {
		custom = Document{}
		b["customFields"] = custom
	}
	if _, taken := custom[key]; !taken {
		custom[key] = raw
	}
}

func appendNote(l Document, note string) {
	notes, _ := l["notes"].(string)
	if notes = strings.TrimSpace(notes); notes != "" {
		note = notes + " " + note
	}
	l["notes"] = note
}
