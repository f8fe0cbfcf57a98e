// Package schema encodes the catalog document and upgrades older documents.
//
// Documents carry a schemaVersion. A document without one was written by the
// browser-era client and is version 0. Each Step upgrades a decoded document by
// exactly one version; Decode runs every step from the document's version up to
// CurrentVersion, then gives any absent key its default, before binding it to
// domain.AppState. Missing keys are tolerated at every version.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/homelibrarian/homelibrarian/internal/domain"
)

// CurrentVersion is the version stamped on every encoded document.
const CurrentVersion = 3

const versionKey = "schemaVersion"

// Document is a decoded, not yet typed, catalog document.
type Document = map[string]any

// Step upgrades a document from version From to From+1.
type Step struct {
	From  int
	Name  string
	Apply func(Document, *Report) error
}

// Steps is the migration chain, ordered by From.
var Steps = []Step{
	{From: 0, Name: "default-db-settings", Apply: addDBSettings},
	{From: 1, Name: "default-backup-settings", Apply: addBackupSettings},
	{From: 2, Name: "drop-derived-fields", Apply: normalizeDocument},
}

// Report describes what Decode did to a document.
type Report struct {
	From    int      `json:"from"`              // Version found in the document
	To      int      `json:"to"`                // Version after migration
	Applied []string `json:"applied,omitempty"` // Names of the steps that ran
	Filled  []string `json:"filled,omitempty"`  // Absent keys given their default
	Dropped []string `json:"dropped,omitempty"` // Values that could not be converted
	Newer   bool     `json:"newer,omitempty"`   // Document was written by a newer release; decoded as is
}

func (r *Report) fill(key string) {
	r.Filled = append(r.Filled, key)
}

func (r *Report) drop(format string, args ...any) {
	r.Dropped = append(r.Dropped, fmt.Sprintf(format, args...))
}

// Migrated reports whether any step ran.
func (r Report) Migrated() bool {
	return len(r.Applied) > 0
}

type envelope struct {
	SchemaVersion int `json:"schemaVersion"`
	domain.AppState
}

// Encode serializes state as a current-version document.
func Encode(state domain.AppState) ([]byte, error) {
	data, err := json.Marshal(envelope{SchemaVersion: CurrentVersion, AppState: state})
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// Decode parses raw, upgrades it to CurrentVersion and binds it to AppState.
// Unknown keys are ignored. A malformed document returns an error and no state.
func Decode(raw []byte) (domain.AppState, Report, error) {
	doc, err := parse(raw)
	if err != nil {
		return domain.AppState{}, Report{}, err
	}

	report, err := Migrate(doc)
	if err != nil {
		return domain.AppState{}, report, err
	}

	state, err := bind(doc)
	if err != nil {
		return domain.AppState{}, report, err
	}
	return state, report, nil
}

// Migrate upgrades doc in place to CurrentVersion and fills absent keys with
// their defaults. A document from a newer release is not migrated, but its
// absent keys are still filled.
func Migrate(doc Document) (Report, error) {
	from, err := Version(doc)
	if err != nil {
		return Report{}, err
	}
	report := Report{From: from, To: from, Newer: from > CurrentVersion}

	for _, step := range Steps {
		if step.From < from {
			continue
		}
		if err := step.Apply(doc, &report); err != nil {
			return report, fmt.Errorf("migrate v%d to v%d (%s): %w", step.From, step.From+1, step.Name, err)
		}
		report.Applied = append(report.Applied, step.Name)
		report.To = step.From + 1
	}
	if err := fillDefaults(doc, &report); err != nil {
		return report, fmt.Errorf("fill defaults: %w", err)
	}
	if !report.Newer {
		doc[versionKey] = json.Number(fmt.Sprint(report.To))
	}
	return report, nil
}

// Version reads the document's schemaVersion; absent means 0.
func Version(doc Document) (int, error) {
	v, ok := doc[versionKey]
	if !ok || v == nil {
		return 0, nil
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("schemaVersion is %T, not a number", v)
	}
	i, err := n.Int64()
	if err != nil || i < 0 {
		return 0, fmt.Errorf("schemaVersion %q is not a non-negative integer", n)
	}
	return int(i), nil
}

func parse(raw []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parse document: not a JSON object")
	}
	return doc, nil
}

func bind(doc Document) (domain.AppState, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return domain.AppState{}, fmt.Errorf("re-encode document: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.AppState{}, fmt.Errorf("decode document: %w", err)
	}
	return env.AppState.Clone(), nil
}

// toDocument converts a typed value to its document form.
func toDocument(v any) Document {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal default: %v", err))
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		panic(fmt.Sprintf("unmarshal default: %v", err))
	}
	return doc
}
