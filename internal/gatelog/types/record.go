package types

import (
	"strings"
	"time"
)

// RecordType tells whether a vehicle/collaborator entered or left the gate.
// The wire values match the layout the gate terminals have always stored.
type RecordType string

const (
	RecordEntry RecordType = "ENTRADA"
	RecordExit  RecordType = "SAIDA"
)

func (t RecordType) Valid() bool {
	return t == RecordEntry || t == RecordExit
}

// ParseRecordType accepts the wire values plus the English aliases used by
// the CLI and older API clients.
func ParseRecordType(s string) (RecordType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ENTRADA", "ENTRY", "IN":
		return RecordEntry, true
	case "SAIDA", "SAÍDA", "EXIT", "OUT":
		return RecordExit, true
	default:
		return "", false
	}
}

// AccessRecord is one gate passage.  Records are immutable once appended to
// the ledger; every free-text field is always serialized, even when empty.
type AccessRecord struct {
	ID               string     `json:"id"`
	FleetNumber      string     `json:"fleetNumber"`
	CollaboratorName string     `json:"collaboratorName"`
	CollaboratorCode string     `json:"collaboratorCode"`
	Type             RecordType `json:"type"`
	Timestamp        time.Time  `json:"timestamp"`
	Destination      string     `json:"destination"`
	Observation      string     `json:"observation"`
	MaterialExit     bool       `json:"materialExit"`
	RegisteredBy     string     `json:"registeredBy"`
	Photo            string     `json:"photo,omitempty"` // data URL, e.g. data:image/png;base64,...
}

func (r AccessRecord) HasPhoto() bool {
	return strings.TrimSpace(r.Photo) != ""
}
