package types

// RecordDraft is what the data-entry form submits.  ID, Timestamp and
// RegisteredBy are stamped by the session when the draft is accepted.
type RecordDraft struct {
	FleetNumber      string `json:"fleet_number"`
	CollaboratorName string `json:"collaborator_name"`
	CollaboratorCode string `json:"collaborator_code,omitempty"`
	Type             string `json:"type"`
	Destination      string `json:"destination,omitempty"`
	Observation      string `json:"observation,omitempty"`
	MaterialExit     bool   `json:"material_exit,omitempty"`
	Photo            string `json:"photo,omitempty"`
}

type RegisterResponse struct {
	OK        bool         `json:"ok"`
	Record    AccessRecord `json:"record"`
	Persisted bool         `json:"persisted"`
	Warning   string       `json:"warning,omitempty"`
	Pending   int          `json:"pending"`
}

type LoginRequest struct {
	OperatorID string `json:"operator_id"`
}

type LoginResponse struct {
	OK   bool `json:"ok"`
	User User `json:"user"`
}

// ConfirmRequest carries the operator's answer to a confirmation prompt
// (logout with pending records, export).
type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

type ExportResponse struct {
	OK         bool   `json:"ok"`
	Status     string `json:"status"`
	Records    int    `json:"records"`
	Photos     int    `json:"photos"`
	Bytes      int64  `json:"bytes"`
	Message    string `json:"message"`
	ServerTime string `json:"server_time"`
}
