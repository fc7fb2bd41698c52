package models

// Requests for the risk HTTP endpoints. Defined in domain for consistency and reuse.

type AssessmentRequest struct {
	Fresh bool `query:"fresh" json:"fresh"`
}

type HistoryRequest struct {
	Periods int `query:"periods" json:"periods" default:"12" validate:"gte=2,lte=120"`
}

type RefreshRequest struct {
	Mode string `query:"mode" json:"mode" default:"async" validate:"oneof=async sync"`
}
