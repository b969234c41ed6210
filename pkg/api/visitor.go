package api

// VisitorRequest представляет регистрацию fingerprint анонимного посетителя
type VisitorRequest struct {
	Fingerprint      string `json:"fingerprint"` // обязательное поле
	Language         string `json:"language,omitempty"`
	Timezone         string `json:"timezone,omitempty"`
	ScreenResolution string `json:"screen_resolution,omitempty"`
	Platform         string `json:"platform,omitempty"`
	Referrer         string `json:"referrer,omitempty"`
}

// VisitorResponse представляет текущее состояние квоты посетителя
type VisitorResponse struct {
	VisitorID        int64 `json:"visitor_id"`
	QueryCount       int   `json:"query_count"`
	QueriesRemaining int   `json:"queries_remaining"`
}
