package models

import "time"

// Visitor представляет анонимного посетителя, опознанного по fingerprint браузера
type Visitor struct {
	ID               int64     `json:"id"`
	Fingerprint      string    `json:"fingerprint"`       // клиентский отпечаток браузера, уникальный
	IPAddress        string    `json:"ip_address"`        // IP последнего визита
	UserAgent        string    `json:"user_agent"`        // User-Agent последнего визита
	Language         string    `json:"language"`          // информационные поля, на решения не влияют
	Timezone         string    `json:"timezone"`
	ScreenResolution string    `json:"screen_resolution"`
	Platform         string    `json:"platform"`
	Referrer         string    `json:"referrer"`
	QueryCount       int       `json:"query_count"` // количество бесплатных запросов, только растет
	FirstSeen        time.Time `json:"first_seen"`
	LastSeen         time.Time `json:"last_seen"`
}
