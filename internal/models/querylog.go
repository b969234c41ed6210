package models

import "time"

// Статусы записи журнала запросов.
// Insert пишет placeholder QueryStatusSuccess, клиент затем уточняет итог
// через /api/query/result одним из found/no_data/invalid.
const (
	QueryStatusSuccess  = "success"
	QueryStatusFound    = "found"
	QueryStatusNoData   = "no_data"
	QueryStatusInvalid  = "invalid"
	QueryStatusRejected = "rejected" // запрос отклонен квотой, данные не запрашивались
)

// ValidResultStatus reports whether s is an allowed backfill status
// for the query result endpoint.
func ValidResultStatus(s string) bool {
	switch s {
	case QueryStatusFound, QueryStatusNoData, QueryStatusInvalid:
		return true
	}
	return false
}

// QueryLogEntry представляет одну запись аудита поиска адреса.
// Журнал append-only; единственная допустимая мутация это уточнение статуса.
// Ровно одно из VisitorID/UserID идентифицирует отправителя
// (оба nil для неаутентифицированных системных вызовов).
type QueryLogEntry struct {
	ID        int64     `json:"id"`
	VisitorID *int64    `json:"visitor_id,omitempty"`
	UserID    *int64    `json:"user_id,omitempty"`
	Address   string    `json:"address"`    // искомый блокчейн-адрес
	Chain     string    `json:"blockchain"` // метка сети (eth, btc, ...)
	QueryType string    `json:"query_type"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
