package api

import "github.com/addrlens/addrlens/internal/models"

// QueryRequest представляет запрос на поиск блокчейн-адреса
type QueryRequest struct {
	Address    string `json:"address"`
	Blockchain string `json:"blockchain"`
	QueryType  string `json:"query_type"`
}

// QueryResponse представляет решение по запросу
type QueryResponse struct {
	Allowed          bool   `json:"allowed"`
	Authenticated    bool   `json:"authenticated"`
	QueriesRemaining *int   `json:"queries_remaining,omitempty"` // только для анонимного пути
	RequireLogin     bool   `json:"require_login,omitempty"`
	LogID            int64  `json:"log_id,omitempty"` // id записи аудита для уточнения статуса
	Reason           string `json:"reason,omitempty"`
}

// QueryResultRequest представляет уточнение итога поиска
type QueryResultRequest struct {
	Address        string `json:"address"`
	ResponseStatus string `json:"response_status"` // found | no_data | invalid
	LogID          *int64 `json:"log_id,omitempty"`
}

// Pagination представляет метаданные страницы
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// HistoryResponse представляет страницу журнала запросов
type HistoryResponse struct {
	Queries    []*models.QueryLogEntry `json:"queries"`
	Pagination Pagination              `json:"pagination"`
}
