package entities

// Pagination meta data

type PaginationMetaData struct {
	Size     int    `json:"size"`
	PageSize int    `json:"page_size,omitempty"`
	Next     string `json:"next"`
	Prev     string `json:"prev"`
}

// Common response variable with Pagination
type Response struct {
	StatusCode         int                 `json:"status_code"`
	Message            string              `json:"message"`
	PaginationMetaData *PaginationMetaData `json:"pagination_meta_data,omitempty"`
	Data               interface{}         `json:"data,omitempty"`
}

type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error,omitempty"`
	Message    string `json:"message"`
}
