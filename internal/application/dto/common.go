package dto

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// ErrorResponse cuerpo de error HTTP. Fields lista los campos culpables cuando se conocen.
type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}
