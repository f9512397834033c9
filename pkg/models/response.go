package models

// GenericResponse carries a status and a human-readable message. It is the
// body of the health check and of every error response.
type GenericResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type TodoResponse struct {
	Status string `json:"status"`
	Todo   Todo   `json:"todo"`
}

type TodoListResponse struct {
	Status  string `json:"status"`
	Results []Todo `json:"results"`
	Count   int    `json:"count"`
}
