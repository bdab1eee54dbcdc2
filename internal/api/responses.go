package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// DataResponse wraps every successful payload as {"data": ...}.
type DataResponse struct {
	Data interface{} `json:"data"`
}
