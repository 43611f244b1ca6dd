package view

// Response is the common envelope for every JSON reply.
type Response[T any] struct {
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func CreateResponse[T any](data T, err error, message string) Response[T] {
	resp := Response[T]{
		Data:    data,
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
