package progress

type SaveProgressPayload struct {
	CurrentLocation string  `json:"current_location" validate:"required,max=2000"`
	Percentage      float64 `json:"percentage" validate:"min=0,max=100"`
	ReadTimeDelta   int     `json:"read_time_delta" validate:"min=0"`
}
