package rest

type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

type ResponseSubmitOrder struct {
	AcceptanceID     string   `json:"acceptance_id"`
	LegAcceptanceIDs []string `json:"leg_acceptance_ids,omitempty"`
	OrderID          string   `json:"order_id,omitempty"`
	Ctime            float64  `json:"ctime,omitempty"`
}

type ResponseCancelOrder struct {
	AcceptanceID string `json:"acceptance_id"`
	Canceled     bool   `json:"canceled"`
}
