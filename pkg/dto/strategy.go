package dto

type CreateStrategyRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type UpdateStrategyRequest = CreateStrategyRequest

type CreateTagRequest struct {
	Name string `json:"name"`
}
