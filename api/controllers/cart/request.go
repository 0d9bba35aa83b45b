package cart

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int64 `json:"quantity"`
}
