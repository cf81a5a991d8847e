package checkout

// Input carries the delivery details captured at checkout.
type Input struct {
	DeliveryName    string `json:"delivery_name" validate:"required,min=1,max=120"`
	DeliveryPhone   string `json:"delivery_phone" validate:"required,min=7,max=20"`
	DeliveryAddress string `json:"delivery_address" validate:"required,min=1,max=500"`
}
