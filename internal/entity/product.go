package entity

type Product struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"` // rupees
	Image string  `json:"image"`
	Specs string  `json:"specs"`
}
