package domain

// Product is a catalog row. The ID is the externally assigned catalog
// id, not the storage primary key; both the regular and the featured
// ("top") catalog share this shape.
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Img         string  `json:"img"`
	Rating      float64 `json:"rating"`
	Price       int64   `json:"price"`
	Description string  `json:"description,omitempty"`
	AosDelay    string  `json:"aosDelay,omitempty"`
}
