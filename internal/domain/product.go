package domain

// Product is a single sellable item of the shop catalog.
type Product struct {
	ID          string
	Name        string
	Price       int
	Description string
	Images      []string
	Delivery    bool
	Category    string
}

// Category groups products of one type.
type Category struct {
	ID          int
	Name        string
	Variability bool
	Products    []Product
}
