package models

// Catalog lists the form choices offered to inspectors.
type Catalog struct {
	Brands []string `json:"brands"`
	Colors []string `json:"colors"`
}

var (
	CarBrands = []string{"Toyota", "Nissan", "Hyundai", "Kia", "Mercedes", "BMW", "Ford", "Chevrolet", "Honda", "Mitsubishi"}
	CarColors = []string{"White", "Black", "Silver", "Gray", "Red", "Blue", "Brown", "Gold"}
)

// DefaultCatalog returns copies of the built-in lists.
func DefaultCatalog() Catalog {
	return Catalog{
		Brands: append([]string(nil), CarBrands...),
		Colors: append([]string(nil), CarColors...),
	}
}
