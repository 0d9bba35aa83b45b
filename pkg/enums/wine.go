package enums

import "fmt"

// WineType represents the catalog wine styles.
type WineType string

const (
	WineTypeRed       WineType = "red"
	WineTypeWhite     WineType = "white"
	WineTypeRose      WineType = "rose"
	WineTypeSparkling WineType = "sparkling"
	WineTypeDessert   WineType = "dessert"
	WineTypeFortified WineType = "fortified"
)

var validWineTypes = []WineType{
	WineTypeRed,
	WineTypeWhite,
	WineTypeRose,
	WineTypeSparkling,
	WineTypeDessert,
	WineTypeFortified,
}

// String implements fmt.Stringer.
func (t WineType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known WineType.
func (t WineType) IsValid() bool {
	for _, candidate := range validWineTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseWineType converts raw input into a WineType.
func ParseWineType(value string) (WineType, error) {
	for _, candidate := range validWineTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wine type %q", value)
}

// WineSort controls catalog ordering.
type WineSort string

const (
	WineSortNewest    WineSort = "newest"
	WineSortPriceAsc  WineSort = "price_asc"
	WineSortPriceDesc WineSort = "price_desc"
	WineSortName      WineSort = "name"
)

var validWineSorts = []WineSort{
	WineSortNewest,
	WineSortPriceAsc,
	WineSortPriceDesc,
	WineSortName,
}

// String implements fmt.Stringer.
func (s WineSort) String() string {
	return string(s)
}

// IsValid reports whether the value is a known WineSort.
func (s WineSort) IsValid() bool {
	for _, candidate := range validWineSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseWineSort converts raw input into a WineSort. Empty input yields newest.
func ParseWineSort(value string) (WineSort, error) {
	if value == "" {
		return WineSortNewest, nil
	}
	for _, candidate := range validWineSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wine sort %q", value)
}
