package geometry_test

import (
	"fmt"

	"simreg/internal/geometry"
)

// ExampleInitialCrop shows the starting crop for a square image and a
// portrait aspect ratio: 90% of the width would be too tall, so the crop is
// shrunk to the full height and centered horizontally.
func ExampleInitialCrop() {
	display := geometry.Size{Width: 1000, Height: 1000}
	crop := geometry.InitialCrop(display, 3.0/4.0)

	fmt.Println(crop)
	fmt.Println(crop.ToPixels(display))

	// Output:
	// 12.50%,0.00% 75.00x100.00%
	// 125.00px,0.00px 750.00x1000.00px
}
