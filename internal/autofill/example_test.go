package autofill_test

import (
	"fmt"

	"simreg/internal/autofill"
)

// ExampleSplitAddress shows how an extracted address is spread over the
// village, post office and upazila fields.
func ExampleSplitAddress() {
	village, postOffice, upazila := autofill.SplitAddress("Charpara, Sadar PO। Mymensingh Sadar, Mymensingh")
	fmt.Printf("village=%q post_office=%q upazila=%q\n", village, postOffice, upazila)

	// Missing parts stay empty.
	village, postOffice, upazila = autofill.SplitAddress("Charpara")
	fmt.Printf("village=%q post_office=%q upazila=%q\n", village, postOffice, upazila)

	// Output:
	// village="Charpara" post_office="Sadar PO" upazila="Mymensingh Sadar"
	// village="Charpara" post_office="" upazila=""
}
