package form

import (
	"fmt"
	"math/rand/v2"
	"regexp"
)

// IDGenerator produces application identifiers for human reference. They are
// not guaranteed unique.
type IDGenerator interface {
	NewApplicationID() string
}

// IDFunc adapts a function to IDGenerator.
type IDFunc func() string

func (f IDFunc) NewApplicationID() string { return f() }

// RandomIDs generates identifiers of the form SIM-NNNNNN.
var RandomIDs IDGenerator = IDFunc(func() string {
	return fmt.Sprintf("SIM-%06d", 100000+rand.IntN(900000))
})

var applicationIDPattern = regexp.MustCompile(`^SIM-[1-9][0-9]{5}$`)

// ValidApplicationID reports whether id has the SIM-NNNNNN format.
func ValidApplicationID(id string) bool {
	return applicationIDPattern.MatchString(id)
}
