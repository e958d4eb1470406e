package binary

import (
	"fmt"
	"os/exec"

	"github.com/farcloser/primordium/fault"
)

// Available checks if a binary is available in the system PATH.
func Available(binName string) (string, bool) {
	path, err := exec.LookPath(binName)

	return path, err == nil
}

// Require resolves binName in the system PATH, failing with fault.ErrMissingRequirements.
func Require(binName string) (string, error) {
	path, found := Available(binName)
	if !found {
		return "", fmt.Errorf("%w: %s", fault.ErrMissingRequirements, binName)
	}

	return path, nil
}
