package util

import "fmt"

// MHzToString renders a frequency in Hz as a human-readable MHz value for
// logs and metric tags.
func MHzToString(hz int) string {
	return fmt.Sprintf("%0.4f MHz", float64(hz)/1e6)
}
