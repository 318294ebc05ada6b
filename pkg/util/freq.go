package util

import "fmt"

func KHzToString(hz float64) string {
	return fmt.Sprintf("%0.3f kHz", hz/1e3)
}

func MHzToString(hz float64) string {
	return fmt.Sprintf("%0.4f MHz", hz/1e6)
}
