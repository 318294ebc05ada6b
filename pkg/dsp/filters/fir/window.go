package fir

import (
	"math"
)

type WindowFunc func(int) []float64

type WindowType int

const (
	Hamming  WindowType = 0
	Hann     WindowType = 1
	Blackman WindowType = 3
)

var windowFuncs = map[WindowType]WindowFunc{
	Hamming:  HammingWindow,
	Hann:     HannWindow,
	Blackman: BlackmanWindow,
}

// Window returns the window of the given type and length, or nil for an
// unknown type.
func Window(winType WindowType, ntaps int) []float64 {
	f, ok := windowFuncs[winType]
	if !ok {
		return nil
	}
	return f(ntaps)
}

// cosWindow1 evaluates a three term generalized cosine window. Lengths of 0
// and 1 follow the usual convention of an empty window and a single 1.
func cosWindow1(ntaps int, c0, c1, c2 float64) []float64 {
	if ntaps <= 0 {
		return []float64{}
	}
	if ntaps == 1 {
		return []float64{1}
	}
	ret := make([]float64, ntaps)
	M := float64(ntaps - 1)

	for i := 0; i < ntaps; i++ {
		fi := float64(i)
		ret[i] = c0 - c1*math.Cos((2*math.Pi*fi)/M) +
			c2*math.Cos((4*math.Pi*fi)/M)
	}
	return ret
}

func BlackmanWindow(ntaps int) []float64 {
	return cosWindow1(ntaps, 0.42, 0.5, 0.08)
}

func HammingWindow(ntaps int) []float64 {
	return cosWindow1(ntaps, 0.54, 0.46, 0)
}

// HannWindow returns the symmetric raised cosine window used for transmit
// tapers: both end points are zero and the window peaks at the centre.
func HannWindow(taps int) []float64 {
	return cosWindow1(taps, 0.5, 0.5, 0)
}
