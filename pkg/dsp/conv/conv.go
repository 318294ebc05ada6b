// Package conv provides full linear convolution of complex sequences.
//
// Direct evaluates the sum in the time domain and gives bit-identical
// results across runs. FFT uses gonum's complex FFT and suits long kernels
// such as matched filters. Convolve picks between the two.
package conv

import (
	"errors"

	"gonum.org/v1/gonum/dsp/fourier"
)

var (
	ErrEmptyInput  = errors.New("conv: empty input")
	ErrEmptyKernel = errors.New("conv: empty kernel")
)

// DirectThreshold is the largest kernel length Convolve evaluates directly.
const DirectThreshold = 64

// Direct returns the full convolution of a and b, len(a)+len(b)-1 samples.
func Direct(a, b []complex128) ([]complex128, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}
	dst := make([]complex128, len(a)+len(b)-1)
	DirectTo(dst, a, b)
	return dst, nil
}

// DirectTo writes the full convolution of a and b into dst, which must hold
// len(a)+len(b)-1 samples.
func DirectTo(dst, a, b []complex128) {
	for i := range dst {
		dst[i] = 0
	}
	for i := 0; i < len(a); i++ {
		ai := a[i]
		if ai == 0 {
			continue
		}
		out := dst[i : i+len(b)]
		for j, bj := range b {
			out[j] += ai * bj
		}
	}
}

// FFT returns the full convolution of a and b computed by zero padding both
// to a power of two and multiplying their spectra.
func FFT(a, b []complex128) ([]complex128, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	resultLen := len(a) + len(b) - 1
	nfft := nextPowerOf2(resultLen)
	f := fourier.NewCmplxFFT(nfft)

	pa := make([]complex128, nfft)
	copy(pa, a)
	pb := make([]complex128, nfft)
	copy(pb, b)

	ca := f.Coefficients(nil, pa)
	cb := f.Coefficients(nil, pb)
	for i := range ca {
		ca[i] *= cb[i]
	}

	// Sequence is unnormalized.
	seq := f.Sequence(pa, ca)
	scale := complex(1/float64(nfft), 0)
	out := make([]complex128, resultLen)
	for i := range out {
		out[i] = seq[i] * scale
	}
	return out, nil
}

// Convolve returns the full convolution of a and b, using Direct when the
// shorter operand has at most DirectThreshold samples and FFT otherwise.
func Convolve(a, b []complex128) ([]complex128, error) {
	short := len(b)
	if len(a) < short {
		short = len(a)
	}
	if short <= DirectThreshold {
		return Direct(a, b)
	}
	return FFT(a, b)
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
