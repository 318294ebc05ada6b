package sonar

import (
	"fmt"
	"time"
)

// ReceiveData is a [ping][sample][channel] array of complex receive samples
// stored in one flat buffer. Pulse compression rewrites it in place.
type ReceiveData struct {
	Pings    int
	Samples  int
	Channels int
	Data     []complex128
}

func NewReceiveData(pings, samples, channels int) *ReceiveData {
	return &ReceiveData{
		Pings:    pings,
		Samples:  samples,
		Channels: channels,
		Data:     make([]complex128, pings*samples*channels),
	}
}

func (r *ReceiveData) Validate() error {
	if r.Pings < 0 || r.Samples < 0 || r.Channels < 0 {
		return fmt.Errorf("invalid receive data shape [%d %d %d]", r.Pings, r.Samples, r.Channels)
	}
	if len(r.Data) != r.Pings*r.Samples*r.Channels {
		return fmt.Errorf("receive data has %d samples, shape [%d %d %d] needs %d",
			len(r.Data), r.Pings, r.Samples, r.Channels, r.Pings*r.Samples*r.Channels)
	}
	return nil
}

func (r *ReceiveData) index(ping, sample, channel int) int {
	return (ping*r.Samples+sample)*r.Channels + channel
}

func (r *ReceiveData) At(ping, sample, channel int) complex128 {
	return r.Data[r.index(ping, sample, channel)]
}

func (r *ReceiveData) Set(ping, sample, channel int, v complex128) {
	r.Data[r.index(ping, sample, channel)] = v
}

// Trace returns a view of one channel of one ping.
func (r *ReceiveData) Trace(ping, channel int) Trace {
	return Trace{data: r, ping: ping, channel: channel}
}

// Trace is a mutable view of the samples of one (ping, channel) cell.
// Writes through a Trace modify the underlying ReceiveData.
type Trace struct {
	data    *ReceiveData
	ping    int
	channel int
}

func (t Trace) Len() int {
	return t.data.Samples
}

func (t Trace) At(i int) complex128 {
	return t.data.At(t.ping, i, t.channel)
}

// Samples copies the trace out of the receive array.
func (t Trace) Samples() []complex128 {
	ret := make([]complex128, t.data.Samples)
	for i := range ret {
		ret[i] = t.data.At(t.ping, i, t.channel)
	}
	return ret
}

// Overwrite replaces the trace with src, which must have Len samples.
func (t Trace) Overwrite(src []complex128) error {
	if len(src) != t.data.Samples {
		return fmt.Errorf("overwrite trace with %d samples, want %d", len(src), t.data.Samples)
	}
	for i, v := range src {
		t.data.Set(t.ping, i, t.channel, v)
	}
	return nil
}

// PingBatch is the per-ping metadata and receive data of a set of pings.
type PingBatch struct {
	PingTime       []time.Time
	SampleInterval []float64 // seconds per sample
	PulseForm      []int     // 0 for CW, > 0 for FM
	Data           *ReceiveData
}

func (b *PingBatch) NumPings() int {
	return len(b.PingTime)
}

func (b *PingBatch) IsFM(ping int) bool {
	return b.PulseForm[ping] > 0
}

func (b *PingBatch) Validate() error {
	n := b.NumPings()
	if len(b.SampleInterval) != n {
		return fmt.Errorf("batch has %d pings but %d sample intervals", n, len(b.SampleInterval))
	}
	if len(b.PulseForm) != n {
		return fmt.Errorf("batch has %d pings but %d pulse forms", n, len(b.PulseForm))
	}
	if b.Data != nil {
		if err := b.Data.Validate(); err != nil {
			return err
		}
		if b.Data.Pings != n {
			return fmt.Errorf("batch has %d pings but receive data holds %d", n, b.Data.Pings)
		}
	}
	return nil
}

// indices resolves the requested pings, defaulting to every ping in order.
func (b *PingBatch) indices(pings []int) ([]int, error) {
	n := b.NumPings()
	if pings == nil {
		ret := make([]int, n)
		for i := range ret {
			ret[i] = i
		}
		return ret, nil
	}
	for _, p := range pings {
		if p < 0 || p >= n {
			return nil, fmt.Errorf("ping %d of %d: %w", p, n, ErrPingOutOfRange)
		}
	}
	return pings, nil
}
