//go:build !headless

// device_oto.go - host audio output via oto/v3, adapting the pipeline's
// FillBuffer into the io.Reader shape oto.Player expects.

package opn2

import (
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// OtoDevice drives a Driver's FillBuffer from oto's dedicated output
// thread. Its Read method is the one suspension point spec.md §5 places
// in the audio API itself: oto blocks there until a buffer slot is free.
type OtoDevice struct {
	ctx    *oto.Context
	player *oto.Player

	driver atomic.Pointer[Driver] // lock-free hot-read path, mirrors the teacher's pattern
	sampleBuf []int16

	started bool
	mutex   sync.Mutex // setup/control only, never the Read hot path
}

// NewOtoDevice opens an oto context at sampleRate Hz, 2-channel 16-bit PCM.
func NewOtoDevice(sampleRate int) (*OtoDevice, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   0, // oto's default, matching the teacher's unset-is-fine usage elsewhere
	}

	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, err
	}
	<-ready

	return &OtoDevice{ctx: ctx}, nil
}

// Attach installs the Driver this device pulls samples from and creates
// the underlying player. Safe to call again to swap drivers mid-stream.
func (od *OtoDevice) Attach(d *Driver) {
	od.mutex.Lock()
	defer od.mutex.Unlock()

	od.driver.Store(d)
	if od.player == nil {
		od.player = od.ctx.NewPlayer(od)
	}
}

// Read implements io.Reader for oto.Player: it fills p with interleaved
// stereo int16 PCM pulled from the attached Driver's pipeline.
func (od *OtoDevice) Read(p []byte) (n int, err error) {
	d := od.driver.Load()
	if d == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	frames := len(p) / 4 // 2 channels * 2 bytes
	if cap(od.sampleBuf) < frames*2 {
		od.sampleBuf = make([]int16, frames*2)
	}
	buf := od.sampleBuf[:frames*2]

	d.FillBuffer(buf, frames)

	for i, s := range buf {
		p[i*2] = byte(s)
		p[i*2+1] = byte(s >> 8)
	}
	return frames * 4, nil
}

func (od *OtoDevice) Start() {
	od.mutex.Lock()
	defer od.mutex.Unlock()
	if !od.started && od.player != nil {
		od.player.Play()
		od.started = true
	}
}

func (od *OtoDevice) Stop() {
	od.mutex.Lock()
	defer od.mutex.Unlock()
	if od.started && od.player != nil {
		od.player.Pause()
		od.started = false
	}
}

func (od *OtoDevice) Close() error {
	od.Stop()
	od.mutex.Lock()
	defer od.mutex.Unlock()
	if od.player != nil {
		err := od.player.Close()
		od.player = nil
		return err
	}
	return nil
}
