// wav.go - optional RIFF/WAVE capture sink: tees a Driver's rendered
// output to a file for offline inspection, alongside live playback.

package opn2

import (
	"encoding/binary"
	"io"
)

// WavWriter is an io.WriteSeeker-backed RIFF/WAVE writer. It never feeds
// playback; it only observes samples a caller hands it after FillBuffer.
type WavWriter struct {
	w          io.WriteSeeker
	sampleRate uint32
	dataBytes  uint32
	headerLen  int64
}

// NewWavWriter writes a 16-bit stereo PCM header at the current position
// of w and returns a writer ready to accept interleaved int16 frames via
// WriteFrames. The header's size fields are placeholders, patched by
// Close once the final length is known. Close patches them at offsets 4
// and 40 from the start of w, so the patch lands in the header only when
// the header was written at offset 0.
func NewWavWriter(w io.WriteSeeker, sampleRate uint32) (*WavWriter, error) {
	const (
		channels      = 2
		bitsPerSample = 16
	)
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := uint16(channels * bitsPerSample / 8)

	hdr := make([]byte, 44)
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 36) // patched on Close
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16) // fmt chunk length
	binary.LittleEndian.PutUint16(hdr[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], channels)
	binary.LittleEndian.PutUint32(hdr[24:28], sampleRate)
	binary.LittleEndian.PutUint32(hdr[28:32], byteRate)
	binary.LittleEndian.PutUint16(hdr[32:34], blockAlign)
	binary.LittleEndian.PutUint16(hdr[34:36], bitsPerSample)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], 0) // patched on Close

	if _, err := w.Write(hdr); err != nil {
		return nil, err
	}
	return &WavWriter{w: w, sampleRate: sampleRate, headerLen: 44}, nil
}

// WriteFrames appends interleaved stereo int16 samples to the file.
func (ww *WavWriter) WriteFrames(frames []int16) error {
	buf := make([]byte, len(frames)*2)
	for i, s := range frames {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	n, err := ww.w.Write(buf)
	ww.dataBytes += uint32(n)
	return err
}

// Close patches the RIFF and data chunk sizes now that the final length
// is known. It does not close the underlying writer.
func (ww *WavWriter) Close() error {
	if _, err := ww.w.Seek(4, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Write(ww.w, binary.LittleEndian, uint32(36+ww.dataBytes)); err != nil {
		return err
	}
	if _, err := ww.w.Seek(40, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Write(ww.w, binary.LittleEndian, ww.dataBytes); err != nil {
		return err
	}
	_, err := ww.w.Seek(0, io.SeekEnd)
	return err
}
