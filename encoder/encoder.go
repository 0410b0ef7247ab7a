// Package encoder pipes RGBA frames into an ffmpeg process.
package encoder

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"strings"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// frameQueue is how many frames may wait for ffmpeg before WriteFrame blocks.
const frameQueue = 3

// Options describes the output video.
type Options struct {
	Output     string
	Width      int
	Height     int
	FPS        int
	Codec      string
	FFmpegPath string
	Bitrate    string
}

// Encoder consumes frames on a goroutine feeding ffmpeg's stdin.
type Encoder struct {
	opts   Options
	frames chan []byte
	done   chan error

	mu     sync.Mutex
	failed error
	closed bool
}

// Args returns the ffmpeg input and output arguments for opts.
func Args(opts Options) (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"r":       fmt.Sprintf("%d", opts.FPS),
	}

	outputArgs = ffmpeg.KwArgs{
		"pix_fmt": "yuv420p",
	}
	switch opts.Codec {
	case "", "h264":
		outputArgs["c:v"] = "libx264"
	case "hevc":
		outputArgs["c:v"] = "libx265"
	default:
		outputArgs["c:v"] = opts.Codec
	}

	bitrate := opts.Bitrate
	if bitrate == "" {
		bitrate = "25M"
	}
	outputArgs["b:v"] = bitrate

	if outputArgs["c:v"] == "libx265" && strings.HasSuffix(opts.Output, ".mp4") {
		outputArgs["tag:v"] = "hvc1"
	}
	return
}

// New starts ffmpeg writing to opts.Output.
func New(opts Options) (*Encoder, error) {
	if opts.Output == "" {
		return nil, errors.New("encoder: no output file")
	}
	if opts.Width < 1 || opts.Height < 1 || opts.FPS < 1 {
		return nil, fmt.Errorf("encoder: invalid format %dx%d at %d fps", opts.Width, opts.Height, opts.FPS)
	}
	e := &Encoder{
		opts:   opts,
		frames: make(chan []byte, frameQueue),
		done:   make(chan error, 1),
	}
	go e.run()
	return e, nil
}

// run is the consumer: it owns the pipe into ffmpeg.
func (e *Encoder) run() {
	pipeReader, pipeWriter := io.Pipe()
	inputArgs, outputArgs := Args(e.opts)

	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
		Output(e.opts.Output, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()

	if e.opts.FFmpegPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(e.opts.FFmpegPath)
	}

	errc := make(chan error, 1)
	go func() {
		err := ffmpegCmd.Run()
		// unblock writers if ffmpeg quits early
		if err != nil {
			pipeReader.CloseWithError(fmt.Errorf("ffmpeg exited: %w", err))
		} else {
			pipeReader.CloseWithError(io.ErrClosedPipe)
		}
		errc <- err
	}()

	var pts int64
	for pixels := range e.frames {
		if e.err() != nil {
			continue
		}
		if _, err := pipeWriter.Write(pixels); err != nil {
			log.Printf("Error writing frame %d to ffmpeg: %v", pts, err)
			e.fail(fmt.Errorf("writing frame %d: %w", pts, err))
			continue
		}
		pts++
	}
	pipeWriter.Close()

	err := <-errc
	if err == nil {
		err = e.err()
	}
	e.done <- err
}

func (e *Encoder) err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failed
}

func (e *Encoder) fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failed == nil {
		e.failed = err
	}
}

// WriteFrame queues img for encoding. It must match the configured size.
func (e *Encoder) WriteFrame(img *image.RGBA) error {
	if err := e.err(); err != nil {
		return err
	}
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return errors.New("encoder: write after close")
	}
	pixels, err := packFrame(img, e.opts.Width, e.opts.Height)
	if err != nil {
		return err
	}
	e.frames <- pixels
	return nil
}

// Close flushes queued frames and waits for ffmpeg to finish the file.
func (e *Encoder) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	close(e.frames)
	return <-e.done
}

// packFrame copies img into a tightly packed width*height*4 buffer.
func packFrame(img *image.RGBA, width, height int) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return nil, fmt.Errorf("frame is %dx%d, encoder expects %dx%d", b.Dx(), b.Dy(), width, height)
	}
	row := width * 4
	out := make([]byte, row*height)
	for y := 0; y < height; y++ {
		start := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out[y*row:(y+1)*row], img.Pix[start:start+row])
	}
	return out, nil
}
