// Package decode turns audio files into interleaved 16-bit blocks.
package decode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
)

// ErrUnknownFormat is returned by Open for a file it has no decoder for.
var ErrUnknownFormat = errors.New("unknown audio format")

// Stream is a decoded audio file.
type Stream interface {
	// Read fills dst with interleaved samples and returns how many were
	// written. It returns io.EOF once the stream is exhausted.
	Read(dst []int16) (int, error)
	SampleRate() int
	Channels() int
	Close() error
}

type fileStream struct {
	Stream
	f *os.File
}

func (s *fileStream) Close() error {
	s.Stream.Close()
	return s.f.Close()
}

// Open picks a decoder from the file extension.
func Open(path string) (Stream, error) {
	var open func(*os.File) (Stream, error)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		open = func(f *os.File) (Stream, error) { return NewWAV(f) }
	case ".mp3":
		open = func(f *os.File) (Stream, error) { return NewMP3(f) }
	case ".flac":
		open = func(f *os.File) (Stream, error) { return NewFLAC(f) }
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s, err := open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	glog.Infof("opened %s: %d Hz, %d channels", filepath.Base(path), s.SampleRate(), s.Channels())
	return &fileStream{Stream: s, f: f}, nil
}
