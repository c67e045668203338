package audio

import (
	"fmt"
	"os"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"sightread/internal/log"
)

// StartRecording begins writing captured frames to a WAV file at the
// configured bit depth. Samples arrive as int32 and shift down to the
// target depth on write.
func (e *Engine) StartRecording(filename string) error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		return fmt.Errorf("already recording")
	}

	bitDepth := e.config.Recording.BitDepth
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	e.outputFile = file

	e.wavEncoder = wav.NewEncoder(file, int(e.config.Audio.SampleRate),
		bitDepth, e.config.Audio.InputChannels, 1)

	e.sampleBuf = &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: e.config.Audio.InputChannels,
			SampleRate:  int(e.config.Audio.SampleRate),
		},
		SourceBitDepth: bitDepth,
		Data:           make([]int, e.config.Audio.FramesPerBuffer*e.config.Audio.InputChannels),
	}

	atomic.StoreInt32(&e.isRecording, 1)

	return nil
}

// writeRecordingFrame converts one capture buffer to the encoder's bit
// depth and appends it. Called from the capture callback only.
func (e *Engine) writeRecordingFrame(buffer []int32) {
	shift := uint(32 - e.config.Recording.BitDepth)
	for i, sample := range buffer {
		e.sampleBuf.Data[i] = int(sample >> shift)
	}
	e.sampleBuf.Data = e.sampleBuf.Data[:len(buffer)]

	if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
		log.Errorf("audio: writing WAV frame: %v", err)
	}
}

func (e *Engine) StopRecording() error {
	if atomic.LoadInt32(&e.isRecording) == 0 {
		return nil
	}

	atomic.StoreInt32(&e.isRecording, 0)

	if e.wavEncoder != nil {
		if err := e.wavEncoder.Close(); err != nil {
			return err
		}
		e.wavEncoder = nil
	}

	if e.outputFile != nil {
		if err := e.outputFile.Close(); err != nil {
			return err
		}
		e.outputFile = nil
	}

	return nil
}

func (e *Engine) Close() error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		if err := e.StopRecording(); err != nil {
			return err
		}
	}

	if err := e.StopInputStream(); err != nil {
		return err
	}

	return nil
}
