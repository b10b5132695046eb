// Package audio defines the playback and capture interfaces the controller
// uses to move sound between the repeater and the filesystem.
package audio

// Player plays audio clips through the transmitter audio path.
type Player interface {
	// Play plays the clip at path and blocks until playback finishes.
	Play(path string) error
}

// Capture is a recording in progress.
type Capture interface {
	// Stop ends the capture and finalizes the file.
	Stop() error
}

// Recorder captures receiver audio to files.
type Recorder interface {
	// Start begins capturing to path and returns without waiting.
	Start(path string) (Capture, error)
}
