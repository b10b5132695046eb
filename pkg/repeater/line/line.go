package line

// Line is the physical control link to the repeater hardware: an input
// signal that reports whether the receiver hears a carrier, and an output
// signal that keys the transmitter.
type Line interface {
	// ReadBusy reports the current state of the receive-busy signal
	// without blocking.
	ReadBusy() (bool, error)
	// SetTransmit asserts or deasserts the transmit key.
	SetTransmit(on bool) error
	// Close releases the hardware. Implementations deassert transmit
	// before closing.
	Close() error
}
