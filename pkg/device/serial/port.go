package serial

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// BaudRate of the torch controller link
const BaudRate = 115200

// Open opens the controller's serial port at 115200 baud, 8N1, and returns
// a service speaking the line protocol over it.
func Open(portPath string, opts Options) (*Service, error) {
	mode := &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portPath, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portPath, err)
	}

	log.Info().Str("port", portPath).Msg("Serial port opened")

	return NewService(port, opts), nil
}

// Ports lists the serial ports present on the host
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
