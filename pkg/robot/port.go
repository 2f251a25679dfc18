package robot

import (
	"fmt"
	"strconv"
)

// Bus is the port namespace a device is plugged into.
type Bus int

const (
	// SmartBus is the V5 smart port bank, numbered 1-21.
	SmartBus Bus = iota
	// ADIBus is the three-wire port bank, lettered A-H.
	ADIBus
)

const (
	MaxSmartPort = 21
	MaxADIPort   = 8
)

// Port is a physical channel on the brain.
type Port struct {
	Bus    Bus
	Number int // 1-based in both namespaces
}

// SmartPort returns the smart port with the given number.
func SmartPort(n int) Port {
	return Port{Bus: SmartBus, Number: n}
}

// ADIPort returns the three-wire port for a letter 'A'-'H' (case insensitive).
// Any other letter yields an invalid port.
func ADIPort(letter string) Port {
	if len(letter) != 1 {
		return Port{Bus: ADIBus}
	}
	c := letter[0]
	if c >= 'a' && c <= 'h' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'H' {
		return Port{Bus: ADIBus}
	}
	return Port{Bus: ADIBus, Number: int(c-'A') + 1}
}

// Valid reports whether the port exists on the brain.
func (p Port) Valid() bool {
	switch p.Bus {
	case SmartBus:
		return p.Number >= 1 && p.Number <= MaxSmartPort
	case ADIBus:
		return p.Number >= 1 && p.Number <= MaxADIPort
	}
	return false
}

func (p Port) String() string {
	if p.Bus == ADIBus {
		if !p.Valid() {
			return "?"
		}
		return string(rune('A' + p.Number - 1))
	}
	return strconv.Itoa(p.Number)
}

func (b Bus) String() string {
	switch b {
	case SmartBus:
		return "smart"
	case ADIBus:
		return "adi"
	}
	return fmt.Sprintf("bus(%d)", int(b))
}
