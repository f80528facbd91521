package boards

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ardnew/softdma/dma"
	"github.com/ardnew/softdma/pkg"
	"github.com/ardnew/softdma/serial"
)

//go:embed boards.yaml
var rawBoards []byte

var chips []Chip

func init() {
	if err := yaml.Unmarshal(rawBoards, &chips); err != nil {
		// The board map is a build artifact; failing to parse it is
		// not a runtime condition any caller can handle.
		panic("boards: " + err.Error())
	}
}

// SerialPorts names a serial peripheral's data register addresses.
type SerialPorts struct {
	TxData uint64 `yaml:"txData"`
	RxData uint64 `yaml:"rxData"`
}

// Chip describes one supported device's memory map.
type Chip struct {
	Name        string      `yaml:"name"`
	DMABase     uint64      `yaml:"dmaBase"`
	DMAStride   uint64      `yaml:"dmaStride"`
	DMAChannels int         `yaml:"dmaChannels"`
	Serial      SerialPorts `yaml:"serial"`
}

// All returns every chip in the board map.
func All() []Chip {
	return chips
}

// Find returns the chip with the given name, case-insensitively.
func Find(name string) (Chip, error) {
	for _, c := range chips {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return Chip{}, pkg.ErrUnknownChip
}

// RegisterMap builds the register map for the given DMA channel index
// on this chip.
func (c Chip) RegisterMap(channel int) (dma.RegisterMap, error) {
	if channel < 0 || channel >= c.DMAChannels {
		return dma.RegisterMap{}, pkg.ErrNoChannel
	}
	base := uintptr(c.DMABase + uint64(channel)*c.DMAStride)
	return dma.MapAt(base), nil
}

// SerialConfig returns the serial peripheral configuration for this
// chip.
func (c Chip) SerialConfig() serial.Config {
	return serial.Config{
		TxData: uintptr(c.Serial.TxData),
		RxData: uintptr(c.Serial.RxData),
	}
}
