package controller

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the host-side configuration. The UI edits the same fields
type Config struct {
	// SerialPort is the robot's port. Empty uses the first USB serial port and SerialPortNone runs without a robot
	SerialPort string `env:"SERIAL_PORT"`
	BaudRate   string `env:"BAUD_RATE" envDefault:"9600"`

	// TWChartAddr enables recording runs when set
	TWChartAddr string `env:"TWCHART_ADDR"`
	SessionName string `env:"SESSION_NAME" envDefault:"Dreamster Run"`
	ProbesInput string `env:"PROBES"`
}

// ConfigFromEnv reads the Config from environment variables
func ConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}
