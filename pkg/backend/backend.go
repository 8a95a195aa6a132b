// Package backend selects and opens the torch backend named in the
// configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/torchd/pkg/db"
	"github.com/urmzd/torchd/pkg/device"
	"github.com/urmzd/torchd/pkg/device/fake"
	"github.com/urmzd/torchd/pkg/device/serial"
	"github.com/urmzd/torchd/pkg/device/sysfs"
)

// FakeHandle is the unit exposed by the fake backend
const FakeHandle device.Handle = "fake:torch"

// Backend is an opened torch service with its change-event source
type Backend struct {
	Name    string
	Service device.Service
	Events  device.EventSubscriber
}

// Open opens the backend described by settings. Backends that fail to open
// fall back to the null service so the process still starts; the session
// then reports that no torch was found. Sysfs polling stops when ctx ends.
func Open(ctx context.Context, settings db.TorchSettings) Backend {
	b, err := open(ctx, settings)
	if err != nil {
		log.Warn().Err(err).Str("backend", settings.Backend).Msg("Torch backend unavailable, using null backend")
		return Null()
	}
	log.Info().Str("backend", b.Name).Msg("Torch backend opened")
	return b
}

// Null returns the backend used when no torch hardware is reachable
func Null() Backend {
	return Backend{
		Name:    device.BackendNone,
		Service: device.NewNullService(),
		Events:  device.NewNullEventSubscriber(),
	}
}

func open(ctx context.Context, settings db.TorchSettings) (Backend, error) {
	switch settings.Backend {
	case db.BackendSysfs:
		svc, err := sysfs.NewService(settings.SysfsRoot, settings.PollInterval)
		if err != nil {
			return Backend{}, err
		}
		go svc.Watch(ctx)
		return Backend{Name: device.BackendSysfs, Service: svc, Events: svc}, nil

	case db.BackendSerial:
		port := settings.SerialPort
		if port == "" {
			ports, err := serial.Ports()
			if err != nil {
				return Backend{}, fmt.Errorf("list serial ports: %w", err)
			}
			if len(ports) == 0 {
				return Backend{}, fmt.Errorf("no serial ports found")
			}
			port = ports[0]
		}
		svc, err := serial.Open(port, serial.Options{})
		if err != nil {
			return Backend{}, err
		}
		return Backend{Name: device.BackendSerial, Service: svc, Events: svc}, nil

	case db.BackendFake:
		svc := fake.NewService(fake.Unit{
			Handle:           FakeHandle,
			MaxStrengthLevel: settings.FallbackMaxLevel,
			Available:        true,
		})
		return Backend{Name: device.BackendFake, Service: svc, Events: svc}, nil

	case db.BackendNone:
		return Null(), nil

	default:
		return Backend{}, fmt.Errorf("unknown torch backend %q", settings.Backend)
	}
}
