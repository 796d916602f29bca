//go:build tinygo && stm32f4

package platform

import (
	"device/stm32"
	"machine"

	"ledcode-go/types"
)

// stm32f4 drives GPIOA..GPIOC directly. Clock gating lives in RCC.AHB1ENR.
type stm32f4 struct{}

// Default returns the register-level STM32F4 backend.
func Default() Backend { return stm32f4{} }

func init() {
	Register("stm32", func(types.BoardConfig) (Backend, error) { return stm32f4{}, nil })
}

func (stm32f4) Name() string { return "stm32" }
func (stm32f4) Err() error   { return nil }
func (stm32f4) Close() error { return nil }

func (stm32f4) EnableClock(port types.Port) {
	switch port {
	case types.PortA:
		stm32.RCC.AHB1ENR.SetBits(stm32.RCC_AHB1ENR_GPIOAEN)
	case types.PortB:
		stm32.RCC.AHB1ENR.SetBits(stm32.RCC_AHB1ENR_GPIOBEN)
	case types.PortC:
		stm32.RCC.AHB1ENR.SetBits(stm32.RCC_AHB1ENR_GPIOCEN)
	}
}

func gpioOf(port types.Port) *stm32.GPIO_Type {
	switch port {
	case types.PortA:
		return stm32.GPIOA
	case types.PortB:
		return stm32.GPIOB
	case types.PortC:
		return stm32.GPIOC
	}
	return nil
}

func (stm32f4) Configure(cfg types.PinConfig) {
	gp := gpioOf(cfg.Port)
	if gp == nil {
		return
	}
	machine.Pin(cfg.Port.Index()*16 + int(cfg.Pin)).Configure(machine.PinConfig{Mode: machine.PinOutput})

	pos := cfg.Pin * 2
	otype := uint32(0)
	if cfg.Mode == types.ModeOutputOpenDrain {
		otype = 1
	}
	gp.OTYPER.ReplaceBits(otype, 0x1, cfg.Pin)
	gp.OSPEEDR.ReplaceBits(uint32(cfg.Speed), 0x3, pos)
	gp.PUPDR.ReplaceBits(uint32(cfg.Pull), 0x3, pos)
}

func (stm32f4) Write(port types.Port, pin uint8, level types.Level) {
	gp := gpioOf(port)
	if gp == nil {
		return
	}
	if level {
		gp.BSRR.Set(1 << pin)
	} else {
		gp.BSRR.Set(1 << (pin + 16))
	}
}

// Toggle reads ODR and writes the opposite through BSRR, which the hardware
// applies atomically.
func (s stm32f4) Toggle(port types.Port, pin uint8) {
	gp := gpioOf(port)
	if gp == nil {
		return
	}
	high := gp.ODR.Get()&(1<<pin) != 0
	s.Write(port, pin, types.Level(!high))
}
