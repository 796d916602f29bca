//go:build !(tinygo && stm32f4)

package platform

// Default returns the simulator on builds without a register-level backend.
func Default() Backend { return NewSim() }
