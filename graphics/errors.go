package graphics

import "fmt"

// Shader stages reported by ShaderCompileError.
const (
	StageVertex    = "vertex"
	StageFragment  = "fragment"
	StageTranslate = "translate"
)

// ShaderCompileError carries the compiler diagnostic of a failed stage.
type ShaderCompileError struct {
	Stage string
	Log   string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("failed to compile %s shader: %s", e.Stage, e.Log)
}

// ShaderLinkError carries the linker diagnostic of a failed program.
type ShaderLinkError struct {
	Log string
}

func (e *ShaderLinkError) Error() string {
	return fmt.Sprintf("failed to link program: %s", e.Log)
}

// DeviceError is a pending error code reported by the device.
type DeviceError struct {
	Code uint32
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device error 0x%04x", e.Code)
}
