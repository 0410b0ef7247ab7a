package graphics_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/richinsley/goshadersaver/graphics"
	"github.com/richinsley/goshadersaver/graphics/graphicstest"
)

func TestCreateQuad(t *testing.T) {
	dev := graphicstest.New()
	m, err := graphics.CreateQuad(dev)
	if err != nil {
		t.Fatal(err)
	}
	if m.IndexCount != 6 {
		t.Errorf("IndexCount = %d, want 6", m.IndexCount)
	}
	if got := len(graphics.QuadVertices); got != 4*int(graphics.QuadStride) {
		t.Errorf("vertex data holds %d floats, want 4 vertices of %d", got, graphics.QuadStride)
	}
	for _, i := range graphics.QuadIndices {
		if i > 3 {
			t.Errorf("index %d out of range", i)
		}
	}
}

func TestErrorsMatch(t *testing.T) {
	err := fmt.Errorf("effect 3: %w", &graphics.ShaderCompileError{Stage: graphics.StageFragment, Log: "0:12: syntax error"})

	var ce *graphics.ShaderCompileError
	if !errors.As(err, &ce) || ce.Stage != graphics.StageFragment {
		t.Fatalf("errors.As did not find the compile error in %v", err)
	}
	if want := "effect 3: failed to compile fragment shader: 0:12: syntax error"; err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}

	var le *graphics.ShaderLinkError
	if errors.As(err, &le) {
		t.Error("compile error matched as link error")
	}
	if got := (&graphics.DeviceError{Code: 0x0505}).Error(); got != "device error 0x0505" {
		t.Errorf("DeviceError = %q", got)
	}
}
