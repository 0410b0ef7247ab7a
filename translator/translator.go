// Package translator runs fragment programs through the ANGLE shader
// translator so ESSL effects compile on desktop GL 4.1.
package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

// ANGLE translates WebGL2 fragment shaders to GLSL 4.10. The underlying
// translator is created on first use and shared.
type ANGLE struct {
	once sync.Once
	xl   *gst.ShaderTranslator
	err  error
}

// NewANGLE returns a translator; the wasm module loads lazily.
func NewANGLE() *ANGLE {
	return &ANGLE{}
}

func (a *ANGLE) init() error {
	a.once.Do(func() {
		a.xl, a.err = gst.NewShaderTranslator(context.Background())
		if a.err != nil {
			a.err = fmt.Errorf("failed to create shader translator: %w", a.err)
		}
	})
	return a.err
}

// Transpile returns the translated code and the mapped name of every uniform
// the translator kept.
func (a *ANGLE) Transpile(fragmentSource string) (string, map[string]string, error) {
	if err := a.init(); err != nil {
		return "", nil, err
	}
	out, err := a.xl.TranslateShader(fragmentSource, "fragment", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL410)
	if err != nil {
		return "", nil, fmt.Errorf("fragment shader translation failed: %w", err)
	}
	names := make(map[string]string, len(out.Variables))
	for name, v := range out.Variables {
		names[name] = v.MappedName
	}
	return out.Code, names, nil
}
