// Package translator wraps the WebGL2 to desktop GLSL shader translator. The
// translator is expensive to create so a single instance is shared.
package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

var (
	once       sync.Once
	translator *gst.ShaderTranslator
	initErr    error
)

// GetTranslator returns the shared translator, creating it on first use.
func GetTranslator() (*gst.ShaderTranslator, error) {
	once.Do(func() {
		translator, initErr = gst.NewShaderTranslator(context.Background())
	})
	return translator, initErr
}

// Translated is a fragment shader translated to GLSL 4.10 core.
type Translated struct {
	Code string

	// uniform names in the source mapped to their names in Code
	Uniforms map[string]string
}

// Fragment translates WebGL2 (GLSL ES 3.00) fragment shader source.
func Fragment(source string) (Translated, error) {
	t, err := GetTranslator()
	if err != nil {
		return Translated{}, fmt.Errorf("translator: %w", err)
	}

	out, err := t.TranslateShader(source, "fragment", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL410)
	if err != nil {
		return Translated{}, fmt.Errorf("translator: fragment shader: %w", err)
	}

	tr := Translated{
		Code:     out.Code,
		Uniforms: make(map[string]string, len(out.Variables)),
	}
	for name, v := range out.Variables {
		tr.Uniforms[name] = v.MappedName
	}
	return tr, nil
}
