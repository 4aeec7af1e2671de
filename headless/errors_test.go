package headless

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	err := fmt.Errorf("pbuffer: %w", Error{Call: "eglCreatePbufferSurface", Code: 0x3004})
	assert.EqualError(t, err, "pbuffer: egl: eglCreatePbufferSurface failed: EGL_BAD_ATTRIBUTE (0x3004)")

	var eglErr Error
	assert.True(t, errors.As(err, &eglErr))
	assert.Equal(t, 0x3004, eglErr.Code)

	assert.Equal(t, "egl: eglInitialize failed: unknown error (0x1)", Error{Call: "eglInitialize", Code: 1}.Error())
}
