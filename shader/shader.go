package shader

import (
	"strings"
)

// Profile selects the GLSL dialect of the generated program text.
type Profile int

const (
	// ProfileCore emits desktop GLSL 3.30 core, compiled as is.
	ProfileCore Profile = iota
	// ProfileANGLE emits ESSL 3.00, meant to be run through the ANGLE translator first.
	ProfileANGLE
)

func (p Profile) String() string {
	if p == ProfileANGLE {
		return "angle"
	}
	return "core"
}

// Policy is the rule used to embed raw effect text into a compilable program.
type Policy int

const (
	// PolicyImage wraps a bare mainImage function with a generated entry point.
	PolicyImage Policy = iota
	// PolicyNative keeps a body that already defines its own entry point.
	PolicyNative
	// PolicyDefault appends a minimal entry point producing a time-varying color.
	PolicyDefault
)

func (p Policy) String() string {
	switch p {
	case PolicyImage:
		return "image"
	case PolicyNative:
		return "native"
	default:
		return "default"
	}
}

// ────────────────────────────────── Desktop GL ──────────────────────────────────

const versionHeaderGL = "#version 330 core\n\n"

const vertexShaderSourceGL = `#version 330 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aTexCoord;
void main()
{
    gl_Position = vec4(aPos, 1.0);
}
`

// ANGLE output is GLSL 4.10, so the vertex stage has to match it.
const vertexShaderSourceANGLE = `#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aTexCoord;
void main()
{
    gl_Position = vec4(aPos, 1.0);
}
`

// ──────────────────────────────────── GLES ──────────────────────────────────────

const versionHeaderGLES = `#version 300 es
precision highp float;
precision highp int;

`

// ─────────────────────────────── Uniform interface ──────────────────────────────

// UniformBlockMarker opens the generated uniform block. Its presence marks text
// that has already been through Translate.
const UniformBlockMarker = "// Shadertoy-compatible uniforms"

const uniformBlock = UniformBlockMarker + `
uniform vec3 iResolution;
uniform float iTime;
uniform float iTimeDelta;
uniform int iFrame;
uniform float iFrameRate;
uniform vec4 iMouse;
uniform vec4 iDate;
uniform float iSampleRate;
uniform sampler2D iChannel0;
uniform sampler2D iChannel1;
uniform sampler2D iChannel2;
uniform sampler2D iChannel3;

out vec4 fragColor;

`

// UniformNames lists every uniform declared by the generated block that the
// renderer binds each frame.
var UniformNames = []string{
	"iResolution",
	"iTime",
	"iTimeDelta",
	"iFrame",
	"iFrameRate",
	"iMouse",
	"iDate",
	"iSampleRate",
}

// ─────────────────────────────── Entry point glue ───────────────────────────────

// ImageEntryPoint is the generated wrapper calling a Shadertoy style mainImage.
const ImageEntryPoint = `
void main() {
    mainImage(fragColor, gl_FragCoord.xy);
}
`

const defaultEntryPoint = `
void main() {
    vec2 uv = gl_FragCoord.xy / iResolution.xy;
    fragColor = vec4(uv, 0.5 + 0.5 * sin(iTime), 1.0);
}
`

// DefaultEffect is the built-in swirl used whenever an effect is missing or
// nothing else compiled. It is raw effect text and goes through Translate
// like every other effect.
const DefaultEffect = `#define PI 3.14159265359

// Simple colorful swirl
void mainImage(out vec4 fragColor, in vec2 fragCoord) {
    vec2 uv = (fragCoord - 0.5 * iResolution.xy) / iResolution.y;

    float len = length(uv);
    float angle = atan(uv.y, uv.x);

    float swirl = angle + iTime * 2.0 + sin(len * 10.0 - iTime * 3.0) * 0.5;

    vec3 color = vec3(
        0.5 + 0.5 * sin(swirl * 2.0),
        0.5 + 0.5 * sin(swirl * 2.0 + PI * 2.0 / 3.0),
        0.5 + 0.5 * sin(swirl * 2.0 + PI * 4.0 / 3.0)
    );

    color *= 1.0 - smoothstep(0.0, 1.0, len);
    color *= 0.8 + 0.2 * sin(iTime);

    fragColor = vec4(color, 1.0);
}
`

// ────────────────────────────────── Public API ─────────────────────────────────

// Translator turns raw effect text into a complete fragment program.
type Translator struct {
	Profile Profile
}

// Translate converts raw effect text with the desktop core profile.
func Translate(raw string) string {
	return Translator{Profile: ProfileCore}.Translate(raw)
}

// DetectPolicy reports which wrap policy Translate applies to raw. The checks
// are plain substring tests, evaluated image first, then native entry point.
func DetectPolicy(raw string) Policy {
	switch {
	case strings.Contains(raw, "mainImage"):
		return PolicyImage
	case strings.Contains(raw, "void main()"):
		return PolicyNative
	default:
		return PolicyDefault
	}
}

// Translate never fails; text it cannot classify gets the default entry point.
func (t Translator) Translate(raw string) string {
	var sb strings.Builder
	sb.Grow(len(raw) + len(uniformBlock) + 256)

	directive, body := splitVersion(raw)
	if directive == "" {
		sb.WriteString(t.header())
	} else {
		sb.WriteString(directive)
	}
	if !strings.Contains(raw, UniformBlockMarker) {
		sb.WriteString(uniformBlock)
	}

	sb.WriteString(body)

	switch DetectPolicy(raw) {
	case PolicyImage:
		if !strings.Contains(raw, ImageEntryPoint) {
			sb.WriteString("\n")
			sb.WriteString(ImageEntryPoint)
		}
	case PolicyNative:
	default:
		sb.WriteString("\n")
		sb.WriteString(defaultEntryPoint)
	}
	return sb.String()
}

// splitVersion cuts raw after its #version line, which must stay the first
// directive of the program.
func splitVersion(raw string) (directive, body string) {
	i := strings.Index(raw, "#version")
	if i < 0 {
		return "", raw
	}
	nl := strings.IndexByte(raw[i:], '\n')
	if nl < 0 {
		return raw + "\n", ""
	}
	return raw[:i+nl+1], raw[i+nl+1:]
}

func (t Translator) header() string {
	if t.Profile == ProfileANGLE {
		return versionHeaderGLES
	}
	return versionHeaderGL
}

// GenerateVertexShader returns the pass-through vertex stage for the quad.
func GenerateVertexShader(p Profile) string {
	if p == ProfileANGLE {
		return vertexShaderSourceANGLE
	}
	return vertexShaderSourceGL
}
