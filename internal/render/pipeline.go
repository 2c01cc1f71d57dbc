// Package render presents up to three live video feeds as fixed quads in
// the viewer's field. One shared quad, one texture per slot; slots keep
// drawing their placeholder until a feed becomes ready, so the layout is
// stable before all cameras are up.
package render

import (
	"github.com/rs/zerolog"

	"github.com/oculab/visor/internal/mat4"
	"github.com/oculab/visor/internal/xr"
)

// Slots is the fixed number of video quads.
const Slots = 3

const vertexShaderSrc = `
attribute vec2 aPosition;
attribute vec2 aTexCoord;
uniform mat4 uMVP;
varying vec2 vTexCoord;
void main() {
	gl_Position = uMVP * vec4(aPosition, 0.0, 1.0);
	vTexCoord = aTexCoord;
}
`

const fragmentShaderSrc = `
precision mediump float;
uniform sampler2D uTexture;
varying vec2 vTexCoord;
void main() {
	gl_FragColor = texture2D(uTexture, vTexCoord);
}
`

// Placement positions one quad slot in world space.
type Placement struct {
	Position [3]float64
	Scale    [2]float64
}

// DefaultPlacements lays the wrist feeds left and right of center with
// the exo view above, all 1.5m in front of the seated origin. Slot order
// follows track arrival order: wrist-left, wrist-right, exo.
func DefaultPlacements() [Slots]Placement {
	return [Slots]Placement{
		{Position: [3]float64{-0.75, 1.2, -1.5}, Scale: [2]float64{0.6, 0.45}},
		{Position: [3]float64{0.75, 1.2, -1.5}, Scale: [2]float64{0.6, 0.45}},
		{Position: [3]float64{0, 2.0, -1.5}, Scale: [2]float64{0.8, 0.6}},
	}
}

// Source is one inbound video feed the pipeline can sample. Frame
// reports ok only while current decoded data exists; the pipeline then
// copies the newest picture into the slot texture.
type Source interface {
	Frame() (pix []byte, width, height int, ok bool)
}

// Pipeline owns the GPU-side state for the quad layout.
type Pipeline struct {
	gl     GL
	logger zerolog.Logger

	program    ProgramID
	programOK  bool
	quad       BufferID
	textures   [Slots]TextureID
	placements [Slots]Placement
}

// New builds the pipeline: compiles the program, uploads the shared quad
// and allocates one black placeholder texture per slot. A shader compile
// failure is logged and leaves drawing a no-op rather than failing the
// viewer.
func New(gl GL, placements [Slots]Placement, logger *zerolog.Logger) *Pipeline {
	p := &Pipeline{
		gl:         gl,
		logger:     logger.With().Str("component", "render").Logger(),
		placements: placements,
	}

	program, err := gl.CompileProgram(vertexShaderSrc, fragmentShaderSrc)
	if err != nil {
		p.logger.Err(err).Msg("could not compile quad program, rendering disabled")
	} else {
		p.program = program
		p.programOK = true
	}

	// Unit quad, two triangles, interleaved position/texcoord.
	// Texture rows arrive top-first, hence the flipped v coordinates.
	p.quad = gl.CreateBuffer([]float32{
		-0.5, -0.5, 0, 1,
		0.5, -0.5, 1, 1,
		0.5, 0.5, 1, 0,
		-0.5, -0.5, 0, 1,
		0.5, 0.5, 1, 0,
		-0.5, 0.5, 0, 0,
	})

	for i := range p.textures {
		p.textures[i] = gl.CreateTexture()
		gl.TexImage(p.textures[i], 1, 1, []byte{0, 0, 0, 255})
	}

	return p
}

// BeginFrame binds the render target for this tick.
func (p *Pipeline) BeginFrame() {
	p.gl.BindFramebuffer()
}

// Upload copies the newest picture of every ready source into its slot
// texture. Sources map to slots by index; missing or not-ready sources
// leave the previous contents (or the placeholder) in place.
func (p *Pipeline) Upload(sources []Source) {
	for i := 0; i < Slots && i < len(sources); i++ {
		if sources[i] == nil {
			continue
		}
		pix, w, h, ok := sources[i].Frame()
		if !ok {
			continue
		}
		p.gl.TexImage(p.textures[i], w, h, pix)
	}
}

// DrawEye renders all quad slots for one eye view. Every slot draws,
// connected or not, so the in-headset layout never shifts while feeds
// come up.
func (p *Pipeline) DrawEye(view *xr.View) {
	if !p.programOK {
		return
	}

	vp := view.Viewport
	p.gl.Viewport(vp.X, vp.Y, vp.Width, vp.Height)
	p.gl.Clear()
	p.gl.EnableDepthTest()

	viewProjection := mat4.Multiply(view.Projection, mat4.InvertRigid(view.Transform))
	for i, placement := range p.placements {
		model := mat4.Multiply(
			mat4.Translate(placement.Position[0], placement.Position[1], placement.Position[2]),
			mat4.Scale(placement.Scale[0], placement.Scale[1], 1),
		)
		p.gl.Draw(p.program, p.quad, p.textures[i], mat4.Multiply(viewProjection, model), 6)
	}
}
