package render

import "github.com/oculab/visor/internal/mat4"

// ProgramID identifies a linked shader program.
type ProgramID uint32

// BufferID identifies an uploaded vertex buffer.
type BufferID uint32

// TextureID identifies a 2D texture.
type TextureID uint32

// GL is the command boundary to the host's GPU context. Implementations
// are expected to be driven from the frame loop only; none of the calls
// may block.
type GL interface {
	// CompileProgram compiles and links a vertex/fragment pair.
	CompileProgram(vertexSrc, fragmentSrc string) (ProgramID, error)

	// CreateBuffer uploads static interleaved vertex data.
	CreateBuffer(data []float32) BufferID

	// CreateTexture allocates a texture object.
	CreateTexture() TextureID

	// TexImage replaces the full texture contents with RGBA pixels.
	TexImage(tex TextureID, width, height int, pixels []byte)

	// BindFramebuffer binds the session's render target for this tick.
	BindFramebuffer()

	// Viewport sets the drawing sub-rectangle.
	Viewport(x, y, width, height int)

	// Clear clears color and depth of the current viewport state.
	Clear()

	// EnableDepthTest turns on depth testing.
	EnableDepthTest()

	// Draw issues one textured draw of vertexCount vertices.
	Draw(program ProgramID, buffer BufferID, tex TextureID, mvp mat4.Mat4, vertexCount int)
}

// Nop returns a GL that accepts every call and renders nothing. It backs
// headless runs where no GPU context exists.
func Nop() GL { return nopGL{} }

type nopGL struct{}

func (nopGL) CompileProgram(string, string) (ProgramID, error) { return 1, nil }
func (nopGL) CreateBuffer([]float32) BufferID                  { return 1 }
func (nopGL) CreateTexture() TextureID                         { return 1 }
func (nopGL) TexImage(TextureID, int, int, []byte)             {}
func (nopGL) BindFramebuffer()                                 {}
func (nopGL) Viewport(int, int, int, int)                      {}
func (nopGL) Clear()                                           {}
func (nopGL) EnableDepthTest()                                 {}
func (nopGL) Draw(ProgramID, BufferID, TextureID, mat4.Mat4, int) {
}
