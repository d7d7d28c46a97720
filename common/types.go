// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// Format is the name of the decoder that produced the pixels (e.g. "png", "webp").
	Format string
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// Descriptor converts the staging data into a wgpu.SamplerDescriptor.
//
// Parameters:
//   - label: the debug label of the sampler
//
// Returns:
//   - *wgpu.SamplerDescriptor: the descriptor ready for Device.CreateSampler
func (s SamplerStagingData) Descriptor(label string) *wgpu.SamplerDescriptor {
	return &wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  s.AddressModeU,
		AddressModeV:  s.AddressModeV,
		AddressModeW:  s.AddressModeW,
		MagFilter:     s.MagFilter,
		MinFilter:     s.MinFilter,
		MipmapFilter:  s.MipmapFilter,
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   s.LodMaxClamp,
		MaxAnisotropy: s.MaxAnisotropy,
	}
}

// DecodeTexture decodes an encoded image to raw RGBA pixel data.
// Supports PNG, JPEG, GIF, BMP, TIFF and WebP.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - data: the encoded image bytes
//
// Returns:
//   - TextureStagingData: RGBA pixels (4 bytes per pixel, row-major order) and dimensions
//   - error: error if decoding fails
func DecodeTexture(data []byte) (TextureStagingData, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return TextureStagingData{}, errors.Wrap(err, "failed to decode image")
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Format: format,
	}, nil
}
