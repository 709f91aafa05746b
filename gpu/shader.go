package gpu

import (
	"encoding/binary"
	"io/fs"
	"os"

	"github.com/pkg/errors"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// Entry points that the shaders are expected to have.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// Shader is a SPIR-V module loaded from disk.
type Shader struct {
	Path string
	Code []uint32
}

// LoadShader reads the SPIR-V module at path.
func LoadShader(path string) (*Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(ErrShaderMissing, path)
		}
		return nil, errors.Wrapf(err, "read shader %v", path)
	}

	code, err := DecodeSPIRV(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return &Shader{Path: path, Code: code}, nil
}

// DecodeSPIRV converts a SPIR-V module from its little-endian byte
// encoding into words.
func DecodeSPIRV(data []byte) ([]uint32, error) {
	if (len(data) == 0) || (len(data)%4 != 0) {
		return nil, errors.Wrapf(ErrInvalidShader, "length %v is not a positive multiple of 4", len(data))
	}

	code := make([]uint32, len(data)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	if code[0] != spirvMagic {
		return nil, errors.Wrapf(ErrInvalidShader, "bad magic %#08x", code[0])
	}
	return code, nil
}

// CheckShaders makes sure that every path exists before anything is
// done that would need to be undone if one didn't.
func CheckShaders(paths ...string) error {
	for _, path := range paths {
		_, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return errors.Wrap(ErrShaderMissing, path)
			}
			return errors.Wrapf(err, "stat shader %v", path)
		}
	}
	return nil
}
