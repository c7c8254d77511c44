package nn

import (
	"fmt"
	"io"

	"github.com/born-ml/seqconv/internal/serialization"
	"github.com/born-ml/seqconv/internal/tensor"
)

// ParameterSet is anything that exposes trainable parameters. Every
// Module satisfies it.
type ParameterSet interface {
	Parameters() []*Parameter
}

// StateDict maps parameter names to their tensors. Tensors are shared, not
// copied.
func StateDict(m ParameterSet) map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for _, p := range m.Parameters() {
		state[p.Name()] = p.Tensor()
	}
	return state
}

// LoadStateDict copies tensors into the module's parameters by name. Every
// parameter must be present with a matching shape and dtype; extra entries
// are ignored.
func LoadStateDict(m ParameterSet, state map[string]*tensor.RawTensor) error {
	for _, p := range m.Parameters() {
		src, ok := state[p.Name()]
		if !ok {
			return fmt.Errorf("load state: missing parameter %q", p.Name())
		}
		dst := p.Tensor()
		if !src.Shape().Equal(dst.Shape()) {
			return fmt.Errorf("load state: %s shape %v, expected %v: %w",
				p.Name(), src.Shape(), dst.Shape(), tensor.ErrShapeMismatch)
		}
		if src.DType() != dst.DType() {
			return fmt.Errorf("load state: %s dtype %s, expected %s: %w",
				p.Name(), src.DType(), dst.DType(), tensor.ErrDTypeMismatch)
		}
		copy(dst.Data(), src.Data())
	}
	return nil
}

// Save writes the module's parameters as SafeTensors.
//
// Example:
//
//	f, _ := os.Create("layer.safetensors")
//	defer f.Close()
//	err := nn.Save(f, layer, map[string]string{"streams": "3"})
func Save(w io.Writer, m ParameterSet, metadata map[string]string) error {
	if err := serialization.Write(w, StateDict(m), metadata); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Load reads SafeTensors parameters into an already constructed module and
// returns the stored metadata.
func Load(r io.Reader, m ParameterSet) (map[string]string, error) {
	state, metadata, err := serialization.Read(r)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if err := LoadStateDict(m, state); err != nil {
		return nil, err
	}
	return metadata, nil
}
