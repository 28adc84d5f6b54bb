package runtime

import (
	"io"

	"github.com/filecoin-project/go-state-types/rt"
)

// Concrete types associated with the runtime interface.

// VMActor is the interface the VM uses to find the method table, code CID and state type of an actor.
type VMActor = rt.VMActor

// Wraps already-serialized bytes as CBOR-marshalable.
type CBORBytes []byte

func (b CBORBytes) MarshalCBOR(w io.Writer) error {
	_, err := w.Write(b)
	return err
}

func (b *CBORBytes) UnmarshalCBOR(r io.Reader) error {
	var c []byte
	c, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	*b = c
	return nil
}
