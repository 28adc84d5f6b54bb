package ipld

import (
	"io"

	block "github.com/ipfs/go-block-format"
	cid "github.com/ipfs/go-cid"
	car "github.com/ipld/go-car"
	carutil "github.com/ipld/go-car/util"
	"golang.org/x/xerrors"
)

// Writes every block in the store to w as a CAR (v1) archive with the given roots.
// Blocks are written in CID key order, so equal stores produce equal archives.
func WriteCAR(bs *BlockStoreInMemory, roots []cid.Cid, w io.Writer) error {
	for _, r := range roots {
		if _, err := bs.Get(r); err != nil {
			return xerrors.Errorf("failed to load car root: %w", err)
		}
	}
	if err := car.WriteHeader(&car.CarHeader{Roots: roots, Version: 1}, w); err != nil {
		return xerrors.Errorf("failed to write car header: %w", err)
	}
	return bs.ForEach(func(b block.Block) error {
		if err := carutil.LdWrite(w, b.Cid().Bytes(), b.RawData()); err != nil {
			return xerrors.Errorf("failed to write block %v: %w", b.Cid(), err)
		}
		return nil
	})
}

// Reads a CAR archive into a new in-memory block store, returning the archive roots.
func ReadCAR(r io.Reader) (*BlockStoreInMemory, []cid.Cid, error) {
	bs := NewBlockStoreInMemory()
	header, err := car.LoadCar(bs, r)
	if err != nil {
		return nil, nil, xerrors.Errorf("failed to load car: %w", err)
	}
	for _, root := range header.Roots {
		if !bs.Has(root) {
			return nil, nil, xerrors.Errorf("car root %v missing from archive", root)
		}
	}
	return bs, header.Roots, nil
}
