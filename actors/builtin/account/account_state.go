package account

import (
	addr "github.com/filecoin-project/go-address"
)

type State struct {
	Address addr.Address
}
