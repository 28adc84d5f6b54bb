package vm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/filecoin-project/go-address"
	abi "github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/ipfs/go-cid"
	sha256simd "github.com/minio/sha256-simd"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/support/ipld"
)

//
// Test Vector generation utilities
//

// Directory to which message vectors are written. Generation is off when unset.
const VectorsDirEnv = "VESTING_ACTORS_VECTORS"

type vectorGen struct {
	dir     string
	preRoot cid.Cid
	epoch   abi.ChainEpoch
}

type testVector struct {
	Class    string         `json:"class"`
	Epoch    abi.ChainEpoch `json:"epoch"`
	PreRoot  string         `json:"pre_root"`
	PostRoot string         `json:"post_root"`
	Message  vectorMessage  `json:"message"`
	Receipt  vectorReceipt  `json:"receipt"`
	Events   []vectorEvent  `json:"events,omitempty"`
	CAR      []byte         `json:"car"`
}

type vectorMessage struct {
	From       string        `json:"from"`
	To         string        `json:"to"`
	CallSeqNum uint64        `json:"call_seq_num"`
	Method     abi.MethodNum `json:"method"`
	Params     []byte        `json:"params"`
}

type vectorReceipt struct {
	ExitCode int64  `json:"exit_code"`
	Return   []byte `json:"return"`
}

type vectorEvent struct {
	Emitter string `json:"emitter"`
	Name    string `json:"name"`
	Data    []byte `json:"data"`
}

func newVectorGen() *vectorGen {
	// check environment variables to determine if generation is on
	return &vectorGen{dir: os.Getenv(VectorsDirEnv)}
}

func (g *vectorGen) enabled() bool {
	return g.dir != ""
}

func (g *vectorGen) before(v *VM) error {
	if !g.enabled() {
		return nil
	}
	g.preRoot = v.stateRoot
	g.epoch = v.currentEpoch
	return nil
}

func (g *vectorGen) after(v *VM, from, to address.Address, callSeq uint64, method abi.MethodNum, params cbor.Marshaler, result MessageResult) error {
	if !g.enabled() {
		return nil
	}
	paramBytes, err := encode(params)
	if err != nil {
		return err
	}
	retBytes, err := encode(result.Ret)
	if err != nil {
		return err
	}
	var car bytes.Buffer
	if err := ipld.WriteCAR(v.blocks, []cid.Cid{g.preRoot, v.stateRoot}, &car); err != nil {
		return err
	}

	vector := testVector{
		Class:    "message",
		Epoch:    g.epoch,
		PreRoot:  g.preRoot.String(),
		PostRoot: v.stateRoot.String(),
		Message: vectorMessage{
			From:       from.String(),
			To:         to.String(),
			CallSeqNum: callSeq,
			Method:     method,
			Params:     paramBytes,
		},
		Receipt: vectorReceipt{
			ExitCode: int64(result.Code),
			Return:   retBytes,
		},
		CAR: car.Bytes(),
	}
	for _, e := range result.Events {
		data, err := encode(e.Event)
		if err != nil {
			return err
		}
		vector.Events = append(vector.Events, vectorEvent{Emitter: e.Emitter.String(), Name: e.Event.EventName(), Data: data})
	}
	vectorBytes, err := json.MarshalIndent(&vector, "", "  ")
	if err != nil {
		return err
	}

	actName := "unknown"
	if toID, ok := v.normalizeAddress(to); ok {
		if act, found, err := v.tree.GetActor(toID); err == nil && found {
			if parts := strings.Split(builtin.ActorNameByCode(act.Code), "/"); len(parts) == 3 {
				actName = parts[2]
			}
		}
	}
	h := sha256simd.Sum256(vectorBytes)
	fname := fmt.Sprintf("%x-%s-%s-%s-%d.json", h[:8], from, to, actName, method)
	return writeVector(g.dir, fname, vectorBytes)
}

func encode(v cbor.Marshaler) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := v.MarshalCBOR(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rootDir is the directory containing all vectors
// fname is the name of this file
// vectorBytes is the data to write to file
func writeVector(rootDir, fname string, vectorBytes []byte) error {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(rootDir, fname), vectorBytes, 0644)
}
