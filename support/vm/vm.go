package vm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/filecoin-project/go-state-types/exitcode"
	rtt "github.com/filecoin-project/go-state-types/rt"
	"github.com/ipfs/go-cid"
	blake2b "github.com/minio/blake2b-simd"
	"github.com/multiformats/go-multibase"
	mh "github.com/multiformats/go-multihash"
	cbg "github.com/whyrusleeping/cbor-gen"
	"golang.org/x/xerrors"

	"github.com/linear-vesting/vesting-actors/actors/builtin"
	"github.com/linear-vesting/vesting-actors/actors/runtime"
	"github.com/linear-vesting/vesting-actors/actors/states"
	"github.com/linear-vesting/vesting-actors/actors/util/adt"
	"github.com/linear-vesting/vesting-actors/support/ipld"
)

// VM holds the state and executes messages over the state.
// Messages are applied one at a time; concurrent callers are serialized.
type VM struct {
	ctx    context.Context
	blocks *ipld.BlockStoreInMemory
	store  adt.Store
	mu     sync.Mutex

	currentEpoch abi.ChainEpoch

	actorImpls ActorImplLookup
	stateRoot  cid.Cid      // The last committed root.
	tree       *states.Tree // The current (not necessarily committed) tree.

	emptyObject cid.Cid

	logLevel    rtt.LogLevel
	logs        []string
	invocations []*Invocation

	vectors *vectorGen
}

// VM types

type ActorImplLookup map[cid.Cid]runtime.VMActor

type internalMessage struct {
	from   address.Address
	to     address.Address
	method abi.MethodNum
	params interface{}
}

// An event together with the actor that emitted it.
type EmittedEvent struct {
	Emitter address.Address
	Event   runtime.Event
}

// Outcome of a top-level message.
type MessageResult struct {
	Message cid.Cid
	Ret     cbor.Marshaler
	Code    exitcode.ExitCode
	// Events emitted by the message and all its sub-invocations, in emission order.
	// Empty unless the message succeeded.
	Events []EmittedEvent
}

// NewVM creates a new runtime for executing messages over an empty state tree.
func NewVM(ctx context.Context, actorImpls ActorImplLookup, blocks *ipld.BlockStoreInMemory) *VM {
	store := adt.WrapBlockStore(ctx, blocks)
	tree, err := states.NewTree(store)
	if err != nil {
		panic(err)
	}
	root, err := tree.Flush()
	if err != nil {
		panic(err)
	}
	return newVM(ctx, actorImpls, blocks, store, tree, root)
}

// Loads a VM from a CAR snapshot written by Snapshot.
func NewVMFromSnapshot(ctx context.Context, actorImpls ActorImplLookup, r io.Reader) (*VM, error) {
	blocks, roots, err := ipld.ReadCAR(r)
	if err != nil {
		return nil, err
	}
	if len(roots) != 1 {
		return nil, xerrors.Errorf("expected one snapshot root, got %d", len(roots))
	}
	store := adt.WrapBlockStore(ctx, blocks)
	tree, err := states.LoadTree(store, roots[0])
	if err != nil {
		return nil, err
	}
	return newVM(ctx, actorImpls, blocks, store, tree, roots[0]), nil
}

func newVM(ctx context.Context, actorImpls ActorImplLookup, blocks *ipld.BlockStoreInMemory, store adt.Store, tree *states.Tree, root cid.Cid) *VM {
	emptyObject, err := store.Put(ctx, runtime.CBORBytes([]byte{0x80}))
	if err != nil {
		panic(err)
	}
	return &VM{
		ctx:         ctx,
		blocks:      blocks,
		store:       store,
		actorImpls:  actorImpls,
		stateRoot:   root,
		tree:        tree,
		emptyObject: emptyObject,
		logLevel:    rtt.INFO,
		vectors:     newVectorGen(),
	}
}

func (vm *VM) rollback(root cid.Cid) error {
	tree, err := states.LoadTree(vm.store, root)
	if err != nil {
		return xerrors.Errorf("failed to load tree for %s: %w", root, err)
	}

	// reset the root node
	vm.tree = tree
	vm.stateRoot = root
	return nil
}

func (vm *VM) GetActor(a address.Address) (*states.Actor, bool, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.getActor(a)
}

func (vm *VM) getActor(a address.Address) (*states.Actor, bool, error) {
	idAddr, found := vm.normalizeAddress(a)
	if !found {
		return nil, false, nil
	}
	return vm.tree.GetActor(idAddr)
}

// SetActor sets the the actor to the given value whether it previously existed or not.
//
// This method will not check if the actor previously existed, it will blindly overwrite it.
func (vm *VM) setActor(key address.Address, a *states.Actor) error {
	if err := vm.tree.SetActor(key, a); err != nil {
		return xerrors.Errorf("setting actor in state tree failed: %w", err)
	}
	return nil
}

// Replaces the head of an actor with a new state object.
func (vm *VM) setActorState(key address.Address, state cbor.Marshaler) error {
	a, found, err := vm.tree.GetActor(key)
	if err != nil {
		return err
	}
	if !found {
		return xerrors.Errorf("actor %v not found", key)
	}
	a.Head, err = vm.store.Put(vm.ctx, state)
	if err != nil {
		return err
	}
	return vm.setActor(key, a)
}

func (vm *VM) checkpoint() (cid.Cid, error) {
	root, err := vm.tree.Flush()
	if err != nil {
		return cid.Undef, err
	}
	vm.stateRoot = root
	return root, nil
}

func (vm *VM) NormalizeAddress(addr address.Address) (address.Address, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.normalizeAddress(addr)
}

func (vm *VM) normalizeAddress(addr address.Address) (address.Address, bool) {
	idAddr, found, err := vm.tree.ResolveAddress(addr)
	if err != nil {
		panic(err)
	}
	return idAddr, found
}

// ApplyMessage applies the message to the current state.
// A message that does not exit successfully leaves no state change other than the sender's
// call sequence number, and releases no events.
func (vm *VM) ApplyMessage(from, to address.Address, method abi.MethodNum, params cbor.Marshaler) MessageResult {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	// This method does not actually execute the message itself,
	// but rather deals with the pre/post processing of a message.
	// (see: `invocationContext.invoke()` for the dispatch and execution)

	// load actor from global state
	fromID, ok := vm.normalizeAddress(from)
	if !ok {
		return MessageResult{Code: exitcode.SysErrSenderInvalid}
	}
	fromActor, found, err := vm.tree.GetActor(fromID)
	if err != nil {
		panic(err)
	}
	if !found {
		// Execution error; sender does not exist at time of message execution.
		return MessageResult{Code: exitcode.SysErrSenderInvalid}
	}
	if !builtin.IsPrincipal(fromActor.Code) {
		// Execution error; sender is not an account.
		return MessageResult{Code: exitcode.SysErrSenderInvalid}
	}

	msgCid, err := messageCid(fromID, to, fromActor.CallSeqNum, method, params)
	if err != nil {
		return MessageResult{Code: exitcode.ErrSerialization}
	}

	if err := vm.vectors.before(vm); err != nil {
		panic(err)
	}

	// Even if the message fails, the call sequence number increment is applied.
	callSeq := fromActor.CallSeqNum
	fromActor.CallSeqNum++
	if err := vm.setActor(fromID, fromActor); err != nil {
		panic(err)
	}
	priorRoot, err := vm.checkpoint()
	if err != nil {
		panic(err)
	}

	topLevel := topLevelContext{
		message: msgCid,
	}
	imsg := internalMessage{
		from:   fromID,
		to:     to,
		method: method,
		params: params,
	}
	ic := newInvocationContext(vm, &topLevel, imsg, fromActor)
	ret, exitCode := ic.invoke()
	vm.invocations = append(vm.invocations, &ic.invocation)

	// Roll back all state if the receipt's exit code is not ok.
	// This is required in addition to rollback within the invocation context since top level messages can fail for
	// more reasons than internal ones. Invocation context still needs its own rollback so actors can recover and
	// proceed from a nested call failure.
	result := MessageResult{Message: msgCid, Ret: ret.inner, Code: exitCode}
	if exitCode != exitcode.Ok {
		if err := vm.rollback(priorRoot); err != nil {
			panic(err)
		}
		vm.logf(rtt.WARN, msgCid, "message from %v to %v method %d failed: %v", fromID, to, method, exitCode)
	} else {
		if _, err := vm.checkpoint(); err != nil {
			panic(err)
		}
		result.Events = topLevel.events
	}

	if err := vm.vectors.after(vm, fromID, to, callSeq, method, params, result); err != nil {
		panic(err)
	}
	return result
}

// Installs an actor at a fixed ID address and runs its constructor as the system actor.
func (vm *VM) InstallSingleton(code cid.Cid, idAddr address.Address, params cbor.Marshaler) MessageResult {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.construct(code, idAddr, params)
}

// Installs an actor at a newly allocated ID address and runs its constructor as the system actor.
func (vm *VM) CreateActor(code cid.Cid, params cbor.Marshaler) (address.Address, MessageResult) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	idAddr, err := vm.tree.NewIDAddress()
	if err != nil {
		panic(err)
	}
	return idAddr, vm.construct(code, idAddr, params)
}

// Creates an account actor for a public-key address, mapping the address to a new ID.
func (vm *VM) CreateAccount(pubkey address.Address) (address.Address, MessageResult) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	priorRoot, err := vm.checkpoint()
	if err != nil {
		panic(err)
	}
	idAddr, err := vm.tree.MapAddressToNewID(pubkey)
	if err != nil {
		return address.Undef, MessageResult{Code: exitcode.ErrIllegalArgument}
	}
	result := vm.construct(builtin.AccountActorCodeID, idAddr, &pubkey)
	if !result.Code.IsSuccess() {
		if err := vm.rollback(priorRoot); err != nil {
			panic(err)
		}
		return address.Undef, result
	}
	return idAddr, result
}

func (vm *VM) construct(code cid.Cid, idAddr address.Address, params cbor.Marshaler) MessageResult {
	if _, found := vm.actorImpls[code]; !found {
		return MessageResult{Code: exitcode.SysErrInvalidReceiver}
	}
	if _, found, err := vm.tree.GetActor(idAddr); err != nil {
		panic(err)
	} else if found {
		return MessageResult{Code: exitcode.SysErrorIllegalArgument}
	}

	priorRoot, err := vm.checkpoint()
	if err != nil {
		panic(err)
	}
	if err := vm.setActor(idAddr, &states.Actor{Code: code, Head: vm.emptyObject}); err != nil {
		panic(err)
	}

	topLevel := topLevelContext{}
	imsg := internalMessage{
		from:   builtin.SystemActorAddr,
		to:     idAddr,
		method: builtin.MethodConstructor,
		params: params,
	}
	ic := newInvocationContext(vm, &topLevel, imsg, &states.Actor{Code: builtin.SystemActorCodeID})
	ret, exitCode := ic.invoke()

	result := MessageResult{Ret: ret.inner, Code: exitCode}
	if exitCode != exitcode.Ok {
		if err := vm.rollback(priorRoot); err != nil {
			panic(err)
		}
		return result
	}
	if _, err := vm.checkpoint(); err != nil {
		panic(err)
	}
	result.Events = topLevel.events
	return result
}

func (vm *VM) GetState(addr address.Address, out cbor.Unmarshaler) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	act, found, err := vm.getActor(addr)
	if err != nil {
		return err
	}
	if !found {
		return xerrors.Errorf("actor %v not found", addr)
	}
	return vm.store.Get(vm.ctx, act.Head, out)
}

// Returns the root of the last committed state tree.
func (vm *VM) StateRoot() cid.Cid {
	return vm.stateRoot
}

func (vm *VM) Store() adt.Store {
	return vm.store
}

func (vm *VM) GetEpoch() abi.ChainEpoch {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.currentEpoch
}

func (vm *VM) SetEpoch(epoch abi.ChainEpoch) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.currentEpoch = epoch
}

func (vm *VM) AdvanceEpoch(delta abi.ChainEpoch) abi.ChainEpoch {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.currentEpoch += delta
	return vm.currentEpoch
}

// Sets the minimum level of actor log lines the VM records.
func (vm *VM) SetLogLevel(level rtt.LogLevel) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.logLevel = level
}

func (vm *VM) Logs() []string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return append([]string(nil), vm.logs...)
}

func (vm *VM) Invocations() []*Invocation {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.invocations
}

func (vm *VM) LastInvocation() *Invocation {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if len(vm.invocations) == 0 {
		return nil
	}
	return vm.invocations[len(vm.invocations)-1]
}

func (vm *VM) ClearInvocations() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.invocations = nil
}

// Checks the invariants of every actor in the committed state, and the cross-actor invariants.
func (vm *VM) CheckStateInvariants() (*builtin.MessageAccumulator, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	tree, err := states.LoadTree(vm.store, vm.stateRoot)
	if err != nil {
		return nil, err
	}
	return states.CheckStateInvariants(tree, vm.currentEpoch)
}

// Writes the committed state as a CAR archive rooted at the state root.
func (vm *VM) Snapshot(w io.Writer) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return ipld.WriteCAR(vm.blocks, []cid.Cid{vm.stateRoot}, w)
}

func (vm *VM) getActorImpl(code cid.Cid) runtime.VMActor {
	actorImpl, ok := vm.actorImpls[code]
	if !ok {
		vm.Abortf(exitcode.SysErrInvalidReceiver, "actor implementation not found for code %v", code)
	}
	return actorImpl
}

func (vm *VM) logf(level rtt.LogLevel, msg cid.Cid, format string, args ...interface{}) {
	if level < vm.logLevel {
		return
	}
	id := "-"
	if msg.Defined() {
		id = msg.Encode(multibase.MustNewEncoder(multibase.Base32))
	}
	vm.logs = append(vm.logs, fmt.Sprintf("[%s] %s", id, fmt.Sprintf(format, args...)))
}

type abort struct {
	code exitcode.ExitCode
	msg  string
}

func (vm *VM) Abortf(errExitCode exitcode.ExitCode, msg string, args ...interface{}) {
	panic(abort{errExitCode, fmt.Sprintf(msg, args...)})
}

// Computes a content identifier for a top-level message from its sender, receiver,
// call sequence number, method and params.
func messageCid(from, to address.Address, callSeq uint64, method abi.MethodNum, params cbor.Marshaler) (cid.Cid, error) {
	var buf bytes.Buffer
	if err := from.MarshalCBOR(&buf); err != nil {
		return cid.Undef, err
	}
	if err := to.MarshalCBOR(&buf); err != nil {
		return cid.Undef, err
	}
	if err := cbg.WriteMajorTypeHeader(&buf, cbg.MajUnsignedInt, callSeq); err != nil {
		return cid.Undef, err
	}
	if err := cbg.WriteMajorTypeHeader(&buf, cbg.MajUnsignedInt, uint64(method)); err != nil {
		return cid.Undef, err
	}
	if params != nil {
		if err := params.MarshalCBOR(&buf); err != nil {
			return cid.Undef, err
		}
	}
	digest := blake2b.Sum256(buf.Bytes())
	hash, err := mh.Encode(digest[:], mh.BLAKE2B_MIN+31)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.DagCBOR, hash), nil
}

//
// implement runtime.Message for internalMessage
//

var _ runtime.Message = (*internalMessage)(nil)

// Caller implements runtime.Message.
func (msg internalMessage) Caller() address.Address {
	return msg.from
}

// Receiver implements runtime.Message.
func (msg internalMessage) Receiver() address.Address {
	return msg.to
}
