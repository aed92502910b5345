// Package interp implements the stack-based, register-window bytecode
// interpreter (spec §4.4): opcode dispatch, call frames over a single
// shared value stack, inline caches, the exception catch-table walk, and
// the handful of object/array/closure opcodes that need to allocate
// through internal/heap and internal/object rather than just moving
// values around registers.
package interp

import "fmt"

// Opcode is a single bytecode instruction. Ranges mirror spec §4.4.4's
// opcode families, grounded on the teacher's own stack-machine bytecode
// (pkg/bytecode/opcodes.go organizes its ~50 opcodes into 0x10-wide
// ranges by category; this core follows the same layout).
type Opcode byte

const (
	// Constants and moves (0x00-0x0F)
	OpNop           Opcode = 0x00
	OpLoadUndefined Opcode = 0x01 // dst:u8
	OpLoadNull      Opcode = 0x02 // dst:u8
	OpLoadTrue      Opcode = 0x03 // dst:u8
	OpLoadFalse     Opcode = 0x04 // dst:u8
	OpLoadInt8      Opcode = 0x05 // dst:u8 imm:i8
	OpLoadInt32     Opcode = 0x06 // dst:u8 imm:i32
	OpLoadDouble    Opcode = 0x07 // dst:u8 imm:f64
	OpLoadString    Opcode = 0x08 // dst:u8 strIdx:u16
	OpMov           Opcode = 0x09 // dst:u8 src:u8

	// Arithmetic (0x10-0x1F)
	OpAdd    Opcode = 0x10 // dst,a,b:u8
	OpSub    Opcode = 0x11
	OpMul    Opcode = 0x12
	OpDiv    Opcode = 0x13
	OpMod    Opcode = 0x14
	OpNeg    Opcode = 0x15 // dst,src:u8
	OpBitAnd Opcode = 0x16
	OpBitOr  Opcode = 0x17
	OpBitXor Opcode = 0x18
	OpBitNot Opcode = 0x19 // dst,src:u8
	OpShl    Opcode = 0x1A
	OpShr    Opcode = 0x1B
	OpUShr   Opcode = 0x1C

	// Comparison and equality (0x20-0x2F)
	OpLt       Opcode = 0x20 // dst,a,b:u8
	OpLe       Opcode = 0x21
	OpGt       Opcode = 0x22
	OpGe       Opcode = 0x23
	OpStrictEq Opcode = 0x24
	OpStrictNe Opcode = 0x25
	OpLooseEq  Opcode = 0x26
	OpLooseNe  Opcode = 0x27

	// Property access (0x30-0x3F)
	OpGetById    Opcode = 0x30 // dst:u8 recv:u8 sym:u16 cache:u16
	OpPutById    Opcode = 0x31 // recv:u8 sym:u16 val:u8 cache:u16
	OpTryGetById Opcode = 0x32 // dst:u8 recv:u8 sym:u16 cache:u16
	OpGetByVal   Opcode = 0x33 // dst:u8 recv:u8 key:u8
	OpPutByVal   Opcode = 0x34 // recv:u8 key:u8 val:u8
	OpDelById    Opcode = 0x35 // dst:u8 recv:u8 sym:u16

	// Object/array construction (0x40-0x4F)
	OpNewObject           Opcode = 0x40 // dst:u8
	OpNewObjectWithBuffer Opcode = 0x41 // dst:u8 bufOff:u16 count:u16
	OpNewArray            Opcode = 0x42 // dst:u8 length:u16
	OpNewArrayWithBuffer  Opcode = 0x43 // dst:u8 bufOff:u16 count:u16
	OpCreateThis          Opcode = 0x44 // dst:u8 ctor:u8

	// Closures and environments (0x50-0x5F)
	OpCreateEnvironment Opcode = 0x50 // dst:u8 slotCount:u16
	OpCreateClosure     Opcode = 0x51 // dst:u8 funcIdx:u16
	OpLoadEnv           Opcode = 0x52 // dst:u8 level:u8 index:u16
	OpStoreEnv          Opcode = 0x53 // level:u8 index:u16 src:u8

	// Iteration (0x60-0x6F)
	OpGetPNameList Opcode = 0x60 // dst:u8 obj:u8
	OpGetNextPName Opcode = 0x61 // dst:u8 iter:u8

	// Calls (0x70-0x7F)
	OpCall        Opcode = 0x70 // dst:u8 callee:u8 this:u8 argStart:u8 argc:u8
	OpCall1       Opcode = 0x71 // dst:u8 callee:u8 this:u8 a0:u8
	OpCall2       Opcode = 0x72 // dst:u8 callee:u8 this:u8 a0:u8 a1:u8
	OpCall3       Opcode = 0x73 // dst:u8 callee:u8 this:u8 a0:u8 a1:u8 a2:u8
	OpCall4       Opcode = 0x74 // dst:u8 callee:u8 this:u8 a0:u8 a1:u8 a2:u8 a3:u8
	OpConstruct   Opcode = 0x75 // dst:u8 ctor:u8 argStart:u8 argc:u8
	OpCallBuiltin Opcode = 0x76 // dst:u8 builtin:u16 this:u8 argStart:u8 argc:u8
	OpCallDirect  Opcode = 0x77 // dst:u8 funcIdx:u16 this:u8 argStart:u8 argc:u8

	// Control flow (0x80-0x8F)
	OpJmp      Opcode = 0x80 // offset:i16
	OpJmpTrue  Opcode = 0x81 // cond:u8 offset:i16
	OpJmpFalse Opcode = 0x82 // cond:u8 offset:i16
	OpRet      Opcode = 0x83 // src:u8
	OpThrow    Opcode = 0x84 // src:u8

	// Safepoints (0x90-0x9F)
	OpDebugger           Opcode = 0x90
	OpDebuggerCheckBreak Opcode = 0x91
)

// operandWidths maps each opcode to the number of operand bytes that
// follow its single opcode byte. "Next instruction" always means
// "advance IP by 1 + operandWidths[op]" (spec §4.4.1): decoding never
// needs to inspect an operand to know how far to advance.
var operandWidths = map[Opcode]int{
	OpNop:           0,
	OpLoadUndefined: 1,
	OpLoadNull:      1,
	OpLoadTrue:      1,
	OpLoadFalse:     1,
	OpLoadInt8:      2,
	OpLoadInt32:     5,
	OpLoadDouble:    9,
	OpLoadString:    3,
	OpMov:           2,

	OpAdd: 3, OpSub: 3, OpMul: 3, OpDiv: 3, OpMod: 3,
	OpNeg: 2,
	OpBitAnd: 3, OpBitOr: 3, OpBitXor: 3, OpBitNot: 2,
	OpShl: 3, OpShr: 3, OpUShr: 3,

	OpLt: 3, OpLe: 3, OpGt: 3, OpGe: 3,
	OpStrictEq: 3, OpStrictNe: 3, OpLooseEq: 3, OpLooseNe: 3,

	OpGetById:    5,
	OpPutById:    5,
	OpTryGetById: 5,
	OpGetByVal:   3,
	OpPutByVal:   3,
	OpDelById:    4,

	OpNewObject:           1,
	OpNewObjectWithBuffer: 5,
	OpNewArray:            3,
	OpNewArrayWithBuffer:  5,
	OpCreateThis:          2,

	OpCreateEnvironment: 3,
	OpCreateClosure:     3,
	OpLoadEnv:           4,
	OpStoreEnv:          4,

	OpGetPNameList: 2,
	OpGetNextPName: 2,

	OpCall:        5,
	OpCall1:       4,
	OpCall2:       5,
	OpCall3:       6,
	OpCall4:       7,
	OpConstruct:   4,
	OpCallBuiltin: 6,
	OpCallDirect:  6,

	OpJmp:      2,
	OpJmpTrue:  3,
	OpJmpFalse: 3,
	OpRet:      1,
	OpThrow:    1,

	OpDebugger:           0,
	OpDebuggerCheckBreak: 0,
}

// OperandWidth returns how many operand bytes follow op's opcode byte, or
// -1 if op is unrecognized (bytecode corruption, surfaced as a fatal
// error by the caller rather than silently misdecoding).
func OperandWidth(op Opcode) int {
	if w, ok := operandWidths[op]; ok {
		return w
	}
	return -1
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return fmt.Sprintf("Opcode(%#02x)", byte(op))
}

var opcodeNames = map[Opcode]string{
	OpNop: "Nop", OpLoadUndefined: "LoadUndefined", OpLoadNull: "LoadNull",
	OpLoadTrue: "LoadTrue", OpLoadFalse: "LoadFalse", OpLoadInt8: "LoadInt8",
	OpLoadInt32: "LoadInt32", OpLoadDouble: "LoadDouble", OpLoadString: "LoadString",
	OpMov: "Mov",
	OpAdd: "Add", OpSub: "Sub", OpMul: "Mul", OpDiv: "Div", OpMod: "Mod", OpNeg: "Neg",
	OpBitAnd: "BitAnd", OpBitOr: "BitOr", OpBitXor: "BitXor", OpBitNot: "BitNot",
	OpShl: "Shl", OpShr: "Shr", OpUShr: "UShr",
	OpLt: "Lt", OpLe: "Le", OpGt: "Gt", OpGe: "Ge",
	OpStrictEq: "StrictEq", OpStrictNe: "StrictNe", OpLooseEq: "LooseEq", OpLooseNe: "LooseNe",
	OpGetById: "GetById", OpPutById: "PutById", OpTryGetById: "TryGetById",
	OpGetByVal: "GetByVal", OpPutByVal: "PutByVal", OpDelById: "DelById",
	OpNewObject: "NewObject", OpNewObjectWithBuffer: "NewObjectWithBuffer",
	OpNewArray: "NewArray", OpNewArrayWithBuffer: "NewArrayWithBuffer",
	OpCreateThis: "CreateThis",
	OpCreateEnvironment: "CreateEnvironment", OpCreateClosure: "CreateClosure",
	OpLoadEnv: "LoadEnv", OpStoreEnv: "StoreEnv",
	OpGetPNameList: "GetPNameList", OpGetNextPName: "GetNextPName",
	OpCall: "Call", OpCall1: "Call1", OpCall2: "Call2", OpCall3: "Call3", OpCall4: "Call4",
	OpConstruct: "Construct", OpCallBuiltin: "CallBuiltin", OpCallDirect: "CallDirect",
	OpJmp: "Jmp", OpJmpTrue: "JmpTrue", OpJmpFalse: "JmpFalse", OpRet: "Ret", OpThrow: "Throw",
	OpDebugger: "Debugger", OpDebuggerCheckBreak: "DebuggerCheckBreak",
}
