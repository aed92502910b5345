package interp

import (
	"encoding/binary"
	"math"

	"github.com/ashlang/jsvmcore/internal/value"
)

// decoder reads fixed-width operands from a function's opcode bytes,
// advancing past exactly as many bytes as operandWidths[op] declares
// (spec §4.4.1: "operand decoding is fixed-width per opcode").
type decoder struct {
	code []byte
	ip   int
}

func (d *decoder) u8() int    { v := d.code[d.ip]; d.ip++; return int(v) }
func (d *decoder) i8() int    { return int(int8(d.u8())) }
func (d *decoder) u16() int   { v := binary.BigEndian.Uint16(d.code[d.ip:]); d.ip += 2; return int(v) }
func (d *decoder) i16() int   { return int(int16(d.u16())) }
func (d *decoder) u32() int   { v := binary.BigEndian.Uint32(d.code[d.ip:]); d.ip += 4; return int(v) }
func (d *decoder) i32() int   { return int(int32(d.u32())) }
func (d *decoder) f64() float64 {
	bits := binary.BigEndian.Uint64(d.code[d.ip:])
	d.ip += 8
	return math.Float64frombits(bits)
}

// runFrame is the dispatch loop for one bytecode frame (spec
// §4.4.1/§4.4.2): it pushes f onto the frame chain, runs opcodes from f's
// code until a Ret or an unhandled Throw unwinds past it, and pops it back
// off before returning control to the caller (itself runFrame one level
// up, for a JS-to-JS call, or invoke's Go caller for the outermost call).
// A JS-to-JS call runs the callee in a nested runFrame through invoke and
// pushAndRun, so every script call level also occupies Go call-stack
// frames; the loop is not re-entered in place.
func (m *Machine) runFrame(f Frame) (value.Value, bool) {
	fn := m.Module.Function(uint32(f.FuncIndex))
	m.frames = append(m.frames, f)
	defer func() { m.frames = m.frames[:len(m.frames)-1] }()
	cur := &m.frames[len(m.frames)-1]
	d := decoder{code: fn.Opcodes, ip: cur.IP}

	for {
		if d.ip >= len(fn.Opcodes) {
			// A well-formed function body always ends in Ret; running off
			// the end is bytecode corruption, surfaced the way spec §7
			// treats any VM-internal invariant violation reached from
			// script: a RangeError rather than an out-of-bounds panic.
			m.throwRangeError("bytecode ran past end of function without Ret")
			return value.Undef, false
		}
		opStart := d.ip // offset of this instruction, for the handler search
		op := Opcode(d.code[d.ip])
		d.ip++

		switch op {
		case OpNop:

		case OpLoadUndefined:
			dst := d.u8()
			m.setReg(cur, dst, value.Undef)
		case OpLoadNull:
			dst := d.u8()
			m.setReg(cur, dst, value.Nul)
		case OpLoadTrue:
			dst := d.u8()
			m.setReg(cur, dst, value.True)
		case OpLoadFalse:
			dst := d.u8()
			m.setReg(cur, dst, value.False)
		case OpLoadInt8:
			dst, imm := d.u8(), d.i8()
			m.setReg(cur, dst, value.EncodeNumber(float64(imm)))
		case OpLoadInt32:
			dst, imm := d.u8(), d.i32()
			m.setReg(cur, dst, value.EncodeNumber(float64(imm)))
		case OpLoadDouble:
			dst := d.u8()
			imm := d.f64()
			m.setReg(cur, dst, value.EncodeNumber(imm))
		case OpLoadString:
			dst, strIdx := d.u8(), d.u16()
			m.setReg(cur, dst, m.internString(m.moduleString(uint32(strIdx))))
		case OpMov:
			dst, src := d.u8(), d.u8()
			m.setReg(cur, dst, m.getReg(cur, src))

		case OpAdd:
			dst, a, b := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, m.add(m.getReg(cur, a), m.getReg(cur, b)))
		case OpSub:
			dst, a, b := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, m.sub(m.getReg(cur, a), m.getReg(cur, b)))
		case OpMul:
			dst, a, b := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, m.mul(m.getReg(cur, a), m.getReg(cur, b)))
		case OpDiv:
			dst, a, b := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, m.div(m.getReg(cur, a), m.getReg(cur, b)))
		case OpMod:
			dst, a, b := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, m.mod(m.getReg(cur, a), m.getReg(cur, b)))
		case OpNeg:
			dst, src := d.u8(), d.u8()
			m.setReg(cur, dst, m.neg(m.getReg(cur, src)))
		case OpBitAnd:
			dst, a, b := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, m.bitAnd(m.getReg(cur, a), m.getReg(cur, b)))
		case OpBitOr:
			dst, a, b := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, m.bitOr(m.getReg(cur, a), m.getReg(cur, b)))
		case OpBitXor:
			dst, a, b := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, m.bitXor(m.getReg(cur, a), m.getReg(cur, b)))
		case OpBitNot:
			dst, src := d.u8(), d.u8()
			m.setReg(cur, dst, m.bitNot(m.getReg(cur, src)))
		case OpShl:
			dst, a, b := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, m.shl(m.getReg(cur, a), m.getReg(cur, b)))
		case OpShr:
			dst, a, b := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, m.shr(m.getReg(cur, a), m.getReg(cur, b)))
		case OpUShr:
			dst, a, b := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, m.ushr(m.getReg(cur, a), m.getReg(cur, b)))

		case OpLt:
			dst, a, b := d.u8(), d.u8(), d.u8()
			less, _ := m.compare(m.getReg(cur, a), m.getReg(cur, b))
			m.setReg(cur, dst, value.FromBool(less))
		case OpLe:
			dst, a, b := d.u8(), d.u8(), d.u8()
			less, eq := m.compare(m.getReg(cur, a), m.getReg(cur, b))
			m.setReg(cur, dst, value.FromBool(less || eq))
		case OpGt:
			dst, a, b := d.u8(), d.u8(), d.u8()
			less, _ := m.compare(m.getReg(cur, b), m.getReg(cur, a))
			m.setReg(cur, dst, value.FromBool(less))
		case OpGe:
			dst, a, b := d.u8(), d.u8(), d.u8()
			less, eq := m.compare(m.getReg(cur, b), m.getReg(cur, a))
			m.setReg(cur, dst, value.FromBool(less || eq))
		case OpStrictEq:
			dst, a, b := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, value.FromBool(m.strictEquals(m.getReg(cur, a), m.getReg(cur, b))))
		case OpStrictNe:
			dst, a, b := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, value.FromBool(!m.strictEquals(m.getReg(cur, a), m.getReg(cur, b))))
		case OpLooseEq:
			dst, a, b := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, value.FromBool(m.looseEquals(m.getReg(cur, a), m.getReg(cur, b))))
		case OpLooseNe:
			dst, a, b := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, value.FromBool(!m.looseEquals(m.getReg(cur, a), m.getReg(cur, b))))

		case OpGetById:
			dst, recv, sym, cache := d.u8(), d.u8(), d.u16(), d.u16()
			if !m.opGetById(cur, dst, recv, uint32(sym), uint16(cache), false) {
				goto handleThrow
			}
		case OpTryGetById:
			dst, recv, sym, cache := d.u8(), d.u8(), d.u16(), d.u16()
			if !m.opGetById(cur, dst, recv, uint32(sym), uint16(cache), true) {
				goto handleThrow
			}
		case OpPutById:
			recv, sym, val, cache := d.u8(), d.u16(), d.u8(), d.u16()
			if !m.opPutById(cur, recv, uint32(sym), val, uint16(cache)) {
				goto handleThrow
			}
		case OpGetByVal:
			dst, recv, key := d.u8(), d.u8(), d.u8()
			m.setReg(cur, dst, m.getByVal(m.getReg(cur, recv), m.getReg(cur, key)))
		case OpPutByVal:
			recv, key, val := d.u8(), d.u8(), d.u8()
			if !m.putByVal(m.getReg(cur, recv), m.getReg(cur, key), m.getReg(cur, val), cur.Strict) {
				goto handleThrow
			}
		case OpDelById:
			dst, recv, sym := d.u8(), d.u8(), d.u16()
			symID := m.internIdent(uint32(sym))
			m.setReg(cur, dst, m.delProperty(m.getReg(cur, recv), symID))

		case OpNewObject:
			dst := d.u8()
			m.setReg(cur, dst, m.newObject())
		case OpNewObjectWithBuffer:
			dst, bufOff, count := d.u8(), d.u16(), d.u16()
			m.setReg(cur, dst, m.newObjectWithBuffer(uint32(bufOff), uint32(count)))
		case OpNewArray:
			dst, length := d.u8(), d.u16()
			m.setReg(cur, dst, m.newArray(length))
		case OpNewArrayWithBuffer:
			dst, bufOff, count := d.u8(), d.u16(), d.u16()
			m.setReg(cur, dst, m.newArrayWithBuffer(uint32(bufOff), uint32(count)))
		case OpCreateThis:
			dst, ctor := d.u8(), d.u8()
			m.setReg(cur, dst, m.createThis(m.getReg(cur, ctor)))

		case OpCreateEnvironment:
			dst, slotCount := d.u8(), d.u16()
			m.setReg(cur, dst, m.createEnvironment(cur, slotCount))
		case OpCreateClosure:
			dst, funcIdx := d.u8(), d.u16()
			m.setReg(cur, dst, m.createClosure(cur, funcIdx, cur.Strict))
		case OpLoadEnv:
			dst, level, index := d.u8(), d.u8(), d.u16()
			m.setReg(cur, dst, m.loadEnv(cur, level, index))
		case OpStoreEnv:
			level, index, src := d.u8(), d.u16(), d.u8()
			m.storeEnv(cur, level, index, m.getReg(cur, src))

		case OpGetPNameList:
			dst, obj := d.u8(), d.u8()
			m.setReg(cur, dst, m.getPNameList(m.getReg(cur, obj)))
		case OpGetNextPName:
			dst, iter := d.u8(), d.u8()
			next, ok := m.getNextPName(m.getReg(cur, iter))
			if !ok {
				m.setReg(cur, dst, value.Undef)
			} else {
				m.setReg(cur, dst, next)
			}

		case OpCall, OpCall1, OpCall2, OpCall3, OpCall4:
			if !m.dispatchCall(cur, op, &d) {
				goto handleThrow
			}
		case OpConstruct:
			dst, ctor, argStart, argc := d.u8(), d.u8(), d.u8(), d.u8()
			args := m.collectArgs(cur, argStart, argc)
			res, ok := m.construct(m.getReg(cur, ctor), args)
			if !ok {
				goto handleThrow
			}
			m.setReg(cur, dst, res)
		case OpCallBuiltin:
			dst, builtin, this, argStart, argc := d.u8(), d.u16(), d.u8(), d.u8(), d.u8()
			args := m.collectArgs(cur, argStart, argc)
			res, ok := m.callBuiltin(builtin, m.getReg(cur, this), args)
			if !ok {
				goto handleThrow
			}
			m.setReg(cur, dst, res)
		case OpCallDirect:
			dst, funcIdx, this, argStart, argc := d.u8(), d.u16(), d.u8(), d.u8(), d.u8()
			args := m.collectArgs(cur, argStart, argc)
			res, ok := m.callDirect(funcIdx, m.getReg(cur, this), args)
			if !ok {
				goto handleThrow
			}
			m.setReg(cur, dst, res)

		case OpJmp:
			offset := d.i16()
			d.ip += offset - 2
		case OpJmpTrue:
			cond, offset := d.u8(), d.i16()
			if m.toBoolean(m.getReg(cur, cond)) {
				d.ip += offset - 2
			}
		case OpJmpFalse:
			cond, offset := d.u8(), d.i16()
			if !m.toBoolean(m.getReg(cur, cond)) {
				d.ip += offset - 2
			}
		case OpRet:
			src := d.u8()
			return m.getReg(cur, src), true
		case OpThrow:
			src := d.u8()
			m.setThrown(m.getReg(cur, src))
			goto handleThrow

		case OpDebugger, OpDebuggerCheckBreak:
			if m.DebugHook != nil {
				cur.IP = d.ip
				m.DebugHook(m)
			}

		default:
			m.throwRangeError("invalid opcode in bytecode")
			goto handleThrow
		}
		continue

	handleThrow:
		cur.IP = d.ip
		handlerOff, ok := findHandler(fn, opStart)
		if !ok {
			// No handler in this frame: unwind it and let the exception
			// keep propagating to the caller (spec §4.4.3's "the frame is
			// popped and the search resumes in the caller"). Thrown/HasThrown
			// stay set across the pop; runFrame's caller (another runFrame,
			// or invoke's native-call path) observes the (Undef, false)
			// return and repeats the same handler search one level up.
			return value.Undef, false
		}
		d.ip = int(handlerOff)
		m.clearThrown()
	}
}

// collectArgs reads argc consecutive registers starting at argStart into
// a fresh slice, the shape every call-family opcode hands to invoke.
func (m *Machine) collectArgs(f *Frame, argStart, argc int) []value.Value {
	if argc == 0 {
		return nil
	}
	args := make([]value.Value, argc)
	for i := 0; i < argc; i++ {
		args[i] = m.getReg(f, argStart+i)
	}
	return args
}

// dispatchCall decodes and executes one of the Call/Call1..Call4 opcode
// family (spec §4.4.4): Call carries an explicit (argStart, argc) pair,
// while Call1..Call4 inline up to four argument registers directly in
// the instruction for the common small-arity case, avoiding a
// collectArgs heap slice for the overwhelming majority of real calls.
func (m *Machine) dispatchCall(f *Frame, op Opcode, d *decoder) bool {
	var dst, calleeReg, thisReg int
	var args []value.Value
	switch op {
	case OpCall:
		var argStart, argc int
		dst, calleeReg, thisReg, argStart, argc = d.u8(), d.u8(), d.u8(), d.u8(), d.u8()
		args = m.collectArgs(f, argStart, argc)
	case OpCall1:
		var a0 int
		dst, calleeReg, thisReg, a0 = d.u8(), d.u8(), d.u8(), d.u8()
		args = []value.Value{m.getReg(f, a0)}
	case OpCall2:
		var a0, a1 int
		dst, calleeReg, thisReg, a0, a1 = d.u8(), d.u8(), d.u8(), d.u8(), d.u8()
		args = []value.Value{m.getReg(f, a0), m.getReg(f, a1)}
	case OpCall3:
		var a0, a1, a2 int
		dst, calleeReg, thisReg, a0, a1, a2 = d.u8(), d.u8(), d.u8(), d.u8(), d.u8(), d.u8()
		args = []value.Value{m.getReg(f, a0), m.getReg(f, a1), m.getReg(f, a2)}
	case OpCall4:
		var a0, a1, a2, a3 int
		dst, calleeReg, thisReg, a0, a1, a2, a3 = d.u8(), d.u8(), d.u8(), d.u8(), d.u8(), d.u8(), d.u8()
		args = []value.Value{m.getReg(f, a0), m.getReg(f, a1), m.getReg(f, a2), m.getReg(f, a3)}
	}
	res, ok := m.invoke(m.getReg(f, calleeReg), m.getReg(f, thisReg), args, value.Undef)
	if !ok {
		return false
	}
	m.setReg(f, dst, res)
	return true
}

// opGetById implements get-by-id/try-get-by-id's inline-cache-then-slow-
// path lookup (spec §4.4.4/§4.4.5): a cache hit reads the recorded slot
// directly via readCachedSlotByID; a miss falls back to the full
// prototype-chain walk and, on a stable non-dictionary class, records
// the observed (class, slot) pair for next time (spec §4.4.5's
// write-once-per-class-observed policy, via getByIDCaching). tryGet
// additionally raises a ReferenceError on a total miss (global-variable
// reads compiled as try-get-by-id), rather than producing undefined.
func (m *Machine) opGetById(f *Frame, dst, recv int, sym uint32, cacheID uint16, tryGet bool) bool {
	symID := m.internIdent(sym)
	receiver := m.getReg(f, recv)
	v, found := m.getByIDCaching(receiver, symID, cacheID)
	if !found && tryGet {
		m.setThrown(m.newError("ReferenceError: " + m.Idents.Lookup(symID) + " is not defined"))
		return false
	}
	m.setReg(f, dst, v)
	return true
}

// opPutById implements put-by-id (spec §4.4.4), strict-mode TypeError
// on a rejected write. cacheID threads through to putProperty so a
// monomorphic call site can skip the HiddenClass lookup on repeat writes
// (spec §4.4.5), mirroring get-by-id's cache usage.
func (m *Machine) opPutById(f *Frame, recv int, sym uint32, valReg int, cacheID uint16) bool {
	symID := m.internIdent(sym)
	receiver := m.getReg(f, recv)
	return m.putProperty(receiver, symID, m.getReg(f, valReg), f.Strict, cacheID)
}
