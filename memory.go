package ember

import (
	"encoding/binary"
	"fmt"
	"math"
)

// HeaderSize is the fixed 6-byte prefix of every heap block: 4 bytes
// little-endian block length (including header), 1 byte used-flag, 1 byte
// element value-type tag.
const HeaderSize = 6

// NullAddr denotes a null reference for a reference-kind variable.
const NullAddr = -1

// Memory is the single byte buffer partitioned into a stack region
// (`[0, StackSize)`) and a heap region (`[StackSize, StackSize+HeapCapacity)`).
// It owns allocation, typed read/write, and mark-sweep collection;
// ExecutionContext owns the scope stack that drives sweeps.
type Memory struct {
	buf         []byte
	StackSize   int
	HeapCapacity int

	allocPointer int // stack bump pointer, monotonic within a scope
	heapEnd      int // one-past-the-last-allocated heap byte, relative to StackSize
}

func NewMemory(stackSize, heapCapacity int) *Memory {
	return &Memory{
		buf:          make([]byte, stackSize+heapCapacity),
		StackSize:    stackSize,
		HeapCapacity: heapCapacity,
	}
}

func NewMemoryFromConfig(cfg *Config) *Memory {
	return NewMemory(cfg.GetInt("memory.stack_size"), cfg.GetInt("memory.heap_capacity"))
}

// ---- Stack allocation ----

// Variable is a record (tag, address, size). TypeName carries
// the declared element/struct/class/enum/pointee type name for reference-
// kind and IntPtr variables, mirroring Value.TypeName, since the Memory
// image itself stores only a bare address or scalar for those slots.
type Variable struct {
	Tag      ValueTag
	Address  int
	Size     int
	TypeName string
}

// Stackalloc returns a Variable whose address equals the current
// allocPointer and advances it by sizeof(tag).
func (m *Memory) Stackalloc(tag ValueTag) (Variable, error) {
	size := Sizeof(tag)
	if m.allocPointer+size > m.StackSize {
		return Variable{}, StackOverflow{Message: "stack region exhausted"}
	}
	v := Variable{Tag: tag, Address: m.allocPointer, Size: size}
	m.allocPointer += size
	return v, nil
}

// AllocPointer and SetAllocPointer let a Scope checkpoint and restore the
// stack bump pointer on scope enter/exit.
func (m *Memory) AllocPointer() int          { return m.allocPointer }
func (m *Memory) SetAllocPointer(p int)      { m.allocPointer = p }

// ---- Heap allocation ----

type blockHeader struct {
	Length int // total block size including header
	Used   bool
	Tag    ValueTag
}

func (m *Memory) heapOffset(addr int) int { return addr - m.StackSize }

func (m *Memory) readHeader(headerAddr int) (blockHeader, error) {
	off := m.heapOffset(headerAddr)
	if off < 0 || off+HeaderSize > m.HeapCapacity {
		return blockHeader{}, InvalidMemory{Message: fmt.Sprintf("heap header read out of bounds @ %d", headerAddr)}
	}
	base := m.StackSize + off
	length := int(binary.LittleEndian.Uint32(m.buf[base : base+4]))
	used := m.buf[base+4] != 0
	tag := ValueTag(m.buf[base+5])
	return blockHeader{Length: length, Used: used, Tag: tag}, nil
}

func (m *Memory) writeHeader(headerAddr int, h blockHeader) {
	base := m.StackSize + m.heapOffset(headerAddr)
	binary.LittleEndian.PutUint32(m.buf[base:base+4], uint32(h.Length))
	if h.Used {
		m.buf[base+4] = 1
	} else {
		m.buf[base+4] = 0
	}
	m.buf[base+5] = byte(h.Tag)
}

// Malloc performs a first-fit allocation: scan existing blocks for a free
// one with length >= payload+HeaderSize and reuse it whole, without
// splitting the remainder — otherwise append a new block if there is
// room. Returns the payload start address (the user-visible pointer).
func (m *Memory) Malloc(payload int, tag ValueTag) (int, error) {
	need := payload + HeaderSize

	headerAddr := m.StackSize
	for headerAddr < m.StackSize+m.heapEnd {
		h, err := m.readHeader(headerAddr)
		if err != nil {
			return 0, err
		}
		if !h.Used && h.Length >= need {
			h.Used = true
			h.Tag = tag
			m.writeHeader(headerAddr, h)
			payloadAddr := headerAddr + HeaderSize
			m.zero(payloadAddr, payload)
			return payloadAddr, nil
		}
		headerAddr += h.Length
	}

	if m.heapEnd+need > m.HeapCapacity {
		return 0, OutOfMemory{Message: "heap region exhausted"}
	}
	newHeaderAddr := m.StackSize + m.heapEnd
	m.writeHeader(newHeaderAddr, blockHeader{Length: need, Used: true, Tag: tag})
	m.heapEnd += need
	payloadAddr := newHeaderAddr + HeaderSize
	m.zero(payloadAddr, payload)
	return payloadAddr, nil
}

func (m *Memory) zero(addr, n int) {
	for i := 0; i < n; i++ {
		m.buf[addr+i] = 0
	}
}

// Free clears the used-flag of the block whose payload starts at addr.
func (m *Memory) Free(addr int) error {
	headerAddr := addr - HeaderSize
	if headerAddr < m.StackSize || headerAddr >= m.StackSize+m.heapEnd {
		return InvalidMemory{Message: fmt.Sprintf("free of non-heap pointer %d", addr)}
	}
	h, err := m.readHeader(headerAddr)
	if err != nil {
		return err
	}
	if !h.Used {
		return InvalidMemory{Message: fmt.Sprintf("double free at %d", addr)}
	}
	h.Used = false
	m.writeHeader(headerAddr, h)
	return nil
}

// BlockInfo returns the length/tag of the block owning payload addr, for
// dereference, Length()/Count(), and sizeof() support.
func (m *Memory) BlockInfo(addr int) (payloadSize int, tag ValueTag, err error) {
	headerAddr := addr - HeaderSize
	h, err := m.readHeader(headerAddr)
	if err != nil {
		return 0, 0, err
	}
	return h.Length - HeaderSize, h.Tag, nil
}

// ---- Typed read/write ----

func (m *Memory) checkBounds(addr, n int) error {
	if addr < 0 || addr+n > len(m.buf) {
		return InvalidMemory{Message: fmt.Sprintf("access [%d,%d) out of bounds", addr, addr+n)}
	}
	return nil
}

func (m *Memory) ReadBytes(addr, n int) ([]byte, error) {
	if err := m.checkBounds(addr, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, m.buf[addr:addr+n])
	return out, nil
}

func (m *Memory) WriteBytes(addr int, data []byte) error {
	if err := m.checkBounds(addr, len(data)); err != nil {
		return err
	}
	copy(m.buf[addr:addr+len(data)], data)
	return nil
}

func (m *Memory) ReadInt(addr int, tag ValueTag) (int64, error) {
	n := Sizeof(tag)
	if err := m.checkBounds(addr, n); err != nil {
		return 0, err
	}
	b := m.buf[addr : addr+n]
	switch tag {
	case TagInt8:
		return int64(int8(b[0])), nil
	case TagUInt8, TagBool:
		return int64(b[0]), nil
	case TagInt16:
		return int64(int16(binary.LittleEndian.Uint16(b))), nil
	case TagUInt16, TagChar:
		return int64(binary.LittleEndian.Uint16(b)), nil
	case TagInt32, TagIntPtr:
		return int64(int32(binary.LittleEndian.Uint32(b))), nil
	case TagUInt32:
		return int64(binary.LittleEndian.Uint32(b)), nil
	case TagInt64, TagTimeSpan:
		return int64(binary.LittleEndian.Uint64(b)), nil
	case TagUInt64, TagDateTime:
		return int64(binary.LittleEndian.Uint64(b)), nil
	default:
		return 0, InvalidMemory{Message: fmt.Sprintf("ReadInt: not an integer tag %s", tag)}
	}
}

func (m *Memory) WriteInt(addr int, tag ValueTag, v int64) error {
	n := Sizeof(tag)
	if err := m.checkBounds(addr, n); err != nil {
		return err
	}
	b := m.buf[addr : addr+n]
	switch tag {
	case TagInt8, TagUInt8, TagBool:
		b[0] = byte(v)
	case TagInt16, TagUInt16, TagChar:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case TagInt32, TagUInt32, TagIntPtr:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case TagInt64, TagUInt64, TagDateTime, TagTimeSpan:
		binary.LittleEndian.PutUint64(b, uint64(v))
	default:
		return InvalidMemory{Message: fmt.Sprintf("WriteInt: not an integer tag %s", tag)}
	}
	return nil
}

func (m *Memory) ReadFloat(addr int, tag ValueTag) (float64, error) {
	n := Sizeof(tag)
	if err := m.checkBounds(addr, n); err != nil {
		return 0, err
	}
	b := m.buf[addr : addr+n]
	switch tag {
	case TagFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
	case TagDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	default:
		return 0, InvalidMemory{Message: fmt.Sprintf("ReadFloat: not a floating tag %s", tag)}
	}
}

func (m *Memory) WriteFloat(addr int, tag ValueTag, v float64) error {
	n := Sizeof(tag)
	if err := m.checkBounds(addr, n); err != nil {
		return err
	}
	b := m.buf[addr : addr+n]
	switch tag {
	case TagFloat:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case TagDouble:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	default:
		return InvalidMemory{Message: fmt.Sprintf("WriteFloat: not a floating tag %s", tag)}
	}
	return nil
}

// ReadRef/WriteRef handle reference-kind stack slots, which hold a 4-byte
// heap address or NullAddr.
func (m *Memory) ReadRef(addr int) (int, error) {
	v, err := m.ReadInt(addr, TagIntPtr)
	return int(v), err
}

func (m *Memory) WriteRef(addr int, heapAddr int) error {
	return m.WriteInt(addr, TagIntPtr, int64(heapAddr))
}

// ---- Strings ----

func (m *Memory) AllocString(s string) (int, error) {
	data := []byte(s)
	addr, err := m.Malloc(len(data), TagString)
	if err != nil {
		return 0, err
	}
	return addr, m.WriteBytes(addr, data)
}

func (m *Memory) ReadString(addr int) (string, error) {
	n, _, err := m.BlockInfo(addr)
	if err != nil {
		return "", err
	}
	b, err := m.ReadBytes(addr, n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// AssignString implements the in-place-overwrite-or-reallocate rule: a new
// literal that fits the old payload capacity overwrites in place
// (remaining bytes zeroed); otherwise the old block is freed and a new one
// allocated.
func (m *Memory) AssignString(oldAddr int, s string) (int, error) {
	data := []byte(s)
	if oldAddr != NullAddr {
		cap, _, err := m.BlockInfo(oldAddr)
		if err == nil && cap >= len(data) {
			if err := m.WriteBytes(oldAddr, data); err != nil {
				return 0, err
			}
			if cap > len(data) {
				m.zero(oldAddr+len(data), cap-len(data))
			}
			return oldAddr, nil
		}
		if oldAddr != NullAddr {
			_ = m.Free(oldAddr)
		}
	}
	return m.AllocString(s)
}

// ---- Boxing ----

// Box allocates a heap block carrying a value-kind Value's tag and raw
// bytes, letting a reference-kind slot (object) hold a primitive while it
// still participates in mark-sweep and dereference like any other
// heap-backed value.
func (m *Memory) Box(v Value) (int, error) {
	addr, err := m.Malloc(Sizeof(v.Tag), v.Tag)
	if err != nil {
		return 0, err
	}
	if IsFloatingTag(v.Tag) {
		return addr, m.WriteFloat(addr, v.Tag, v.FloatVal)
	}
	return addr, m.WriteInt(addr, v.Tag, v.IntVal)
}

// Unbox recovers a value previously boxed by Box, reading its tag from the
// block header rather than the caller's declared slot tag. ok is false when
// the header tag is reference-kind, meaning addr is a genuine reference
// (string, array, struct, ...) stored through an object slot rather than a
// boxed scalar.
func (m *Memory) Unbox(addr int) (Value, bool, error) {
	_, tag, err := m.BlockInfo(addr)
	if err != nil {
		return Value{}, false, err
	}
	if tag.IsReferenceKind() {
		return Value{}, false, nil
	}
	if IsFloatingTag(tag) {
		f, err := m.ReadFloat(addr, tag)
		if err != nil {
			return Value{}, false, err
		}
		return Value{Tag: tag, FloatVal: f}, true, nil
	}
	n, err := m.ReadInt(addr, tag)
	if err != nil {
		return Value{}, false, err
	}
	return Value{Tag: tag, IntVal: n}, true, nil
}

// ---- Mark-sweep ----

// Sweep marks every heap address referenced by a reference-kind (or
// IntPtr) variable in a live scope, then clears the used-flag of every
// unmarked block. Called on every scope exit.
func (m *Memory) Sweep(liveAddrs []int) {
	marked := make(map[int]bool, len(liveAddrs))
	for _, a := range liveAddrs {
		if a >= m.StackSize && a < m.StackSize+m.heapEnd {
			marked[a] = true
		}
	}

	headerAddr := m.StackSize
	for headerAddr < m.StackSize+m.heapEnd {
		h, err := m.readHeader(headerAddr)
		if err != nil {
			return
		}
		payloadAddr := headerAddr + HeaderSize
		if h.Used && !marked[payloadAddr] {
			h.Used = false
			m.writeHeader(headerAddr, h)
		}
		headerAddr += h.Length
	}
}

func (m *Memory) HeapEnd() int { return m.heapEnd }
