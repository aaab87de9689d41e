package scan

import (
	"encoding/binary"
	"errors"
	"fmt"

	"DerivLex/internal/automaton"
)

const tableVersion = 1

var ErrBadTable = errors.New("malformed scanner table")

// MarshalBinary encodes t as:
//
//	version    uint8
//	states     uint32
//	classes    uint16
//	class map  [256]uint8
//	rules      uint32, then per rule: command uint8, name length uvarint, name
//	labels     int32 per state
//	trans      uint32 per state and class
//
// All integers are little-endian.
func (t *Table) MarshalBinary() ([]byte, error) {
	size := 1 + 4 + 2 + 256 + 4 + 4*len(t.labels) + 4*len(t.trans)
	for _, r := range t.rules {
		size += 1 + binary.MaxVarintLen64 + len(r.Name)
	}
	buf := make([]byte, 0, size)

	buf = append(buf, tableVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.labels)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(t.nclasses))
	buf = append(buf, t.classes[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.rules)))
	for _, r := range t.rules {
		buf = append(buf, byte(r.Command))
		buf = binary.AppendUvarint(buf, uint64(len(r.Name)))
		buf = append(buf, r.Name...)
	}
	for _, l := range t.labels {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(l))
	}
	for _, to := range t.trans {
		buf = binary.LittleEndian.AppendUint32(buf, to)
	}
	return buf, nil
}

// UnmarshalBinary decodes a table written by MarshalBinary and checks that
// every class, label and transition is in range.
func (t *Table) UnmarshalBinary(data []byte) error {
	r := reader{data: data}
	if v := r.uint8(); v != tableVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrBadTable, v)
	}
	nstates := int(r.uint32())
	nclasses := int(r.uint16())
	var classes [256]uint8
	copy(classes[:], r.bytes(256))
	if r.err != nil {
		return r.err
	}
	if nstates < 2 || nclasses < 1 || nclasses > 256 {
		return fmt.Errorf("%w: %d states, %d classes", ErrBadTable, nstates, nclasses)
	}
	for b, c := range classes {
		if int(c) >= nclasses {
			return fmt.Errorf("%w: byte %#02x in class %d of %d", ErrBadTable, b, c, nclasses)
		}
	}

	nrules := int(r.uint32())
	if r.err == nil && nrules > len(r.data) {
		return fmt.Errorf("%w: %d rules", ErrBadTable, nrules)
	}
	rules := make([]RuleInfo, 0, nrules)
	for i := 0; i < nrules && r.err == nil; i++ {
		cmd := Command(r.uint8())
		if cmd != Emit && cmd != Skip {
			return fmt.Errorf("%w: rule %d has command %d", ErrBadTable, i, cmd)
		}
		name := string(r.bytes(int(r.uvarint())))
		rules = append(rules, RuleInfo{Name: name, Command: cmd})
	}

	if r.err == nil && (nstates > len(r.data) || nstates*nclasses > len(r.data)) {
		return fmt.Errorf("%w: truncated at %d states", ErrBadTable, nstates)
	}
	labels := make([]int32, 0, nstates)
	for i := 0; i < nstates && r.err == nil; i++ {
		l := int32(r.uint32())
		if l < automaton.NoMatch || int(l) >= nrules {
			return fmt.Errorf("%w: state %d has label %d", ErrBadTable, i, l)
		}
		labels = append(labels, l)
	}
	trans := make([]uint32, 0, nstates*nclasses)
	for i := 0; i < nstates*nclasses && r.err == nil; i++ {
		to := r.uint32()
		if int(to) >= nstates {
			return fmt.Errorf("%w: transition to state %d of %d", ErrBadTable, to, nstates)
		}
		trans = append(trans, to)
	}
	if r.err != nil {
		return r.err
	}
	if len(r.data) != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrBadTable, len(r.data))
	}

	*t = Table{
		classes:  classes,
		nclasses: nclasses,
		trans:    trans,
		labels:   labels,
		rules:    rules,
	}
	return nil
}

// reader consumes little-endian values and records the first short read.
type reader struct {
	data []byte
	err  error
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.data) {
		r.err = fmt.Errorf("%w: unexpected end of data", ErrBadTable)
		return nil
	}
	b := r.data[:n]
	r.data = r.data[n:]
	return b
}

func (r *reader) uint8() uint8 {
	if b := r.bytes(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) uint16() uint16 {
	if b := r.bytes(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *reader) uint32() uint32 {
	if b := r.bytes(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *reader) uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.data)
	if n <= 0 {
		r.err = fmt.Errorf("%w: bad varint", ErrBadTable)
		return 0
	}
	r.data = r.data[n:]
	return v
}
