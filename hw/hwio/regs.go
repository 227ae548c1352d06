package hwio

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// InitRegs initializes the Mem and Device fields of the structure pointed to
// by data, according to their "hwio" struct tag. Supported options:
//
//	offset=0x12     Byte-offset within the register bank at which this
//	                area is mapped. Fields without offset are initialized but
//	                ignored by Table.MapBank.
//
//	bank=NN         Ordinal bank number (defaults to zero). Allows a
//	                structure to expose multiple banks.
//
//	size=0x800      Mem: size of the allocated buffer. Device: size of the
//	                address range it serves.
//
//	vsize=0x2000    Mem: size of the mapped range, the buffer is mirrored
//	                over it (defaults to size).
//
//	readonly        Writes are rejected (and logged).
//	writeonly       Device: reads are rejected (and logged).
//
//	rcb, wcb, pcb   Device: bind the read/write/peek callback to the method
//	                Read<NAME>, Write<NAME> or Peek<NAME> of data, where NAME
//	                is the uppercased field name. rcb=Method binds an
//	                explicit method.
func InitRegs(data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("hwio: InitRegs wants a pointer to struct, got %T", data)
	}

	sv := v.Elem()
	st := sv.Type()
	for i := range st.NumField() {
		field := st.Field(i)
		tag, ok := field.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		if !field.IsExported() {
			return fmt.Errorf("hwio: field %s.%s must be exported", st.Name(), field.Name)
		}
		opts, err := parseTag(tag)
		if err != nil {
			return fmt.Errorf("hwio: field %s.%s: %w", st.Name(), field.Name, err)
		}

		switch ptr := sv.Field(i).Addr().Interface().(type) {
		case *Mem:
			err = initMem(ptr, field.Name, opts)
		case *Device:
			err = initDevice(ptr, v, field.Name, opts)
		default:
			err = fmt.Errorf("unsupported type %s", field.Type)
		}
		if err != nil {
			return fmt.Errorf("hwio: field %s.%s: %w", st.Name(), field.Name, err)
		}
	}
	return nil
}

// MustInitRegs is like InitRegs but panics on error.
func MustInitRegs(data any) {
	if err := InitRegs(data); err != nil {
		panic(err)
	}
}

type tagOpts map[string]string

func parseTag(tag string) (tagOpts, error) {
	opts := make(tagOpts)
	for _, kv := range strings.Split(tag, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		if _, dup := opts[k]; dup {
			return nil, fmt.Errorf("duplicated option %q", k)
		}
		opts[k] = v
	}
	return opts, nil
}

func (o tagOpts) has(key string) bool {
	_, ok := o[key]
	return ok
}

func (o tagOpts) int(key string) (int, bool, error) {
	s, ok := o[key]
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, true, fmt.Errorf("option %s: %w", key, err)
	}
	return int(n), true, nil
}

func initMem(m *Mem, name string, opts tagOpts) error {
	size, ok, err := opts.int("size")
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("mem needs a size")
	}
	vsize, ok, err := opts.int("vsize")
	if err != nil {
		return err
	}
	if !ok {
		vsize = size
	}

	m.Name = name
	m.Data = make([]byte, size)
	m.VSize = vsize
	if opts.has("readonly") {
		m.Flags |= MemFlag8ReadOnly
	}
	return nil
}

func initDevice(d *Device, obj reflect.Value, name string, opts tagOpts) error {
	size, ok, err := opts.int("size")
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("device needs a size")
	}

	d.Name = name
	d.Size = size
	if opts.has("readonly") {
		d.Flags |= ReadOnlyFlag
	}
	if opts.has("writeonly") {
		d.Flags |= WriteOnlyFlag
	}

	upper := strings.ToUpper(name)
	if opts.has("rcb") {
		if err := bindMethod(obj, opts["rcb"], "Read"+upper, &d.ReadCb); err != nil {
			return err
		}
	}
	if opts.has("pcb") {
		if err := bindMethod(obj, opts["pcb"], "Peek"+upper, &d.PeekCb); err != nil {
			return err
		}
	}
	if opts.has("wcb") {
		if err := bindMethod(obj, opts["wcb"], "Write"+upper, &d.WriteCb); err != nil {
			return err
		}
	}
	return nil
}

// bindMethod stores in dst the method of obj called name, or defname when
// name is empty. dst is a pointer to a func variable of the expected
// signature.
func bindMethod(obj reflect.Value, name, defname string, dst any) error {
	if name == "" {
		name = defname
	}
	m := obj.MethodByName(name)
	if !m.IsValid() {
		return fmt.Errorf("missing method %s on %s", name, obj.Type())
	}

	dv := reflect.ValueOf(dst).Elem()
	if !m.Type().AssignableTo(dv.Type()) {
		return fmt.Errorf("method %s has signature %s, want %s", name, m.Type(), dv.Type())
	}
	dv.Set(m)
	return nil
}

type bankReg struct {
	offset uint16
	regPtr any
}

func bankGetRegs(bank any, bankNum int) ([]bankReg, error) {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("hwio: MapBank wants a pointer to struct, got %T", bank)
	}

	var regs []bankReg
	sv := v.Elem()
	st := sv.Type()
	for i := range st.NumField() {
		field := st.Field(i)
		tag, ok := field.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		opts, err := parseTag(tag)
		if err != nil {
			return nil, err
		}
		offset, ok, err := opts.int("offset")
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		num, _, err := opts.int("bank")
		if err != nil {
			return nil, err
		}
		if num != bankNum {
			continue
		}
		regs = append(regs, bankReg{
			offset: uint16(offset),
			regPtr: sv.Field(i).Addr().Interface(),
		})
	}
	return regs, nil
}
