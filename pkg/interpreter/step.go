package interpreter

import (
	"framecheck/pkg/analysis"
	"framecheck/pkg/jvm"

	"github.com/pkg/errors"
)

// NewOperation computes the value pushed by constants, ldc, jsr, getstatic
// and new.
func (i *Interpreter) NewOperation(insn *jvm.Insn) (analysis.Value, error) {
	switch insn.Op {
	case jvm.ACONST_NULL:
		if i.Verifying() {
			return Ref(nullType), nil
		}
		return Reference, nil

	case jvm.ICONST_M1, jvm.ICONST_0, jvm.ICONST_1, jvm.ICONST_2, jvm.ICONST_3, jvm.ICONST_4, jvm.ICONST_5,
		jvm.BIPUSH, jvm.SIPUSH:
		return Int, nil

	case jvm.LCONST_0, jvm.LCONST_1:
		return Long, nil

	case jvm.FCONST_0, jvm.FCONST_1, jvm.FCONST_2:
		return Float, nil

	case jvm.DCONST_0, jvm.DCONST_1:
		return Double, nil

	case jvm.LDC:
		return i.ldcValue(insn.Const)

	case jvm.JSR:
		return ReturnAddress, nil

	case jvm.GETSTATIC:
		return i.fieldValue(insn.Desc)

	case jvm.NEW:
		return i.typed(jvm.ObjectType(insn.Desc)), nil

	default:
		return nil, errors.Errorf("unexpected %s", insn.Op)
	}
}

func (i *Interpreter) ldcValue(c any) (analysis.Value, error) {
	switch v := c.(type) {
	case int, int32:
		return Int, nil
	case float32:
		return Float, nil
	case int64:
		return Long, nil
	case float64:
		return Double, nil
	case string:
		return i.typed(jvm.ObjectType("java/lang/String")), nil
	case jvm.Type:
		switch v.Sort() {
		case jvm.SortObject, jvm.SortArray:
			return i.typed(jvm.ObjectType("java/lang/Class")), nil
		case jvm.SortMethod:
			return i.typed(jvm.ObjectType("java/lang/invoke/MethodType")), nil
		}
	}

	return nil, errors.Errorf("illegal LDC value %v", c)
}

// fieldValue returns the value held by a field of type desc.
func (i *Interpreter) fieldValue(desc string) (Value, error) {
	t, err := jvm.ParseType(desc)
	if err != nil {
		return Value{}, err
	}
	if t.Sort() == jvm.SortVoid {
		return Value{}, errors.Errorf("invalid field descriptor %s", desc)
	}

	return i.NewValue(&t).(Value), nil
}

// CopyOperation checks the value moved by loads, stores and the dup family.
func (i *Interpreter) CopyOperation(insn *jvm.Insn, v analysis.Value) (analysis.Value, error) {
	var err error
	switch insn.Op {
	case jvm.ILOAD, jvm.ISTORE:
		err = i.check(v, Int)
	case jvm.LLOAD, jvm.LSTORE:
		err = i.check(v, Long)
	case jvm.FLOAD, jvm.FSTORE:
		err = i.check(v, Float)
	case jvm.DLOAD, jvm.DSTORE:
		err = i.check(v, Double)
	case jvm.ALOAD:
		err = i.checkReference(v)
	case jvm.ASTORE:
		// astore also spills the return address pushed by jsr
		if val, ok := v.(Value); !ok || val != ReturnAddress {
			if i.checkReference(v) != nil {
				err = mismatch("an object reference or a return address", v)
			}
		}
	}
	if err != nil {
		return nil, err
	}

	return v, nil
}

// UnaryOperation covers instructions consuming one value.
func (i *Interpreter) UnaryOperation(insn *jvm.Insn, v analysis.Value) (analysis.Value, error) {
	var err error
	switch insn.Op {
	case jvm.INEG, jvm.IINC, jvm.I2F, jvm.I2L, jvm.I2D, jvm.I2B, jvm.I2C, jvm.I2S,
		jvm.IFEQ, jvm.IFNE, jvm.IFLT, jvm.IFGE, jvm.IFGT, jvm.IFLE,
		jvm.TABLESWITCH, jvm.LOOKUPSWITCH, jvm.IRETURN, jvm.NEWARRAY, jvm.ANEWARRAY:
		err = i.check(v, Int)
	case jvm.FNEG, jvm.F2I, jvm.F2L, jvm.F2D, jvm.FRETURN:
		err = i.check(v, Float)
	case jvm.LNEG, jvm.L2I, jvm.L2F, jvm.L2D, jvm.LRETURN:
		err = i.check(v, Long)
	case jvm.DNEG, jvm.D2I, jvm.D2F, jvm.D2L, jvm.DRETURN:
		err = i.check(v, Double)
	case jvm.GETFIELD:
		err = i.check(v, i.typed(jvm.ObjectType(insn.Owner)))
	case jvm.ARRAYLENGTH:
		err = i.checkArray(v)
	case jvm.CHECKCAST, jvm.ARETURN, jvm.ATHROW, jvm.INSTANCEOF,
		jvm.MONITORENTER, jvm.MONITOREXIT, jvm.IFNULL, jvm.IFNONNULL:
		err = i.checkReference(v)
	case jvm.PUTSTATIC:
		var expected Value
		if expected, err = i.fieldValue(insn.Desc); err == nil {
			err = i.check(v, expected)
		}
	}
	if err != nil {
		return nil, err
	}

	switch insn.Op {
	case jvm.INEG, jvm.IINC, jvm.L2I, jvm.F2I, jvm.D2I, jvm.I2B, jvm.I2C, jvm.I2S,
		jvm.ARRAYLENGTH, jvm.INSTANCEOF:
		return Int, nil

	case jvm.FNEG, jvm.I2F, jvm.L2F, jvm.D2F:
		return Float, nil

	case jvm.LNEG, jvm.I2L, jvm.F2L, jvm.D2L:
		return Long, nil

	case jvm.DNEG, jvm.I2D, jvm.L2D, jvm.F2D:
		return Double, nil

	case jvm.GETFIELD:
		return i.fieldValue(insn.Desc)

	case jvm.NEWARRAY:
		elem, ok := primitiveArrays[insn.Operand]
		if !ok {
			return nil, errors.Errorf("invalid array type %d", insn.Operand)
		}
		return i.typed(jvm.ArrayOf(elem, 1)), nil

	case jvm.ANEWARRAY:
		return i.typed(jvm.ArrayOf(jvm.ObjectType(insn.Desc), 1)), nil

	case jvm.CHECKCAST:
		return i.typed(jvm.ObjectType(insn.Desc)), nil

	default:
		// branches, returns, athrow, monitors and putstatic produce nothing
		return nil, nil
	}
}

var primitiveArrays = map[int]jvm.Type{
	jvm.T_BOOLEAN: jvm.BooleanType,
	jvm.T_CHAR:    jvm.CharType,
	jvm.T_FLOAT:   jvm.FloatType,
	jvm.T_DOUBLE:  jvm.DoubleType,
	jvm.T_BYTE:    jvm.ByteType,
	jvm.T_SHORT:   jvm.ShortType,
	jvm.T_INT:     jvm.IntType,
	jvm.T_LONG:    jvm.LongType,
}

// BinaryOperation covers array loads, arithmetic, comparisons and putfield.
func (i *Interpreter) BinaryOperation(insn *jvm.Insn, v1, v2 analysis.Value) (analysis.Value, error) {
	if err := i.checkBinary(insn, v1, v2); err != nil {
		return nil, err
	}

	switch insn.Op {
	case jvm.IALOAD, jvm.BALOAD, jvm.CALOAD, jvm.SALOAD,
		jvm.IADD, jvm.ISUB, jvm.IMUL, jvm.IDIV, jvm.IREM, jvm.ISHL, jvm.ISHR, jvm.IUSHR,
		jvm.IAND, jvm.IOR, jvm.IXOR,
		jvm.LCMP, jvm.FCMPL, jvm.FCMPG, jvm.DCMPL, jvm.DCMPG:
		return Int, nil

	case jvm.FALOAD, jvm.FADD, jvm.FSUB, jvm.FMUL, jvm.FDIV, jvm.FREM:
		return Float, nil

	case jvm.LALOAD, jvm.LADD, jvm.LSUB, jvm.LMUL, jvm.LDIV, jvm.LREM,
		jvm.LSHL, jvm.LSHR, jvm.LUSHR, jvm.LAND, jvm.LOR, jvm.LXOR:
		return Long, nil

	case jvm.DALOAD, jvm.DADD, jvm.DSUB, jvm.DMUL, jvm.DDIV, jvm.DREM:
		return Double, nil

	case jvm.AALOAD:
		return i.elementValue(v1), nil

	default:
		// conditional jumps and putfield produce nothing
		return nil, nil
	}
}

func (i *Interpreter) checkBinary(insn *jvm.Insn, v1, v2 analysis.Value) error {
	if !i.Verifying() {
		return nil
	}

	var e1, e2 Value
	switch insn.Op {
	case jvm.IALOAD, jvm.BALOAD, jvm.CALOAD, jvm.SALOAD, jvm.LALOAD, jvm.FALOAD, jvm.DALOAD, jvm.AALOAD:
		e1, e2 = i.arrayOf(insn.Op, v1), Int
	case jvm.IADD, jvm.ISUB, jvm.IMUL, jvm.IDIV, jvm.IREM, jvm.ISHL, jvm.ISHR, jvm.IUSHR,
		jvm.IAND, jvm.IOR, jvm.IXOR,
		jvm.IF_ICMPEQ, jvm.IF_ICMPNE, jvm.IF_ICMPLT, jvm.IF_ICMPGE, jvm.IF_ICMPGT, jvm.IF_ICMPLE:
		e1, e2 = Int, Int
	case jvm.FADD, jvm.FSUB, jvm.FMUL, jvm.FDIV, jvm.FREM, jvm.FCMPL, jvm.FCMPG:
		e1, e2 = Float, Float
	case jvm.LADD, jvm.LSUB, jvm.LMUL, jvm.LDIV, jvm.LREM, jvm.LAND, jvm.LOR, jvm.LXOR, jvm.LCMP:
		e1, e2 = Long, Long
	case jvm.LSHL, jvm.LSHR, jvm.LUSHR:
		e1, e2 = Long, Int
	case jvm.DADD, jvm.DSUB, jvm.DMUL, jvm.DDIV, jvm.DREM, jvm.DCMPL, jvm.DCMPG:
		e1, e2 = Double, Double
	case jvm.IF_ACMPEQ, jvm.IF_ACMPNE:
		if err := i.checkReference(v1); err != nil {
			return err
		}
		return i.checkReference(v2)
	case jvm.PUTFIELD:
		field, err := i.fieldValue(insn.Desc)
		if err != nil {
			return err
		}
		e1, e2 = i.typed(jvm.ObjectType(insn.Owner)), field
	default:
		return errors.Errorf("unexpected %s", insn.Op)
	}

	if err := i.check(v1, e1); err != nil {
		return err
	}

	return i.check(v2, e2)
}

// arrayOf returns the array value an array instruction expects. baload and
// bastore accept both boolean and byte arrays.
func (i *Interpreter) arrayOf(op jvm.Opcode, array analysis.Value) Value {
	var t jvm.Type
	switch op {
	case jvm.IALOAD, jvm.IASTORE:
		t = jvm.MustParseType("[I")
	case jvm.BALOAD, jvm.BASTORE:
		t = jvm.MustParseType("[B")
		if booleans := i.typed(jvm.MustParseType("[Z")); i.check(array, booleans) == nil {
			t = booleans.Type
		}
	case jvm.CALOAD, jvm.CASTORE:
		t = jvm.MustParseType("[C")
	case jvm.SALOAD, jvm.SASTORE:
		t = jvm.MustParseType("[S")
	case jvm.LALOAD, jvm.LASTORE:
		t = jvm.MustParseType("[J")
	case jvm.FALOAD, jvm.FASTORE:
		t = jvm.MustParseType("[F")
	case jvm.DALOAD, jvm.DASTORE:
		t = jvm.MustParseType("[D")
	default:
		t = jvm.ArrayOf(objectType, 1)
	}

	return i.typed(t)
}

// elementValue returns the value loaded by aaload from array.
func (i *Interpreter) elementValue(array analysis.Value) analysis.Value {
	if !i.Verifying() {
		return Reference
	}

	val := array.(Value)
	if val.isNull() {
		return val
	}

	return i.typed(val.Type.ComponentType())
}

// TernaryOperation checks the operands of array stores.
func (i *Interpreter) TernaryOperation(insn *jvm.Insn, v1, v2, v3 analysis.Value) (analysis.Value, error) {
	if !i.Verifying() {
		return nil, nil
	}

	var stored Value
	switch insn.Op {
	case jvm.IASTORE, jvm.BASTORE, jvm.CASTORE, jvm.SASTORE:
		stored = Int
	case jvm.LASTORE:
		stored = Long
	case jvm.FASTORE:
		stored = Float
	case jvm.DASTORE:
		stored = Double
	case jvm.AASTORE:
		// element compatibility is only known at run time
		stored = i.typed(objectType)
	default:
		return nil, errors.Errorf("unexpected %s", insn.Op)
	}

	if err := i.check(v1, i.arrayOf(insn.Op, v1)); err != nil {
		return nil, err
	}
	if err := i.check(v2, Int); err != nil {
		return nil, err
	}
	if err := i.check(v3, stored); err != nil {
		return nil, err
	}

	return nil, nil
}

// NaryOperation covers invocations and multianewarray.
func (i *Interpreter) NaryOperation(insn *jvm.Insn, values []analysis.Value) (analysis.Value, error) {
	if insn.Op == jvm.MULTIANEWARRAY {
		for _, v := range values {
			if err := i.check(v, Int); err != nil {
				return nil, err
			}
		}
		t, err := jvm.ParseType(insn.Desc)
		if err != nil {
			return nil, err
		}
		if t.Sort() != jvm.SortArray || t.Dimensions() < len(values) {
			return nil, errors.Errorf("invalid array descriptor %s", insn.Desc)
		}
		return i.NewValue(&t), nil
	}

	args, ret, err := jvm.ParseMethodType(insn.Desc)
	if err != nil {
		return nil, err
	}

	if i.Verifying() {
		n := 0
		if insn.Op != jvm.INVOKESTATIC && insn.Op != jvm.INVOKEDYNAMIC {
			if err := i.check(values[0], i.typed(jvm.ObjectType(insn.Owner))); err != nil {
				return nil, errors.Wrap(err, "method owner")
			}
			n++
		}
		for k, arg := range args {
			if err := i.check(values[n+k], i.typed(arg)); err != nil {
				return nil, errors.Wrapf(err, "argument %d", k)
			}
		}
	}

	return i.NewValue(&ret), nil
}

// ReturnOperation checks a returned value against the method return type.
func (i *Interpreter) ReturnOperation(_ *jvm.Insn, v, expected analysis.Value) error {
	if expected == nil {
		return errors.New("incompatible return type")
	}

	if err := i.check(v, expected.(Value)); err != nil {
		return errors.Wrap(err, "incompatible return type")
	}

	return nil
}
