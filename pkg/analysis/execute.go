package analysis

import (
	"framecheck/pkg/jvm"

	"github.com/pkg/errors"
)

// Execute simulates insn on f, delegating value computations to interp.
// On error f is left in an unspecified state.
func (f *Frame) Execute(insn *jvm.Insn, interp Interpreter) error {
	switch op := insn.Op; op {
	case jvm.NOP, jvm.GOTO, jvm.RET:
		return nil

	case jvm.ACONST_NULL, jvm.ICONST_M1, jvm.ICONST_0, jvm.ICONST_1, jvm.ICONST_2,
		jvm.ICONST_3, jvm.ICONST_4, jvm.ICONST_5, jvm.LCONST_0, jvm.LCONST_1,
		jvm.FCONST_0, jvm.FCONST_1, jvm.FCONST_2, jvm.DCONST_0, jvm.DCONST_1,
		jvm.BIPUSH, jvm.SIPUSH, jvm.LDC, jvm.JSR, jvm.GETSTATIC, jvm.NEW:
		return f.pushResult(interp.NewOperation(insn))

	case jvm.ILOAD, jvm.LLOAD, jvm.FLOAD, jvm.DLOAD, jvm.ALOAD:
		local, err := f.Local(insn.Var)
		if err != nil {
			return err
		}
		return f.pushResult(interp.CopyOperation(insn, local))

	case jvm.ISTORE, jvm.LSTORE, jvm.FSTORE, jvm.DSTORE, jvm.ASTORE:
		return f.executeStore(insn, interp)

	case jvm.IINC:
		local, err := f.Local(insn.Var)
		if err != nil {
			return err
		}
		v, err := interp.UnaryOperation(insn, local)
		if err != nil {
			return err
		}
		return f.SetLocal(insn.Var, v)

	case jvm.IALOAD, jvm.LALOAD, jvm.FALOAD, jvm.DALOAD, jvm.AALOAD, jvm.BALOAD, jvm.CALOAD, jvm.SALOAD,
		jvm.IADD, jvm.LADD, jvm.FADD, jvm.DADD, jvm.ISUB, jvm.LSUB, jvm.FSUB, jvm.DSUB,
		jvm.IMUL, jvm.LMUL, jvm.FMUL, jvm.DMUL, jvm.IDIV, jvm.LDIV, jvm.FDIV, jvm.DDIV,
		jvm.IREM, jvm.LREM, jvm.FREM, jvm.DREM, jvm.ISHL, jvm.LSHL, jvm.ISHR, jvm.LSHR,
		jvm.IUSHR, jvm.LUSHR, jvm.IAND, jvm.LAND, jvm.IOR, jvm.LOR, jvm.IXOR, jvm.LXOR,
		jvm.LCMP, jvm.FCMPL, jvm.FCMPG, jvm.DCMPL, jvm.DCMPG:
		v1, v2, err := f.pop2()
		if err != nil {
			return err
		}
		return f.pushResult(interp.BinaryOperation(insn, v1, v2))

	case jvm.IF_ICMPEQ, jvm.IF_ICMPNE, jvm.IF_ICMPLT, jvm.IF_ICMPGE, jvm.IF_ICMPGT, jvm.IF_ICMPLE,
		jvm.IF_ACMPEQ, jvm.IF_ACMPNE, jvm.PUTFIELD:
		v1, v2, err := f.pop2()
		if err != nil {
			return err
		}
		_, err = interp.BinaryOperation(insn, v1, v2)
		return err

	case jvm.IASTORE, jvm.LASTORE, jvm.FASTORE, jvm.DASTORE, jvm.AASTORE, jvm.BASTORE, jvm.CASTORE, jvm.SASTORE:
		v3, err := f.Pop()
		if err != nil {
			return err
		}
		v1, v2, err := f.pop2()
		if err != nil {
			return err
		}
		_, err = interp.TernaryOperation(insn, v1, v2, v3)
		return err

	case jvm.POP, jvm.POP2, jvm.DUP, jvm.DUP_X1, jvm.DUP_X2, jvm.DUP2, jvm.DUP2_X1, jvm.DUP2_X2, jvm.SWAP:
		return f.executeStackOp(insn, interp)

	case jvm.INEG, jvm.LNEG, jvm.FNEG, jvm.DNEG,
		jvm.I2L, jvm.I2F, jvm.I2D, jvm.L2I, jvm.L2F, jvm.L2D, jvm.F2I, jvm.F2L, jvm.F2D,
		jvm.D2I, jvm.D2L, jvm.D2F, jvm.I2B, jvm.I2C, jvm.I2S,
		jvm.GETFIELD, jvm.NEWARRAY, jvm.ANEWARRAY, jvm.ARRAYLENGTH, jvm.CHECKCAST, jvm.INSTANCEOF:
		v, err := f.Pop()
		if err != nil {
			return err
		}
		return f.pushResult(interp.UnaryOperation(insn, v))

	case jvm.IFEQ, jvm.IFNE, jvm.IFLT, jvm.IFGE, jvm.IFGT, jvm.IFLE,
		jvm.TABLESWITCH, jvm.LOOKUPSWITCH, jvm.PUTSTATIC, jvm.ATHROW,
		jvm.MONITORENTER, jvm.MONITOREXIT, jvm.IFNULL, jvm.IFNONNULL:
		v, err := f.Pop()
		if err != nil {
			return err
		}
		_, err = interp.UnaryOperation(insn, v)
		return err

	case jvm.IRETURN, jvm.LRETURN, jvm.FRETURN, jvm.DRETURN, jvm.ARETURN:
		v, err := f.Pop()
		if err != nil {
			return err
		}
		if _, err := interp.UnaryOperation(insn, v); err != nil {
			return err
		}
		return interp.ReturnOperation(insn, v, f.ret)

	case jvm.RETURN:
		if f.ret != nil {
			return errors.New("incompatible return type")
		}
		return nil

	case jvm.INVOKEVIRTUAL, jvm.INVOKESPECIAL, jvm.INVOKESTATIC, jvm.INVOKEINTERFACE, jvm.INVOKEDYNAMIC:
		return f.executeInvoke(insn, interp)

	case jvm.MULTIANEWARRAY:
		values := make([]Value, insn.Operand)
		for i := insn.Operand - 1; i >= 0; i-- {
			v, err := f.Pop()
			if err != nil {
				return err
			}
			values[i] = v
		}
		return f.pushResult(interp.NaryOperation(insn, values))

	default:
		return errors.Errorf("illegal opcode %s", op)
	}
}

// pushResult pushes the result of an interpreter operation, forwarding its error.
func (f *Frame) pushResult(v Value, err error) error {
	if err != nil {
		return err
	}

	return f.Push(v)
}

// pop2 pops two values and returns them bottom first.
func (f *Frame) pop2() (Value, Value, error) {
	v2, err := f.Pop()
	if err != nil {
		return nil, nil, err
	}

	v1, err := f.Pop()
	if err != nil {
		return nil, nil, err
	}

	return v1, v2, nil
}

func (f *Frame) executeStore(insn *jvm.Insn, interp Interpreter) error {
	top, err := f.Pop()
	if err != nil {
		return err
	}

	v, err := interp.CopyOperation(insn, top)
	if err != nil {
		return err
	}

	idx := insn.Var
	if err := f.SetLocal(idx, v); err != nil {
		return err
	}

	if v.Size() == 2 {
		if err := f.SetLocal(idx+1, interp.NewValue(nil)); err != nil {
			return err
		}
	}

	// storing into the second half of a wide value invalidates it
	if idx > 0 {
		if prev := f.locals[idx-1]; prev != nil && prev.Size() == 2 {
			f.locals[idx-1] = interp.NewValue(nil)
		}
	}

	return nil
}

func (f *Frame) executeInvoke(insn *jvm.Insn, interp Interpreter) error {
	args, ret, err := jvm.ParseMethodType(insn.Desc)
	if err != nil {
		return err
	}

	n := len(args)
	if insn.Op != jvm.INVOKESTATIC && insn.Op != jvm.INVOKEDYNAMIC {
		n++
	}

	values := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := f.Pop()
		if err != nil {
			return err
		}
		values[i] = v
	}

	v, err := interp.NaryOperation(insn, values)
	if err != nil {
		return err
	}

	if ret.Sort() == jvm.SortVoid {
		return nil
	}

	return f.Push(v)
}

// executeStackOp handles the untyped stack shuffles, which only constrain
// the size category of the values they move.
func (f *Frame) executeStackOp(insn *jvm.Insn, interp Interpreter) error {
	illegal := errors.Errorf("illegal use of %s", insn.Op)

	// values popped so far, top first
	var popped []Value
	pop := func() (Value, error) {
		v, err := f.Pop()
		if err == nil {
			popped = append(popped, v)
		}
		return v, err
	}

	// push copies of the given values, then the popped values back in order
	restore := func(copies ...Value) error {
		for _, c := range copies {
			dup, err := interp.CopyOperation(insn, c)
			if err != nil {
				return err
			}
			if err := f.Push(dup); err != nil {
				return err
			}
		}
		for i := len(popped) - 1; i >= 0; i-- {
			if err := f.Push(popped[i]); err != nil {
				return err
			}
		}
		return nil
	}

	v1, err := pop()
	if err != nil {
		return err
	}

	switch insn.Op {
	case jvm.POP:
		if v1.Size() == 2 {
			return illegal
		}
		return nil

	case jvm.POP2:
		if v1.Size() == 1 {
			v2, err := f.Pop()
			if err != nil {
				return err
			}
			if v2.Size() != 1 {
				return illegal
			}
		}
		return nil

	case jvm.DUP:
		if v1.Size() != 1 {
			return illegal
		}
		return restore(v1)

	case jvm.DUP_X1:
		v2, err := pop()
		if err != nil {
			return err
		}
		if v1.Size() != 1 || v2.Size() != 1 {
			return illegal
		}
		return restore(v1)

	case jvm.DUP_X2:
		if v1.Size() != 1 {
			return illegal
		}
		v2, err := pop()
		if err != nil {
			return err
		}
		if v2.Size() == 1 {
			v3, err := pop()
			if err != nil {
				return err
			}
			if v3.Size() != 1 {
				return illegal
			}
		}
		return restore(v1)

	case jvm.DUP2:
		if v1.Size() == 2 {
			return restore(v1)
		}
		v2, err := pop()
		if err != nil {
			return err
		}
		if v2.Size() != 1 {
			return illegal
		}
		// v2 v1 -> v2 v1 v2 v1
		if err := restore(); err != nil {
			return err
		}
		popped = nil
		return restore(v2, v1)

	case jvm.DUP2_X1:
		if v1.Size() == 2 {
			v2, err := pop()
			if err != nil {
				return err
			}
			if v2.Size() != 1 {
				return illegal
			}
			return restore(v1)
		}
		v2, err := pop()
		if err != nil {
			return err
		}
		v3, err := pop()
		if err != nil {
			return err
		}
		if v2.Size() != 1 || v3.Size() != 1 {
			return illegal
		}
		return restore(v2, v1)

	case jvm.DUP2_X2:
		if v1.Size() == 2 {
			v2, err := pop()
			if err != nil {
				return err
			}
			if v2.Size() == 1 {
				v3, err := pop()
				if err != nil {
					return err
				}
				if v3.Size() != 1 {
					return illegal
				}
			}
			return restore(v1)
		}
		v2, err := pop()
		if err != nil {
			return err
		}
		if v2.Size() != 1 {
			return illegal
		}
		v3, err := pop()
		if err != nil {
			return err
		}
		if v3.Size() == 1 {
			v4, err := pop()
			if err != nil {
				return err
			}
			if v4.Size() != 1 {
				return illegal
			}
		}
		return restore(v2, v1)

	case jvm.SWAP:
		v2, err := f.Pop()
		if err != nil {
			return err
		}
		if v1.Size() != 1 || v2.Size() != 1 {
			return illegal
		}
		popped = nil
		return restore(v1, v2)
	}

	return illegal
}
