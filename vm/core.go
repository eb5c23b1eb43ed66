package vm

// ---------------------------------------------------------------------------
// FrozenCore: the receiver of core# calls the compiler emits
// ---------------------------------------------------------------------------

func (vm *VM) registerCorePrimitives() {
	c := vm.core.class

	c.AddMethodN("core#set_method_alias", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 3, 3)
		vm.aliasMethod(vm.moduleOf(args[0]), vm.name(args[1]), vm.name(args[2]))
		return nil
	})
	c.AddMethodN("core#set_variable_alias", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 2, 2)
		newName, old := vm.name(args[0]), vm.name(args[1])
		vm.aliases[newName] = vm.resolveGlobal(old)
		log.Debugf("aliased %s to %s", newName, old)
		return nil
	})
	c.AddMethodN("core#undef_method", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 2, 2)
		vm.undefMethod(vm.moduleOf(args[0]), vm.name(args[1]))
		return nil
	})
	c.AddMethodN("core#define_method", func(vm *VM, _ Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 2, 3)
		return vm.defineProcMethod(vm.moduleOf(args[0]), vm.name(args[1]), arg(args, 2, nil), blk)
	})
	c.AddMethodN("core#define_singleton_method", func(vm *VM, _ Value, args []Value, blk *Proc) Value {
		vm.checkArgs(args, 2, 3)
		return vm.defineProcMethod(vm.singletonClass(args[0]), vm.name(args[1]), arg(args, 2, nil), blk)
	})
	c.AddMethodN("core#set_postexe", func(vm *VM, _ Value, _ []Value, blk *Proc) Value {
		vm.postExe = append(vm.postExe, vm.requireBlock(blk))
		return nil
	})
	c.AddMethodN("core#hash_merge_ptr", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, -1)
		h := vm.toHash(args[0])
		if len(args)%2 == 0 {
			vm.raiseError("ArgumentError", "odd number of arguments for Hash")
		}
		for i := 1; i < len(args); i += 2 {
			h.Set(args[i], args[i+1])
		}
		return h
	})
	c.AddMethodN("core#hash_merge_kwd", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 2, 2)
		h := vm.toHash(args[0])
		if args[1] == nil {
			return h
		}
		other, ok := args[1].(*Hash)
		if !ok {
			other, ok = vm.Send(args[1], "to_hash").(*Hash)
			if !ok {
				vm.raiseError("TypeError", "no implicit conversion of %s into Hash", vm.typeName(args[1]))
			}
		}
		for _, e := range other.Entries() {
			h.Set(e.Key, e.Value)
		}
		return h
	})
	c.AddMethodN("core#lambda", func(vm *VM, _ Value, _ []Value, blk *Proc) Value {
		l := *vm.requireBlock(blk)
		l.Lambda = true
		return &l
	})
	c.aliasBuiltin("lambda", "core#lambda")
	c.AddMethodN("core#sprintf", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, -1)
		return NewString(vm.sprintf(vm.toStr(args[0]), args[1:]))
	})
	c.AddMethodN("core#make_shareable", func(vm *VM, _ Value, args []Value, _ *Proc) Value {
		vm.checkArgs(args, 1, 1)
		vm.deepFreeze(args[0])
		return args[0]
	})
}

// deepFreeze freezes v and everything reachable through its elements.
func (vm *VM) deepFreeze(v Value) {
	h, ok := v.(heapValue)
	if !ok || h.hdr().frozen {
		return
	}
	h.hdr().Freeze()
	switch x := v.(type) {
	case *Array:
		for _, e := range x.Elements {
			vm.deepFreeze(e)
		}
	case *Hash:
		for _, e := range x.Entries() {
			vm.deepFreeze(e.Key)
			vm.deepFreeze(e.Value)
		}
	case *Range:
		vm.deepFreeze(x.Begin)
		vm.deepFreeze(x.End)
	}
}
