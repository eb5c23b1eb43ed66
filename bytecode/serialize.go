package bytecode

// ToA serializes a closed sequence into the nested array format of
// RubyVM::InstructionSequence#to_a:
//
//	[magic, major, minor, format, misc, name, file, path, line, type,
//	 locals, params, catch_table, insns]
func (s *InstructionSequence) ToA() []any {
	if !s.closed {
		Fault(s.Name, "serializing an open instruction sequence")
	}
	dumped := make([]any, 0, len(s.insns))
	for _, e := range s.insns {
		switch v := e.(type) {
		case Instruction:
			dumped = append(dumped, v.ToA(s))
		case *Label:
			dumped = append(dumped, v.Symbol())
		case Line:
			dumped = append(dumped, int64(v))
		case Event:
			dumped = append(dumped, Symbol(v))
		}
	}
	catches := make([]any, len(s.CatchTable))
	for i, c := range s.CatchTable {
		catches[i] = c.ToA()
	}
	misc := Pairs{
		{Key: Symbol("arg_size"), Value: int64(s.ArgumentSize)},
		{Key: Symbol("local_size"), Value: int64(s.Locals.Size())},
		{Key: Symbol("stack_max"), Value: int64(s.stackMax)},
		{Key: Symbol("node_id"), Value: int64(-1)},
	}
	return []any{
		Magic,
		int64(MajorVersion),
		int64(MinorVersion),
		int64(FormatType),
		misc,
		s.Name,
		s.File,
		"<compiled>",
		int64(s.Line),
		Symbol(s.Type),
		s.Locals.Names(),
		s.Args.ToH(),
		catches,
		dumped,
	}
}

// ToH serializes the parameter shape, listing only the keys that apply.
func (a ArgumentOptions) ToH() Pairs {
	var out Pairs
	add := func(key string, value any) {
		out = append(out, Pair{Key: Symbol(key), Value: value})
	}
	if a.LeadNum >= 0 {
		add("lead_num", int64(a.LeadNum))
	}
	if len(a.Opt) > 0 {
		labels := make([]any, len(a.Opt))
		for i, l := range a.Opt {
			labels[i] = l.Symbol()
		}
		add("opt", labels)
	}
	if a.RestStart >= 0 {
		add("rest_start", int64(a.RestStart))
	}
	if a.PostStart >= 0 {
		add("post_start", int64(a.PostStart))
	}
	if a.PostNum >= 0 {
		add("post_num", int64(a.PostNum))
	}
	if a.KwBits >= 0 {
		add("kwbits", int64(a.KwBits))
	}
	if a.Keyword != nil {
		add("keyword", a.Keyword)
	}
	if a.KwRest >= 0 {
		add("kwrest", int64(a.KwRest))
	}
	if a.BlockStart >= 0 {
		add("block_start", int64(a.BlockStart))
	}
	if a.AmbiguousParam0 {
		add("ambiguous_param0", true)
	}
	if out == nil {
		out = Pairs{}
	}
	return out
}
