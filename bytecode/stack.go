package bytecode

// StackDepths replays a closed sequence and returns the depth after each
// instruction, using the same label rules as the builder, together with
// the maximum reached. It faults if the depth ever goes negative.
// Catch table exits are seeded first, since code that only a handler
// reaches may follow a transfer of control.
func StackDepths(s *InstructionSequence) (depths []int, max int) {
	current := 0
	recorded := make(map[*Label]int)
	for _, entry := range s.CatchTable {
		if _, ok := recorded[entry.ExitLabel]; !ok {
			recorded[entry.ExitLabel] = entry.ExitDepth()
		}
	}
	stopped := false
	for _, e := range s.insns {
		switch v := e.(type) {
		case *Label:
			if depth, ok := recorded[v]; !ok {
				recorded[v] = current
			} else {
				if stopped {
					current = depth
				}
				stopped = false
			}
		case Instruction:
			current -= v.Pops()
			if current < 0 {
				Fault(v.Name(), "stack underflow replaying %s", s.Name)
			}
			current += v.Pushes()
			if current > max {
				max = current
			}
			targets := v.BranchTargets()
			for _, t := range targets {
				if _, ok := recorded[t]; !ok {
					recorded[t] = current
				}
			}
			stopped = stopsFlow(v)
			depths = append(depths, current)
		}
	}
	return depths, max
}
