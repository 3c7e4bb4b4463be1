package farm

// reentrancyGuard rejects a mutating operation entered from within a token
// transfer or rewarder notification of another. The execution model is
// serialized, so a plain flag suffices; a mutex would deadlock on the very
// callback this guard exists to reject.
type reentrancyGuard struct {
	entered bool
}

func (g *reentrancyGuard) enter() error {
	if g.entered {
		return errReentrantCall
	}
	g.entered = true
	return nil
}

func (g *reentrancyGuard) exit() {
	g.entered = false
}
