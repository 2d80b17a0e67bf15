package node

type Role int

const (
	Neither Role = iota
	Worker
	Target
	Both
)

func (r Role) String() string {
	switch r {
	case Worker:
		return "worker"
	case Target:
		return "target"
	case Both:
		return "both"
	default:
		return "neither"
	}
}

// IsWorker reports whether a server with role r can run jobs.
func (r Role) IsWorker() bool {
	return r == Worker || r == Both
}

// IsTarget reports whether a server with role r can be hacked.
func (r Role) IsTarget() bool {
	return r == Target || r == Both
}

// Classify derives the role of n once per scan.
//
// A target has money, is within the player's skill and is rooted
// (and backdoored when requireBackdoor is set). A worker is rooted
// and has RAM.
func Classify(n Node, skill int, requireBackdoor bool) Role {
	target := n.MaxMoney > 0 && n.RequiredSkill <= skill && n.Admin &&
		(!requireBackdoor || n.Backdoor)
	worker := n.MaxRam > 0 && n.Admin
	switch {
	case target && worker:
		return Both
	case target:
		return Target
	case worker:
		return Worker
	default:
		return Neither
	}
}
