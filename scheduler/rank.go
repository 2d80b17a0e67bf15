package scheduler

import (
	"math"
	"math/rand"
	"sort"

	"github.com/vasilii314/batcher/config"
	"github.com/vasilii314/batcher/node"
)

// Candidates keeps the nodes that classify as targets.
func Candidates(nodes []node.Node, skill int, requireBackdoor bool) []node.Node {
	var candidates []node.Node
	for _, n := range nodes {
		if node.Classify(n, skill, requireBackdoor).IsTarget() {
			candidates = append(candidates, n)
		}
	}
	return candidates
}

// Score estimates money per second for one extraction cycle:
//
//	money * hack chance / cycle seconds
//
// optionally weighted by the fraction one hack thread removes.
func Score(n node.Node, byExtraction bool) float64 {
	cycle := n.CycleDuration().Seconds()
	if cycle <= 0 {
		return 0
	}
	score := n.Money * n.HackChance / cycle
	if byExtraction {
		score *= n.HackFraction
	}
	return score
}

// Rank returns candidates sorted by descending score. The input
// slice is left untouched.
func Rank(candidates []node.Node, byExtraction bool) []node.Node {
	ranked := make([]node.Node, len(candidates))
	copy(ranked, candidates)
	scores := make(map[string]float64, len(ranked))
	for _, n := range ranked {
		scores[n.Name] = Score(n, byExtraction)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].Name] > scores[ranked[j].Name]
	})
	return ranked
}

// Weight is the share a target claims of the total capacity:
//
//	(maxMoney * valueFraction)^moneyWeight / (1 + securityDelta)^securityWeight
func Weight(n node.Node, moneyWeight, securityWeight float64) float64 {
	if n.MaxMoney <= 0 {
		return 0
	}
	money := n.MaxMoney * n.ValueFraction()
	if money <= 0 {
		return 0
	}
	return math.Pow(money, moneyWeight) / math.Pow(1+n.SecurityDelta(), securityWeight)
}

// Select picks the targets of this cycle. Explicitly configured
// targets win when any of them is a candidate; otherwise multi mode
// takes the top ranked ones and single mode the best one.
func Select(cfg *config.Config, ranked, candidates []node.Node, workers int, rng *rand.Rand) []node.Node {
	var chosen []node.Node
	seen := make(map[string]bool)
	for _, name := range cfg.Targets {
		if seen[name] {
			continue
		}
		for _, c := range candidates {
			if c.Name == name {
				chosen = append(chosen, c)
				seen[name] = true
				break
			}
		}
	}
	if len(chosen) > 0 || len(ranked) == 0 {
		return chosen
	}

	order := ranked
	if cfg.Chaos && rng != nil {
		order = make([]node.Node, len(ranked))
		copy(order, ranked)
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	if !cfg.Multi {
		return order[:1]
	}
	count := cfg.MultiCount
	if count <= 0 {
		count = int(math.Ceil(float64(workers) / 3))
	}
	if count < 1 {
		count = 1
	}
	if count > len(order) {
		count = len(order)
	}
	return order[:count]
}
