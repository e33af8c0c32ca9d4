package metrics

// Label is the structural classification attached to every node once
// the crawl finalizes.
type Label string

const (
	LabelHub       Label = "hub"
	LabelAuthority Label = "authority"
	LabelLeaf      Label = "leaf"
	LabelIsolated  Label = "isolated"
	LabelOrdinary  Label = "ordinary"
	LabelUnvisited Label = "unvisited"
)

// RankParam carries the PageRank tuning knobs.
type RankParam struct {
	damping    float64
	iterations int
	epsilon    float64
}

func NewRankParam(damping float64, iterations int, epsilon float64) RankParam {
	return RankParam{
		damping:    damping,
		iterations: iterations,
		epsilon:    epsilon,
	}
}

func (p RankParam) Damping() float64 {
	return p.damping
}

func (p RankParam) Iterations() int {
	return p.iterations
}

func (p RankParam) Epsilon() float64 {
	return p.epsilon
}

// ClassifyParam carries the percentile thresholds used to cut the
// degree and rank distributions into labels.
type ClassifyParam struct {
	hubPercentile       float64
	authorityPercentile float64
}

func NewClassifyParam(hubPercentile float64, authorityPercentile float64) ClassifyParam {
	return ClassifyParam{
		hubPercentile:       hubPercentile,
		authorityPercentile: authorityPercentile,
	}
}

func (p ClassifyParam) HubPercentile() float64 {
	return p.hubPercentile
}

func (p ClassifyParam) AuthorityPercentile() float64 {
	return p.authorityPercentile
}

// NodeMetrics is the per-node result of the analysis pass.
type NodeMetrics struct {
	Rank  float64
	Label Label
}
