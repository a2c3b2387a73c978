package consts

const (
	// 研究报告图节点
	Researcher = "researcher"
	Tools      = "tools"
	Writer     = "writer"

	// 新闻分析图节点
	Gatherer    = "gatherer"
	NewsTools   = "news_tools"
	NewsAnalyst = "news_analyst"
)

// Graph names shown in debug tooling and trace metadata.
const (
	ResearchGraphName = "EquityGo-Research"
	NewsGraphName     = "EquityGo-News"
)

// Pipeline identifiers used by the CLI and the session store.
const (
	PipelineResearch = "research"
	PipelineNews     = "news"
)
