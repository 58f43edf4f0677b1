package metrics

const (
	LabelMessage    = "message"
	LabelReason     = "reason"
	LabelCheckpoint = "checkpoint"
)

const (
	namespaceFinality = "finality"
)

const (
	subsystemSync   = "sync"
	subsystemImport = "import"
)
