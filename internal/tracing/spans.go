package tracing

const (
	AttrTaskName   = "loop.task"
	AttrPanicValue = "panic.value"

	SpanPrefixTask = "loop.task."

	EventTaskPanicked = "task.panicked"
)
