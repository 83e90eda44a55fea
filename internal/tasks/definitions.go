package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	// Register loan engine tasks
	RegisterHandler(TaskDefaultSweep, DefaultSweepTask.HandleExecution)
	RegisterHandler(TaskBackfillBatch, BackfillBatchTask.HandleExecution)
}
