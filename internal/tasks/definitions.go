package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	// Register general tasks
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	// Register trip tasks
	RegisterHandler(CascadeRepairTask.TaskID(), CascadeRepairTask.HandleExecution)
	RegisterHandler(SettlementReminderTask.TaskID(), SettlementReminderTask.HandleExecution)
}
