package sim

// FieldDoc documents one field of the snapshot report.
type FieldDoc struct {
	Path        string `yaml:"path"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// SnapshotSchema is the statically declared shape of Snapshot.JSON().
// Drivers and other implementations consume this instead of reflecting on
// the Go types; keep it in step with snapshot.go.
var SnapshotSchema = []FieldDoc{
	{Path: "tick", Type: "int64", Description: "current simulation tick (number of ticks executed)"},
	{Path: "processes", Type: "array", Description: "every process ever submitted, ordered by id"},
	{Path: "processes[].id", Type: "int64", Description: "unique process id, assigned from 1, never reused"},
	{Path: "processes[].name", Type: "string", Description: "optional label from the submission"},
	{Path: "processes[].state", Type: "enum", Description: "one of created, ready, running, blocked, terminated"},
	{Path: "processes[].priority", Type: "int", Description: "scheduling priority, higher runs first under the priority policy"},
	{Path: "processes[].arrival_tick", Type: "int64", Description: "tick at which the process was submitted"},
	{Path: "processes[].remaining_work", Type: "int64", Description: "work units left before the process terminates"},
	{Path: "processes[].resources", Type: "map[string]int64", Description: "units currently held per resource kind; empty when terminated"},
	{Path: "resources", Type: "array", Description: "every configured resource kind, ordered by kind"},
	{Path: "resources[].kind", Type: "string", Description: "resource kind name"},
	{Path: "resources[].capacity", Type: "int64", Description: "total units, fixed at kernel construction"},
	{Path: "resources[].used", Type: "int64", Description: "units currently allocated, never above capacity"},
	{Path: "resources[].utilization", Type: "float64", Description: "used / capacity, 0 for a zero-capacity kind"},
}
